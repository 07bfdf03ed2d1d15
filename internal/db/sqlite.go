package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gitgenie/gitgenie/internal/db/migrate"
	"github.com/gitgenie/gitgenie/pkg/logger"
	_ "modernc.org/sqlite"
)

const DBFilename = "sqlite.db"

// ensureDBDir ensures that the database directory exists.
func ensureDBDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Debug("Creating database directory", "dir", dir)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// checkDBFile checks if the database file exists and contains the required tables.
func checkDBFile(dbPath string) (bool, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		logger.Debug("Database file does not exist", "path", dbPath)
		return false, nil
	} else if err != nil {
		return false, err
	}

	database, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return false, fmt.Errorf("failed to open DB to check tables: %w", err)
	}
	defer database.Close()

	var tableCount int
	err = database.QueryRow("SELECT count(*) FROM sqlite_master WHERE type='table' AND name='user_profiles'").Scan(&tableCount)
	if err != nil {
		return false, fmt.Errorf("failed to check for user_profiles table: %w", err)
	}

	if tableCount == 0 {
		logger.Debug("Database file exists but user_profiles table is missing, will reinitialize")
		if err := os.Remove(dbPath); err != nil {
			return false, fmt.Errorf("failed to remove corrupted DB file: %w", err)
		}
		return false, nil
	}

	logger.Debug("Database file exists and contains required tables", "path", dbPath)
	return true, nil
}

// InitializeDB opens the sqlite database under dir, bootstrapping the
// schema when the file is missing or incomplete.
func InitializeDB(dir string) (*sql.DB, error) {
	logger.Debug("Initializing database")
	if err := ensureDBDir(dir); err != nil {
		return nil, fmt.Errorf("failed to ensure DB directory: %w", err)
	}

	dbPath := filepath.Join(dir, DBFilename)

	exists, err := checkDBFile(dbPath)
	if err != nil {
		return nil, err
	}

	database, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if !exists {
		logger.Info("Bootstrapping database schema", "path", dbPath)
		if err := migrate.Bootstrap(database); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to bootstrap database: %w", err)
		}
	}

	return database, nil
}

// CloseDB closes the database connection.
func CloseDB(database *sql.DB) error {
	if database == nil {
		return nil
	}
	logger.Debug("Closing database connection")
	return database.Close()
}
