package migrate

import (
	"database/sql"
	"fmt"
)

// CreateUserProfilesTable creates the 'user_profiles' table.
func CreateUserProfilesTable(db *sql.DB) error {
	createTableSQL := `
	CREATE TABLE user_profiles (
    id TEXT PRIMARY KEY,
    github_id TEXT,
    username TEXT,
    avatar_url TEXT,
    github_access_token TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	_, err := db.Exec(createTableSQL)
	if err != nil {
		return fmt.Errorf("failed to create user_profiles table: %v", err)
	}

	return nil
}

// CreateSessionsTable creates the 'sessions' table.
func CreateSessionsTable(db *sql.DB) error {
	createTableSQL := `
	CREATE TABLE sessions (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    access_token TEXT NOT NULL,
    provider_token TEXT,
    browser_info TEXT,
    expires TEXT NOT NULL,
    is_online BOOLEAN,
    FOREIGN KEY (user_id) REFERENCES user_profiles(id)
);`

	_, err := db.Exec(createTableSQL)
	if err != nil {
		return fmt.Errorf("failed to create sessions table: %v", err)
	}

	return nil
}

// Bootstrap creates all tables for a fresh database.
func Bootstrap(db *sql.DB) error {
	if err := CreateUserProfilesTable(db); err != nil {
		return err
	}
	if err := CreateSessionsTable(db); err != nil {
		return err
	}
	return nil
}
