package queries

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gitgenie/gitgenie/internal/db"
	"github.com/gitgenie/gitgenie/pkg/logger"
	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when no live session row exists.
var ErrSessionNotFound = errors.New("session not found")

// SessionQueries contains all SQL queries for session operations
type SessionQueries struct {
	InsertSession       string
	GetSessionByID      string
	GetCurrentSession   string
	UpdateSessionTokens string
	CheckSessionExists  string
	InvalidateSession   string
	InvalidateAll       string
}

// NewSessionQueries returns a new instance of SessionQueries
func NewSessionQueries() *SessionQueries {
	return &SessionQueries{
		InsertSession:       "INSERT INTO sessions (id, user_id, access_token, provider_token, browser_info, expires, is_online) VALUES (?, ?, ?, ?, ?, ?, ?)",
		GetSessionByID:      "SELECT id, user_id, access_token, provider_token, browser_info, expires, is_online FROM sessions WHERE id = ?",
		GetCurrentSession:   "SELECT id, user_id, access_token, provider_token, browser_info, expires, is_online FROM sessions WHERE is_online = 1 AND expires > ? ORDER BY expires DESC LIMIT 1",
		UpdateSessionTokens: "UPDATE sessions SET access_token = ?, provider_token = ?, expires = ? WHERE id = ?",
		CheckSessionExists:  "SELECT EXISTS(SELECT 1 FROM sessions WHERE id = ?)",
		InvalidateSession:   "UPDATE sessions SET is_online = 0 WHERE id = ?",
		InvalidateAll:       "UPDATE sessions SET is_online = 0 WHERE user_id = ?",
	}
}

// CreateDBSession creates a session row for the user.
func CreateDBSession(database *sql.DB, userID, accessToken, providerToken, browserInfo string, ttl time.Duration) (*db.SessionRow, error) {
	expireTime := time.Now().Add(ttl).UTC().Format(time.RFC3339)
	sessionID := uuid.NewString()

	_, err := database.Exec(
		NewSessionQueries().InsertSession,
		sessionID, userID, accessToken, providerToken, browserInfo, expireTime, true,
	)
	if err != nil {
		logger.Error("Failed to create session in database", "error", err, "session_id", sessionID, "user_id", userID)
		return nil, err
	}

	session := &db.SessionRow{
		ID:            sessionID,
		UserID:        userID,
		AccessToken:   accessToken,
		ProviderToken: providerToken,
		BrowserInfo:   browserInfo,
		Expires:       expireTime,
		IsOnline:      true,
	}

	logger.Debug("Session created", "session_id", sessionID, "user_id", userID, "expires", expireTime)
	return session, nil
}

// GetSessionByID returns the session row for an id, or ErrSessionNotFound.
func GetSessionByID(database *sql.DB, sessionID string) (*db.SessionRow, error) {
	row := &db.SessionRow{}
	err := database.QueryRow(NewSessionQueries().GetSessionByID, sessionID).Scan(
		&row.ID, &row.UserID, &row.AccessToken, &row.ProviderToken,
		&row.BrowserInfo, &row.Expires, &row.IsOnline,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("could not get session: %w", err)
	}
	return row, nil
}

// GetCurrentSession returns the most recent online, unexpired session row,
// or ErrSessionNotFound.
func GetCurrentSession(database *sql.DB) (*db.SessionRow, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	row := &db.SessionRow{}
	err := database.QueryRow(NewSessionQueries().GetCurrentSession, now).Scan(
		&row.ID, &row.UserID, &row.AccessToken, &row.ProviderToken,
		&row.BrowserInfo, &row.Expires, &row.IsOnline,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("could not get current session: %w", err)
	}
	return row, nil
}

// UpdateSessionTokens rotates the access token of an existing session and
// refreshes the provider token and expiry in place.
func UpdateSessionTokens(database *sql.DB, sessionID, accessToken, providerToken string, ttl time.Duration) (string, error) {
	expireTime := time.Now().Add(ttl).UTC().Format(time.RFC3339)
	res, err := database.Exec(NewSessionQueries().UpdateSessionTokens, accessToken, providerToken, expireTime, sessionID)
	if err != nil {
		return "", fmt.Errorf("could not update session tokens: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", ErrSessionNotFound
	}
	return expireTime, nil
}

// CheckDBSessionExists checks if a session row exists.
func CheckDBSessionExists(database *sql.DB, sessionID string) (bool, error) {
	var exists bool
	err := database.QueryRow(NewSessionQueries().CheckSessionExists, sessionID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("could not check if session exists: %w", err)
	}
	return exists, nil
}

// InvalidateSession marks a session offline.
func InvalidateSession(database *sql.DB, sessionID string) error {
	_, err := database.Exec(NewSessionQueries().InvalidateSession, sessionID)
	if err != nil {
		logger.Error("Failed to invalidate session", "error", err, "session_id", sessionID)
		return fmt.Errorf("could not invalidate session: %w", err)
	}
	logger.Debug("Session invalidated", "session_id", sessionID)
	return nil
}

// InvalidateUserSessions marks every session of a user offline.
func InvalidateUserSessions(database *sql.DB, userID string) error {
	_, err := database.Exec(NewSessionQueries().InvalidateAll, userID)
	if err != nil {
		return fmt.Errorf("could not invalidate user sessions: %w", err)
	}
	return nil
}
