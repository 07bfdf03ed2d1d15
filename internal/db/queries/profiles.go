package queries

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gitgenie/gitgenie/internal/db"
	"github.com/gitgenie/gitgenie/pkg/logger"
)

// ErrProfileNotFound is returned when no profile row exists for a user id.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileQueries contains all SQL queries for profile operations
type ProfileQueries struct {
	UpsertProfile        string
	GetProfileByID       string
	GetProfileByGithubID string
	DeleteProfile        string
}

// NewProfileQueries returns a new instance of ProfileQueries
func NewProfileQueries() *ProfileQueries {
	return &ProfileQueries{
		UpsertProfile: `INSERT INTO user_profiles (id, github_id, username, avatar_url, github_access_token, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    github_id = excluded.github_id,
    username = excluded.username,
    avatar_url = excluded.avatar_url,
    github_access_token = excluded.github_access_token,
    updated_at = excluded.updated_at`,
		GetProfileByID:       "SELECT id, github_id, username, avatar_url, github_access_token, created_at, updated_at FROM user_profiles WHERE id = ?",
		GetProfileByGithubID: "SELECT id, github_id, username, avatar_url, github_access_token, created_at, updated_at FROM user_profiles WHERE github_id = ?",
		DeleteProfile:        "DELETE FROM user_profiles WHERE id = ?",
	}
}

// UpsertProfile inserts or overwrites the profile row keyed by user id.
// created_at is preserved on update, updated_at always refreshed.
func UpsertProfile(database *sql.DB, profile *db.UserProfile) error {
	now := time.Now().UTC().Format(time.RFC3339)
	createdAt := profile.CreatedAt
	if createdAt == "" {
		createdAt = now
	}

	_, err := database.Exec(
		NewProfileQueries().UpsertProfile,
		profile.ID, profile.GithubID, profile.Username, profile.AvatarURL,
		profile.GithubAccessToken, createdAt, now,
	)
	if err != nil {
		logger.Error("Failed to upsert profile", "error", err, "user_id", profile.ID)
		return fmt.Errorf("could not upsert profile: %w", err)
	}

	logger.Debug("Profile upserted", "user_id", profile.ID, "username", profile.Username)
	return nil
}

// GetProfile returns the profile row for a user id, or ErrProfileNotFound.
func GetProfile(database *sql.DB, userID string) (*db.UserProfile, error) {
	profile := &db.UserProfile{}
	err := database.QueryRow(NewProfileQueries().GetProfileByID, userID).Scan(
		&profile.ID, &profile.GithubID, &profile.Username, &profile.AvatarURL,
		&profile.GithubAccessToken, &profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("could not get profile: %w", err)
	}
	return profile, nil
}

// GetProfileByGithubID returns the profile row matching a GitHub account id,
// or ErrProfileNotFound.
func GetProfileByGithubID(database *sql.DB, githubID string) (*db.UserProfile, error) {
	profile := &db.UserProfile{}
	err := database.QueryRow(NewProfileQueries().GetProfileByGithubID, githubID).Scan(
		&profile.ID, &profile.GithubID, &profile.Username, &profile.AvatarURL,
		&profile.GithubAccessToken, &profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("could not get profile by github id: %w", err)
	}
	return profile, nil
}

// DeleteProfile removes the profile row for a user id.
func DeleteProfile(database *sql.DB, userID string) error {
	_, err := database.Exec(NewProfileQueries().DeleteProfile, userID)
	if err != nil {
		return fmt.Errorf("could not delete profile: %w", err)
	}
	return nil
}
