// Package session owns the server-side session store: it issues, persists,
// refreshes and invalidates sessions, and notifies subscribers of
// session-change events.
package session

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gitgenie/gitgenie/internal/db"
	"github.com/gitgenie/gitgenie/internal/db/queries"
	"github.com/gitgenie/gitgenie/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrNoSession is returned when no live session exists.
var ErrNoSession = errors.New("no active session")

// Session is the credential bundle proving the user is authenticated. The
// provider token is the delegated GitHub credential used by the repository
// proxy.
type Session struct {
	ID            string
	UserID        string
	AccessToken   string
	ProviderToken string
	ExpiresAt     time.Time
}

// Claims are the JWT claims embedded in a session access token.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Store issues and persists sessions backed by the sqlite sessions table.
type Store struct {
	db     *sql.DB
	secret []byte
	ttl    time.Duration
	bus    *eventBus
}

// NewStore creates a session store. secret signs session access tokens.
func NewStore(database *sql.DB, secret string, ttl time.Duration) *Store {
	return &Store{
		db:     database,
		secret: []byte(secret),
		ttl:    ttl,
		bus:    newEventBus(),
	}
}

// Subscribe returns a channel of session-change events plus an unsubscribe
// function. The channel is closed on unsubscribe or store close.
func (s *Store) Subscribe() (<-chan Event, func()) {
	return s.bus.subscribe()
}

// Close tears down the event bus. The store is unusable afterwards.
func (s *Store) Close() {
	s.bus.close()
}

// SignIn issues a new session for the GitHub identity and publishes a
// SIGNED_IN event. The user id is stable across sign-ins: an existing
// profile row for the same GitHub account keeps its id.
func (s *Store) SignIn(identity *db.GithubUserInfo, providerToken, browserInfo string) (*Session, error) {
	userID, err := s.resolveUserID(identity)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.signAccessToken(userID, uuid.NewString())
	if err != nil {
		return nil, err
	}

	// The JWT above carries a placeholder session id; re-sign with the row id
	// once the row exists so sid always matches the sessions table.
	row, err := queries.CreateDBSession(s.db, userID, accessToken, providerToken, browserInfo, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("could not create session: %w", err)
	}

	accessToken, err = s.signAccessToken(userID, row.ID)
	if err != nil {
		return nil, err
	}
	if _, err := queries.UpdateSessionTokens(s.db, row.ID, accessToken, providerToken, s.ttl); err != nil {
		return nil, err
	}
	row.AccessToken = accessToken

	sess := rowToSession(row)
	logger.Info("User signed in", "user_id", userID, "session_id", sess.ID, "github_login", identity.Login)

	s.bus.publish(Event{Type: EventSignedIn, Session: sess, Identity: identity})
	return sess, nil
}

// Current returns the most recent live session, or ErrNoSession.
func (s *Store) Current() (*Session, error) {
	row, err := queries.GetCurrentSession(s.db)
	if err != nil {
		if errors.Is(err, queries.ErrSessionNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	return rowToSession(row), nil
}

// Refresh rotates the current session's access token, re-reads the stored
// provider token from the profile row (it may have rotated since sign-in)
// and publishes a TOKEN_REFRESHED event.
func (s *Store) Refresh() (*Session, error) {
	row, err := queries.GetCurrentSession(s.db)
	if err != nil {
		if errors.Is(err, queries.ErrSessionNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	providerToken := row.ProviderToken
	var identity *db.GithubUserInfo
	profile, err := queries.GetProfile(s.db, row.UserID)
	switch {
	case err == nil:
		providerToken = ProviderToken(rowToSession(row), profile)
		identity = profileIdentity(profile)
	case errors.Is(err, queries.ErrProfileNotFound):
		logger.Debug("No profile row during refresh, keeping session provider token", "user_id", row.UserID)
	default:
		return nil, err
	}

	accessToken, err := s.signAccessToken(row.UserID, row.ID)
	if err != nil {
		return nil, err
	}

	expires, err := queries.UpdateSessionTokens(s.db, row.ID, accessToken, providerToken, s.ttl)
	if err != nil {
		if errors.Is(err, queries.ErrSessionNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	expiresAt, _ := time.Parse(time.RFC3339, expires)
	sess := &Session{
		ID:            row.ID,
		UserID:        row.UserID,
		AccessToken:   accessToken,
		ProviderToken: providerToken,
		ExpiresAt:     expiresAt,
	}

	logger.Debug("Session refreshed", "session_id", sess.ID, "user_id", sess.UserID)
	s.bus.publish(Event{Type: EventTokenRefreshed, Session: sess, Identity: identity})
	return sess, nil
}

// SignOut invalidates the current session and publishes a SIGNED_OUT event.
func (s *Store) SignOut() error {
	row, err := queries.GetCurrentSession(s.db)
	if err != nil {
		if errors.Is(err, queries.ErrSessionNotFound) {
			return ErrNoSession
		}
		return err
	}

	if err := queries.InvalidateSession(s.db, row.ID); err != nil {
		return err
	}

	logger.Info("User signed out", "user_id", row.UserID, "session_id", row.ID)
	s.bus.publish(Event{Type: EventSignedOut})
	return nil
}

// Verify parses and validates a session access token and checks the backing
// session row is still live. Returns the owning user id and session id.
func (s *Store) Verify(accessToken string) (userID, sessionID string, err error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", "", fmt.Errorf("invalid access token: %w", err)
	}

	row, err := queries.GetSessionByID(s.db, claims.SessionID)
	if err != nil {
		if errors.Is(err, queries.ErrSessionNotFound) {
			return "", "", ErrNoSession
		}
		return "", "", err
	}

	expiresAt, err := time.Parse(time.RFC3339, row.Expires)
	if err != nil || !row.IsOnline || time.Now().After(expiresAt) {
		return "", "", ErrNoSession
	}

	return claims.Subject, claims.SessionID, nil
}

func (s *Store) signAccessToken(userID, sessionID string) (string, error) {
	claims := &Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("could not sign access token: %w", err)
	}
	return signed, nil
}

// resolveUserID keeps user ids stable across sign-ins by reusing the profile
// row id for a known GitHub account.
func (s *Store) resolveUserID(identity *db.GithubUserInfo) (string, error) {
	githubID := strconv.FormatInt(identity.ID, 10)
	profile, err := queries.GetProfileByGithubID(s.db, githubID)
	if err == nil {
		return profile.ID, nil
	}
	if errors.Is(err, queries.ErrProfileNotFound) {
		return uuid.NewString(), nil
	}
	return "", err
}

func rowToSession(row *db.SessionRow) *Session {
	expiresAt, _ := time.Parse(time.RFC3339, row.Expires)
	return &Session{
		ID:            row.ID,
		UserID:        row.UserID,
		AccessToken:   row.AccessToken,
		ProviderToken: row.ProviderToken,
		ExpiresAt:     expiresAt,
	}
}

func profileIdentity(profile *db.UserProfile) *db.GithubUserInfo {
	id, _ := strconv.ParseInt(profile.GithubID, 10, 64)
	return &db.GithubUserInfo{
		ID:        id,
		Login:     profile.Username,
		AvatarURL: profile.AvatarURL,
	}
}
