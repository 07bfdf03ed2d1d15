// Package proxy resolves the caller's identity from a session access token,
// looks up their stored GitHub token and forwards the repository query to
// the GitHub API. Stateless per call.
package proxy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gitgenie/gitgenie/internal/db/queries"
	"github.com/gitgenie/gitgenie/internal/github"
	"github.com/gitgenie/gitgenie/internal/session"
	"github.com/gitgenie/gitgenie/pkg/logger"
)

var (
	// ErrUnauthorized means the bearer credential did not resolve to a
	// live session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoProviderToken means the caller has no stored GitHub token.
	ErrNoProviderToken = errors.New("GitHub access token not found")
)

// Invoker is the request/response contract the fetch coordinator consumes.
type Invoker interface {
	Invoke(ctx context.Context, bearer, searchQuery string) ([]github.Repository, error)
}

// Service implements Invoker against the local profile table and the
// GitHub API.
type Service struct {
	database *sql.DB
	sessions *session.Store
	github   *github.Client
}

// NewService wires the proxy service.
func NewService(database *sql.DB, sessions *session.Store, client *github.Client) *Service {
	return &Service{database: database, sessions: sessions, github: client}
}

// Invoke resolves the caller, picks the endpoint from the search string and
// returns the normalized repository list. An empty search string yields the
// caller's own repositories; anything else runs a global search.
func (s *Service) Invoke(ctx context.Context, bearer, searchQuery string) ([]github.Repository, error) {
	userID, sessionID, err := s.sessions.Verify(bearer)
	if err != nil {
		logger.Debug("Proxy call with invalid credential", "error", err)
		return nil, ErrUnauthorized
	}

	profile, err := queries.GetProfile(s.database, userID)
	if err != nil && !errors.Is(err, queries.ErrProfileNotFound) {
		return nil, fmt.Errorf("could not load profile: %w", err)
	}

	row, err := queries.GetSessionByID(s.database, sessionID)
	if err != nil {
		if errors.Is(err, queries.ErrSessionNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("could not load session: %w", err)
	}

	token := session.ProviderToken(&session.Session{ProviderToken: row.ProviderToken}, profile)
	if token == "" {
		return nil, ErrNoProviderToken
	}

	logger.Debug("Proxying repository fetch", "user_id", userID, "session_id", sessionID, "search", searchQuery != "")

	if searchQuery != "" {
		return s.github.SearchRepos(ctx, token, searchQuery)
	}
	return s.github.UserRepos(ctx, token)
}
