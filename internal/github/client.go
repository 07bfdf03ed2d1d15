// Package github is a minimal client for the two repository endpoints the
// application needs: the caller's own repositories and global search.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gitgenie/gitgenie/pkg/logger"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.github.com"
	userAgent      = "Git-Genie-App"

	userReposPerPage = 100
	searchPerPage    = 30
)

// Repository is the normalized view entity shared by both endpoints.
type Repository struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	FullName        string `json:"full_name"`
	Description     string `json:"description"`
	HTMLURL         string `json:"html_url"`
	Language        string `json:"language"`
	StargazersCount int    `json:"stargazers_count"`
	ForksCount      int    `json:"forks_count"`
	UpdatedAt       string `json:"updated_at"`
	Private         bool   `json:"private"`
}

// APIError carries the HTTP status of a failed GitHub call.
type APIError struct {
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GitHub API error: %d", e.StatusCode)
}

// Client talks to the GitHub REST API. BaseURL is overridable for tests.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	limiter    *rate.Limiter
}

// NewClient returns a client with ambient timeouts and a small rate limiter
// to stay inside GitHub's secondary limits on bursts of searches.
func NewClient() *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5), 10),
	}
}

// UserRepos fetches the caller's own repository list, owned and collaborator
// alike, most recently updated first.
func (c *Client) UserRepos(ctx context.Context, token string) ([]Repository, error) {
	endpoint := fmt.Sprintf("%s/user/repos?sort=updated&per_page=%d&affiliation=owner,collaborator", c.BaseURL, userReposPerPage)

	var repos []Repository
	if err := c.get(ctx, endpoint, token, &repos); err != nil {
		return nil, err
	}
	logger.Debug("Fetched user repositories", "count", len(repos))
	return repos, nil
}

// SearchRepos runs a global repository search sorted by stars, descending.
func (c *Client) SearchRepos(ctx context.Context, token, query string) ([]Repository, error) {
	endpoint := fmt.Sprintf("%s/search/repositories?q=%s&sort=stars&order=desc&per_page=%d", c.BaseURL, url.QueryEscape(query), searchPerPage)

	var result struct {
		Items []Repository `json:"items"`
	}
	if err := c.get(ctx, endpoint, token, &result); err != nil {
		return nil, err
	}
	logger.Debug("Searched repositories", "query", query, "count", len(result.Items))
	return result.Items, nil
}

// User fetches the authenticated user's identity.
func (c *Client) User(ctx context.Context, token string) (*UserInfo, error) {
	var user UserInfo
	if err := c.get(ctx, c.BaseURL+"/user", token, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UserInfo is the subset of the GitHub user payload the application keeps.
type UserInfo struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	Email     string `json:"email"`
}

func (c *Client) get(ctx context.Context, endpoint, token string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "token "+token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		logger.Error("GitHub API request failed", "status", resp.StatusCode, "endpoint", endpoint, "body", string(body))
		return &APIError{StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not decode github response: %w", err)
	}
	return nil
}
