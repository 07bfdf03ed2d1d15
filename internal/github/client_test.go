package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient()
	client.BaseURL = srv.URL
	return client, srv
}

func TestUserRepos(t *testing.T) {
	var gotReq *http.Request
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 1, "name": "api-service", "full_name": "octocat/api-service",
			 "description": "REST API", "html_url": "https://github.com/octocat/api-service",
			 "language": "Go", "stargazers_count": 42, "forks_count": 7,
			 "updated_at": "2025-06-01T10:00:00Z", "private": true},
			{"id": 2, "name": "frontend", "full_name": "octocat/frontend",
			 "language": "TypeScript", "stargazers_count": 3, "forks_count": 0,
			 "updated_at": "2025-05-01T10:00:00Z", "private": false}
		]`))
	})
	defer srv.Close()

	repos, err := client.UserRepos(context.Background(), "gho_token")
	require.NoError(t, err)
	require.Len(t, repos, 2)

	assert.Equal(t, int64(1), repos[0].ID)
	assert.Equal(t, "api-service", repos[0].Name)
	assert.True(t, repos[0].Private)
	assert.Equal(t, 42, repos[0].StargazersCount)

	require.NotNil(t, gotReq)
	assert.Equal(t, "/user/repos", gotReq.URL.Path)
	q := gotReq.URL.Query()
	assert.Equal(t, "updated", q.Get("sort"))
	assert.Equal(t, "100", q.Get("per_page"))
	assert.Equal(t, "owner,collaborator", q.Get("affiliation"))
	assert.Equal(t, "token gho_token", gotReq.Header.Get("Authorization"))
	assert.Equal(t, "application/vnd.github.v3+json", gotReq.Header.Get("Accept"))
	assert.Equal(t, "Git-Genie-App", gotReq.Header.Get("User-Agent"))
}

func TestSearchRepos(t *testing.T) {
	var gotReq *http.Request
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total_count": 1, "items": [
			{"id": 99, "name": "awesome-go", "full_name": "avelino/awesome-go",
			 "stargazers_count": 100000}
		]}`))
	})
	defer srv.Close()

	repos, err := client.SearchRepos(context.Background(), "gho_token", "awesome go")
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "awesome-go", repos[0].Name)

	require.NotNil(t, gotReq)
	assert.Equal(t, "/search/repositories", gotReq.URL.Path)
	q := gotReq.URL.Query()
	assert.Equal(t, "awesome go", q.Get("q"))
	assert.Equal(t, "stars", q.Get("sort"))
	assert.Equal(t, "desc", q.Get("order"))
	assert.Equal(t, "30", q.Get("per_page"))
}

func TestUser(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 12345, "login": "octocat", "avatar_url": "https://a.example.com", "email": "o@example.com"}`))
	})
	defer srv.Close()

	user, err := client.User(context.Background(), "gho_token")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), user.ID)
	assert.Equal(t, "octocat", user.Login)
}

func TestGet_NonOKStatusReturnsAPIError(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"unauthorized", http.StatusUnauthorized},
		{"forbidden", http.StatusForbidden},
		{"rate limited", http.StatusUnprocessableEntity},
		{"server error", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			})
			defer srv.Close()

			_, err := client.UserRepos(context.Background(), "bad-token")
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Contains(t, err.Error(), "GitHub API error:")
		})
	}
}

func TestGet_ContextCancelled(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.UserRepos(ctx, "gho_token")
	assert.Error(t, err)
}
