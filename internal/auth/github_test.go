package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gitgenie/gitgenie/internal/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginURL(t *testing.T) {
	p := NewGithubOAuth(OAuthConfig{
		ClientID:    "client-id",
		RedirectURL: "http://localhost:8080/oauth/callback",
	}, github.NewClient())

	raw := p.LoginURL("state-123")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "github.com", u.Host)
	assert.Equal(t, "/login/oauth/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "http://localhost:8080/oauth/callback", q.Get("redirect_uri"))
	assert.Equal(t, "repo read:user", q.Get("scope"))
	assert.Equal(t, "state-123", q.Get("state"))
}

func TestExchangeCode(t *testing.T) {
	var tokenReq url.Values
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		tokenReq = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "gho_issued", "token_type": "bearer", "scope": "repo,read:user"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token gho_issued", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 12345, "login": "octocat", "avatar_url": "https://a.example.com"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	api := github.NewClient()
	api.BaseURL = srv.URL

	p := NewGithubOAuth(OAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/oauth/callback",
		TokenURL:     srv.URL + "/login/oauth/access_token",
	}, api)

	token, identity, err := p.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "gho_issued", token)
	require.NotNil(t, identity)
	assert.Equal(t, int64(12345), identity.ID)
	assert.Equal(t, "octocat", identity.Login)

	require.NotNil(t, tokenReq)
	assert.Equal(t, "client-id", tokenReq.Get("client_id"))
	assert.Equal(t, "client-secret", tokenReq.Get("client_secret"))
	assert.Equal(t, "the-code", tokenReq.Get("code"))
}

func TestExchangeCode_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error": "bad_verification_code", "error_description": "The code is incorrect or expired."}`))
	}))
	defer srv.Close()

	p := NewGithubOAuth(OAuthConfig{TokenURL: srv.URL}, github.NewClient())

	_, _, err := p.ExchangeCode(context.Background(), "expired-code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad_verification_code")
}

func TestExchangeCode_EmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	p := NewGithubOAuth(OAuthConfig{TokenURL: srv.URL}, github.NewClient())

	_, _, err := p.ExchangeCode(context.Background(), "code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no access token")
}
