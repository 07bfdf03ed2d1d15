package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gitgenie/gitgenie/internal/db"
	"github.com/gitgenie/gitgenie/internal/github"
	"github.com/gitgenie/gitgenie/pkg/logger"
)

const (
	defaultAuthorizeURL = "https://github.com/login/oauth/authorize"
	defaultTokenURL     = "https://github.com/login/oauth/access_token"

	// Repository read plus user read, matching what the proxy needs.
	oauthScopes = "repo read:user"
)

// OAuthConfig configures the GitHub OAuth flow. AuthorizeURL and TokenURL
// are overridable for tests.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	AuthorizeURL string
	TokenURL     string
}

// GithubOAuth runs the authorization-code flow against GitHub.
type GithubOAuth struct {
	config OAuthConfig
	api    *github.Client
	client *http.Client
}

// NewGithubOAuth creates the OAuth provider. api is used to fetch the
// signed-in identity after the token exchange.
func NewGithubOAuth(config OAuthConfig, api *github.Client) *GithubOAuth {
	if config.AuthorizeURL == "" {
		config.AuthorizeURL = defaultAuthorizeURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultTokenURL
	}
	return &GithubOAuth{
		config: config,
		api:    api,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// LoginURL builds the browser redirect to GitHub's authorize endpoint.
func (p *GithubOAuth) LoginURL(state string) string {
	params := url.Values{
		"client_id":    {p.config.ClientID},
		"redirect_uri": {p.config.RedirectURL},
		"scope":        {oauthScopes},
		"state":        {state},
	}
	return p.config.AuthorizeURL + "?" + params.Encode()
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

// ExchangeCode trades the authorization code for a provider token and
// fetches the identity it belongs to.
func (p *GithubOAuth) ExchangeCode(ctx context.Context, code string) (string, *db.GithubUserInfo, error) {
	token, err := p.exchangeToken(ctx, code)
	if err != nil {
		return "", nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	user, err := p.api.User(ctx, token)
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch github user: %w", err)
	}

	identity := &db.GithubUserInfo{
		ID:        user.ID,
		Login:     user.Login,
		AvatarURL: user.AvatarURL,
		Email:     user.Email,
	}
	logger.Debug("OAuth code exchanged", "github_login", identity.Login)
	return token, identity, nil
}

func (p *GithubOAuth) exchangeToken(ctx context.Context, code string) (string, error) {
	data := url.Values{
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"code":          {code},
		"redirect_uri":  {p.config.RedirectURL},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tokenResp tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("could not decode token response: %w", err)
	}
	if tokenResp.Error != "" {
		return "", fmt.Errorf("token endpoint error: %s", tokenResp.Error)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access token")
	}

	return tokenResp.AccessToken, nil
}
