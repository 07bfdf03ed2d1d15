package db

// User mirrors the signed-in principal held by the session store.
type User struct {
	ID    string `sql:"id, primary_key"`
	Email string `sql:"email"`
}

// UserProfile maps a user id to the cached GitHub identity and the
// provider access token used by the repository proxy.
type UserProfile struct {
	ID                string `sql:"id, primary_key"`
	GithubID          string `sql:"github_id"`
	Username          string `sql:"username"`
	AvatarURL         string `sql:"avatar_url"`
	GithubAccessToken string `sql:"github_access_token"`
	CreatedAt         string `sql:"created_at"`
	UpdatedAt         string `sql:"updated_at"`
}

// SessionRow is the persisted form of a session.
type SessionRow struct {
	ID            string `sql:"id, primary_key"`
	UserID        string `sql:"user_id, foreign_key=user_profiles.id"`
	AccessToken   string `sql:"access_token"`
	ProviderToken string `sql:"provider_token"`
	BrowserInfo   string `sql:"browser_info"`
	Expires       string `sql:"expires"`
	IsOnline      bool   `sql:"is_online"`
}

// GithubUserInfo holds the essential information for a GitHub user.
type GithubUserInfo struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	Email     string `json:"email"`
}
