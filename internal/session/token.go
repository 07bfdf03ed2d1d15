package session

import "github.com/gitgenie/gitgenie/internal/db"

// ProviderToken is the single accessor for the stored GitHub token.
// Priority order:
//
//  1. the profile row's github_access_token — rotated tokens land there first
//  2. the session's provider token — the sign-in copy, covering the window
//     before the profile row exists
//
// Returns "" when neither holds a token.
func ProviderToken(sess *Session, profile *db.UserProfile) string {
	if profile != nil && profile.GithubAccessToken != "" {
		return profile.GithubAccessToken
	}
	if sess != nil && sess.ProviderToken != "" {
		return sess.ProviderToken
	}
	return ""
}
