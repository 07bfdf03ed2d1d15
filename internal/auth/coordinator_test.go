package auth

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gitgenie/gitgenie/internal/db"
	"github.com/gitgenie/gitgenie/internal/db/queries"
	"github.com/gitgenie/gitgenie/internal/github"
	"github.com/gitgenie/gitgenie/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *session.Store, *sql.DB) {
	t.Helper()
	database, err := db.InitializeDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.CloseDB(database) })

	store := session.NewStore(database, "test-secret", time.Hour)
	t.Cleanup(store.Close)

	oauth := NewGithubOAuth(OAuthConfig{ClientID: "id", ClientSecret: "secret"}, github.NewClient())
	c := NewCoordinator(store, database, oauth)
	t.Cleanup(c.Close)
	return c, store, database
}

func waitReady(t *testing.T, c *Coordinator) {
	t.Helper()
	select {
	case <-c.ReadyChan():
	case <-time.After(5 * time.Second):
		t.Fatal("coordinator never became ready")
	}
}

// eventually polls until the condition holds. Event handling is async so
// state changes land shortly after the triggering call returns.
func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 10*time.Millisecond)
}

func TestCoordinator_StartsLoadingThenReady(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	assert.True(t, c.Loading())
	assert.False(t, c.Ready())

	c.Start()
	waitReady(t, c)

	assert.True(t, c.Ready())
	assert.False(t, c.Loading())
	assert.Nil(t, c.User())
	assert.Nil(t, c.Profile())
}

func TestCoordinator_ReadinessIsMonotonic(t *testing.T) {
	c, store, _ := newTestCoordinator(t)
	c.Start()
	waitReady(t, c)

	_, err := store.SignIn(&db.GithubUserInfo{ID: 1, Login: "octocat"}, "gho", "")
	require.NoError(t, err)
	eventually(t, func() bool { return c.User() != nil })
	assert.True(t, c.Ready())

	require.NoError(t, store.SignOut())
	eventually(t, func() bool { return c.User() == nil })
	assert.True(t, c.Ready(), "sign-out must not reset readiness")
}

func TestCoordinator_RestoresExistingSession(t *testing.T) {
	c, store, database := newTestCoordinator(t)

	sess, err := store.SignIn(&db.GithubUserInfo{ID: 12345, Login: "octocat"}, "gho", "")
	require.NoError(t, err)
	require.NoError(t, queries.UpsertProfile(database, &db.UserProfile{
		ID:       sess.UserID,
		GithubID: "12345",
		Username: "octocat",
	}))

	c.Start()
	waitReady(t, c)

	require.NotNil(t, c.User())
	assert.Equal(t, sess.UserID, c.User().ID)
	require.NotNil(t, c.Session())
	assert.Equal(t, sess.ID, c.Session().ID)
	require.NotNil(t, c.Profile())
	assert.Equal(t, "octocat", c.Profile().Username)
}

func TestCoordinator_SignInEventUpsertsProfile(t *testing.T) {
	c, store, database := newTestCoordinator(t)
	c.Start()
	waitReady(t, c)

	identity := &db.GithubUserInfo{ID: 12345, Login: "octocat", AvatarURL: "https://a.example.com"}
	sess, err := store.SignIn(identity, "gho_provider", "")
	require.NoError(t, err)

	eventually(t, func() bool { return c.Profile() != nil })

	profile := c.Profile()
	assert.Equal(t, sess.UserID, profile.ID)
	assert.Equal(t, "12345", profile.GithubID)
	assert.Equal(t, "octocat", profile.Username)
	assert.Equal(t, "gho_provider", profile.GithubAccessToken)

	stored, err := queries.GetProfile(database, sess.UserID)
	require.NoError(t, err)
	assert.Equal(t, "gho_provider", stored.GithubAccessToken)
}

func TestCoordinator_SignInCarriesEmail(t *testing.T) {
	c, store, _ := newTestCoordinator(t)
	c.Start()
	waitReady(t, c)

	identity := &db.GithubUserInfo{ID: 1, Login: "octocat", Email: "octocat@example.com"}
	_, err := store.SignIn(identity, "gho", "")
	require.NoError(t, err)

	eventually(t, func() bool { return c.User() != nil })
	assert.Equal(t, "octocat@example.com", c.User().Email)

	// The refreshed identity comes from the profile row and has no email;
	// the sign-in one must survive.
	refreshed, err := store.Refresh()
	require.NoError(t, err)
	eventually(t, func() bool {
		s := c.Session()
		return s != nil && s.AccessToken == refreshed.AccessToken
	})
	assert.Equal(t, "octocat@example.com", c.User().Email)
}

func TestCoordinator_RefreshEventUpdatesSession(t *testing.T) {
	c, store, _ := newTestCoordinator(t)
	c.Start()
	waitReady(t, c)

	first, err := store.SignIn(&db.GithubUserInfo{ID: 1, Login: "octocat"}, "gho", "")
	require.NoError(t, err)
	eventually(t, func() bool { return c.Session() != nil })

	refreshed, err := store.Refresh()
	require.NoError(t, err)
	require.NotEqual(t, first.AccessToken, refreshed.AccessToken)

	eventually(t, func() bool {
		s := c.Session()
		return s != nil && s.AccessToken == refreshed.AccessToken
	})
}

func TestCoordinator_SignOutClearsState(t *testing.T) {
	c, store, _ := newTestCoordinator(t)
	c.Start()
	waitReady(t, c)

	_, err := store.SignIn(&db.GithubUserInfo{ID: 1, Login: "octocat"}, "gho", "")
	require.NoError(t, err)
	eventually(t, func() bool { return c.User() != nil && c.Profile() != nil })

	require.NoError(t, c.SignOut())
	eventually(t, func() bool {
		return c.User() == nil && c.Session() == nil && c.Profile() == nil
	})
}

func TestCoordinator_HandleCallbackSignsIn(t *testing.T) {
	database, err := db.InitializeDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.CloseDB(database) })

	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "gho_issued"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 12345, "login": "octocat"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	api := github.NewClient()
	api.BaseURL = srv.URL

	store := session.NewStore(database, "test-secret", time.Hour)
	t.Cleanup(store.Close)

	oauth := NewGithubOAuth(OAuthConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     srv.URL + "/login/oauth/access_token",
	}, api)

	c := NewCoordinator(store, database, oauth)
	t.Cleanup(c.Close)
	c.Start()
	waitReady(t, c)

	sess, err := c.HandleCallback(context.Background(), "the-code", "Mozilla/5.0")
	require.NoError(t, err)
	assert.Equal(t, "gho_issued", sess.ProviderToken)

	eventually(t, func() bool {
		p := c.Profile()
		return p != nil && p.Username == "octocat"
	})
}
