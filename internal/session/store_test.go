package session

import (
	"database/sql"
	"testing"
	"time"

	"github.com/gitgenie/gitgenie/internal/db"
	"github.com/gitgenie/gitgenie/internal/db/queries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	database, err := db.InitializeDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.CloseDB(database) })

	store := NewStore(database, testSecret, time.Hour)
	t.Cleanup(store.Close)
	return store, database
}

func testIdentity() *db.GithubUserInfo {
	return &db.GithubUserInfo{ID: 12345, Login: "octocat", AvatarURL: "https://avatars.example.com/u/1"}
}

func drainEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for session event")
		return Event{}
	}
}

func TestSignIn_IssuesSessionAndPublishesEvent(t *testing.T) {
	store, _ := newTestStore(t)
	events, unsubscribe := store.Subscribe()
	defer unsubscribe()

	sess, err := store.SignIn(testIdentity(), "gho_provider", "Mozilla/5.0")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.NotEmpty(t, sess.UserID)
	assert.NotEmpty(t, sess.AccessToken)
	assert.Equal(t, "gho_provider", sess.ProviderToken)
	assert.True(t, sess.ExpiresAt.After(time.Now()))

	ev := drainEvent(t, events)
	assert.Equal(t, EventSignedIn, ev.Type)
	require.NotNil(t, ev.Session)
	assert.Equal(t, sess.ID, ev.Session.ID)
	require.NotNil(t, ev.Identity)
	assert.Equal(t, "octocat", ev.Identity.Login)
}

func TestSignIn_ReusesUserIDForKnownGithubAccount(t *testing.T) {
	store, database := newTestStore(t)

	require.NoError(t, queries.UpsertProfile(database, &db.UserProfile{
		ID:       "stable-user",
		GithubID: "12345",
		Username: "octocat",
	}))

	sess, err := store.SignIn(testIdentity(), "gho_provider", "")
	require.NoError(t, err)
	assert.Equal(t, "stable-user", sess.UserID)
}

func TestCurrent_NoSession(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Current()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCurrent_ReturnsLiveSession(t *testing.T) {
	store, _ := newTestStore(t)

	signedIn, err := store.SignIn(testIdentity(), "gho_provider", "")
	require.NoError(t, err)

	current, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, signedIn.ID, current.ID)
	assert.Equal(t, signedIn.UserID, current.UserID)
}

func TestRefresh_RotatesTokenAndReadsProfileProviderToken(t *testing.T) {
	store, database := newTestStore(t)

	signedIn, err := store.SignIn(testIdentity(), "gho_old", "")
	require.NoError(t, err)

	// The stored provider token rotated since sign-in.
	require.NoError(t, queries.UpsertProfile(database, &db.UserProfile{
		ID:                signedIn.UserID,
		GithubID:          "12345",
		Username:          "octocat",
		GithubAccessToken: "gho_rotated",
	}))

	events, unsubscribe := store.Subscribe()
	defer unsubscribe()

	refreshed, err := store.Refresh()
	require.NoError(t, err)
	assert.Equal(t, signedIn.ID, refreshed.ID)
	assert.NotEqual(t, signedIn.AccessToken, refreshed.AccessToken)
	assert.Equal(t, "gho_rotated", refreshed.ProviderToken)

	ev := drainEvent(t, events)
	assert.Equal(t, EventTokenRefreshed, ev.Type)
	require.NotNil(t, ev.Identity)
	assert.Equal(t, "octocat", ev.Identity.Login)
}

func TestRefresh_NoSession(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Refresh()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSignOut_InvalidatesAndPublishes(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.SignIn(testIdentity(), "gho_provider", "")
	require.NoError(t, err)

	events, unsubscribe := store.Subscribe()
	defer unsubscribe()

	require.NoError(t, store.SignOut())

	ev := drainEvent(t, events)
	assert.Equal(t, EventSignedOut, ev.Type)
	assert.Nil(t, ev.Session)

	_, err = store.Current()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestVerify_ValidToken(t *testing.T) {
	store, _ := newTestStore(t)

	sess, err := store.SignIn(testIdentity(), "gho_provider", "")
	require.NoError(t, err)

	userID, sessionID, err := store.Verify(sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, userID)
	assert.Equal(t, sess.ID, sessionID)
}

func TestVerify_RejectsGarbageToken(t *testing.T) {
	store, _ := newTestStore(t)

	_, _, err := store.Verify("not-a-jwt")
	assert.Error(t, err)
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	store, database := newTestStore(t)

	sess, err := store.SignIn(testIdentity(), "gho_provider", "")
	require.NoError(t, err)

	other := NewStore(database, "different-secret", time.Hour)
	defer other.Close()

	_, _, err = other.Verify(sess.AccessToken)
	assert.Error(t, err)
}

func TestVerify_RejectsInvalidatedSession(t *testing.T) {
	store, database := newTestStore(t)

	sess, err := store.SignIn(testIdentity(), "gho_provider", "")
	require.NoError(t, err)
	require.NoError(t, queries.InvalidateSession(database, sess.ID))

	_, _, err = store.Verify(sess.AccessToken)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestEventBus_UnsubscribeClosesChannel(t *testing.T) {
	store, _ := newTestStore(t)

	events, unsubscribe := store.Subscribe()
	unsubscribe()

	_, open := <-events
	assert.False(t, open)
}

func TestEventBus_DropsInsteadOfBlocking(t *testing.T) {
	bus := newEventBus()
	defer bus.close()

	events, unsubscribe := bus.subscribe()
	defer unsubscribe()

	// Overfill the buffer. publish must not block.
	for i := 0; i < subscriberBuffer+5; i++ {
		bus.publish(Event{Type: EventSignedIn})
	}

	received := 0
	for {
		select {
		case <-events:
			received++
		default:
			assert.Equal(t, subscriberBuffer, received)
			return
		}
	}
}
