// Package auth owns session and profile state for the whole application.
// A single Coordinator is constructed at startup and injected by reference
// into every consumer.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/gitgenie/gitgenie/internal/db"
	"github.com/gitgenie/gitgenie/internal/db/queries"
	"github.com/gitgenie/gitgenie/internal/session"
	"github.com/gitgenie/gitgenie/pkg/logger"
)

// restoreTimeout bounds the initial session lookup so a stalled store
// cannot wedge the UI: readiness is declared after this delay regardless.
const restoreTimeout = 3 * time.Second

// Coordinator tracks the signed-in user, their profile row and the current
// session. Readiness is monotonic: once the initial restoration attempt has
// concluded it never goes false again.
type Coordinator struct {
	store    *session.Store
	database *sql.DB
	oauth    *GithubOAuth

	mu      sync.RWMutex
	user    *db.User
	profile *db.UserProfile
	sess    *session.Session
	loading bool

	readyOnce sync.Once
	readyCh   chan struct{}

	unsubscribe func()
	done        chan struct{}
}

// NewCoordinator wires the coordinator. Call Start to begin restoration and
// event handling, Close to tear down.
func NewCoordinator(store *session.Store, database *sql.DB, oauth *GithubOAuth) *Coordinator {
	return &Coordinator{
		store:    store,
		database: database,
		oauth:    oauth,
		loading:  true,
		readyCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start subscribes to session-change events and performs the one-time
// startup session lookup. The subscription and the lookup can race; every
// transition is idempotent so ordering does not matter.
func (c *Coordinator) Start() {
	events, unsubscribe := c.store.Subscribe()
	c.unsubscribe = unsubscribe

	go c.eventLoop(events)
	go c.restore()
}

// Close tears down the event subscription.
func (c *Coordinator) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	close(c.done)
}

// restore performs the initial session lookup bounded by restoreTimeout.
// Readiness is set afterward whether the lookup succeeded, failed or timed
// out.
func (c *Coordinator) restore() {
	logger.Debug("Restoring session")

	result := make(chan *session.Session, 1)
	go func() {
		sess, err := c.store.Current()
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				logger.Error("Error getting initial session", "error", err)
			}
			result <- nil
			return
		}
		result <- sess
	}()

	select {
	case sess := <-result:
		if sess != nil {
			c.applySession(sess, nil)
			c.reloadProfile(sess.UserID)
			logger.Info("Session restored", "user_id", sess.UserID)
		} else {
			logger.Debug("No session to restore")
		}
	case <-time.After(restoreTimeout):
		logger.Warn("Session restoration timed out, forcing readiness")
	}

	c.finishRestore()
}

func (c *Coordinator) finishRestore() {
	c.mu.Lock()
	c.loading = false
	c.mu.Unlock()
	c.markReady()
}

func (c *Coordinator) markReady() {
	c.readyOnce.Do(func() {
		close(c.readyCh)
		logger.Debug("Session restoration concluded, ready")
	})
}

func (c *Coordinator) eventLoop(events <-chan session.Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.handleEvent(ev)
		case <-c.done:
			return
		}
	}
}

func (c *Coordinator) handleEvent(ev session.Event) {
	logger.Debug("Auth state changed", "event_type", string(ev.Type))

	switch ev.Type {
	case session.EventSignedIn, session.EventTokenRefreshed:
		c.applySession(ev.Session, ev.Identity)
		if ev.Identity != nil {
			if err := c.upsertProfile(ev.Session, ev.Identity); err != nil {
				logger.Error("Error upserting profile", "error", err)
			}
		}
		c.reloadProfile(ev.Session.UserID)
	case session.EventSignedOut:
		c.mu.Lock()
		c.user = nil
		c.sess = nil
		c.profile = nil
		c.mu.Unlock()
	}

	c.finishRestore()
}

func (c *Coordinator) applySession(sess *session.Session, identity *db.GithubUserInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sess = sess

	// Refresh events rebuild the identity from the profile row, which has
	// no email column; keep the one from sign-in in that case.
	email := ""
	if c.user != nil && c.user.ID == sess.UserID {
		email = c.user.Email
	}
	if identity != nil && identity.Email != "" {
		email = identity.Email
	}
	c.user = &db.User{ID: sess.UserID, Email: email}
}

func (c *Coordinator) upsertProfile(sess *session.Session, identity *db.GithubUserInfo) error {
	profile := &db.UserProfile{
		ID:                sess.UserID,
		GithubID:          strconv.FormatInt(identity.ID, 10),
		Username:          identity.Login,
		AvatarURL:         identity.AvatarURL,
		GithubAccessToken: sess.ProviderToken,
	}
	return queries.UpsertProfile(c.database, profile)
}

// reloadProfile re-reads the profile row into local state. A missing row
// leaves the profile unset silently; any other error is logged and also
// leaves it unset. Neither affects readiness.
func (c *Coordinator) reloadProfile(userID string) {
	profile, err := queries.GetProfile(c.database, userID)
	if err != nil {
		if !errors.Is(err, queries.ErrProfileNotFound) {
			logger.Error("Error fetching profile", "error", err, "user_id", userID)
		}
		c.mu.Lock()
		c.profile = nil
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	c.profile = profile
	c.mu.Unlock()
}

// User returns the signed-in principal, or nil.
func (c *Coordinator) User() *db.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// Profile returns the cached profile row, or nil.
func (c *Coordinator) Profile() *db.UserProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profile
}

// Session returns the current session, or nil.
func (c *Coordinator) Session() *session.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sess
}

// Loading reports whether the initial restoration is still in progress.
func (c *Coordinator) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Ready reports whether the initial session restoration has concluded.
func (c *Coordinator) Ready() bool {
	select {
	case <-c.readyCh:
		return true
	default:
		return false
	}
}

// ReadyChan is closed once the initial restoration has concluded.
func (c *Coordinator) ReadyChan() <-chan struct{} {
	return c.readyCh
}

// SignInURL builds the OAuth redirect requesting repository-read and
// user-read scopes.
func (c *Coordinator) SignInURL(state string) string {
	return c.oauth.LoginURL(state)
}

// HandleCallback completes the OAuth flow: exchanges the code and issues a
// session. Profile upsert happens through the SIGNED_IN event.
func (c *Coordinator) HandleCallback(ctx context.Context, code, browserInfo string) (*session.Session, error) {
	providerToken, identity, err := c.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return c.store.SignIn(identity, providerToken, browserInfo)
}

// SignOut invalidates the session. Local state clears via the SIGNED_OUT
// event, not here.
func (c *Coordinator) SignOut() error {
	return c.store.SignOut()
}
