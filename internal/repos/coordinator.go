// Package repos coordinates repository fetching: it reacts to session
// readiness, invokes the proxy and exposes the resulting list together with
// loading and error flags.
package repos

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gitgenie/gitgenie/internal/auth"
	"github.com/gitgenie/gitgenie/internal/github"
	"github.com/gitgenie/gitgenie/internal/metrics"
	"github.com/gitgenie/gitgenie/internal/proxy"
	"github.com/gitgenie/gitgenie/internal/session"
	"github.com/gitgenie/gitgenie/pkg/logger"
)

// State is the coordinator's position in the fetch lifecycle.
type State int

const (
	StateIdle State = iota
	StateAwaitingSession
	StateFetching
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingSession:
		return "awaiting-session"
	case StateFetching:
		return "fetching"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// User-facing error strings. Authentication failures get a distinct message
// suggesting re-authentication.
const (
	ErrMsgFetch   = "Failed to fetch repositories from GitHub"
	ErrMsgAuth    = "Your session has expired. Please sign in with GitHub again."
	ErrMsgRefresh = "Could not refresh your session. Please sign in with GitHub again."
)

// ErrNotAuthenticated marks failures the caller should treat as a sign-in
// problem rather than a fetch problem.
var ErrNotAuthenticated = errors.New("not authenticated")

// Snapshot is an immutable view of the coordinator state for rendering.
type Snapshot struct {
	Repositories []github.Repository
	Loading      bool
	ErrMsg       string
	State        State
	SearchQuery  string
}

// Coordinator owns the repository list. Fetches carry a monotonically
// increasing sequence number; a completion that is not the latest issued is
// discarded so a slow stale response never overwrites fresher state.
type Coordinator struct {
	auth    *auth.Coordinator
	store   *session.Store
	invoker proxy.Invoker
	metrics *metrics.Collector

	mu           sync.Mutex
	repositories []github.Repository
	state        State
	errMsg       string
	searchQuery  string
	seq          uint64
	initialDone  bool
}

// NewCoordinator wires the fetch coordinator. collector may be nil.
func NewCoordinator(authC *auth.Coordinator, store *session.Store, invoker proxy.Invoker, collector *metrics.Collector) *Coordinator {
	return &Coordinator{
		auth:    authC,
		store:   store,
		invoker: invoker,
		metrics: collector,
		state:   StateIdle,
	}
}

// Fetch retrieves the repository list for the optional search string.
// Without a signed-in user and profile it clears the list and returns nil.
// On failure the previous list is left untouched and the error state is set.
func (c *Coordinator) Fetch(ctx context.Context, searchQuery string) error {
	if c.auth.User() == nil || c.auth.Profile() == nil {
		c.mu.Lock()
		c.repositories = nil
		c.state = StateIdle
		c.errMsg = ""
		c.mu.Unlock()
		return nil
	}

	sess, err := c.store.Current()
	if err != nil {
		c.failAuth(ErrMsgAuth)
		return ErrNotAuthenticated
	}

	seq := c.begin(searchQuery)
	start := time.Now()

	list, err := c.invoker.Invoke(ctx, sess.AccessToken, searchQuery)
	return c.complete(seq, list, err, start)
}

// Refresh forces a session refresh before re-fetching, picking up a rotated
// provider token. A refresh failure surfaces an authentication-specific
// error distinct from a fetch error.
func (c *Coordinator) Refresh(ctx context.Context, searchQuery string) error {
	if c.auth.User() == nil || c.auth.Profile() == nil {
		return c.Fetch(ctx, searchQuery)
	}

	if _, err := c.store.Refresh(); err != nil {
		logger.Error("Session refresh failed before fetch", "error", err)
		c.failAuth(ErrMsgRefresh)
		if c.metrics != nil {
			c.metrics.RecordFetchFailure("refresh")
		}
		return ErrNotAuthenticated
	}

	return c.Fetch(ctx, searchQuery)
}

// EnsureInitialFetch fires the one automatic fetch once user, profile and
// readiness all hold simultaneously. reloaded selects the refresh-then-fetch
// path, compensating for slower session rehydration after a page reload.
// Reports whether a fetch was attempted.
func (c *Coordinator) EnsureInitialFetch(ctx context.Context, reloaded bool) bool {
	if !c.auth.Ready() {
		c.mu.Lock()
		if c.state == StateIdle {
			c.state = StateAwaitingSession
		}
		c.mu.Unlock()
		return false
	}
	if c.auth.User() == nil || c.auth.Profile() == nil {
		return false
	}

	c.mu.Lock()
	if c.initialDone {
		c.mu.Unlock()
		return false
	}
	c.initialDone = true
	c.mu.Unlock()

	if reloaded {
		logger.Debug("Initial fetch after page reload, refreshing session first")
		_ = c.Refresh(ctx, "")
	} else {
		_ = c.Fetch(ctx, "")
	}
	return true
}

// Reset forgets the initial-fetch marker and the list. Used on sign-out.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.repositories = nil
	c.state = StateIdle
	c.errMsg = ""
	c.searchQuery = ""
	c.initialDone = false
}

// Snapshot returns a copy of the current state for rendering.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := make([]github.Repository, len(c.repositories))
	copy(list, c.repositories)

	return Snapshot{
		Repositories: list,
		Loading:      c.state == StateFetching || c.state == StateAwaitingSession,
		ErrMsg:       c.errMsg,
		State:        c.state,
		SearchQuery:  c.searchQuery,
	}
}

// begin issues a new fetch sequence number and moves to fetching.
func (c *Coordinator) begin(searchQuery string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.state = StateFetching
	c.errMsg = ""
	c.searchQuery = searchQuery
	return c.seq
}

// complete applies a fetch result unless a newer fetch has been issued.
func (c *Coordinator) complete(seq uint64, list []github.Repository, err error, start time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		logger.Debug("Discarding stale fetch completion", "seq", seq, "latest", c.seq)
		if c.metrics != nil {
			c.metrics.RecordStaleDiscard()
		}
		return nil
	}

	if err != nil {
		logger.Error("Error fetching repositories", "error", err)
		c.state = StateError
		if errors.Is(err, proxy.ErrUnauthorized) || errors.Is(err, proxy.ErrNoProviderToken) || errors.Is(err, session.ErrNoSession) {
			c.errMsg = ErrMsgAuth
		} else {
			c.errMsg = ErrMsgFetch
		}
		if c.metrics != nil {
			c.metrics.RecordFetchFailure(failureReason(err))
		}
		return err
	}

	// Wholesale replacement; a nil result from the proxy is a legitimate
	// empty list.
	if list == nil {
		list = []github.Repository{}
	}
	c.repositories = list
	c.state = StateReady
	c.errMsg = ""
	if c.metrics != nil {
		c.metrics.RecordFetchSuccess(time.Since(start))
	}
	return nil
}

func (c *Coordinator) failAuth(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateError
	c.errMsg = msg
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, proxy.ErrUnauthorized), errors.Is(err, session.ErrNoSession):
		return "auth"
	case errors.Is(err, proxy.ErrNoProviderToken):
		return "no_token"
	default:
		return "fetch"
	}
}
