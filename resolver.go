package authstate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

// Resolver defaults: results go stale after a short, minutes-scale interval
// and failed fetches retry a bounded number of times.
const (
	defaultStaleAfter     = 5 * time.Minute
	defaultFetchRetries   = 3
	defaultFetchRetryBase = 500 * time.Millisecond
)

// ResolverSnapshot is the state the UI branches on.
type ResolverSnapshot struct {
	Token           string    `json:"token,omitempty"`
	User            *Identity `json:"user,omitempty"`
	IsFetching      bool      `json:"is_fetching"`
	IsLoading       bool      `json:"is_loading"`
	IsAuthenticated bool      `json:"is_authenticated"`
	Err             error     `json:"-"`
}

// ResolverOption customizes Resolver construction.
type ResolverOption func(*Resolver)

// WithResolverLogger overrides the logger.
func WithResolverLogger(logger Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithStaleAfter overrides how long a fetched result stays fresh.
func WithStaleAfter(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.staleAfter = d
		}
	}
}

// WithFetchRetries overrides the bounded retry schedule for failed fetches.
func WithFetchRetries(max uint64, base time.Duration) ResolverOption {
	return func(r *Resolver) {
		if max > 0 {
			r.retryMax = max
		}
		if base > 0 {
			r.retryBase = base
		}
	}
}

// WithResolverClock injects a custom clock (useful for tests).
func WithResolverClock(clock func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if clock != nil {
			r.now = clock
		}
	}
}

// Resolver is the polling session view: it fetches through the
// SessionService's primary-only path, considers the result stale after a
// short interval, and refetches on start, focus, and reconnect
// notifications. Overlapping fetches are allowed; the last settled result
// wins.
type Resolver struct {
	service    *SessionService
	logger     Logger
	staleAfter time.Duration
	retryMax   uint64
	retryBase  time.Duration
	now        func() time.Time

	mu         sync.Mutex
	state      SessionState
	err        error
	fetchedAt  time.Time
	inFlight   int
	settled    bool
	generation uint64
}

// NewResolver wraps the service with the polling view.
func NewResolver(service *SessionService, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		service:    service,
		logger:     defLogger{},
		staleAfter: defaultStaleAfter,
		retryMax:   defaultFetchRetries,
		retryBase:  defaultFetchRetryBase,
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// Start performs the mount-time fetch.
func (r *Resolver) Start(ctx context.Context) {
	r.Refetch(ctx)
}

// NotifyFocus refetches when the current result has gone stale. Call it when
// the app returns to the foreground.
func (r *Resolver) NotifyFocus(ctx context.Context) {
	r.refetchIfStale(ctx)
}

// NotifyReconnect refetches when the current result has gone stale. Call it
// when network connectivity returns.
func (r *Resolver) NotifyReconnect(ctx context.Context) {
	r.refetchIfStale(ctx)
}

func (r *Resolver) refetchIfStale(ctx context.Context) {
	r.mu.Lock()
	stale := !r.settled || r.now().Sub(r.fetchedAt) >= r.staleAfter
	r.mu.Unlock()

	if stale {
		r.Refetch(ctx)
	}
}

// Refetch fetches unconditionally and blocks until the result settles.
// Failed fetch attempts retry with exponential backoff up to the bounded
// count; exhaustion settles to logged out with the error recorded.
func (r *Resolver) Refetch(ctx context.Context) {
	r.mu.Lock()
	r.inFlight++
	r.generation++
	gen := r.generation
	r.mu.Unlock()

	state, err := r.fetch(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.inFlight--

	// A newer fetch may have settled while this one ran.
	if gen < r.generation && r.settled {
		return
	}

	r.settled = true
	r.fetchedAt = r.now()
	r.err = err

	if err != nil {
		r.logger.Warn("session resolver fetch failed: %v", err)
		r.state = LoggedOut()
		return
	}

	r.state = state
}

func (r *Resolver) fetch(ctx context.Context) (SessionState, error) {
	var state SessionState

	b := retry.WithMaxRetries(r.retryMax-1, retry.NewExponential(r.retryBase))
	err := retry.Do(ctx, b, func(ctx context.Context) (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = retryable(fmt.Errorf("session fetch panicked: %v", rec))
			}
		}()

		state = r.service.ResolvePrimary(ctx)
		return nil
	})

	return state, err
}

// Snapshot returns the current resolver state without fetching.
func (r *Resolver) Snapshot() ResolverSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return ResolverSnapshot{
		Token:           r.state.Token,
		User:            r.state.User,
		IsFetching:      r.inFlight > 0,
		IsLoading:       !r.settled,
		IsAuthenticated: r.state.IsAuthenticated,
		Err:             r.err,
	}
}

// IsAuthenticated reports whether both a token and a decoded identity are
// present in the last settled result.
func (r *Resolver) IsAuthenticated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.IsAuthenticated
}

// State returns the last settled session state.
func (r *Resolver) State() SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}
