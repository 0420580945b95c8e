package authstate

import (
	"context"
	"sync"
)

// StableResolver is the on-demand session view: it loads through the
// SessionService's dual-adapter path exactly once on first use, and after
// that only on explicit caller action. It exists so a misbehaving polling
// layer cannot take authentication down with it.
type StableResolver struct {
	service *SessionService
	logger  Logger

	mu     sync.Mutex
	once   sync.Once
	state  SessionState
	loaded bool
}

// StableOption customizes StableResolver construction.
type StableOption func(*StableResolver)

// WithStableLogger overrides the logger.
func WithStableLogger(logger Logger) StableOption {
	return func(r *StableResolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewStableResolver wraps the service with the on-demand view.
func NewStableResolver(service *SessionService, opts ...StableOption) *StableResolver {
	r := &StableResolver{
		service: service,
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// State returns the current session state, running the initial load on first
// activation. IsLoading is only ever true inside that first load.
func (r *StableResolver) State(ctx context.Context) SessionState {
	r.once.Do(func() {
		r.load(ctx)
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// IsAuthenticated reports whether the current state carries a validated
// identity, loading first if needed.
func (r *StableResolver) IsAuthenticated(ctx context.Context) bool {
	return r.State(ctx).IsAuthenticated
}

func (r *StableResolver) load(ctx context.Context) {
	state := r.service.Load(ctx)

	r.mu.Lock()
	r.state = state
	r.loaded = true
	r.mu.Unlock()
}

// SetToken writes the token to both adapters and updates the in-memory
// state synchronously, so a caller can read an authenticated state right
// after login without waiting on any polling cadence.
func (r *StableResolver) SetToken(ctx context.Context, token string) SessionState {
	state := r.service.SetToken(ctx, token)

	r.mu.Lock()
	r.state = state
	r.loaded = true
	r.mu.Unlock()

	r.markActivated()
	return state
}

// ClearAuth deletes the token from both adapters and resets to logged out.
// Used on logout.
func (r *StableResolver) ClearAuth(ctx context.Context) SessionState {
	state := r.service.ClearAuth(ctx)

	r.mu.Lock()
	r.state = state
	r.loaded = true
	r.mu.Unlock()

	r.markActivated()
	return state
}

// RefreshAuth re-runs the load on demand (e.g., pull-to-refresh).
func (r *StableResolver) RefreshAuth(ctx context.Context) SessionState {
	r.load(ctx)
	r.markActivated()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// markActivated consumes the first-activation load so explicit operations
// cannot be overwritten by a later implicit one.
func (r *StableResolver) markActivated() {
	r.once.Do(func() {})
}
