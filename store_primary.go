package authstate

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// PrimaryOption customizes PrimaryStore construction.
type PrimaryOption func(*PrimaryStore)

// WithPrimaryLogger overrides the logger.
func WithPrimaryLogger(logger Logger) PrimaryOption {
	return func(s *PrimaryStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRetrySchedule overrides the attempt count and backoff bases used for
// backend calls.
func WithRetrySchedule(attempts uint64, readBase, writeBase time.Duration) PrimaryOption {
	return func(s *PrimaryStore) {
		if attempts > 0 {
			s.maxAttempts = attempts
		}
		if readBase > 0 {
			s.readBase = readBase
		}
		if writeBase > 0 {
			s.writeBase = writeBase
		}
	}
}

// WithPlatform overrides the platform label reported by diagnostics.
func WithPlatform(platform string) PrimaryOption {
	return func(s *PrimaryStore) {
		if platform != "" {
			s.platform = platform
		}
	}
}

// PrimaryStore wraps a single persistent Backend with a one-shot health
// check, bounded retries, and an always-written in-memory mirror. A backend
// that fails its health check downgrades the store to memory-only for the
// rest of the process lifetime (until Reinitialize).
//
// Calls on the same key are not coordinated beyond the per-map mutexes;
// last write wins.
type PrimaryStore struct {
	backend  Backend
	fallback *MemoryBackend
	logger   Logger
	platform string

	maxAttempts uint64
	readBase    time.Duration
	writeBase   time.Duration

	mu          sync.Mutex
	initialized bool
	available   bool
}

var _ Store = (*PrimaryStore)(nil)

// NewPrimaryStore wraps backend; a nil backend behaves like one that failed
// its health check.
func NewPrimaryStore(backend Backend, opts ...PrimaryOption) *PrimaryStore {
	s := &PrimaryStore{
		backend:     backend,
		fallback:    NewMemoryBackend(),
		logger:      defLogger{},
		platform:    runtime.GOOS,
		maxAttempts: defaultMaxAttempts,
		readBase:    defaultReadBaseDelay,
		writeBase:   defaultWriteBaseDelay,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Initialize runs the health check once and memoizes the result. It reports
// whether the persistent backend is trustworthy; the store itself is usable
// either way.
func (s *PrimaryStore) Initialize(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return s.available
	}

	s.initialized = true
	s.available = s.healthCheck(ctx)

	if !s.available {
		s.logger.Warn("primary storage failed health check, falling back to memory-only mode")
	}

	return s.available
}

// Reinitialize clears the memoized health-check result and probes again.
func (s *PrimaryStore) Reinitialize(ctx context.Context) bool {
	s.mu.Lock()
	s.initialized = false
	s.mu.Unlock()

	return s.Initialize(ctx)
}

// healthCheck writes a sentinel, reads it back, deletes it, and confirms the
// deletion. Every step has to succeed.
func (s *PrimaryStore) healthCheck(ctx context.Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("primary storage health check panicked: %v", r)
			ok = false
		}
	}()

	if s.backend == nil {
		return false
	}

	if err := s.backend.Set(ctx, healthCheckKey, healthCheckValue); err != nil {
		s.logger.Warn("health check write failed: %v", err)
		return false
	}

	got, err := s.backend.Get(ctx, healthCheckKey)
	if err != nil || got != healthCheckValue {
		s.logger.Warn("health check read-back mismatch: got %q err=%v", got, err)
		return false
	}

	if err := s.backend.Delete(ctx, healthCheckKey); err != nil {
		s.logger.Warn("health check delete failed: %v", err)
		return false
	}

	if _, err := s.backend.Get(ctx, healthCheckKey); !IsNotFound(err) {
		s.logger.Warn("health check sentinel still present after delete")
		return false
	}

	return true
}

// GetItem prefers the persistent backend and falls back to the memory
// mirror. A key absent everywhere yields ErrNotFound; the store never
// surfaces raw backend errors.
func (s *PrimaryStore) GetItem(ctx context.Context, key string) (string, error) {
	if !s.Initialize(ctx) {
		return s.getFallback(ctx, key)
	}

	var value string
	var absent bool

	err := withRetry(ctx, s.maxAttempts, s.readBase, func(ctx context.Context) error {
		v, err := s.backend.Get(ctx, key)
		if IsNotFound(err) {
			absent = true
			return nil
		}
		if err != nil {
			return retryable(err)
		}
		absent = false
		value = v
		return nil
	})

	if err != nil {
		s.logger.Warn("primary storage get %q exhausted retries: %v", key, err)
		return s.getFallback(ctx, key)
	}

	if absent {
		// A failed persistent write may still have mirrored the value.
		return s.getFallback(ctx, key)
	}

	return value, nil
}

func (s *PrimaryStore) getFallback(ctx context.Context, key string) (string, error) {
	value, err := s.fallback.Get(ctx, key)
	if err != nil {
		return "", ErrNotFound
	}
	return value, nil
}

// SetItem mirrors the value into the memory fallback unconditionally, then
// attempts the persistent write with retries and a read-back verification.
// A verification mismatch counts as a failed persist even when the write
// call itself did not error.
func (s *PrimaryStore) SetItem(ctx context.Context, key, value string) (SetOutcome, error) {
	if err := s.fallback.Set(ctx, key, value); err != nil {
		s.logger.Error("memory fallback write failed for %q: %v", key, err)
		return SetFailed, ErrTransientFailure
	}

	if !s.Initialize(ctx) {
		return SetFallbackOnly, ErrStorageUnavailable
	}

	err := withRetry(ctx, s.maxAttempts, s.writeBase, func(ctx context.Context) error {
		if err := s.backend.Set(ctx, key, value); err != nil {
			return retryable(err)
		}

		got, err := s.backend.Get(ctx, key)
		if err != nil {
			return retryable(err)
		}
		if got != value {
			return retryable(ErrTransientFailure)
		}
		return nil
	})

	if err != nil {
		s.logger.Warn("primary storage set %q failed, value held in memory only: %v", key, err)
		return SetFallbackOnly, ErrTransientFailure
	}

	return SetPersisted, nil
}

// RemoveItem deletes the key from the memory mirror immediately, then from
// the persistent backend with retries plus a verification that it is gone.
// Removing an absent key succeeds.
func (s *PrimaryStore) RemoveItem(ctx context.Context, key string) bool {
	_ = s.fallback.Delete(ctx, key)

	if !s.Initialize(ctx) {
		return true
	}

	err := withRetry(ctx, s.maxAttempts, s.writeBase, func(ctx context.Context) error {
		if err := s.backend.Delete(ctx, key); err != nil {
			return retryable(err)
		}

		if _, err := s.backend.Get(ctx, key); !IsNotFound(err) {
			return retryable(ErrTransientFailure)
		}
		return nil
	})

	if err != nil {
		s.logger.Warn("primary storage remove %q failed: %v", key, err)
		return false
	}

	return true
}

// Clear empties both the memory mirror and, when available, the backend.
func (s *PrimaryStore) Clear(ctx context.Context) bool {
	_ = s.fallback.Clear(ctx)

	if !s.Initialize(ctx) {
		return true
	}

	err := withRetry(ctx, s.maxAttempts, s.writeBase, func(ctx context.Context) error {
		return retryable(s.backend.Clear(ctx))
	})

	if err != nil {
		s.logger.Warn("primary storage clear failed: %v", err)
		return false
	}

	return true
}

// GetDiagnostics reports the adapter's internal state for troubleshooting.
func (s *PrimaryStore) GetDiagnostics() StoreDiagnostics {
	s.mu.Lock()
	available := s.initialized && s.available
	s.mu.Unlock()

	return StoreDiagnostics{
		Platform:          s.platform,
		StorageAvailable:  available,
		FallbackItemCount: s.fallback.Len(),
		BackendPresent:    s.backend != nil,
	}
}
