package authstate

import (
	"context"
	"runtime"
	"sync"
)

// AlternativeOption customizes AlternativeStore construction.
type AlternativeOption func(*AlternativeStore)

// WithAlternativeLogger overrides the logger.
func WithAlternativeLogger(logger Logger) AlternativeOption {
	return func(s *AlternativeStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAlternativePlatform overrides the platform label reported by diagnostics.
func WithAlternativePlatform(platform string) AlternativeOption {
	return func(s *AlternativeStore) {
		if platform != "" {
			s.platform = platform
		}
	}
}

// AlternativeStore is the independent second storage path: memory plus an
// optional persistent backend discovered at initialization. Writes land in
// memory first and reach the persistent backend best-effort, so the store
// keeps answering even while the backend is down.
type AlternativeStore struct {
	persistent Backend
	memory     *MemoryBackend
	logger     Logger
	platform   string

	mu           sync.Mutex
	initialized  bool
	persistentOK bool
	backends     []string
}

var _ Store = (*AlternativeStore)(nil)

// NewAlternativeStore wraps the optional persistent backend; pass nil to run
// memory-only.
func NewAlternativeStore(persistent Backend, opts ...AlternativeOption) *AlternativeStore {
	s := &AlternativeStore{
		persistent: persistent,
		memory:     NewMemoryBackend(),
		logger:     defLogger{},
		platform:   runtime.GOOS,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Initialize probes which backends are usable and records their names.
// Memory always qualifies. It reports true as long as any backend is usable,
// which for this store is always.
func (s *AlternativeStore) Initialize(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return true
	}

	s.initialized = true
	s.backends = []string{s.memory.Name()}

	if s.persistent != nil && s.probePersistent(ctx) {
		s.persistentOK = true
		s.backends = append(s.backends, s.persistent.Name())
	} else if s.persistent != nil {
		s.logger.Warn("alternative storage backend %q failed probe, running memory-only", s.persistent.Name())
	}

	return true
}

func (s *AlternativeStore) probePersistent(ctx context.Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("alternative storage probe panicked: %v", r)
			ok = false
		}
	}()

	if err := s.persistent.Set(ctx, altProbeKey, healthCheckValue); err != nil {
		return false
	}

	got, err := s.persistent.Get(ctx, altProbeKey)
	if err != nil || got != healthCheckValue {
		return false
	}

	if err := s.persistent.Delete(ctx, altProbeKey); err != nil {
		return false
	}

	return true
}

func (s *AlternativeStore) persistentAvailable(ctx context.Context) bool {
	s.Initialize(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistentOK
}

// GetItem prefers the persistent backend and mirrors successful reads back
// into memory; otherwise it serves from memory.
func (s *AlternativeStore) GetItem(ctx context.Context, key string) (string, error) {
	if s.persistentAvailable(ctx) {
		value, err := s.persistent.Get(ctx, key)
		if err == nil {
			_ = s.memory.Set(ctx, key, value)
			return value, nil
		}
		if !IsNotFound(err) {
			s.logger.Warn("alternative storage get %q failed, trying memory: %v", key, err)
		}
	}

	value, err := s.memory.Get(ctx, key)
	if err != nil {
		return "", ErrNotFound
	}
	return value, nil
}

// SetItem writes to memory first (always succeeds), then opportunistically
// to the persistent backend. A persistent failure is logged, not retried.
func (s *AlternativeStore) SetItem(ctx context.Context, key, value string) (SetOutcome, error) {
	if err := s.memory.Set(ctx, key, value); err != nil {
		return SetFailed, ErrTransientFailure
	}

	if !s.persistentAvailable(ctx) {
		return SetFallbackOnly, nil
	}

	if err := s.persistent.Set(ctx, key, value); err != nil {
		s.logger.Warn("alternative storage set %q failed, value held in memory: %v", key, err)
		return SetFallbackOnly, nil
	}

	return SetPersisted, nil
}

// RemoveItem deletes the key from every usable backend.
func (s *AlternativeStore) RemoveItem(ctx context.Context, key string) bool {
	_ = s.memory.Delete(ctx, key)

	if !s.persistentAvailable(ctx) {
		return true
	}

	if err := s.persistent.Delete(ctx, key); err != nil {
		s.logger.Warn("alternative storage remove %q failed: %v", key, err)
		return false
	}

	return true
}

// Clear empties every usable backend.
func (s *AlternativeStore) Clear(ctx context.Context) bool {
	_ = s.memory.Clear(ctx)

	if !s.persistentAvailable(ctx) {
		return true
	}

	if err := s.persistent.Clear(ctx); err != nil {
		s.logger.Warn("alternative storage clear failed: %v", err)
		return false
	}

	return true
}

// SyncStorages pushes every memory-held key into the persistent backend, for
// use after the backend becomes available mid-session. It returns how many
// keys were synced.
func (s *AlternativeStore) SyncStorages(ctx context.Context) (int, error) {
	if !s.persistentAvailable(ctx) {
		return 0, ErrStorageUnavailable
	}

	keys, err := s.memory.Keys(ctx)
	if err != nil {
		return 0, ErrTransientFailure
	}

	synced := 0
	for _, key := range keys {
		value, err := s.memory.Get(ctx, key)
		if err != nil {
			continue
		}
		if err := s.persistent.Set(ctx, key, value); err != nil {
			s.logger.Warn("sync of %q failed: %v", key, err)
			continue
		}
		synced++
	}

	return synced, nil
}

// GetDiagnostics reports the adapter's internal state for troubleshooting.
func (s *AlternativeStore) GetDiagnostics() StoreDiagnostics {
	s.mu.Lock()
	backends := append([]string(nil), s.backends...)
	persistentOK := s.persistentOK
	s.mu.Unlock()

	return StoreDiagnostics{
		Platform:          s.platform,
		StorageAvailable:  persistentOK,
		FallbackItemCount: s.memory.Len(),
		BackendPresent:    s.persistent != nil,
		Backends:          backends,
	}
}
