package authstate

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

// StorageTestResult reports one adapter's independent write/read/delete
// probe, step by step, plus a copy of the adapter's own diagnostics.
type StorageTestResult struct {
	Adapter     string           `json:"adapter"`
	WriteOK     bool             `json:"write_ok"`
	ReadOK      bool             `json:"read_ok"`
	DeleteOK    bool             `json:"delete_ok"`
	VerifyOK    bool             `json:"verify_ok"`
	Passed      bool             `json:"passed"`
	Diagnostics StoreDiagnostics `json:"diagnostics"`
}

// AuthTestResult reports whether a token is present and what the validator
// makes of it.
type AuthTestResult struct {
	TokenPresent bool   `json:"token_present"`
	IsValid      bool   `json:"is_valid"`
	Reason       string `json:"reason,omitempty"`
	Role         string `json:"role,omitempty"`
}

// PersistenceTestResult reports a round-trip of a caller-supplied token
// through one adapter.
type PersistenceTestResult struct {
	Adapter   string     `json:"adapter"`
	Outcome   SetOutcome `json:"-"`
	Stored    string     `json:"stored_as"`
	RoundTrip bool       `json:"round_trip"`
}

// Snapshot is a point-in-time aggregate for field troubleshooting. It is
// never persisted; the only state it draws on beyond the probes is the log
// ring buffer.
type Snapshot struct {
	ID          string              `json:"id"`
	Platform    string              `json:"platform"`
	Timestamp   time.Time           `json:"timestamp"`
	Storage     []StorageTestResult `json:"storage"`
	Auth        AuthTestResult      `json:"auth"`
	Environment map[string]string   `json:"environment"`
	RecentLogs  []LogEntry          `json:"recent_logs"`
}

// ReporterOption customizes Reporter construction.
type ReporterOption func(*Reporter)

// WithReporterEnvironment merges static environment flags into snapshots.
func WithReporterEnvironment(env map[string]string) ReporterOption {
	return func(r *Reporter) {
		for k, v := range env {
			r.env[k] = v
		}
	}
}

// WithReporterTokenKey overrides the storage key probed by TestAuth.
func WithReporterTokenKey(key string) ReporterOption {
	return func(r *Reporter) {
		if key != "" {
			r.tokenKey = key
		}
	}
}

// WithReporterClock injects a custom clock (useful for tests).
func WithReporterClock(clock func() time.Time) ReporterOption {
	return func(r *Reporter) {
		if clock != nil {
			r.now = clock
		}
	}
}

// Reporter aggregates storage, auth, and environment state into debug
// snapshots. It is read-only with respect to real application state; the
// test keys it creates are deleted before it returns.
type Reporter struct {
	primary     Store
	alternative Store
	codec       *TokenCodec
	ring        *RingLogger
	tokenKey    string
	env         map[string]string
	now         func() time.Time
}

// NewReporter wires the reporter over the two adapters. alternative and ring
// may be nil.
func NewReporter(primary, alternative Store, codec *TokenCodec, ring *RingLogger, opts ...ReporterOption) *Reporter {
	if codec == nil {
		codec = NewTokenCodec()
	}

	r := &Reporter{
		primary:     primary,
		alternative: alternative,
		codec:       codec,
		ring:        ring,
		tokenKey:    DefaultTokenKey,
		env: map[string]string{
			"os":         runtime.GOOS,
			"arch":       runtime.GOARCH,
			"go_version": runtime.Version(),
		},
		now: time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// RunFullDiagnostics executes every probe and returns the snapshot.
func (r *Reporter) RunFullDiagnostics(ctx context.Context) *Snapshot {
	snap := &Snapshot{
		ID:          uuid.NewString(),
		Platform:    runtime.GOOS,
		Timestamp:   r.now(),
		Storage:     r.TestStorage(ctx),
		Auth:        r.TestAuth(ctx),
		Environment: r.env,
	}

	if r.ring != nil {
		snap.RecentLogs = r.ring.Entries()
	}

	return snap
}

// TestStorage runs the write/read/delete/verify sequence independently
// against each adapter.
func (r *Reporter) TestStorage(ctx context.Context) []StorageTestResult {
	results := []StorageTestResult{r.probeStore(ctx, "primary", r.primary)}
	if r.alternative != nil {
		results = append(results, r.probeStore(ctx, "alternative", r.alternative))
	}
	return results
}

func (r *Reporter) probeStore(ctx context.Context, name string, store Store) StorageTestResult {
	result := StorageTestResult{Adapter: name}
	if store == nil {
		return result
	}

	store.Initialize(ctx)

	key := r.testKey()
	value := fmt.Sprintf("diag_%d", r.now().UnixNano())

	outcome, _ := store.SetItem(ctx, key, value)
	result.WriteOK = outcome.Readable()

	got, err := store.GetItem(ctx, key)
	result.ReadOK = err == nil && got == value

	result.DeleteOK = store.RemoveItem(ctx, key)

	_, err = store.GetItem(ctx, key)
	result.VerifyOK = IsNotFound(err)

	result.Passed = result.WriteOK && result.ReadOK && result.DeleteOK && result.VerifyOK
	result.Diagnostics = store.GetDiagnostics()
	return result
}

// TestAuth checks for a stored token and runs it through the validator,
// surfacing the decoded role when there is one.
func (r *Reporter) TestAuth(ctx context.Context) AuthTestResult {
	result := AuthTestResult{}
	if r.primary == nil {
		result.Reason = ReasonNoToken
		return result
	}

	r.primary.Initialize(ctx)

	token, err := r.primary.GetItem(ctx, r.tokenKey)
	if err != nil || token == "" {
		result.Reason = ReasonNoToken
		return result
	}

	result.TokenPresent = true

	validation := r.codec.Validate(token)
	result.IsValid = validation.IsValid
	result.Reason = validation.Reason
	if validation.User != nil {
		result.Role = string(validation.User.Role)
	}

	return result
}

// TestTokenPersistence round-trips the supplied token through each adapter
// under a throwaway key.
func (r *Reporter) TestTokenPersistence(ctx context.Context, token string) []PersistenceTestResult {
	stores := []struct {
		name  string
		store Store
	}{
		{"primary", r.primary},
		{"alternative", r.alternative},
	}

	var results []PersistenceTestResult
	for _, s := range stores {
		if s.store == nil {
			continue
		}

		s.store.Initialize(ctx)

		key := r.testKey()
		outcome, _ := s.store.SetItem(ctx, key, token)

		got, err := s.store.GetItem(ctx, key)
		s.store.RemoveItem(ctx, key)

		results = append(results, PersistenceTestResult{
			Adapter:   s.name,
			Outcome:   outcome,
			Stored:    outcome.String(),
			RoundTrip: err == nil && got == token,
		})
	}

	return results
}

// ExportDiagnostics renders a full snapshot as JSON for sharing from a
// misbehaving install.
func (r *Reporter) ExportDiagnostics(ctx context.Context) string {
	return print.MaybePrettyJSON(r.RunFullDiagnostics(ctx))
}

func (r *Reporter) testKey() string {
	return fmt.Sprintf("__diag_test_%d_%s__", r.now().UnixNano(), uuid.NewString()[:8])
}
