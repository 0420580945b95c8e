package authstate_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	authstate "github.com/goliatone/go-authstate"
)

// flakyBackend wraps a real memory backend with failure injection so tests
// can drive the adapters through their degraded paths.
type flakyBackend struct {
	mu sync.Mutex

	inner *authstate.MemoryBackend

	failSets    int
	failGets    int
	failDeletes int
	alwaysFail  bool
	corruptGets bool
}

func newFlakyBackend() *flakyBackend {
	return &flakyBackend{inner: authstate.NewMemoryBackend()}
}

var errInjected = errors.New("injected backend failure")

func (f *flakyBackend) Name() string { return "flaky" }

func (f *flakyBackend) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	fail := f.alwaysFail || f.failGets > 0
	if f.failGets > 0 {
		f.failGets--
	}
	corrupt := f.corruptGets
	f.mu.Unlock()

	if fail {
		return "", errInjected
	}

	value, err := f.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if corrupt {
		return value + "_corrupted", nil
	}
	return value, nil
}

func (f *flakyBackend) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	fail := f.alwaysFail || f.failSets > 0
	if f.failSets > 0 {
		f.failSets--
	}
	f.mu.Unlock()

	if fail {
		return errInjected
	}
	return f.inner.Set(ctx, key, value)
}

func (f *flakyBackend) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	fail := f.alwaysFail || f.failDeletes > 0
	if f.failDeletes > 0 {
		f.failDeletes--
	}
	f.mu.Unlock()

	if fail {
		return errInjected
	}
	return f.inner.Delete(ctx, key)
}

func (f *flakyBackend) Keys(ctx context.Context) ([]string, error) {
	return f.inner.Keys(ctx)
}

func (f *flakyBackend) Clear(ctx context.Context) error {
	f.mu.Lock()
	fail := f.alwaysFail
	f.mu.Unlock()

	if fail {
		return errInjected
	}
	return f.inner.Clear(ctx)
}

// fastRetry keeps adapter tests quick.
func fastRetry() authstate.PrimaryOption {
	return authstate.WithRetrySchedule(2, time.Millisecond, time.Millisecond)
}

// nopLogger silences test output.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// buildToken fabricates a three-segment token with the given payload. The
// signature is not verified by the codec, so a placeholder segment is fine.
func buildToken(t *testing.T, payload map[string]any) string {
	t.Helper()

	header := map[string]any{"alg": "HS256", "typ": "JWT"}

	encode := func(v any) string {
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to encode token segment: %v", err)
		}
		return base64.RawURLEncoding.EncodeToString(raw)
	}

	return encode(header) + "." + encode(payload) + "." + base64.RawURLEncoding.EncodeToString([]byte("sig"))
}

// validPayload returns a payload that passes every codec check.
func validPayload(role string, exp time.Time) map[string]any {
	return map[string]any{
		"id":    "123",
		"email": "a@b.com",
		"name":  "A",
		"role":  role,
		"iat":   time.Now().Add(-time.Minute).Unix(),
		"exp":   exp.Unix(),
	}
}
