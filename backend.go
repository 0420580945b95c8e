package authstate

import "context"

// Backend is a raw key-value persistence target. Backends may fail at any
// call; the Store adapters wrap them with health checks, retries, and
// fallbacks, so implementations should just surface their errors.
//
// Get must return ErrNotFound (directly or wrapped) for absent keys.
type Backend interface {
	Name() string
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
}

// Reserved keys used by health checks and diagnostics probes.
const (
	healthCheckKey   = "__storage_health_check__"
	healthCheckValue = "test_value"
	altProbeKey      = "__alt_storage_test__"
)
