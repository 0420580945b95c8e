package authstate_test

import (
	"context"
	"testing"

	authstate "github.com/goliatone/go-authstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPrimary(backend authstate.Backend) *authstate.PrimaryStore {
	return authstate.NewPrimaryStore(backend,
		fastRetry(),
		authstate.WithPrimaryLogger(nopLogger{}),
	)
}

func TestPrimaryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newPrimary(authstate.NewMemoryBackend())

	require.True(t, store.Initialize(ctx))

	outcome, err := store.SetItem(ctx, "token", "abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, authstate.SetPersisted, outcome)

	got, err := store.GetItem(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", got)
}

func TestPrimaryStore_RemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newPrimary(authstate.NewMemoryBackend())

	_, err := store.SetItem(ctx, "k", "v")
	require.NoError(t, err)

	assert.True(t, store.RemoveItem(ctx, "k"))
	_, err = store.GetItem(ctx, "k")
	assert.True(t, authstate.IsNotFound(err))

	// Second remove of an absent key must not error either.
	assert.True(t, store.RemoveItem(ctx, "k"))
	_, err = store.GetItem(ctx, "k")
	assert.True(t, authstate.IsNotFound(err))
}

func TestPrimaryStore_FailingWritesServeFromFallback(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend()
	store := newPrimary(backend)

	// Let the health check pass, then break every write.
	require.True(t, store.Initialize(ctx))
	backend.mu.Lock()
	backend.failSets = 1000
	backend.mu.Unlock()

	outcome, err := store.SetItem(ctx, "token", "value1")
	assert.Equal(t, authstate.SetFallbackOnly, outcome)
	assert.Error(t, err)

	// The value is still observable in the same process.
	got, err := store.GetItem(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "value1", got)
}

func TestPrimaryStore_ReadBackMismatchCountsAsFailure(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend()
	store := newPrimary(backend)

	require.True(t, store.Initialize(ctx))
	backend.mu.Lock()
	backend.corruptGets = true
	backend.mu.Unlock()

	outcome, err := store.SetItem(ctx, "token", "value1")
	assert.Equal(t, authstate.SetFallbackOnly, outcome)
	assert.Error(t, err)
	assert.True(t, outcome.Readable())
}

func TestPrimaryStore_HealthCheckFailureMeansMemoryOnly(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend()
	// Corrupted reads make the write/read-back verification fail.
	backend.corruptGets = true
	store := newPrimary(backend)

	assert.False(t, store.Initialize(ctx))

	diag := store.GetDiagnostics()
	assert.False(t, diag.StorageAvailable)
	assert.True(t, diag.BackendPresent)

	// Subsequent operations run purely against the in-memory map.
	outcome, err := store.SetItem(ctx, "token", "v")
	assert.Equal(t, authstate.SetFallbackOnly, outcome)
	assert.True(t, authstate.IsStorageUnavailable(err))

	got, err := store.GetItem(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	assert.Equal(t, 1, store.GetDiagnostics().FallbackItemCount)
}

func TestPrimaryStore_NilBackend(t *testing.T) {
	ctx := context.Background()
	store := newPrimary(nil)

	assert.False(t, store.Initialize(ctx))

	outcome, err := store.SetItem(ctx, "k", "v")
	assert.Equal(t, authstate.SetFallbackOnly, outcome)
	assert.True(t, authstate.IsStorageUnavailable(err))

	got, err := store.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	diag := store.GetDiagnostics()
	assert.False(t, diag.BackendPresent)
}

func TestPrimaryStore_RetryRecoversFromTransientFailure(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend()
	store := newPrimary(backend)

	require.True(t, store.Initialize(ctx))

	// One transient failure, then the backend recovers inside the retry
	// budget.
	backend.mu.Lock()
	backend.failSets = 1
	backend.mu.Unlock()

	outcome, err := store.SetItem(ctx, "k", "v")
	require.NoError(t, err)
	assert.Equal(t, authstate.SetPersisted, outcome)
}

func TestPrimaryStore_GetFallsBackAfterExhaustedRetries(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend()
	store := newPrimary(backend)

	require.True(t, store.Initialize(ctx))

	_, err := store.SetItem(ctx, "k", "v")
	require.NoError(t, err)

	backend.mu.Lock()
	backend.failGets = 1000
	backend.mu.Unlock()

	got, err := store.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestPrimaryStore_MissingKeyEverywhereIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := newPrimary(authstate.NewMemoryBackend())

	_, err := store.GetItem(ctx, "never_written")
	assert.True(t, authstate.IsNotFound(err))
}

func TestPrimaryStore_Reinitialize(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend()
	backend.alwaysFail = true
	store := newPrimary(backend)

	assert.False(t, store.Initialize(ctx))

	// Unavailability is memoized for the process lifetime.
	assert.False(t, store.Initialize(ctx))

	// Until an explicit reinitialize after the backend recovers.
	backend.mu.Lock()
	backend.alwaysFail = false
	backend.mu.Unlock()

	assert.True(t, store.Reinitialize(ctx))
	assert.True(t, store.GetDiagnostics().StorageAvailable)
}

func TestPrimaryStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := newPrimary(authstate.NewMemoryBackend())

	_, err := store.SetItem(ctx, "a", "1")
	require.NoError(t, err)
	_, err = store.SetItem(ctx, "b", "2")
	require.NoError(t, err)

	assert.True(t, store.Clear(ctx))

	_, err = store.GetItem(ctx, "a")
	assert.True(t, authstate.IsNotFound(err))
	assert.Equal(t, 0, store.GetDiagnostics().FallbackItemCount)
}
