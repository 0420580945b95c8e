package authstate_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	authstate "github.com/goliatone/go-authstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackend(t *testing.T) {
	ctx := context.Background()
	backend := authstate.NewMemoryBackend()

	assert.Equal(t, "memory", backend.Name())

	_, err := backend.Get(ctx, "missing")
	assert.True(t, authstate.IsNotFound(err))

	require.NoError(t, backend.Set(ctx, "a", "1"))
	require.NoError(t, backend.Set(ctx, "b", "2"))

	got, err := backend.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", got)

	keys, err := backend.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, keys)
	assert.Equal(t, 2, backend.Len())

	require.NoError(t, backend.Delete(ctx, "a"))
	_, err = backend.Get(ctx, "a")
	assert.True(t, authstate.IsNotFound(err))

	require.NoError(t, backend.Clear(ctx))
	assert.Equal(t, 0, backend.Len())
}

func TestFileBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	backend, err := authstate.NewFileBackend(path)
	require.NoError(t, err)
	assert.Equal(t, "file", backend.Name())

	require.NoError(t, backend.Set(ctx, "token", "abc.def.ghi"))

	got, err := backend.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", got)

	require.NoError(t, backend.Delete(ctx, "token"))
	_, err = backend.Get(ctx, "token")
	assert.True(t, authstate.IsNotFound(err))
}

func TestFileBackend_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	backend, err := authstate.NewFileBackend(path)
	require.NoError(t, err)
	require.NoError(t, backend.Set(ctx, "token", "persisted-value"))
	require.NoError(t, backend.Set(ctx, "other", "x"))

	reopened, err := authstate.NewFileBackend(path)
	require.NoError(t, err)

	got, err := reopened.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "persisted-value", got)

	keys, err := reopened.Keys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestFileBackend_MissingFileIsEmptyStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "does-not-exist.json")

	backend, err := authstate.NewFileBackend(path)
	require.NoError(t, err)

	_, err = backend.Get(ctx, "anything")
	assert.True(t, authstate.IsNotFound(err))
}

func TestFileBackend_Clear(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	backend, err := authstate.NewFileBackend(path)
	require.NoError(t, err)
	require.NoError(t, backend.Set(ctx, "a", "1"))
	require.NoError(t, backend.Clear(ctx))

	reopened, err := authstate.NewFileBackend(path)
	require.NoError(t, err)

	keys, err := reopened.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestFileBackend_AsPrimaryStorage(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	backend, err := authstate.NewFileBackend(path)
	require.NoError(t, err)

	store := newPrimary(backend)
	require.True(t, store.Initialize(ctx))

	token := buildToken(t, validPayload("ADMIN", time.Now().Add(time.Hour)))
	outcome, err := store.SetItem(ctx, "token", token)
	require.NoError(t, err)
	assert.Equal(t, authstate.SetPersisted, outcome)

	// A fresh adapter over the same file sees the token: the write really
	// reached disk, not just the memory mirror.
	reopened, err := authstate.NewFileBackend(path)
	require.NoError(t, err)

	fresh := newPrimary(reopened)
	got, err := fresh.GetItem(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, token, got)
}
