package authstate_test

import (
	"context"
	"testing"
	"time"

	authstate "github.com/goliatone/go-authstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(primaryBackend, altBackend authstate.Backend) (*authstate.SessionService, *authstate.PrimaryStore, *authstate.AlternativeStore) {
	primary := newPrimary(primaryBackend)
	alternative := newAlternative(altBackend)

	service := authstate.NewSessionService(primary, alternative,
		authstate.WithServiceLogger(nopLogger{}),
		authstate.WithServiceCodec(authstate.NewTokenCodec(authstate.WithCodecLogger(nopLogger{}))),
	)

	return service, primary, alternative
}

func TestSessionService_LoadFromPrimary(t *testing.T) {
	ctx := context.Background()
	service, primary, _ := newService(authstate.NewMemoryBackend(), authstate.NewMemoryBackend())

	token := buildToken(t, validPayload("ADMIN", time.Now().Add(time.Hour)))
	_, err := primary.SetItem(ctx, authstate.DefaultTokenKey, token)
	require.NoError(t, err)

	state := service.Load(ctx)
	require.True(t, state.IsAuthenticated)
	assert.Equal(t, token, state.Token)
	assert.Equal(t, authstate.RoleAdmin, state.User.Role)
}

func TestSessionService_LoadFallsBackToAlternative(t *testing.T) {
	ctx := context.Background()

	// Primary backend is broken for the whole process.
	broken := newFlakyBackend()
	broken.alwaysFail = true

	service, _, alternative := newService(broken, authstate.NewMemoryBackend())

	token := buildToken(t, validPayload("RM", time.Now().Add(time.Hour)))
	_, err := alternative.SetItem(ctx, authstate.DefaultTokenKey, token)
	require.NoError(t, err)

	state := service.Load(ctx)
	require.True(t, state.IsAuthenticated)
	assert.Equal(t, authstate.RoleRM, state.User.Role)
}

func TestSessionService_LoadWithNoTokenAnywhere(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newService(authstate.NewMemoryBackend(), authstate.NewMemoryBackend())

	state := service.Load(ctx)
	assert.False(t, state.IsAuthenticated)
	assert.Empty(t, state.Token)
	assert.Nil(t, state.User)
}

func TestSessionService_LoadDeletesInvalidTokenFromBoth(t *testing.T) {
	ctx := context.Background()
	service, primary, alternative := newService(authstate.NewMemoryBackend(), authstate.NewMemoryBackend())

	expired := buildToken(t, validPayload("ADMIN", time.Now().Add(-time.Hour)))
	_, err := primary.SetItem(ctx, authstate.DefaultTokenKey, expired)
	require.NoError(t, err)
	_, err = alternative.SetItem(ctx, authstate.DefaultTokenKey, expired)
	require.NoError(t, err)

	state := service.Load(ctx)
	assert.False(t, state.IsAuthenticated)

	_, err = primary.GetItem(ctx, authstate.DefaultTokenKey)
	assert.True(t, authstate.IsNotFound(err), "invalid token should be deleted from primary")

	_, err = alternative.GetItem(ctx, authstate.DefaultTokenKey)
	assert.True(t, authstate.IsNotFound(err), "invalid token should be deleted from alternative")
}

func TestSessionService_ResolvePrimaryIgnoresAlternative(t *testing.T) {
	ctx := context.Background()
	service, _, alternative := newService(authstate.NewMemoryBackend(), authstate.NewMemoryBackend())

	token := buildToken(t, validPayload("RM", time.Now().Add(time.Hour)))
	_, err := alternative.SetItem(ctx, authstate.DefaultTokenKey, token)
	require.NoError(t, err)

	state := service.ResolvePrimary(ctx)
	assert.False(t, state.IsAuthenticated, "polling path only reads the primary adapter")
}

func TestSessionService_ResolvePrimaryDeletesInvalidToken(t *testing.T) {
	ctx := context.Background()
	service, primary, _ := newService(authstate.NewMemoryBackend(), authstate.NewMemoryBackend())

	_, err := primary.SetItem(ctx, authstate.DefaultTokenKey, "garbage-token")
	require.NoError(t, err)

	state := service.ResolvePrimary(ctx)
	assert.False(t, state.IsAuthenticated)

	_, err = primary.GetItem(ctx, authstate.DefaultTokenKey)
	assert.True(t, authstate.IsNotFound(err))
}

func TestSessionService_SetTokenWritesBothAdapters(t *testing.T) {
	ctx := context.Background()
	service, primary, alternative := newService(authstate.NewMemoryBackend(), authstate.NewMemoryBackend())

	token := buildToken(t, validPayload("ADMIN", time.Now().Add(time.Hour)))

	state := service.SetToken(ctx, token)
	require.True(t, state.IsAuthenticated)
	assert.Equal(t, "123", state.User.ID)

	got, err := primary.GetItem(ctx, authstate.DefaultTokenKey)
	require.NoError(t, err)
	assert.Equal(t, token, got)

	got, err = alternative.GetItem(ctx, authstate.DefaultTokenKey)
	require.NoError(t, err)
	assert.Equal(t, token, got)
}

func TestSessionService_SetInvalidTokenSettlesLoggedOut(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newService(authstate.NewMemoryBackend(), authstate.NewMemoryBackend())

	state := service.SetToken(ctx, "not-a-token")
	assert.False(t, state.IsAuthenticated)
}

func TestSessionService_ClearAuth(t *testing.T) {
	ctx := context.Background()
	service, primary, alternative := newService(authstate.NewMemoryBackend(), authstate.NewMemoryBackend())

	token := buildToken(t, validPayload("RM", time.Now().Add(time.Hour)))
	service.SetToken(ctx, token)

	state := service.ClearAuth(ctx)
	assert.False(t, state.IsAuthenticated)

	_, err := primary.GetItem(ctx, authstate.DefaultTokenKey)
	assert.True(t, authstate.IsNotFound(err))
	_, err = alternative.GetItem(ctx, authstate.DefaultTokenKey)
	assert.True(t, authstate.IsNotFound(err))
}

func TestSessionService_CustomTokenKey(t *testing.T) {
	ctx := context.Background()
	primary := newPrimary(authstate.NewMemoryBackend())

	service := authstate.NewSessionService(primary, nil,
		authstate.WithServiceLogger(nopLogger{}),
		authstate.WithTokenKey("session_token"),
	)

	token := buildToken(t, validPayload("ADMIN", time.Now().Add(time.Hour)))
	service.SetToken(ctx, token)

	got, err := primary.GetItem(ctx, "session_token")
	require.NoError(t, err)
	assert.Equal(t, token, got)
}
