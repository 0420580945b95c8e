package authstate_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	authstate "github.com/goliatone/go-authstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClaims(role string) *authstate.TokenClaims {
	return &authstate.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UID:      "user-1",
		Email:    "rm@example.com",
		Name:     "Field RM",
		UserRole: role,
	}
}

func TestTokenClaims_Accessors(t *testing.T) {
	claims := newClaims("RM")

	assert.Equal(t, "user-1", claims.Subject())
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "rm@example.com", claims.UserEmail())
	assert.Equal(t, "Field RM", claims.UserName())
	assert.Equal(t, "RM", claims.Role())
}

func TestTokenClaims_HasRole(t *testing.T) {
	claims := newClaims("ADMIN")

	assert.True(t, claims.HasRole("ADMIN"))
	assert.False(t, claims.HasRole("RM"))
}

func TestTokenClaims_IsAtLeast(t *testing.T) {
	admin := newClaims("ADMIN")
	rm := newClaims("RM")

	assert.True(t, admin.IsAtLeast("RM"))
	assert.True(t, admin.IsAtLeast("ADMIN"))
	assert.True(t, rm.IsAtLeast("RM"))
	assert.False(t, rm.IsAtLeast("ADMIN"))
}

func TestTokenClaims_Identity(t *testing.T) {
	t.Run("complete claims yield an identity", func(t *testing.T) {
		identity := newClaims("RM").Identity()
		require.NotNil(t, identity)
		assert.Equal(t, "user-1", identity.ID)
		assert.Equal(t, authstate.RoleRM, identity.Role)
		assert.False(t, identity.Expiry.IsZero())
	})

	t.Run("missing fields yield nil", func(t *testing.T) {
		claims := newClaims("RM")
		claims.Email = ""
		assert.Nil(t, claims.Identity())

		claims = newClaims("RM")
		claims.UID = ""
		assert.Nil(t, claims.Identity())

		claims = newClaims("RM")
		claims.Name = ""
		assert.Nil(t, claims.Identity())
	})

	t.Run("unknown role yields nil", func(t *testing.T) {
		assert.Nil(t, newClaims("SUPERUSER").Identity())
		assert.Nil(t, newClaims("").Identity())
	})
}
