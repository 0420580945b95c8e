package authstate

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ensureTokenID assigns a jti when the claims do not carry one yet.
func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}

// HasUserUUID reports whether the identity's ID parses as a UUID.
func HasUserUUID(identity *Identity) bool {
	if identity == nil {
		return false
	}
	_, err := uuid.Parse(identity.ID)
	return err == nil
}
