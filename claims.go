package authstate

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents structured JWT claims without tying callers to a
// specific decoding implementation.
type AuthClaims interface {
	Subject() string
	UserID() string
	UserEmail() string
	UserName() string
	Role() string
	HasRole(role string) bool
	IsAtLeast(minRole string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// TokenClaims is the concrete implementation of AuthClaims, mirroring the
// payload the remote authentication service signs: id, email, name, role,
// iat, exp.
type TokenClaims struct {
	jwt.RegisteredClaims
	UID      string `json:"id,omitempty"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	UserRole string `json:"role,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*TokenClaims)(nil)

// Subject returns the subject claim
func (c *TokenClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *TokenClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// UserEmail returns the email claim
func (c *TokenClaims) UserEmail() string {
	return c.Email
}

// UserName returns the display name claim
func (c *TokenClaims) UserName() string {
	return c.Name
}

// Role returns the global role
func (c *TokenClaims) Role() string {
	return c.UserRole
}

// HasRole checks if the user has a specific role
func (c *TokenClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// IsAtLeast checks if the user's role is at least the minimum required role
func (c *TokenClaims) IsAtLeast(minRole string) bool {
	return UserRole(c.UserRole).IsAtLeast(UserRole(minRole))
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *TokenClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// hasRequiredFields reports whether the payload carries every identity field
// a usable token must have.
func (c *TokenClaims) hasRequiredFields() bool {
	return c.UID != "" && c.Email != "" && c.Name != "" && c.UserRole != ""
}

// Identity projects the claims into an Identity value object. It returns nil
// when a required field is missing or the role is outside the whitelist.
func (c *TokenClaims) Identity() *Identity {
	if !c.hasRequiredFields() {
		return nil
	}

	role, ok := ParseRole(c.UserRole)
	if !ok {
		return nil
	}

	return &Identity{
		ID:       c.UID,
		Email:    c.Email,
		Name:     c.Name,
		Role:     role,
		IssuedAt: c.IssuedAt(),
		Expiry:   c.Expires(),
	}
}
