package authstate

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Validation reasons surfaced by TokenCodec.Validate.
const (
	ReasonNoToken       = "No token provided"
	ReasonNotString     = "Token is not a string"
	ReasonInvalidFormat = "Invalid JWT format"
	ReasonExpired       = "Token is expired"
	ReasonDecodeFailed  = "Failed to decode token"
)

// ValidationResult is the settled outcome of validating a raw token.
type ValidationResult struct {
	IsValid bool      `json:"is_valid"`
	User    *Identity `json:"user,omitempty"`
	Reason  string    `json:"reason,omitempty"`
}

// CodecOption customizes TokenCodec construction.
type CodecOption func(*TokenCodec)

// WithCodecLogger overrides the logger used for decode diagnostics.
func WithCodecLogger(logger Logger) CodecOption {
	return func(c *TokenCodec) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCodecClock injects a custom clock (useful for tests).
func WithCodecClock(clock func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		if clock != nil {
			c.now = clock
		}
	}
}

// TokenCodec decodes and validates bearer tokens without verifying their
// signature; the remote service signed them, the client only decides whether
// a stored token is still usable. Every decode failure is converted into an
// invalid/nil result, never a panic or an error value.
type TokenCodec struct {
	logger Logger
	now    func() time.Time
}

// NewTokenCodec returns a codec with the default clock and logger.
func NewTokenCodec(opts ...CodecOption) *TokenCodec {
	c := &TokenCodec{
		logger: defLogger{},
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// IsValidFormat reports whether token splits into exactly three non-empty
// base64url segments.
func (c *TokenCodec) IsValidFormat(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}

	for _, part := range parts {
		if part == "" {
			return false
		}
		if _, err := decodeSegment(part); err != nil {
			return false
		}
	}

	return true
}

// IsExpired compares the exp claim against the clock. Any decode failure is
// treated as expired (fail-closed).
func (c *TokenCodec) IsExpired(token string) bool {
	payload, err := c.decodePayload(token)
	if err != nil {
		return true
	}

	exp, ok := payload["exp"].(float64)
	if !ok {
		return true
	}

	return c.now().Unix() >= int64(exp)
}

// Decode extracts the identity carried by the token payload. It returns nil
// when the token is malformed, a required field (id, email, role, name) is
// empty, or the role is outside the whitelist. Expiry is not checked here.
func (c *TokenCodec) Decode(token string) *Identity {
	claims, err := c.decodeClaims(token)
	if err != nil {
		c.logger.Debug("codec decode failed: %v", err)
		return nil
	}

	return claims.Identity()
}

// Validate composes the format, expiry, and decode checks in order. The raw
// parameter mirrors the storage layer, which can hand back a missing value;
// pass the token string or nil.
func (c *TokenCodec) Validate(raw any) ValidationResult {
	if raw == nil {
		return ValidationResult{Reason: ReasonNoToken}
	}

	token, ok := raw.(string)
	if !ok {
		return ValidationResult{Reason: ReasonNotString}
	}

	if token == "" {
		return ValidationResult{Reason: ReasonNoToken}
	}

	if !c.IsValidFormat(token) {
		return ValidationResult{Reason: ReasonInvalidFormat}
	}

	if c.IsExpired(token) {
		return ValidationResult{Reason: ReasonExpired}
	}

	user := c.Decode(token)
	if user == nil {
		return ValidationResult{Reason: ReasonDecodeFailed}
	}

	return ValidationResult{IsValid: true, User: user}
}

// decodeClaims parses the token without signature verification and without
// registered-claim validation; expiry is checked separately so the reason
// strings stay distinct.
func (c *TokenCodec) decodeClaims(token string) (*TokenClaims, error) {
	parser := jwt.NewParser()

	claims := &TokenClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, err
	}

	return claims, nil
}

func (c *TokenCodec) decodePayload(token string) (map[string]any, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrTokenMalformed
	}

	raw, err := decodeSegment(parts[1])
	if err != nil {
		return nil, err
	}

	payload := map[string]any{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	return payload, nil
}

// decodeSegment accepts both url-safe and standard alphabets, with or
// without padding, matching what the issuing service emits.
func decodeSegment(seg string) ([]byte, error) {
	s := strings.ReplaceAll(seg, "-", "+")
	s = strings.ReplaceAll(s, "_", "/")
	if pad := len(s) % 4; pad != 0 {
		s += strings.Repeat("=", 4-pad)
	}
	return base64.StdEncoding.DecodeString(s)
}
