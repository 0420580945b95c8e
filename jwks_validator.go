package authstate

import (
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JWKSValidator verifies token signatures against one or more remote JWK
// sets. Mobile clients normally run the unverified TokenCodec; deployments
// that can reach the issuer's JWKS endpoint can stack this validator in
// front of it via MultiTokenValidator.
type JWKSValidator struct {
	keyFunc jwt.Keyfunc
	logger  Logger
}

// NewJWKSValidator fetches the given JWK set URLs and returns a validator
// backed by them. The sets refresh in the background for the lifetime of the
// process.
func NewJWKSValidator(jwkSetURLs []string, logger Logger) (*JWKSValidator, error) {
	if logger == nil {
		logger = defLogger{}
	}

	if len(jwkSetURLs) == 0 {
		return nil, fmt.Errorf("at least one JWK set URL is required")
	}

	opts := keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			logger.Warn("failed to do a background refresh of JWT set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}

	m := make(map[string]keyfunc.Options, len(jwkSetURLs))
	for _, url := range jwkSetURLs {
		m[url] = opts
	}

	multi, err := keyfunc.GetMultiple(m, keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get JWT URLs: %w", err)
	}

	return &JWKSValidator{keyFunc: multi.Keyfunc, logger: logger}, nil
}

// Validate satisfies the TokenValidator interface.
func (v *JWKSValidator) Validate(tokenString string) (AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, v.keyFunc)
	if err != nil {
		if IsTokenExpiredError(err) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return claims, nil
	}

	v.logger.Error("JWKS validator could not decode or validate claims")
	return nil, ErrUnableToDecodeToken
}
