package authstate

// TokenValidator validates tokens and extracts claims without tying callers
// to a specific decoding or signing implementation.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string) (AuthClaims, error)

// Validate satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Validate(tokenString string) (AuthClaims, error) {
	if f == nil {
		return nil, ErrUnableToDecodeToken
	}
	return f(tokenString)
}

// MultiTokenValidator tries validators in order until one succeeds.
// It treats malformed-token errors as "try next" and returns the last
// malformed error if all validators fail.
type MultiTokenValidator struct {
	validators []TokenValidator
}

// NewMultiTokenValidator filters nil validators and returns a composite validator.
func NewMultiTokenValidator(validators ...TokenValidator) *MultiTokenValidator {
	filtered := make([]TokenValidator, 0, len(validators))
	for _, v := range validators {
		if v != nil {
			filtered = append(filtered, v)
		}
	}
	return &MultiTokenValidator{validators: filtered}
}

// Validate satisfies the TokenValidator interface.
func (m *MultiTokenValidator) Validate(tokenString string) (AuthClaims, error) {
	var lastErr error
	for _, v := range m.validators {
		claims, err := v.Validate(tokenString)
		if err == nil {
			return claims, nil
		}
		if IsMalformedError(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrTokenMalformed
}

// CodecValidator adapts a TokenCodec into the TokenValidator interface so
// unverified client-side decoding can slot in wherever a validator is
// expected (for example as the last entry of a MultiTokenValidator behind a
// signature-checking one).
type CodecValidator struct {
	codec *TokenCodec
}

// NewCodecValidator wraps the codec; a nil codec gets the default one.
func NewCodecValidator(codec *TokenCodec) *CodecValidator {
	if codec == nil {
		codec = NewTokenCodec()
	}
	return &CodecValidator{codec: codec}
}

// Validate satisfies the TokenValidator interface.
func (v *CodecValidator) Validate(tokenString string) (AuthClaims, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	if !v.codec.IsValidFormat(tokenString) {
		return nil, ErrTokenMalformed
	}

	if v.codec.IsExpired(tokenString) {
		return nil, ErrTokenExpired
	}

	claims, err := v.codec.decodeClaims(tokenString)
	if err != nil {
		return nil, ErrUnableToDecodeToken
	}

	if claims.Identity() == nil {
		return nil, ErrUnableToDecodeToken
	}

	return claims, nil
}
