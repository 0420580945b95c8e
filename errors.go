package authstate

import (
	"errors"
	"strings"
)

// Storage failure kinds. Callers match these with errors.Is so "the key is
// absent" stays distinguishable from "the backend is broken".
var (
	// ErrNotFound means the key is absent from every reachable backend.
	ErrNotFound = errors.New("item not found")

	// ErrStorageUnavailable means the backend failed its health check and the
	// adapter is running memory-only.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrTransientFailure means the backend threw and retries were exhausted.
	ErrTransientFailure = errors.New("transient storage failure")
)

// Token failure sentinels.
var (
	// ErrNoToken is returned when no token was provided at all.
	ErrNoToken = errors.New("no token provided")

	// ErrTokenMalformed is returned for tokens that do not parse as three
	// base64url segments.
	ErrTokenMalformed = errors.New("invalid JWT format")

	// ErrTokenExpired is returned for structurally valid tokens whose exp
	// claim is in the past.
	ErrTokenExpired = errors.New("token is expired")

	// ErrUnableToDecodeToken is returned when the payload cannot be decoded
	// into a usable identity.
	ErrUnableToDecodeToken = errors.New("unable to decode token")
)

// ErrIdentityNotFound is the error we return when no valid identity can be
// resolved from storage.
var ErrIdentityNotFound = errors.New("identity not found")

// IsNotFound reports whether err means "item absent" rather than a failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsStorageUnavailable reports whether err means the persistent backend is
// out for the process lifetime.
func IsStorageUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenExpired) ||
		strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenMalformed) ||
		strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
