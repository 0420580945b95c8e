package authstate

import (
	"context"
	"sync"
)

// DefaultTokenKey is the storage key the session layer reads and writes.
const DefaultTokenKey = "token"

// ServiceOption customizes SessionService construction.
type ServiceOption func(*SessionService)

// WithServiceLogger overrides the logger.
func WithServiceLogger(logger Logger) ServiceOption {
	return func(s *SessionService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithServiceCodec overrides the token codec.
func WithServiceCodec(codec *TokenCodec) ServiceOption {
	return func(s *SessionService) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// WithTokenKey overrides the storage key holding the session token.
func WithTokenKey(key string) ServiceOption {
	return func(s *SessionService) {
		if key != "" {
			s.tokenKey = key
		}
	}
}

// SessionService owns the read-token/validate/delete decision tree over the
// two storage adapters. Resolver and StableResolver are thin views over this
// service, so the dual-backend logic exists exactly once.
type SessionService struct {
	primary     TokenStore
	alternative TokenStore
	codec       *TokenCodec
	logger      Logger
	tokenKey    string
}

// NewSessionService wires the service over the two adapters. alternative may
// be nil, in which case the dual-path load degrades to primary-only.
func NewSessionService(primary, alternative TokenStore, opts ...ServiceOption) *SessionService {
	s := &SessionService{
		primary:     primary,
		alternative: alternative,
		codec:       NewTokenCodec(),
		logger:      defLogger{},
		tokenKey:    DefaultTokenKey,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Codec exposes the codec used for validation.
func (s *SessionService) Codec() *TokenCodec {
	return s.codec
}

// ResolvePrimary is the polling resolver's fetch: primary adapter only. An
// unavailable adapter or an absent token settles to logged out; an invalid
// token is deleted from storage as a side effect of the read.
func (s *SessionService) ResolvePrimary(ctx context.Context) SessionState {
	if !s.primary.Initialize(ctx) {
		s.logger.Warn("session fetch: primary storage unavailable")
		return LoggedOut()
	}

	token, err := s.primary.GetItem(ctx, s.tokenKey)
	if err != nil {
		if !IsNotFound(err) {
			s.logger.Warn("session fetch: token read failed: %v", err)
		}
		return LoggedOut()
	}

	result := s.codec.Validate(token)
	if !result.IsValid {
		s.logger.Info("session fetch: stored token invalid (%s), deleting", result.Reason)
		s.primary.RemoveItem(ctx, s.tokenKey)
		return LoggedOut()
	}

	return Authenticated(token, result.User)
}

// Load is the stable resolver's fetch: primary first, then alternative. An
// invalid token is deleted from both adapters before settling to logged out.
func (s *SessionService) Load(ctx context.Context) SessionState {
	token := s.readToken(ctx)
	if token == "" {
		return LoggedOut()
	}

	result := s.codec.Validate(token)
	if !result.IsValid {
		s.logger.Info("session load: stored token invalid (%s), deleting from both adapters", result.Reason)
		s.removeEverywhere(ctx)
		return LoggedOut()
	}

	return Authenticated(token, result.User)
}

func (s *SessionService) readToken(ctx context.Context) string {
	s.primary.Initialize(ctx)

	if token, err := s.primary.GetItem(ctx, s.tokenKey); err == nil && token != "" {
		return token
	}

	if s.alternative == nil {
		return ""
	}

	s.alternative.Initialize(ctx)

	token, err := s.alternative.GetItem(ctx, s.tokenKey)
	if err != nil || token == "" {
		return ""
	}

	s.logger.Info("session load: token served by alternative storage")
	return token
}

// SetToken writes the token to both adapters concurrently, then validates it
// and returns the resulting state synchronously. Used right after login so
// callers do not wait on a polling cadence.
func (s *SessionService) SetToken(ctx context.Context, token string) SessionState {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if outcome, err := s.primary.SetItem(ctx, s.tokenKey, token); !outcome.Readable() {
			s.logger.Error("session set: primary write failed: %v", err)
		}
	}()

	if s.alternative != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if outcome, err := s.alternative.SetItem(ctx, s.tokenKey, token); !outcome.Readable() {
				s.logger.Error("session set: alternative write failed: %v", err)
			}
		}()
	}

	wg.Wait()

	result := s.codec.Validate(token)
	if !result.IsValid {
		s.logger.Warn("session set: token rejected by validator: %s", result.Reason)
		return LoggedOut()
	}

	return Authenticated(token, result.User)
}

// ClearAuth deletes the token from both adapters and settles to logged out.
func (s *SessionService) ClearAuth(ctx context.Context) SessionState {
	s.removeEverywhere(ctx)
	return LoggedOut()
}

func (s *SessionService) removeEverywhere(ctx context.Context) {
	s.primary.RemoveItem(ctx, s.tokenKey)
	if s.alternative != nil {
		s.alternative.RemoveItem(ctx, s.tokenKey)
	}
}
