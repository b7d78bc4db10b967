package auth

import (
	"context"
	"reflect"
	"time"
)

type Auther struct {
	provider     IdentityProvider
	tokenService TokenService
	sessionTTL   time.Duration
	logger       Logger
}

// NewAuthenticator returns a new Authenticator. Interactive logins are issued
// tokens with the configured session TTL; the token service keeps its own
// default for everything else.
func NewAuthenticator(provider IdentityProvider, cfg Config) *Auther {
	return &Auther{
		provider:     provider,
		tokenService: NewTokenService(cfg, defLogger{}),
		sessionTTL:   cfg.GetSessionTTL(),
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithTokenService overrides the token service, mostly for tests.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	s.tokenService = ts
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// SessionTTL returns the duration interactive tokens are valid for
func (s *Auther) SessionTTL() time.Duration {
	return s.sessionTTL
}

// Login verifies the credentials and issues a session token for the subject.
func (s *Auther) Login(ctx context.Context, username, password string) (string, error) {
	identity, err := s.provider.VerifyIdentity(ctx, username, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return "", ErrIdentityNotFound
	}

	return s.tokenService.Generate(identity.Username(), s.sessionTTL)
}

// SessionFromToken verifies a raw token and converts its claims to a session.
func (s *Auther) SessionFromToken(raw string) (Session, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		return nil, err
	}

	return sessionFromAuthClaims(claims)
}

// IdentityFromSession resolves the session subject against the user store. A
// token that verifies but names a user that no longer exists yields
// ErrIdentityNotFound, never a stale identity.
func (s *Auther) IdentityFromSession(ctx context.Context, session Session) (Identity, error) {
	identity, err := s.provider.FindIdentityByUsername(ctx, session.GetSubject())
	if err != nil {
		s.logger.Error("IdentityFromSession find identity: %s", err)
		return nil, err
	}

	return identity, nil
}

var _ Authenticator = (*Auther)(nil)
