package authgate

import (
	"context"
	"time"
)

// Session scopes auth and profile state to one user session. In a browser
// that is the whole process, in a server it is one cookie.
type Session struct {
	auth       *AuthState
	profile    *ProfileState
	provider   IdentityProvider
	reconciler *Reconciler
	configured bool
	createdAt  time.Time
	logger     Logger
}

var _ GuardSession = (*Session)(nil)

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithSessionLogger overrides the logger passed down to the auth state.
func WithSessionLogger(l Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession creates the session and activates its auth state against
// provider. A nil provider or incomplete cfg yields a ready, signed out
// session.
func NewSession(provider IdentityProvider, cfg ProviderConfig, reconciler *Reconciler, opts ...SessionOption) *Session {
	s := &Session{
		profile:    NewProfileState(),
		provider:   provider,
		reconciler: reconciler,
		configured: provider != nil && cfg.HasMinimalConfig(),
		createdAt:  time.Now(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = resolveLogger("authgate.session", s.logger)
	s.auth = NewAuthState(WithAuthStateLogger(s.logger))
	s.auth.Activate(provider, cfg)
	return s
}

// Auth returns the session's auth state.
func (s *Session) Auth() *AuthState {
	return s.auth
}

// Profile returns the session's profile state.
func (s *Session) Profile() *ProfileState {
	return s.profile
}

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// ProviderConfigured reports whether an identity provider is in use.
func (s *Session) ProviderConfigured() bool {
	return s.configured
}

// CurrentIdentity returns the last known identity.
func (s *Session) CurrentIdentity() *Identity {
	return s.auth.CurrentIdentity()
}

// WaitUntilReady blocks until the auth state is ready.
func (s *Session) WaitUntilReady(ctx context.Context) error {
	return s.auth.WaitUntilReady(ctx)
}

// EnsureProfile reconciles the profile of the current identity.
func (s *Session) EnsureProfile(ctx context.Context, force bool) {
	var opts []EnsureOption
	if force {
		opts = append(opts, WithForce())
	}
	s.reconciler.EnsureProfile(ctx, s.profile, s.auth.CurrentIdentity(), opts...)
}

// RefreshProfile forces a new reconciliation.
func (s *Session) RefreshProfile(ctx context.Context) {
	s.EnsureProfile(ctx, true)
}

// Role returns the resolved role.
func (s *Session) Role() (Role, bool) {
	return s.profile.Role()
}

// ResetProfile clears the role and readiness.
func (s *Session) ResetProfile() {
	s.profile.Reset()
}

// SignIn authenticates with the provider and re-resolves the profile for
// the new identity.
func (s *Session) SignIn(ctx context.Context, credential string) error {
	if !s.configured {
		return ErrProviderUnavailable
	}
	if err := s.provider.SignIn(ctx, credential); err != nil {
		return err
	}
	s.RefreshProfile(ctx)
	return nil
}

// SignOut ends the provider session and resets the profile.
func (s *Session) SignOut(ctx context.Context) error {
	defer s.profile.Reset()
	if !s.configured {
		return nil
	}
	return s.provider.SignOut(ctx)
}

// Close releases the provider subscription.
func (s *Session) Close() {
	s.auth.Close()
}
