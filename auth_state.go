package authgate

import (
	"context"
	"sync"
	"sync/atomic"
)

const (
	attachUninitialized int32 = iota
	attachAttaching
	attachAttached
)

// ProviderConfig carries the minimal settings needed to talk to the identity
// provider. Which fields matter depends on the provider; HasMinimalConfig
// only checks that the provider can be reached at all.
type ProviderConfig struct {
	Issuer     string   `env:"ISSUER"`
	Audience   []string `env:"AUDIENCE" envSeparator:","`
	SigningKey string   `env:"SIGNING_KEY"`
	JWKSURL    string   `env:"JWKS_URL"`
	// Local marks in-process providers that need no remote settings.
	Local bool `env:"LOCAL"`
}

// HasMinimalConfig reports whether the provider is configured.
func (c ProviderConfig) HasMinimalConfig() bool {
	if c.Local {
		return true
	}
	return c.Issuer != "" && (c.SigningKey != "" || c.JWKSURL != "")
}

// AuthState holds the current identity and the readiness flag. Ready goes
// from false to true exactly once and never reverts.
type AuthState struct {
	cell        *readyCell
	identity    *Identity
	attach      atomic.Int32
	unsubscribe func()
	unsubMu     sync.Mutex
	logger      Logger
}

// AuthStateOption customizes an AuthState.
type AuthStateOption func(*AuthState)

// WithAuthStateLogger overrides the logger.
func WithAuthStateLogger(l Logger) AuthStateOption {
	return func(s *AuthState) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewAuthState returns a state with no identity and ready=false.
func NewAuthState(opts ...AuthStateOption) *AuthState {
	s := &AuthState{
		cell: newReadyCell(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = resolveLogger("authgate.auth_state", s.logger)
	return s
}

// CurrentIdentity returns the last known identity, nil if none.
func (s *AuthState) CurrentIdentity() *Identity {
	s.cell.mu.Lock()
	defer s.cell.mu.Unlock()
	return cloneIdentity(s.identity)
}

// Ready reports whether a definitive answer was observed.
func (s *AuthState) Ready() bool {
	return s.cell.isReady()
}

// WaitUntilReady blocks until Ready is true or ctx ends.
func (s *AuthState) WaitUntilReady(ctx context.Context) error {
	return s.cell.wait(ctx)
}

// Activate attaches the state to the provider change stream. It is safe to
// call repeatedly: the subscription is registered at most once.
func (s *AuthState) Activate(provider IdentityProvider, cfg ProviderConfig) {
	if provider == nil || !cfg.HasMinimalConfig() {
		s.logger.Warn("identity provider not configured, auth will stay signed out",
			"error", ErrProviderUnavailable,
		)
		s.apply(nil)
		return
	}

	if s.attach.CompareAndSwap(attachUninitialized, attachAttaching) {
		s.seed(provider.CurrentIdentity())

		unsubscribe := provider.Subscribe(s.onChange, s.onError)

		s.unsubMu.Lock()
		s.unsubscribe = unsubscribe
		s.unsubMu.Unlock()

		s.attach.Store(attachAttached)
		s.logger.Debug("attached to identity provider")
		return
	}

	if !s.Ready() {
		s.apply(provider.CurrentIdentity())
	}
}

// Attached reports whether the provider subscription is in place.
func (s *AuthState) Attached() bool {
	return s.attach.Load() == attachAttached
}

// Close removes the provider subscription.
func (s *AuthState) Close() {
	s.unsubMu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.unsubMu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (s *AuthState) onChange(identity *Identity) {
	s.apply(identity)
}

func (s *AuthState) onError(err error) {
	s.logger.Error("identity provider change error",
		"error", err,
		"code", TextCodeProviderChange,
	)
	s.apply(nil)
}

// seed sets the identity without touching readiness.
func (s *AuthState) seed(identity *Identity) {
	s.cell.mu.Lock()
	defer s.cell.mu.Unlock()
	s.identity = cloneIdentity(identity)
}

func (s *AuthState) apply(identity *Identity) {
	s.cell.mu.Lock()
	defer s.cell.mu.Unlock()
	s.identity = cloneIdentity(identity)
	s.cell.markReadyLocked()
}
