// Package jwtprovider is an identity provider driven by bearer tokens. A
// sign in validates the token and publishes the identity it carries; a
// sign out publishes no identity.
package jwtprovider

import (
	"context"

	"github.com/goliatone/go-authgate"
	"github.com/goliatone/go-authgate/provider/memory"
)

// Provider implements authgate.IdentityProvider. It is resolved from the
// start: without a token the answer is "signed out".
type Provider struct {
	validator TokenValidator
	hub       *memory.Provider
}

var _ authgate.IdentityProvider = (*Provider)(nil)

// New creates a provider for one session.
func New(validator TokenValidator) *Provider {
	return &Provider{
		validator: validator,
		hub:       memory.NewResolved(nil),
	}
}

// CurrentIdentity implements authgate.IdentityProvider.
func (p *Provider) CurrentIdentity() *authgate.Identity {
	return p.hub.CurrentIdentity()
}

// Subscribe implements authgate.IdentityProvider.
func (p *Provider) Subscribe(onChange func(*authgate.Identity), onError func(error)) func() {
	return p.hub.Subscribe(onChange, onError)
}

// SignIn validates token and publishes its identity. An invalid token
// leaves the current identity untouched.
func (p *Provider) SignIn(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	identity, err := p.validator.Validate(token)
	if err != nil {
		return err
	}

	p.hub.SignInAs(identity)
	return nil
}

// SignOut implements authgate.IdentityProvider.
func (p *Provider) SignOut(ctx context.Context) error {
	return p.hub.SignOut(ctx)
}
