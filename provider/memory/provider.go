// Package memory provides an in-process identity provider. It behaves like
// a remote provider that has not answered yet until Resolve, SignIn,
// SignOut or Fail is called.
package memory

import (
	"context"
	"sync"

	"github.com/goliatone/go-authgate"
)

type listener struct {
	id       int
	onChange func(*authgate.Identity)
	onError  func(error)
}

// Provider implements authgate.IdentityProvider in memory.
type Provider struct {
	mu        sync.Mutex
	deliverMu sync.Mutex
	current   *authgate.Identity
	resolved  bool
	listeners []listener
	nextID    int
	signIns   map[string]*authgate.Identity
}

var _ authgate.IdentityProvider = (*Provider)(nil)

// New returns an unresolved provider with no identity.
func New() *Provider {
	return &Provider{signIns: map[string]*authgate.Identity{}}
}

// NewResolved returns a provider that already knows identity (nil means
// signed out).
func NewResolved(identity *authgate.Identity) *Provider {
	p := New()
	p.current = copyIdentity(identity)
	p.resolved = true
	return p
}

// Register makes credential sign in as identity.
func (p *Provider) Register(credential string, identity *authgate.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signIns[credential] = copyIdentity(identity)
}

// CurrentIdentity implements authgate.IdentityProvider.
func (p *Provider) CurrentIdentity() *authgate.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyIdentity(p.current)
}

// Subscribe implements authgate.IdentityProvider. If the provider is
// resolved, onChange receives the current identity before Subscribe returns.
func (p *Provider) Subscribe(onChange func(*authgate.Identity), onError func(error)) func() {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	p.mu.Lock()
	p.nextID++
	l := listener{id: p.nextID, onChange: onChange, onError: onError}
	p.listeners = append(p.listeners, l)
	resolved := p.resolved
	current := copyIdentity(p.current)
	p.mu.Unlock()

	if resolved && onChange != nil {
		onChange(current)
	}

	var once sync.Once
	return func() {
		once.Do(func() { p.remove(l.id) })
	}
}

// Listeners returns the number of active subscriptions.
func (p *Provider) Listeners() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners)
}

// Resolve publishes the current identity as the first definitive answer.
func (p *Provider) Resolve() {
	p.set(p.CurrentIdentity())
}

// SignIn implements authgate.IdentityProvider. The credential must have
// been registered.
func (p *Provider) SignIn(ctx context.Context, credential string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	identity, ok := p.signIns[credential]
	p.mu.Unlock()

	if !ok {
		return authgate.ErrInvalidCredential
	}

	p.set(identity)
	return nil
}

// SignInAs publishes identity directly.
func (p *Provider) SignInAs(identity *authgate.Identity) {
	p.set(identity)
}

// SignOut implements authgate.IdentityProvider.
func (p *Provider) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.set(nil)
	return nil
}

// Fail publishes err on the error channel and clears the identity.
func (p *Provider) Fail(err error) {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	p.mu.Lock()
	p.current = nil
	p.resolved = true
	listeners := append([]listener(nil), p.listeners...)
	p.mu.Unlock()

	for _, l := range listeners {
		if l.onError != nil {
			l.onError(err)
		}
	}
}

// set stores identity and delivers it. deliverMu keeps notifications in
// emission order across goroutines.
func (p *Provider) set(identity *authgate.Identity) {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	p.mu.Lock()
	p.current = copyIdentity(identity)
	p.resolved = true
	listeners := append([]listener(nil), p.listeners...)
	p.mu.Unlock()

	for _, l := range listeners {
		if l.onChange != nil {
			l.onChange(copyIdentity(identity))
		}
	}
}

func (p *Provider) remove(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, l := range p.listeners {
		if l.id == id {
			p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
			return
		}
	}
}

func copyIdentity(i *authgate.Identity) *authgate.Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}
