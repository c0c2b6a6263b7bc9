package authgate

import "context"

// GuardState is the state a navigation ended in.
type GuardState int

const (
	GuardUnchecked GuardState = iota
	GuardAwaitingReadiness
	GuardAwaitingProfile
	GuardAllowed
	GuardDenied
)

func (s GuardState) String() string {
	switch s {
	case GuardUnchecked:
		return "unchecked"
	case GuardAwaitingReadiness:
		return "awaiting_readiness"
	case GuardAwaitingProfile:
		return "awaiting_profile"
	case GuardAllowed:
		return "allowed"
	case GuardDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Decision is the outcome of a guard check. Redirect is set only when the
// navigation is denied.
type Decision struct {
	State    GuardState
	Redirect string
	Rule     *RouteRule
}

// Allowed reports whether the navigation may proceed unmodified.
func (d Decision) Allowed() bool {
	return d.State == GuardAllowed
}

// GuardSession is what the guard needs from the caller's session.
type GuardSession interface {
	ProviderConfigured() bool
	WaitUntilReady(ctx context.Context) error
	CurrentIdentity() *Identity
	EnsureProfile(ctx context.Context, force bool)
	Role() (Role, bool)
	ResetProfile()
}

// GuardConfig holds the guard's redirect targets and protected routes.
type GuardConfig struct {
	Routes       RouteTable
	LoginPath    string
	NonAdminPath string
}

// RouteGuard decides whether a navigation to a path may proceed.
type RouteGuard struct {
	routes       RouteTable
	loginPath    string
	nonAdminPath string
	logger       Logger
	metrics      *Metrics
	onTransition func(path string, state GuardState)
}

// GuardOption customizes a RouteGuard.
type GuardOption func(*RouteGuard)

// WithGuardLogger overrides the logger.
func WithGuardLogger(l Logger) GuardOption {
	return func(g *RouteGuard) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithGuardMetrics records decisions.
func WithGuardMetrics(m *Metrics) GuardOption {
	return func(g *RouteGuard) {
		g.metrics = m
	}
}

// WithGuardTransitionHook is called each time a navigation enters a state.
func WithGuardTransitionHook(fn func(path string, state GuardState)) GuardOption {
	return func(g *RouteGuard) {
		g.onTransition = fn
	}
}

// NewRouteGuard creates a guard. Empty paths default to /login and
// /app/catalog.
func NewRouteGuard(cfg GuardConfig, opts ...GuardOption) *RouteGuard {
	g := &RouteGuard{
		routes:       cfg.Routes,
		loginPath:    cfg.LoginPath,
		nonAdminPath: cfg.NonAdminPath,
	}
	if g.loginPath == "" {
		g.loginPath = DefaultLoginPath
	}
	if g.nonAdminPath == "" {
		g.nonAdminPath = DefaultNonAdminPath
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	g.logger = resolveLogger("authgate.guard", g.logger)
	return g
}

// LoginPath returns the redirect target for unauthenticated callers.
func (g *RouteGuard) LoginPath() string {
	return g.loginPath
}

// Protects reports whether path falls under a protected prefix.
func (g *RouteGuard) Protects(path string) bool {
	_, ok := g.routes.Match(path)
	return ok
}

// Check runs the guard for one navigation. Paths outside the protected
// prefixes are allowed without touching the session.
func (g *RouteGuard) Check(ctx context.Context, session GuardSession, path string) Decision {
	d := g.check(ctx, session, path)
	if d.Rule != nil {
		g.metrics.observeDecision(d)
	}
	return d
}

func (g *RouteGuard) check(ctx context.Context, session GuardSession, path string) Decision {
	rule, protected := g.routes.Match(path)
	if !protected {
		return Decision{State: GuardAllowed}
	}

	g.enter(path, GuardUnchecked)

	if session == nil || !session.ProviderConfigured() {
		return g.deny(path, &rule, g.loginPath)
	}

	g.enter(path, GuardAwaitingReadiness)
	if err := session.WaitUntilReady(ctx); err != nil {
		g.logger.Debug("navigation abandoned while awaiting auth readiness",
			"path", path,
			"error", err,
		)
		return g.deny(path, &rule, g.loginPath)
	}

	identity := session.CurrentIdentity()
	if identity == nil {
		session.ResetProfile()
		return g.deny(path, &rule, g.loginPath)
	}

	g.enter(path, GuardAwaitingProfile)
	session.EnsureProfile(ctx, false)

	role, hasRole := session.Role()
	switch {
	case rule.Requires == RequireAdmin && (!hasRole || !role.IsAdmin()):
		return g.deny(path, &rule, g.nonAdminPath)
	case rule.Requires == RequireAuthenticated && !hasRole:
		return g.deny(path, &rule, g.loginPath)
	}

	g.enter(path, GuardAllowed)
	return Decision{State: GuardAllowed, Rule: &rule}
}

func (g *RouteGuard) deny(path string, rule *RouteRule, to string) Decision {
	g.enter(path, GuardDenied)
	return Decision{State: GuardDenied, Redirect: to, Rule: rule}
}

func (g *RouteGuard) enter(path string, state GuardState) {
	if g.onTransition != nil {
		g.onTransition(path, state)
	}
}
