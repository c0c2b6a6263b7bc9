// Package fiberguard runs the route guard as Fiber middleware. Each browser
// gets a session cookie; the session behind it carries the auth and profile
// state the guard decides on.
package fiberguard

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-authgate"
)

const (
	// DefaultCookieName is the session cookie.
	DefaultCookieName = "authgate_session"
	// DefaultContextKey is the Locals key holding the *authgate.Session.
	DefaultContextKey = "authgate_session"
	// DefaultTokenLookup reads the sign in credential.
	DefaultTokenLookup = "header:Authorization,form:token"
)

// Config configures the middleware and its handlers.
type Config struct {
	// Filter skips the middleware when it returns true.
	Filter func(*fiber.Ctx) bool

	Guard    *authgate.RouteGuard
	Sessions *Sessions

	// DeniedHandler answers denied navigations. Default: 302 to the
	// decision's redirect.
	DeniedHandler func(*fiber.Ctx, authgate.Decision) error

	CookieName     string
	CookiePath     string
	CookieSecure   bool
	CookieSameSite string

	ContextKey string

	// TokenLookup lists where LoginHandler looks for the credential,
	// e.g. "header:Authorization,form:token,query:token".
	TokenLookup string
	AuthScheme  string

	Logger authgate.Logger
}

// GetDefaultConfig fills unset fields.
func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Guard == nil {
		panic("AUTHGATE: fiberguard configuration: Guard is required.")
	}

	if cfg.Sessions == nil {
		panic("AUTHGATE: fiberguard configuration: Sessions is required.")
	}

	if cfg.DeniedHandler == nil {
		cfg.DeniedHandler = func(c *fiber.Ctx, d authgate.Decision) error {
			return c.Redirect(d.Redirect, fiber.StatusFound)
		}
	}

	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}

	if cfg.CookiePath == "" {
		cfg.CookiePath = "/"
	}

	if cfg.CookieSameSite == "" {
		cfg.CookieSameSite = fiber.CookieSameSiteLaxMode
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = DefaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.Logger == nil {
		cfg.Logger = authgate.NewLogger("authgate.fiberguard")
	}

	return cfg
}

// New returns the guard middleware. Unprotected paths pass through without
// touching the session registry. Protected paths without a live session
// are checked as anonymous, so no session is created until sign in.
func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)
	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		if !cfg.Guard.Protects(c.Path()) {
			return c.Next()
		}

		var guarded authgate.GuardSession = anonymous{}
		session, ok := cfg.lookup(c)
		if ok {
			guarded = session
		}

		decision := cfg.Guard.Check(c.UserContext(), guarded, c.Path())
		if !decision.Allowed() {
			cfg.Logger.Debug("navigation denied",
				"path", c.Path(),
				"redirect", decision.Redirect,
			)
			return cfg.DeniedHandler(c, decision)
		}

		cfg.bind(c, session)
		return c.Next()
	}
}

// SessionFromContext returns the session bound by the middleware.
func SessionFromContext(c *fiber.Ctx, key ...string) (*authgate.Session, bool) {
	k := DefaultContextKey
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}
	session, ok := c.Locals(k).(*authgate.Session)
	return session, ok && session != nil
}

// lookup returns the live session named by the request cookie.
func (cfg Config) lookup(c *fiber.Ctx) (*authgate.Session, bool) {
	return cfg.Sessions.Get(c.Cookies(cfg.CookieName))
}

func (cfg Config) setCookie(c *fiber.Ctx, id string) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.CookieName,
		Value:    id,
		Path:     cfg.CookiePath,
		MaxAge:   int(cfg.Sessions.TTL().Seconds()),
		Secure:   cfg.CookieSecure,
		HTTPOnly: true,
		SameSite: cfg.CookieSameSite,
	})
}

// anonymous stands in for a visitor without a session.
type anonymous struct{}

func (anonymous) ProviderConfigured() bool             { return true }
func (anonymous) WaitUntilReady(context.Context) error { return nil }
func (anonymous) CurrentIdentity() *authgate.Identity  { return nil }
func (anonymous) EnsureProfile(context.Context, bool)  {}
func (anonymous) Role() (authgate.Role, bool)          { return "", false }
func (anonymous) ResetProfile()                        {}

// bind exposes the session in Locals and the identity and role in the
// request's user context.
func (cfg Config) bind(c *fiber.Ctx, session *authgate.Session) {
	c.Locals(cfg.ContextKey, session)

	ctx := c.UserContext()
	if identity := session.CurrentIdentity(); identity != nil {
		ctx = authgate.WithIdentity(ctx, identity)
	}
	if role, ok := session.Role(); ok {
		ctx = authgate.WithRole(ctx, role)
	}
	c.SetUserContext(ctx)
}

func (cfg Config) credential(c *fiber.Ctx) string {
	for _, part := range strings.Split(cfg.TokenLookup, ",") {
		source, name, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)

		var value string
		switch strings.TrimSpace(source) {
		case "header":
			value = c.Get(name)
			scheme := cfg.AuthScheme + " "
			if len(value) > len(scheme) && strings.EqualFold(value[:len(scheme)], scheme) {
				value = value[len(scheme):]
			}
		case "form":
			value = c.FormValue(name)
		case "query":
			value = c.Query(name)
		case "cookie":
			value = c.Cookies(name)
		}

		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}
