package fiberguard

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-authgate"
)

// ProfileResponse is the JSON body returned by the handlers.
type ProfileResponse struct {
	Authenticated bool   `json:"authenticated"`
	ID            string `json:"id,omitempty"`
	Email         string `json:"email,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
	Role          string `json:"role,omitempty"`
}

// LoginHandler signs the cookie's session in with the request credential
// and answers with the resolved profile. A session is created on first
// sign in, and an existing one gets a new id so the pre login cookie stops
// working.
func LoginHandler(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)
	return func(c *fiber.Ctx) error {
		credential := cfg.credential(c)
		if credential == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "missing credential",
			})
		}

		id := c.Cookies(cfg.CookieName)
		session, existing := cfg.Sessions.Get(id)
		if !existing {
			id, session = cfg.Sessions.Create()
		}

		if err := session.SignIn(c.UserContext(), credential); err != nil {
			if !existing {
				cfg.Sessions.Delete(id)
			}
			switch {
			case errors.Is(err, authgate.ErrProviderUnavailable):
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "identity provider not configured",
				})
			case errors.Is(err, authgate.ErrInvalidCredential):
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "invalid credential",
				})
			default:
				cfg.Logger.Error("sign in failed", "error", err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "sign in failed",
				})
			}
		}

		if existing {
			next, ok := cfg.Sessions.Rekey(id)
			if !ok {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error": "session expired",
				})
			}
			id = next
		}
		cfg.setCookie(c, id)

		return c.JSON(profileResponse(session))
	}
}

// LogoutHandler signs the session out and drops the cookie.
func LogoutHandler(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)
	return func(c *fiber.Ctx) error {
		id := c.Cookies(cfg.CookieName)
		if session, ok := cfg.Sessions.Get(id); ok {
			if err := session.SignOut(c.UserContext()); err != nil {
				cfg.Logger.Warn("sign out failed", "error", err)
			}
			cfg.Sessions.Delete(id)
		}

		c.ClearCookie(cfg.CookieName)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// MeHandler returns the current identity and role. It reconciles the
// profile if needed. Requests without a session get an anonymous answer.
func MeHandler(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)
	return func(c *fiber.Ctx) error {
		session, ok := SessionFromContext(c, cfg.ContextKey)
		if !ok {
			session, ok = cfg.lookup(c)
		}
		if !ok {
			return c.JSON(ProfileResponse{})
		}

		if err := session.WaitUntilReady(c.UserContext()); err != nil {
			return c.SendStatus(fiber.StatusRequestTimeout)
		}

		if session.CurrentIdentity() != nil {
			session.EnsureProfile(c.UserContext(), false)
		}

		return c.JSON(profileResponse(session))
	}
}

func profileResponse(session *authgate.Session) ProfileResponse {
	identity := session.CurrentIdentity()
	if identity == nil {
		return ProfileResponse{}
	}

	res := ProfileResponse{
		Authenticated: true,
		ID:            identity.ID,
		Email:         identity.Email,
		DisplayName:   identity.DisplayName,
	}
	if role, ok := session.Role(); ok {
		res.Role = role.String()
	}
	return res
}
