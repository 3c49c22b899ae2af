package handlers

import (
	"net/url"
	"strings"

	applog "borgo/internal/log"
	"borgo/internal/services"

	"github.com/gofiber/fiber/v2"
)

// wantsJSON is true for API calls, which get status codes instead of redirects.
func wantsJSON(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/") || strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}

func loginURL(c *fiber.Ctx) string {
	return "/login?next=" + url.QueryEscape(c.OriginalURL())
}

func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			if wantsJSON(c) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "sign in required"})
			}
			return c.Redirect(loginURL(c))
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil || !u.IsAdmin() {
			applog.Security(c, "access.denied.admin", map[string]any{"sid": sid})
			if wantsJSON(c) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "access denied"})
			}
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied"})
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// RequireUser enforces that a customer is signed in.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		var uerr error
		if sid != "" {
			u, err := auth.CurrentUser(sid)
			if err == nil && u != nil {
				c.Locals("user", u)
				return c.Next()
			}
			uerr = err
		}
		if wantsJSON(c) {
			applog.Security(c, "access.denied.user", map[string]any{"has_sid": sid != "", "lookup_failed": uerr != nil})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "sign in required"})
		}
		return c.Redirect(loginURL(c))
	}
}
