package handlers

import (
	"errors"

	applog "borgo/internal/log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
)

const csrfHeader = "X-CSRF-Token"

var errNoCSRFToken = errors.New("csrf token not found")

// csrfToken reads the token from the API header, falling back to the
// "csrf" field of HTML forms.
func csrfToken(c *fiber.Ctx) (string, error) {
	if tok := c.Get(csrfHeader); tok != "" {
		return tok, nil
	}
	if tok := c.FormValue("csrf"); tok != "" {
		return tok, nil
	}
	return "", errNoCSRFToken
}

// CSRF guards every unsafe method. Clients echo the csrf_ cookie back.
func CSRF(secure bool) fiber.Handler {
	return csrf.New(csrf.Config{
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   secure,
		Extractor:      csrfToken,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"err": err.Error()})
			if wantsJSON(c) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "security check failed, refresh and retry"})
			}
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	})
}
