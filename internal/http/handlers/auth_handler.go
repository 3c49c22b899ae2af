package handlers

import (
	"strings"
	"time"

	applog "borgo/internal/log"
	"borgo/internal/services"
	"borgo/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const msgBadLogin = "Email o password non validi"

// AuthHandler serves the sign-in pages for staff and returning customers.
type AuthHandler struct {
	Auth *services.AuthService
}

func sessionCookie(value string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     "sid",
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  expires,
	}
}

// ensureSID returns the browser session id, issuing one if missing.
func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(sessionCookie(sid, time.Time{}))
	}
	return sid
}

// GET /login
func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Err": "", "Next": safeNext(c.Query("next"))})
}

// POST /login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := ensureSID(c)
	email := strings.TrimSpace(c.FormValue("email"))
	pass := c.FormValue("password")

	if _, ok := validate.Email(email); !ok {
		return h.loginFailed(c, email, "bad_format")
	}
	if !validate.Password(pass) {
		return h.loginFailed(c, email, "bad_password_format")
	}
	u, err := h.Auth.Login(sid, email, pass)
	if err != nil {
		return h.loginFailed(c, email, "")
	}

	applog.Audit(c, "auth.login.success", map[string]any{"email": email, "role": u.Role})
	if next := safeNext(c.FormValue("next")); next != "" {
		return c.Redirect(next)
	}
	if u.IsAdmin() {
		return c.Redirect("/admin/orders")
	}
	return c.Redirect("/")
}

func (h *AuthHandler) loginFailed(c *fiber.Ctx, email, reason string) error {
	fields := map[string]any{"email": email}
	if reason != "" {
		fields["reason"] = reason
	}
	applog.Security(c, "auth.login.fail", fields)
	return c.Status(fiber.StatusUnauthorized).Render("login", fiber.Map{
		"Err":       msgBadLogin,
		"CSRFToken": c.Cookies("csrf_"),
	})
}

// POST /logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := ensureSID(c)
	if err := h.Auth.Logout(sid); err != nil {
		applog.Error(c, "auth.logout.fail", err, nil)
	}
	c.Cookie(sessionCookie("", time.Now().Add(-time.Hour)))
	applog.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return c.Redirect("/")
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	return next
}
