package handlers_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	applog "borgo/internal/log"
)

func TestErrorHandlerFriendlyMessage(t *testing.T) {
	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
				"Message": "Qualcosa è andato storto. Riprova.",
			}); rerr != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Qualcosa è andato storto. Riprova.")
			}
			return nil
		},
	})
	app.Use(requestid.New())
	app.Get("/err", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusInternalServerError, "db timeout: secret trace")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/err", nil))
	if err != nil {
		t.Fatalf("test request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	s := string(body)
	if !strings.Contains(s, "Riprova") {
		t.Fatalf("friendly message missing; body=%s", s)
	}
	if strings.Contains(s, "db timeout") || strings.Contains(s, "secret") {
		t.Fatalf("internal details leaked to user; body=%s", s)
	}
}

func TestAPIErrorsHideInternals(t *testing.T) {
	ta := newApp(t)
	ta.db.MustExec(`DROP TABLE category_fields`)

	var resp *http.Response
	entries := captureLogs(t, func() {
		resp = ta.do(t, "GET", "/api/v1/categories/cake-design", nil, "", "")
	})
	wantStatus(t, resp, fiber.StatusInternalServerError)
	body, _ := io.ReadAll(resp.Body)
	if strings.Contains(string(body), "category_fields") {
		t.Fatalf("sql detail leaked: %s", body)
	}
	if !hasAction(entries, "categories.form.fail") {
		t.Fatal("expected categories.form.fail log")
	}
}
