package handlers

import (
	"time"

	applog "borgo/internal/log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Register mounts the order-form API, staff routes and auth pages on app.
func (d *Deps) Register(app *fiber.App) {
	api := app.Group("/api/v1")
	api.Get("/categories", d.CategoryHandler.List)
	api.Get("/categories/:id", d.CategoryHandler.Form)
	api.Get("/categories/:id/dates", d.CategoryHandler.Dates)
	api.Get("/categories/:id/slots", d.CategoryHandler.Slots)
	api.Post("/categories/:id/orders", limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|submit"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.submit.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}), d.OrderHandler.Submit)
	api.Get("/me/orders", RequireUser(d.Auth), d.OrderHandler.Mine)

	admin := app.Group("/admin", RequireAdmin(d.Auth))
	admin.Get("/catalog", d.SchemaHandler.Catalog)
	admin.Get("/categories", d.SchemaHandler.Categories)
	admin.Patch("/categories/:id", d.SchemaHandler.UpdateCategory)
	admin.Get("/categories/:id/fields", d.SchemaHandler.Fields)
	admin.Post("/categories/:id/fields", d.SchemaHandler.AddField)
	admin.Get("/categories/:id/capacity", d.AdminHandler.CapacityRange)
	admin.Put("/categories/:id/capacity/:date", d.AdminHandler.SetCapacity)
	admin.Patch("/fields/:id", d.SchemaHandler.UpdateField)
	admin.Post("/fields/:id/position", d.SchemaHandler.ReorderField)
	admin.Delete("/fields/:id", d.SchemaHandler.RemoveField)
	admin.Get("/orders", d.AdminHandler.OrdersPage)
	admin.Get("/orders/:id", d.AdminHandler.Order)
	admin.Get("/orders/:id/receipt", d.AdminHandler.Receipt)
	admin.Post("/orders/:id/status", d.AdminHandler.UpdateOrderStatus)
	admin.Post("/orders/:id/archive", d.AdminHandler.Archive)
	admin.Delete("/orders/:id", d.AdminHandler.DeleteOrder)
	admin.Get("/users", d.AdminHandler.Customers)
	admin.Delete("/users/:id", d.AdminHandler.DeleteCustomer)

	app.Get("/login", d.AuthHandler.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), d.AuthHandler.Login)
	app.Post("/logout", d.AuthHandler.Logout)
}
