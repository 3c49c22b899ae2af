package handlers

import (
	"time"

	"borgo/internal/domain"
	applog "borgo/internal/log"
	"borgo/internal/receipt"
	"borgo/internal/services"
	"borgo/internal/validate"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler serves the staff order board and daily capacity.
type AdminHandler struct {
	Orders   *services.OrderService
	Schema   *services.SchemaService
	Capacity *services.CapacityService
	Users    *services.AuthService
}

// GET /admin/orders            live orders
// GET /admin/orders?archived=1&date=YYYY-MM-DD
func (h *AdminHandler) OrdersPage(c *fiber.Ctx) error {
	var (
		ords []domain.Order
		err  error
	)
	if c.QueryBool("archived") {
		date := c.Query("date")
		if date != "" {
			if _, ok := validate.ISODate(date); !ok {
				return badRequest(c, "date")
			}
		}
		ords, err = h.Orders.ListArchived(date)
	} else {
		ords, err = h.Orders.ListLive()
	}
	if err != nil {
		return fail(c, "admin.orders.list", err, nil)
	}
	return c.JSON(ords)
}

// GET /admin/orders/:id
func (h *AdminHandler) Order(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "order")
	}
	o, list, err := h.Orders.Get(id)
	if err != nil {
		return fail(c, "admin.orders.get", err, map[string]any{"order_id": id})
	}
	return c.JSON(fiber.Map{"order": o, "status_label": o.Status.Label(), "answers": list})
}

// POST /admin/orders/:id/status  (JSON {"status": ...} or form value)
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "order")
	}
	var body struct {
		Status string `json:"status" form:"status"`
	}
	if err := c.BodyParser(&body); err != nil || body.Status == "" {
		return badRequest(c, "status")
	}
	o, err := h.Orders.SetStatus(id, domain.Status(body.Status))
	if err != nil {
		return fail(c, "admin.orders.update", err, map[string]any{"order_id": id})
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": body.Status})
	return c.JSON(o)
}

// POST /admin/orders/:id/archive
func (h *AdminHandler) Archive(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "order")
	}
	o, err := h.Orders.Archive(id)
	if err != nil {
		return fail(c, "admin.orders.archive", err, map[string]any{"order_id": id})
	}
	applog.Audit(c, "admin.orders.archive", map[string]any{"order_id": id})
	return c.JSON(o)
}

// DELETE /admin/orders/:id
func (h *AdminHandler) DeleteOrder(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "order")
	}
	if err := h.Orders.Delete(id); err != nil {
		return fail(c, "admin.orders.delete", err, map[string]any{"order_id": id})
	}
	applog.Audit(c, "admin.orders.delete", map[string]any{"order_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /admin/orders/:id/receipt
func (h *AdminHandler) Receipt(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	}
	o, list, err := h.Orders.Get(id)
	if err != nil {
		applog.Error(c, "admin.receipt.load", err, map[string]any{"order_id": id})
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	}
	var (
		name   string
		fields []domain.CategoryField
	)
	if cat, err := h.Schema.GetCategory(o.CategoryID); err == nil {
		name = cat.Name
		fields, _ = h.Schema.ListFields(cat.ID)
	}
	return render(c, "receipt", fiber.Map{"Receipt": receipt.Build(o, name, list, fields)})
}

// GET /admin/categories/:id/capacity?from=&to=
func (h *AdminHandler) CapacityRange(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "category")
	}
	from, to := time.Now(), time.Now().AddDate(0, 0, 30)
	if q := c.Query("from"); q != "" {
		if from, ok = validate.ISODate(q); !ok {
			return badRequest(c, "from")
		}
	}
	if q := c.Query("to"); q != "" {
		if to, ok = validate.ISODate(q); !ok {
			return badRequest(c, "to")
		}
	}
	days, err := h.Capacity.Range(id, from, to)
	if err != nil {
		return fail(c, "admin.capacity.list", err, map[string]any{"category_id": id})
	}
	return c.JSON(days)
}

// PUT /admin/categories/:id/capacity/:date  {"max_orders": n}
func (h *AdminHandler) SetCapacity(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "category")
	}
	date := c.Params("date")
	if _, ok := validate.ISODate(date); !ok {
		return badRequest(c, "date")
	}
	var body struct {
		MaxOrders *int `json:"max_orders"`
	}
	if err := c.BodyParser(&body); err != nil || body.MaxOrders == nil {
		return badRequest(c, "max_orders")
	}
	if _, err := h.Schema.GetCategory(id); err != nil {
		return fail(c, "admin.capacity.save", err, map[string]any{"category_id": id})
	}
	day, err := h.Capacity.SetMax(id, date, *body.MaxOrders)
	if err != nil {
		return fail(c, "admin.capacity.save", err, map[string]any{"category_id": id, "date": date})
	}
	applog.Audit(c, "admin.capacity.save", map[string]any{"category_id": id, "date": date, "max_orders": *body.MaxOrders})
	return c.JSON(day)
}

// GET /admin/users
func (h *AdminHandler) Customers(c *fiber.Ctx) error {
	users, err := h.Users.Customers()
	if err != nil {
		return fail(c, "admin.users.list", err, nil)
	}
	return c.JSON(users)
}

// DELETE /admin/users/:id
func (h *AdminHandler) DeleteCustomer(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "user")
	}
	if err := h.Users.DeleteCustomer(id); err != nil {
		return fail(c, "admin.users.delete", err, map[string]any{"target_user": id})
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"target_user": id})
	return c.SendStatus(fiber.StatusNoContent)
}
