package handlers

import (
	"time"

	"borgo/internal/catalog"
	"borgo/internal/domain"
	"borgo/internal/form"
	"borgo/internal/services"
	"borgo/internal/validate"

	"github.com/gofiber/fiber/v2"
)

// maxDateWindow bounds the selectable-dates query.
const maxDateWindow = 92

type CategoryHandler struct {
	Schema   *services.SchemaService
	Forms    *services.FormService
	Capacity *services.CapacityService
}

// GET /api/v1/categories
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Schema.ListCategories(true)
	if err != nil {
		return fail(c, "categories.list", err, nil)
	}
	return c.JSON(cats)
}

// GET /api/v1/categories/:id
func (h *CategoryHandler) Form(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "category")
	}
	sess, err := h.Forms.Open(id, currentUser(c))
	if err != nil {
		return fail(c, "categories.form", err, map[string]any{"category_id": id})
	}
	ident, locked := sess.Identity()
	out := fiber.Map{
		"category_id":  id,
		"fields":       sess.Fields(),
		"conditionals": form.Conditionals(),
	}
	if locked {
		out["identity"] = ident
	}
	return c.JSON(out)
}

// GET /api/v1/categories/:id/dates?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *CategoryHandler) Dates(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "category")
	}
	sess, err := h.Forms.Open(id, nil)
	if err != nil {
		return fail(c, "categories.dates", err, map[string]any{"category_id": id})
	}
	today := h.Forms.Now()
	from := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	if q := c.Query("from"); q != "" {
		if from, ok = validate.ISODate(q); !ok {
			return badRequest(c, "from")
		}
	}
	to := from.AddDate(0, 0, 30)
	if q := c.Query("to"); q != "" {
		if to, ok = validate.ISODate(q); !ok {
			return badRequest(c, "to")
		}
	}
	if to.Before(from) || to.Sub(from) > maxDateWindow*24*time.Hour {
		return badRequest(c, "range")
	}

	full, err := h.Capacity.FullFunc(id, from, to)
	if err != nil {
		return fail(c, "categories.dates", err, map[string]any{"category_id": id})
	}
	key := c.Query("field", catalog.KeyPickupDate)
	dates, err := sess.SelectableDates(key, from, to, full)
	if err != nil {
		return fail(c, "categories.dates", err, map[string]any{"category_id": id})
	}
	if dates == nil {
		dates = []string{}
	}
	return c.JSON(fiber.Map{"field": key, "dates": dates})
}

// GET /api/v1/categories/:id/slots?date=YYYY-MM-DD
// A field without time rules answers {"any": true}: every HH:MM is accepted.
func (h *CategoryHandler) Slots(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "category")
	}
	sess, err := h.Forms.Open(id, nil)
	if err != nil {
		return fail(c, "categories.slots", err, map[string]any{"category_id": id})
	}
	if d := c.Query("date"); d != "" {
		if _, ok := validate.ISODate(d); !ok {
			return badRequest(c, "date")
		}
		if err := sess.Set(catalog.KeyPickupDate, d); err != nil {
			return fail(c, "categories.slots", err, map[string]any{"category_id": id})
		}
	}
	key := c.Query("field", catalog.KeyPickupTime)
	slots, err := sess.Slots(key)
	if err != nil {
		return fail(c, "categories.slots", err, map[string]any{"category_id": id})
	}
	if slots == nil {
		return c.JSON(fiber.Map{"field": key, "any": !hasTimeRules(sess.Fields(), key), "slots": []string{}})
	}
	return c.JSON(fiber.Map{"field": key, "any": false, "slots": slots})
}

func hasTimeRules(fields []domain.CategoryField, key string) bool {
	for _, f := range fields {
		if f.FieldKey == key {
			return f.Rules.TimeRule() != nil
		}
	}
	return false
}
