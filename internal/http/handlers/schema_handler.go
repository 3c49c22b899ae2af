package handlers

import (
	"borgo/internal/catalog"
	applog "borgo/internal/log"
	"borgo/internal/services"
	"borgo/internal/validate"

	"github.com/gofiber/fiber/v2"
)

// SchemaHandler serves staff edits of category forms.
type SchemaHandler struct {
	Schema *services.SchemaService
}

// GET /admin/catalog
func (h *SchemaHandler) Catalog(c *fiber.Ctx) error {
	type entry struct {
		Key          string `json:"key"`
		Label        string `json:"label"`
		Kind         string `json:"kind"`
		RuleCapable  bool   `json:"rule_capable"`
		NeedsOptions bool   `json:"needs_options"`
	}
	all := catalog.All()
	out := make([]entry, 0, len(all))
	for _, e := range all {
		out = append(out, entry{Key: e.Key, Label: e.Label, Kind: string(e.Kind), RuleCapable: e.RuleCapable(), NeedsOptions: e.NeedsOptions()})
	}
	return c.JSON(out)
}

// GET /admin/categories
func (h *SchemaHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Schema.ListCategories(false)
	if err != nil {
		return fail(c, "admin.categories.list", err, nil)
	}
	return c.JSON(cats)
}

// PATCH /admin/categories/:id
func (h *SchemaHandler) UpdateCategory(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "category")
	}
	var p services.CategoryPatch
	if err := c.BodyParser(&p); err != nil {
		return badRequest(c, "body")
	}
	cat, err := h.Schema.UpdateCategory(id, p)
	if err != nil {
		return fail(c, "admin.categories.update", err, map[string]any{"category_id": id})
	}
	applog.Audit(c, "admin.categories.update", map[string]any{"category_id": id})
	return c.JSON(cat)
}

// GET /admin/categories/:id/fields
func (h *SchemaHandler) Fields(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "category")
	}
	fields, err := h.Schema.ListFields(id)
	if err != nil {
		return fail(c, "admin.fields.list", err, map[string]any{"category_id": id})
	}
	return c.JSON(fields)
}

// POST /admin/categories/:id/fields
func (h *SchemaHandler) AddField(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "category")
	}
	var in services.NewField
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	if _, ok := validate.FieldKey(in.Key); !ok {
		return badRequest(c, "field_key")
	}
	f, err := h.Schema.AddField(id, in)
	if err != nil {
		return fail(c, "schema.field.add", err, map[string]any{"category_id": id, "field_key": in.Key})
	}
	applog.Audit(c, "schema.field.add", map[string]any{"category_id": id, "field_key": f.FieldKey, "position": f.Position})
	return c.Status(fiber.StatusCreated).JSON(f)
}

// PATCH /admin/fields/:id
func (h *SchemaHandler) UpdateField(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "field")
	}
	var p services.FieldPatch
	if err := c.BodyParser(&p); err != nil {
		return badRequest(c, "body")
	}
	f, err := h.Schema.UpdateField(id, p)
	if err != nil {
		return fail(c, "schema.field.update", err, map[string]any{"field_id": id})
	}
	applog.Audit(c, "schema.field.update", map[string]any{"field_id": id, "category_id": f.CategoryID})
	return c.JSON(f)
}

// POST /admin/fields/:id/position  {"position": n}
func (h *SchemaHandler) ReorderField(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "field")
	}
	var body struct {
		Position *int `json:"position"`
	}
	if err := c.BodyParser(&body); err != nil || body.Position == nil || *body.Position < 0 {
		return badRequest(c, "position")
	}
	fields, err := h.Schema.ReorderField(id, *body.Position)
	if err != nil {
		return fail(c, "schema.field.move", err, map[string]any{"field_id": id})
	}
	applog.Audit(c, "schema.field.move", map[string]any{"field_id": id, "position": *body.Position})
	return c.JSON(fields)
}

// DELETE /admin/fields/:id
func (h *SchemaHandler) RemoveField(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "field")
	}
	if err := h.Schema.RemoveField(id); err != nil {
		return fail(c, "schema.field.remove", err, map[string]any{"field_id": id})
	}
	applog.Audit(c, "schema.field.remove", map[string]any{"field_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
