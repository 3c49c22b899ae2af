package handlers

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"borgo/internal/answers"
	"borgo/internal/form"
	applog "borgo/internal/log"
	"borgo/internal/services"
	"borgo/internal/validate"

	"github.com/gofiber/fiber/v2"
)

// uploadTimeout bounds one image upload of a submission.
const uploadTimeout = 30 * time.Second

type OrderHandler struct {
	Forms  *services.FormService
	Orders *services.OrderService
}

type submitRequest struct {
	FirstName string            `json:"first_name"`
	LastName  string            `json:"last_name"`
	Phone     string            `json:"phone"`
	Values    map[string]any    `json:"values"`
}

var identityKeys = map[string]bool{"first_name": true, "last_name": true, "phone": true, "csrf": true}

// POST /api/v1/categories/:id/orders
// Accepts JSON, where answer values may be strings, numbers or booleans, or
// multipart where every non-identity form value is an answer and file parts
// upload into their conditional file field.
func (h *OrderHandler) Submit(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "category")
	}

	var req submitRequest
	var files map[string][]*multipart.FileHeader
	if mf, err := c.MultipartForm(); err == nil {
		req.FirstName = c.FormValue("first_name")
		req.LastName = c.FormValue("last_name")
		req.Phone = c.FormValue("phone")
		req.Values = map[string]any{}
		for k, vs := range mf.Value {
			if !identityKeys[k] && len(vs) > 0 {
				req.Values[k] = vs[0]
			}
		}
		files = mf.File
	} else if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body")
	}
	values := make(map[string]string, len(req.Values))
	for k, v := range req.Values {
		if _, ok := validate.FieldKey(k); !ok {
			return badRequest(c, "field key")
		}
		str, err := answers.Scalar(v)
		if err != nil {
			return badRequest(c, k)
		}
		values[k] = str
	}

	u := currentUser(c)
	sess, err := h.Forms.Open(id, u)
	if err != nil {
		return fail(c, "order.submit", err, map[string]any{"category_id": id})
	}
	if _, locked := sess.Identity(); !locked {
		if err := sess.SetIdentity(req.FirstName, req.LastName, req.Phone); err != nil {
			return fail(c, "order.submit", err, map[string]any{"category_id": id})
		}
	}
	if err := fill(sess, values); err != nil {
		return fail(c, "order.submit", err, map[string]any{"category_id": id})
	}

	for key, hs := range files {
		if len(hs) == 0 {
			continue
		}
		if err := upload(c.UserContext(), sess, key, hs[0]); err != nil {
			return fail(c, "order.submit", err, map[string]any{"category_id": id, "field": key})
		}
	}

	o, err := sess.Submit(c.UserContext(), h.Orders)
	if err != nil {
		return fail(c, "order.submit", err, map[string]any{"category_id": id})
	}
	applog.Audit(c, "order.submit", map[string]any{"order_id": o.ID, "category_id": id})
	return c.Status(fiber.StatusCreated).JSON(o)
}

// fill applies schema answers in position order, then conditional answers
// once their triggers are set. Keys outside both are rejected.
func fill(sess *form.Session, values map[string]string) error {
	used := map[string]bool{}
	for _, f := range sess.Fields() {
		if v, ok := values[f.FieldKey]; ok {
			if err := sess.Set(f.FieldKey, strings.TrimSpace(v)); err != nil {
				return err
			}
			used[f.FieldKey] = true
		}
	}
	for _, cf := range form.Conditionals() {
		v, ok := values[cf.Key]
		if !ok {
			continue
		}
		used[cf.Key] = true
		if strings.TrimSpace(v) == "" {
			continue
		}
		if err := sess.Set(cf.Key, strings.TrimSpace(v)); err != nil {
			return err
		}
	}
	for k := range values {
		if !used[k] {
			return form.ErrUnknownField
		}
	}
	return nil
}

func upload(ctx context.Context, sess *form.Session, key string, fh *multipart.FileHeader) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()
	return <-sess.Upload(ctx, key, form.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
}

// GET /api/v1/me/orders
func (h *OrderHandler) Mine(c *fiber.Ctx) error {
	u := currentUser(c)
	orders, err := h.Orders.ListByUser(u.ID)
	if err != nil {
		return fail(c, "order.mine", err, nil)
	}
	return c.JSON(orders)
}
