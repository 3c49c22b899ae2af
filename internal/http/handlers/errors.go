package handlers

import (
	"errors"

	"borgo/internal/domain"
	"borgo/internal/form"
	applog "borgo/internal/log"
	"borgo/internal/services"

	"github.com/gofiber/fiber/v2"
)

// fail maps a domain error onto a JSON response. Unknown errors are logged
// under action and reported without detail.
func fail(c *fiber.Ctx, action string, err error, fields map[string]any) error {
	var verr *domain.ValidationError
	var uerr *domain.UploadError
	switch {
	case errors.As(err, &verr):
		applog.Info(c, action+".invalid", map[string]any{"field": verr.FieldKey, "reason": verr.Reason})
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "field": verr.FieldKey, "reason": verr.Reason})
	case errors.Is(err, domain.ErrNotImage):
		applog.Security(c, action+".file.refused", fields)
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &uerr):
		applog.Error(c, action+".upload", err, fields)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upload failed", "field": uerr.FieldKey})
	case errors.Is(err, domain.ErrSchemaConflict),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrOrderArchived),
		errors.Is(err, services.ErrStaffAccount),
		errors.Is(err, form.ErrUploadInFlight),
		errors.Is(err, form.ErrBusy),
		errors.Is(err, form.ErrAlreadySubmitted):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrSchemaNotFound), errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	case errors.Is(err, domain.ErrCapacityFull):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidSchema),
		errors.Is(err, form.ErrUnknownField),
		errors.Is(err, form.ErrIdentityLocked),
		errors.Is(err, form.ErrNotUploadable),
		errors.Is(err, form.ErrUploadOnly),
		errors.Is(err, form.ErrPickupDateRequired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	applog.Error(c, action+".fail", err, fields)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "something went wrong, please try again"})
}

func badRequest(c *fiber.Ctx, field string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field})
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid " + field})
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}
