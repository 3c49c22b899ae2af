package handlers

import (
	"borgo/internal/config"
	"borgo/internal/form"
	"borgo/internal/repos"
	"borgo/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	CategoryHandler *CategoryHandler
	OrderHandler    *OrderHandler
	SchemaHandler   *SchemaHandler
	AdminHandler    *AdminHandler
	AuthHandler     *AuthHandler
	Auth            *services.AuthService
}

// NewDeps wires repositories, services and handlers. up may be nil, in which
// case image uploads are refused.
func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService, up form.Uploader) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	fieldRepo := repos.NewFieldRepo(db)
	capRepo := repos.NewCapacityRepo(db)
	orderRepo := repos.NewOrderRepo(db)

	schemaSvc := services.NewSchemaService(catRepo, fieldRepo)
	capSvc := services.NewCapacityService(capRepo)
	orderSvc := services.NewOrderService(orderRepo, capRepo, cfg.StrictAnswers)
	formSvc := services.NewFormService(schemaSvc, up, cfg.Location())

	return &Deps{
		CategoryHandler: &CategoryHandler{Schema: schemaSvc, Forms: formSvc, Capacity: capSvc},
		OrderHandler:    &OrderHandler{Forms: formSvc, Orders: orderSvc},
		SchemaHandler:   &SchemaHandler{Schema: schemaSvc},
		AdminHandler:    &AdminHandler{Orders: orderSvc, Schema: schemaSvc, Capacity: capSvc, Users: auth},
		AuthHandler:     &AuthHandler{Auth: auth},
		Auth:            auth,
	}
}
