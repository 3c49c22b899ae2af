package services

import (
	"time"

	"borgo/internal/domain"
	"borgo/internal/form"
)

// FormService opens input sessions for a category.
type FormService struct {
	Schema   *SchemaService
	Uploader form.Uploader
	Now      func() time.Time
}

func NewFormService(schema *SchemaService, up form.Uploader, loc *time.Location) *FormService {
	if loc == nil {
		loc = time.Local
	}
	return &FormService{Schema: schema, Uploader: up, Now: func() time.Time { return time.Now().In(loc) }}
}

// Open loads the category schema into a new session. A signed-in customer's
// identity is pre-filled and locked.
func (s *FormService) Open(categoryID string, u *domain.User) (*form.Session, error) {
	cat, err := s.Schema.GetCategory(categoryID)
	if err != nil {
		return nil, err
	}
	if !cat.IsConfigurable {
		return nil, domain.ErrSchemaNotFound
	}
	fields, err := s.Schema.ListFields(categoryID)
	if err != nil {
		return nil, err
	}
	opts := []form.Option{form.WithClock(s.Now)}
	if s.Uploader != nil {
		opts = append(opts, form.WithUploader(s.Uploader))
	}
	sess := form.New(cat, fields, opts...)
	if u != nil {
		sess.Prefill(Profile(u), u.ID)
	}
	return sess, nil
}
