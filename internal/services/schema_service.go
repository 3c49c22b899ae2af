package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"borgo/internal/catalog"
	"borgo/internal/domain"
	"borgo/internal/repos"
	"borgo/internal/rules"

	"github.com/google/uuid"
)

// SchemaService owns the per-category field lists staff configure.
type SchemaService struct {
	Cats   *repos.CategoryRepo
	Fields *repos.FieldRepo
}

func NewSchemaService(cats *repos.CategoryRepo, fields *repos.FieldRepo) *SchemaService {
	return &SchemaService{Cats: cats, Fields: fields}
}

// NewField describes a field to attach. Kind comes from the catalog entry of Key.
type NewField struct {
	Key      string          `json:"field_key"`
	Label    string          `json:"field_label"`
	Required bool            `json:"is_required"`
	Options  []domain.Option `json:"options"`
	Rules    json.RawMessage `json:"rules"`
}

// FieldPatch carries a partial update. Nil members are left unchanged; a
// present but empty Rules document ("null", "{}") clears the rules.
type FieldPatch struct {
	Required *bool            `json:"is_required"`
	Options  *[]domain.Option `json:"options"`
	Rules    *json.RawMessage `json:"rules"`
}

type CategoryPatch struct {
	MinLeadDays    *int  `json:"min_lead_days"`
	IsConfigurable *bool `json:"is_configurable"`
}

func (s *SchemaService) ListCategories(configurableOnly bool) ([]domain.Category, error) {
	cats, err := s.Cats.List(configurableOnly)
	if err != nil {
		return nil, domain.Persistence("category.list", err)
	}
	return cats, nil
}

func (s *SchemaService) GetCategory(id string) (domain.Category, error) {
	c, err := s.Cats.Get(id)
	if errors.Is(err, sql.ErrNoRows) {
		return c, domain.ErrSchemaNotFound
	}
	if err != nil {
		return c, domain.Persistence("category.get", err)
	}
	return c, nil
}

func (s *SchemaService) UpdateCategory(id string, p CategoryPatch) (domain.Category, error) {
	if _, err := s.GetCategory(id); err != nil {
		return domain.Category{}, err
	}
	if p.MinLeadDays != nil && *p.MinLeadDays < 0 {
		return domain.Category{}, fmt.Errorf("%w: min_lead_days must be >= 0", domain.ErrInvalidSchema)
	}
	if err := s.Cats.Update(id, p.MinLeadDays, p.IsConfigurable); err != nil {
		return domain.Category{}, domain.Persistence("category.update", err)
	}
	return s.GetCategory(id)
}

// ListFields returns the category's fields in position order.
func (s *SchemaService) ListFields(categoryID string) ([]domain.CategoryField, error) {
	if _, err := s.GetCategory(categoryID); err != nil {
		return nil, err
	}
	fields, err := s.Fields.ListByCategory(categoryID)
	if err != nil {
		return nil, domain.Persistence("field.list", err)
	}
	return fields, nil
}

// AddField appends a catalog field to the category.
func (s *SchemaService) AddField(categoryID string, in NewField) (domain.CategoryField, error) {
	if _, err := s.GetCategory(categoryID); err != nil {
		return domain.CategoryField{}, err
	}
	entry, ok := catalog.Lookup(strings.TrimSpace(in.Key))
	if !ok {
		return domain.CategoryField{}, fmt.Errorf("%w: unknown field key %q", domain.ErrInvalidSchema, in.Key)
	}

	opts := in.Options
	if len(opts) == 0 {
		opts = entry.DefaultOptions
	}
	if err := checkOptions(entry.Kind, opts); err != nil {
		return domain.CategoryField{}, err
	}
	doc, err := rules.Parse(entry.Kind, in.Rules)
	if err != nil {
		return domain.CategoryField{}, err
	}

	label := strings.TrimSpace(in.Label)
	if label == "" {
		label = entry.Label
	}
	f := domain.CategoryField{
		ID:         uuid.NewString(),
		CategoryID: categoryID,
		FieldKey:   entry.Key,
		Label:      label,
		Kind:       entry.Kind,
		IsRequired: in.Required,
		Options:    opts,
		Rules:      doc,
	}
	f, err = s.Fields.Insert(f)
	if errors.Is(err, domain.ErrSchemaConflict) {
		return domain.CategoryField{}, err
	}
	if err != nil {
		return domain.CategoryField{}, domain.Persistence("field.insert", err)
	}
	return f, nil
}

// UpdateField applies p without touching position.
func (s *SchemaService) UpdateField(fieldID string, p FieldPatch) (domain.CategoryField, error) {
	f, err := s.getField(fieldID)
	if err != nil {
		return f, err
	}
	if p.Required != nil {
		f.IsRequired = *p.Required
	}
	if p.Options != nil {
		if err := checkOptions(f.Kind, *p.Options); err != nil {
			return f, err
		}
		f.Options = *p.Options
	}
	if p.Rules != nil {
		doc, err := rules.Parse(f.Kind, *p.Rules)
		if err != nil {
			return f, err
		}
		f.Rules = doc
	}
	if err := s.Fields.Update(f); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return f, domain.ErrSchemaNotFound
		}
		return f, domain.Persistence("field.update", err)
	}
	return f, nil
}

// ReorderField moves a field and returns the renumbered list.
func (s *SchemaService) ReorderField(fieldID string, newPosition int) ([]domain.CategoryField, error) {
	fields, err := s.Fields.Move(fieldID, newPosition)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSchemaNotFound
	}
	if err != nil {
		return nil, domain.Persistence("field.move", err)
	}
	return fields, nil
}

// RemoveField deletes a field. Answers already stored on orders stay as they are.
func (s *SchemaService) RemoveField(fieldID string) error {
	err := s.Fields.Delete(fieldID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrSchemaNotFound
	}
	if err != nil {
		return domain.Persistence("field.delete", err)
	}
	return nil
}

func (s *SchemaService) getField(id string) (domain.CategoryField, error) {
	f, err := s.Fields.Get(id)
	if errors.Is(err, sql.ErrNoRows) {
		return f, domain.ErrSchemaNotFound
	}
	if err != nil {
		return f, domain.Persistence("field.get", err)
	}
	return f, nil
}

func checkOptions(kind domain.FieldKind, opts []domain.Option) error {
	if !kind.NeedsOptions() {
		if len(opts) > 0 {
			return fmt.Errorf("%w: %s fields take no options", domain.ErrInvalidSchema, kind)
		}
		return nil
	}
	if len(opts) == 0 {
		return fmt.Errorf("%w: %s fields need options", domain.ErrInvalidSchema, kind)
	}
	seen := make(map[string]bool, len(opts))
	for _, o := range opts {
		v := strings.TrimSpace(o.Value)
		if v == "" {
			return fmt.Errorf("%w: empty option value", domain.ErrInvalidSchema)
		}
		if seen[v] {
			return fmt.Errorf("%w: duplicate option %q", domain.ErrInvalidSchema, v)
		}
		seen[v] = true
	}
	return nil
}
