package repos

import (
	"borgo/internal/domain"

	"github.com/jmoiron/sqlx"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

const categoryCols = `id, name, slug, is_configurable, min_lead_days, COALESCE(created_at,'') AS created_at`

func (r *CategoryRepo) List(configurableOnly bool) ([]domain.Category, error) {
	out := []domain.Category{}
	q := `SELECT ` + categoryCols + ` FROM categories`
	if configurableOnly {
		q += ` WHERE is_configurable = 1`
	}
	err := r.db.Select(&out, q+` ORDER BY name`)
	return out, err
}

// Get returns sql.ErrNoRows for unknown ids.
func (r *CategoryRepo) Get(id string) (domain.Category, error) {
	var c domain.Category
	err := r.db.Get(&c, `SELECT `+categoryCols+` FROM categories WHERE id = ?`, id)
	return c, err
}

func (r *CategoryRepo) Create(c domain.Category) error {
	_, err := r.db.Exec(`
		INSERT INTO categories(id, name, slug, is_configurable, min_lead_days)
		VALUES (?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.Slug, c.IsConfigurable, c.MinLeadDays)
	return err
}

// Update applies the non-nil settings.
func (r *CategoryRepo) Update(id string, minLeadDays *int, configurable *bool) error {
	if minLeadDays != nil {
		if _, err := r.db.Exec(`UPDATE categories SET min_lead_days = ? WHERE id = ?`, *minLeadDays, id); err != nil {
			return err
		}
	}
	if configurable != nil {
		if _, err := r.db.Exec(`UPDATE categories SET is_configurable = ? WHERE id = ?`, *configurable, id); err != nil {
			return err
		}
	}
	return nil
}
