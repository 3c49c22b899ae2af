package repos

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"borgo/internal/domain"
	"borgo/internal/rules"

	"github.com/jmoiron/sqlx"
)

type FieldRepo struct{ db *sqlx.DB }

func NewFieldRepo(db *sqlx.DB) *FieldRepo { return &FieldRepo{db: db} }

type fieldRow struct {
	ID          string         `db:"id"`
	CategoryID  string         `db:"category_id"`
	FieldKey    string         `db:"field_key"`
	Label       string         `db:"field_label"`
	Kind        string         `db:"field_type"`
	IsRequired  bool           `db:"is_required"`
	Position    int            `db:"position"`
	OptionsJSON sql.NullString `db:"options_json"`
	RulesJSON   sql.NullString `db:"rules_json"`
}

const fieldCols = `id, category_id, field_key, field_label, field_type, is_required, position, options_json, rules_json`

// Rows are re-parsed on the way out so a hand-edited row cannot smuggle an
// unknown rule shape into evaluation.
func (row fieldRow) toDomain() (domain.CategoryField, error) {
	f := domain.CategoryField{
		ID:         row.ID,
		CategoryID: row.CategoryID,
		FieldKey:   row.FieldKey,
		Label:      row.Label,
		Kind:       domain.FieldKind(row.Kind),
		IsRequired: row.IsRequired,
		Position:   row.Position,
	}
	if row.OptionsJSON.Valid && row.OptionsJSON.String != "" {
		if err := json.Unmarshal([]byte(row.OptionsJSON.String), &f.Options); err != nil {
			return f, fmt.Errorf("field %s options: %w", row.ID, err)
		}
	}
	if row.RulesJSON.Valid {
		doc, err := rules.Parse(f.Kind, []byte(row.RulesJSON.String))
		if err != nil {
			return f, fmt.Errorf("field %s: %w", row.ID, err)
		}
		f.Rules = doc
	}
	return f, nil
}

func encodeField(f domain.CategoryField) (options, rulesDoc sql.NullString, err error) {
	if len(f.Options) > 0 {
		b, err := json.Marshal(f.Options)
		if err != nil {
			return options, rulesDoc, err
		}
		options = sql.NullString{String: string(b), Valid: true}
	}
	if f.Rules != nil {
		b, err := json.Marshal(f.Rules)
		if err != nil {
			return options, rulesDoc, err
		}
		rulesDoc = sql.NullString{String: string(b), Valid: true}
	}
	return options, rulesDoc, nil
}

func toFields(rows []fieldRow) ([]domain.CategoryField, error) {
	out := make([]domain.CategoryField, 0, len(rows))
	for _, row := range rows {
		f, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// ListByCategory returns fields in position order; equal positions keep insertion order.
func (r *FieldRepo) ListByCategory(categoryID string) ([]domain.CategoryField, error) {
	var rows []fieldRow
	if err := r.db.Select(&rows, `
		SELECT `+fieldCols+`
		FROM category_fields
		WHERE category_id = ?
		ORDER BY position, rowid
	`, categoryID); err != nil {
		return nil, err
	}
	return toFields(rows)
}

// Get returns sql.ErrNoRows for unknown ids.
func (r *FieldRepo) Get(id string) (domain.CategoryField, error) {
	var row fieldRow
	if err := r.db.Get(&row, `SELECT `+fieldCols+` FROM category_fields WHERE id = ?`, id); err != nil {
		return domain.CategoryField{}, err
	}
	return row.toDomain()
}

// Insert appends f at the end of its category. The assigned position is
// written back into the returned field.
func (r *FieldRepo) Insert(f domain.CategoryField) (domain.CategoryField, error) {
	options, rulesDoc, err := encodeField(f)
	if err != nil {
		return f, err
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return f, err
	}
	defer func() { _ = tx.Rollback() }()

	var dup int
	if err := tx.Get(&dup, `SELECT COUNT(*) FROM category_fields WHERE category_id = ? AND field_key = ?`, f.CategoryID, f.FieldKey); err != nil {
		return f, err
	}
	if dup > 0 {
		return f, domain.ErrSchemaConflict
	}
	if err := tx.Get(&f.Position, `SELECT COUNT(*) FROM category_fields WHERE category_id = ?`, f.CategoryID); err != nil {
		return f, err
	}
	if _, err := tx.Exec(`
		INSERT INTO category_fields(id, category_id, field_key, field_label, field_type, is_required, position, options_json, rules_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, f.ID, f.CategoryID, f.FieldKey, f.Label, string(f.Kind), f.IsRequired, f.Position, options, rulesDoc); err != nil {
		return f, err
	}
	return f, tx.Commit()
}

// Update rewrites required flag, options and rules. Position is untouched.
func (r *FieldRepo) Update(f domain.CategoryField) error {
	options, rulesDoc, err := encodeField(f)
	if err != nil {
		return err
	}
	res, err := r.db.Exec(`
		UPDATE category_fields
		SET is_required = ?, options_json = ?, rules_json = ?
		WHERE id = ?
	`, f.IsRequired, options, rulesDoc, f.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Move places a field at newPos (clamped) and renumbers its category 0..n-1.
func (r *FieldRepo) Move(id string, newPos int) ([]domain.CategoryField, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var categoryID string
	if err := tx.Get(&categoryID, `SELECT category_id FROM category_fields WHERE id = ?`, id); err != nil {
		return nil, err
	}
	var ids []string
	if err := tx.Select(&ids, `SELECT id FROM category_fields WHERE category_id = ? ORDER BY position, rowid`, categoryID); err != nil {
		return nil, err
	}

	rest := make([]string, 0, len(ids))
	for _, x := range ids {
		if x != id {
			rest = append(rest, x)
		}
	}
	if newPos < 0 {
		newPos = 0
	}
	if newPos > len(rest) {
		newPos = len(rest)
	}
	ordered := make([]string, 0, len(ids))
	ordered = append(ordered, rest[:newPos]...)
	ordered = append(ordered, id)
	ordered = append(ordered, rest[newPos:]...)

	if err := renumber(tx, ordered); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.ListByCategory(categoryID)
}

// Delete removes a field and closes the gap it leaves.
func (r *FieldRepo) Delete(id string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var categoryID string
	if err := tx.Get(&categoryID, `SELECT category_id FROM category_fields WHERE id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM category_fields WHERE id = ?`, id); err != nil {
		return err
	}
	var ids []string
	if err := tx.Select(&ids, `SELECT id FROM category_fields WHERE category_id = ? ORDER BY position, rowid`, categoryID); err != nil {
		return err
	}
	if err := renumber(tx, ids); err != nil {
		return err
	}
	return tx.Commit()
}

func renumber(tx *sqlx.Tx, ids []string) error {
	for pos, id := range ids {
		if _, err := tx.Exec(`UPDATE category_fields SET position = ? WHERE id = ?`, pos, id); err != nil {
			return err
		}
	}
	return nil
}
