package repos

import (
	"database/sql"
	"errors"

	"borgo/internal/domain"

	"github.com/jmoiron/sqlx"
)

type CapacityRepo struct{ db *sqlx.DB }

func NewCapacityRepo(db *sqlx.DB) *CapacityRepo { return &CapacityRepo{db: db} }

const capacityCols = `category_id, capacity_date, max_orders, current_orders`

// Get returns a zero-valued, unlimited day when no row exists.
func (r *CapacityRepo) Get(categoryID, date string) (domain.CapacityDay, error) {
	var c domain.CapacityDay
	err := r.db.Get(&c, `
		SELECT `+capacityCols+` FROM category_capacity
		WHERE category_id = ? AND capacity_date = ?
	`, categoryID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CapacityDay{CategoryID: categoryID, Date: date}, nil
	}
	return c, err
}

// ListRange returns configured days in [from, to] (ISO dates, inclusive).
func (r *CapacityRepo) ListRange(categoryID, from, to string) ([]domain.CapacityDay, error) {
	out := []domain.CapacityDay{}
	err := r.db.Select(&out, `
		SELECT `+capacityCols+` FROM category_capacity
		WHERE category_id = ? AND capacity_date BETWEEN ? AND ?
		ORDER BY capacity_date
	`, categoryID, from, to)
	return out, err
}

// FullDates returns the days in [from, to] whose limit has been reached.
func (r *CapacityRepo) FullDates(categoryID, from, to string) (map[string]bool, error) {
	var dates []string
	if err := r.db.Select(&dates, `
		SELECT capacity_date FROM category_capacity
		WHERE category_id = ? AND capacity_date BETWEEN ? AND ?
		  AND max_orders > 0 AND current_orders >= max_orders
	`, categoryID, from, to); err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(dates))
	for _, d := range dates {
		out[d] = true
	}
	return out, nil
}

// UpsertMax sets the daily limit, creating the row if needed. 0 lifts the limit.
func (r *CapacityRepo) UpsertMax(categoryID, date string, maxOrders int) error {
	_, err := r.db.Exec(`
		INSERT INTO category_capacity(category_id, capacity_date, max_orders)
		VALUES (?, ?, ?)
		ON CONFLICT(category_id, capacity_date) DO UPDATE SET max_orders = excluded.max_orders
	`, categoryID, date, maxOrders)
	return err
}

// Reserve atomically counts one more order for the day if the limit allows it.
// Returns domain.ErrCapacityFull otherwise.
func (r *CapacityRepo) Reserve(categoryID, date string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		INSERT INTO category_capacity(category_id, capacity_date)
		VALUES (?, ?)
		ON CONFLICT(category_id, capacity_date) DO NOTHING
	`, categoryID, date); err != nil {
		return err
	}
	res, err := tx.Exec(`
		UPDATE category_capacity
		SET current_orders = current_orders + 1
		WHERE category_id = ? AND capacity_date = ?
		  AND (max_orders = 0 OR current_orders < max_orders)
	`, categoryID, date)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrCapacityFull
	}
	return tx.Commit()
}

// Release gives back one reservation. The counter never drops below zero.
func (r *CapacityRepo) Release(categoryID, date string) error {
	_, err := r.db.Exec(`
		UPDATE category_capacity
		SET current_orders = current_orders - 1
		WHERE category_id = ? AND capacity_date = ? AND current_orders > 0
	`, categoryID, date)
	return err
}
