package repos

import (
	"database/sql"

	"borgo/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

type answerRow struct {
	FieldKey   string         `db:"field_key"`
	FieldValue sql.NullString `db:"field_value"`
	FileURL    sql.NullString `db:"file_url"`
}

const orderCols = `
	id, COALESCE(created_at,'') AS created_at, COALESCE(category_id,'') AS category_id, status,
	customer_name, customer_surname, customer_phone,
	COALESCE(pickup_date,'') AS pickup_date, COALESCE(pickup_time,'') AS pickup_time,
	total_items, COALESCE(archived_at,'') AS archived_at, COALESCE(user_id,'') AS user_id`

func nullable(s string) sql.NullString { return sql.NullString{String: s, Valid: s != ""} }

func insertOrder(ex sqlx.Execer, o domain.Order) error {
	_, err := ex.Exec(`
	  INSERT INTO orders
	    (id, category_id, user_id, status, customer_name, customer_surname, customer_phone,
	     pickup_date, pickup_time, total_items, created_at)
	  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.ID, nullable(o.CategoryID), nullable(o.UserID), string(o.Status), o.CustomerName, o.CustomerSurname, o.CustomerPhone,
		nullable(o.PickupDate), nullable(o.PickupTime), o.TotalItems, o.CreatedAt)
	return err
}

func insertAnswers(ex sqlx.Execer, orderID string, list []domain.Answer) error {
	for _, a := range list {
		var val, file sql.NullString
		if a.ScalarValue != nil {
			val = sql.NullString{String: *a.ScalarValue, Valid: true}
		}
		if a.FileReference != nil {
			file = sql.NullString{String: *a.FileReference, Valid: true}
		}
		if _, err := ex.Exec(`
		  INSERT INTO order_field_values(id, order_id, field_key, field_value, file_url)
		  VALUES (?, ?, ?, ?, ?)
		`, uuid.NewString(), orderID, a.FieldKey, val, file); err != nil {
			return err
		}
	}
	return nil
}

// Create inserts a new order header.
func (r *OrderRepo) Create(o domain.Order) error { return insertOrder(r.db, o) }

// InsertAnswers stores an order's answers as one batch.
func (r *OrderRepo) InsertAnswers(orderID string, list []domain.Answer) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := insertAnswers(tx, orderID, list); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateWithAnswers stores header and answers in one transaction.
func (r *OrderRepo) CreateWithAnswers(o domain.Order, list []domain.Answer) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := insertOrder(tx, o); err != nil {
		return err
	}
	if err := insertAnswers(tx, o.ID, list); err != nil {
		return err
	}
	return tx.Commit()
}

// Get returns sql.ErrNoRows for unknown ids.
func (r *OrderRepo) Get(orderID string) (domain.Order, []domain.Answer, error) {
	var o domain.Order
	if err := r.db.Get(&o, `SELECT `+orderCols+` FROM orders WHERE id = ?`, orderID); err != nil {
		return domain.Order{}, nil, err
	}
	list, err := r.Answers(orderID)
	if err != nil {
		return domain.Order{}, nil, err
	}
	return o, list, nil
}

func (r *OrderRepo) Answers(orderID string) ([]domain.Answer, error) {
	var rows []answerRow
	if err := r.db.Select(&rows, `
		SELECT field_key, field_value, file_url
		FROM order_field_values
		WHERE order_id = ?
		ORDER BY field_key, rowid
	`, orderID); err != nil {
		return nil, err
	}
	out := make([]domain.Answer, 0, len(rows))
	for _, row := range rows {
		a := domain.Answer{FieldKey: row.FieldKey}
		if row.FileURL.Valid {
			v := row.FileURL.String
			a.FileReference = &v
		} else if row.FieldValue.Valid {
			v := row.FieldValue.String
			a.ScalarValue = &v
		}
		out = append(out, a)
	}
	return out, nil
}

// ListLive returns non-archived orders by pickup date then time.
func (r *OrderRepo) ListLive(limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 200
	}
	out := []domain.Order{}
	err := r.db.Select(&out, `
		SELECT `+orderCols+`
		FROM orders
		WHERE archived_at IS NULL
		ORDER BY COALESCE(pickup_date,'9999-12-31'), COALESCE(pickup_time,''), created_at
		LIMIT ?
	`, limit)
	return out, err
}

// ListArchived returns archived orders; a non-empty date filters by pickup date.
func (r *OrderRepo) ListArchived(date string) ([]domain.Order, error) {
	out := []domain.Order{}
	q := `SELECT ` + orderCols + ` FROM orders WHERE archived_at IS NOT NULL`
	args := []any{}
	if date != "" {
		q += ` AND pickup_date = ?`
		args = append(args, date)
	}
	err := r.db.Select(&out, q+` ORDER BY pickup_date DESC, pickup_time`, args...)
	return out, err
}

// ListByUser returns a customer's orders, newest first.
func (r *OrderRepo) ListByUser(userID string) ([]domain.Order, error) {
	out := []domain.Order{}
	err := r.db.Select(&out, `
		SELECT `+orderCols+`
		FROM orders
		WHERE user_id = ?
		ORDER BY datetime(created_at) DESC
	`, userID)
	return out, err
}

func (r *OrderRepo) UpdateStatus(id string, status domain.Status) error {
	return expectRow(r.db.Exec(`UPDATE orders SET status = ? WHERE id = ?`, string(status), id))
}

func (r *OrderRepo) Archive(id, at string) error {
	return expectRow(r.db.Exec(`UPDATE orders SET archived_at = ? WHERE id = ? AND archived_at IS NULL`, at, id))
}

// Delete removes the order and its answers together.
func (r *OrderRepo) Delete(id string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(`DELETE FROM order_field_values WHERE order_id = ?`, id); err != nil {
		return err
	}
	if err := expectRow(tx.Exec(`DELETE FROM orders WHERE id = ?`, id)); err != nil {
		return err
	}
	return tx.Commit()
}

func expectRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
