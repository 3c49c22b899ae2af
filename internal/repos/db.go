package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection: keeps :memory: databases and PRAGMAs on a single handle.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline categories and their form fields if DB is empty
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure staff and demo customer exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Categories
CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  is_configurable INTEGER NOT NULL DEFAULT 1,
  min_lead_days INTEGER NOT NULL DEFAULT 0 CHECK (min_lead_days >= 0),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_slug ON categories(slug);

-- Configured form fields (position order = render and validation order)
CREATE TABLE IF NOT EXISTS category_fields(
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
  field_key TEXT NOT NULL,
  field_label TEXT NOT NULL,
  field_type TEXT NOT NULL CHECK (field_type IN ('date','time','select','number','text','textarea','radio')),
  is_required INTEGER NOT NULL DEFAULT 0,
  position INTEGER NOT NULL CHECK (position >= 0),
  options_json TEXT,
  rules_json TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_fields_category_key ON category_fields(category_id, field_key);
CREATE INDEX IF NOT EXISTS idx_fields_category_position ON category_fields(category_id, position);

-- Daily order counter per category
CREATE TABLE IF NOT EXISTS category_capacity(
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
  capacity_date TEXT NOT NULL,
  max_orders INTEGER NOT NULL DEFAULT 0 CHECK (max_orders >= 0),
  current_orders INTEGER NOT NULL DEFAULT 0 CHECK (current_orders >= 0),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY(category_id, capacity_date)
);

-- Orders
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  category_id TEXT REFERENCES categories(id) ON DELETE SET NULL,
  user_id TEXT,
  status TEXT NOT NULL DEFAULT 'received'
    CHECK (status IN ('received','confirmed','in_preparation','ready','delivered')),
  customer_name TEXT NOT NULL,
  customer_surname TEXT NOT NULL,
  customer_phone TEXT NOT NULL,
  pickup_date TEXT,
  pickup_time TEXT,
  total_items INTEGER NOT NULL DEFAULT 1,
  archived_at TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);
CREATE INDEX IF NOT EXISTS idx_orders_pickup_date ON orders(pickup_date);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);

-- Generic answers: exactly one of field_value / file_url per row
CREATE TABLE IF NOT EXISTS order_field_values(
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  field_key TEXT NOT NULL,
  field_value TEXT,
  file_url TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  CHECK ((field_value IS NULL) <> (file_url IS NULL))
);
CREATE INDEX IF NOT EXISTS idx_field_values_order ON order_field_values(order_id);

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  phone TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo categories/fields")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO categories(id,name,slug,is_configurable,min_lead_days) VALUES
	  ('torte-in-vetrina','TORTE IN VETRINA','torte-in-vetrina',1,1),
	  ('torte-da-forno','TORTE DA FORNO','torte-da-forno',1,2),
	  ('crostate','CROSTATE','crostate',1,2),
	  ('cake-design','CAKE DESIGN','cake-design',1,7)`)

	tx.MustExec(`INSERT INTO category_fields(id,category_id,field_key,field_label,field_type,is_required,position,options_json,rules_json) VALUES
	  ('cd-pickup-date','cake-design','pickup_date','Data di ritiro','date',1,0,NULL,'{"unavailableDates":["2025-12-25","2026-01-01"]}'),
	  ('cd-pickup-time','cake-design','pickup_time','Orario di ritiro','time',1,1,NULL,
	   '{"morningStart":"08:00","morningEnd":"12:30","afternoonStart":"15:30","afternoonEnd":"19:00","sundayStart":"08:00","sundayEnd":"12:30"}'),
	  ('cd-tiers','cake-design','tiers','Piani','select',1,2,'[{"value":"1","label":"1 Piano"},{"value":"2","label":"2 Piani"}]',NULL),
	  ('cd-people','cake-design','people_count','Persone','number',1,3,NULL,'{"min":8,"max":120}'),
	  ('cd-allergies','cake-design','allergies','Allergie','textarea',0,4,NULL,'{"rows":3,"maxLength":300}'),
	  ('cd-print','cake-design','print_option','Stampa','radio',0,5,'[{"value":"No","label":"No"},{"value":"Si","label":"Sì"}]',NULL),
	  ('cd-inscription','cake-design','inscription','Scritta','text',0,6,NULL,'{"maxLength":40}'),
	  ('cd-restaurant','cake-design','is_restaurant','Devo portarla a un ristorante? (max 25 km)','radio',0,7,'[{"value":"No","label":"No"},{"value":"Si","label":"Sì"}]',NULL),
	  ('tv-pickup-date','torte-in-vetrina','pickup_date','Data di ritiro','date',1,0,NULL,NULL),
	  ('tv-pickup-time','torte-in-vetrina','pickup_time','Orario di ritiro','time',1,1,NULL,
	   '{"availableTimeSlots":["09:00","10:00","11:00","16:00","17:00","18:00"]}'),
	  ('tv-people','torte-in-vetrina','people_count','Persone','number',0,2,NULL,'{"min":1}')`)

	return tx.Commit()
}

// seedUsers ensures one staff ADMIN and one demo customer exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, First, Last, Phone, Role, Hash string
	}
	mk := func(id, email, first, last, phone, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
		return u{ID: id, Email: email, First: first, Last: last, Phone: phone, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-giulia", "giulia@borgo.test", "Giulia", "Rossi", "+39 333 1234567", "USER", "Passw0rd!"),
		mk("u-admin", "staff@borgo.test", "Staff", "Borgo", "+39 035 000000", "ADMIN", "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,first_name,last_name,phone,password_hash,role)
			VALUES(?,?,?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.First, x.Last, x.Phone, x.Hash, x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}
