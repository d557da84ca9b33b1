package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline catalog data if DB is empty
	if err := seedIfEmpty(db); err != nil {
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
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_nocase ON categories(LOWER(name));

-- Catalog items
CREATE TABLE IF NOT EXISTS items(
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  name TEXT NOT NULL,
  description TEXT,
  price NUMERIC NOT NULL CHECK (price >= 0),
  tags_json TEXT,
  featured INTEGER NOT NULL DEFAULT 0,
  available INTEGER NOT NULL DEFAULT 1,
  tracked INTEGER NOT NULL DEFAULT 1,
  quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
  version INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_items_category ON items(category_id);
CREATE INDEX IF NOT EXISTS idx_items_featured ON items(featured);

-- Collections (one active cart per user)
CREATE TABLE IF NOT EXISTS collections(
  id TEXT PRIMARY KEY,
  user_id TEXT UNIQUE NOT NULL,
  updated_at TEXT
);

CREATE TABLE IF NOT EXISTS collection_entries(
  id TEXT PRIMARY KEY,
  collection_id TEXT NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
  item_id TEXT NOT NULL REFERENCES items(id) ON DELETE RESTRICT,
  qty INTEGER NOT NULL CHECK (qty >= 1),
  created_at TEXT,
  updated_at TEXT,
  UNIQUE(collection_id, item_id)
);

-- Activities (immutable once created, except status/notes/updated_at)
CREATE TABLE IF NOT EXISTS activities(
  id TEXT PRIMARY KEY,
  number TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING'
    CHECK (status IN ('PENDING','PROCESSING','READY','COMPLETED','CANCELLED')),
  contact_name TEXT NOT NULL,
  contact_email TEXT NOT NULL,
  method TEXT NOT NULL,
  location TEXT,
  notes TEXT,
  total NUMERIC NOT NULL,
  restored INTEGER NOT NULL DEFAULT 0,
  idempotency_key TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
-- Retry keys are scoped to the submitting user; different users may reuse
-- the same key without colliding.
CREATE UNIQUE INDEX IF NOT EXISTS idx_activities_user_idem
  ON activities(user_id, idempotency_key) WHERE idempotency_key IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_activities_user ON activities(user_id);
CREATE INDEX IF NOT EXISTS idx_activities_created_at ON activities(created_at);

CREATE TABLE IF NOT EXISTS activity_items(
  activity_id TEXT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
  item_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price NUMERIC NOT NULL,
  qty INTEGER NOT NULL,
  line_total NUMERIC NOT NULL,
  PRIMARY KEY (activity_id, item_id)
);
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

	log.Println("[seed] inserting demo categories/items")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO categories(id,name) VALUES
	  ('maps','Antique Maps'),
	  ('prints','Vintage Prints'),
	  ('instruments','Scientific Instruments')`)

	tx.MustExec(`INSERT INTO items(id,category_id,name,description,price,tags_json,featured,available,tracked,quantity) VALUES
	  ('map-0001','maps','Ortelius World Map (1592)','Hand-coloured copper engraving.',1450.00,'{"era":"16th c","origin":"Antwerp"}',1,1,1,2),
	  ('print-0001','prints','Audubon Heron Print','Lithograph, later edition.',320.00,'{"era":"19th c"}',0,1,1,8),
	  ('inst-0001','instruments','Brass Sextant','Working condition, cased.',540.00,'{"era":"19th c","origin":"London"}',1,1,1,1)`)

	return tx.Commit()
}
