package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"curio/internal/domain"
)

type ItemRepo struct{ db *sqlx.DB }

func NewItemRepo(db *sqlx.DB) *ItemRepo { return &ItemRepo{db: db} }

const itemColumns = `
  id, category_id, name, COALESCE(description,'') AS description, price,
  COALESCE(tags_json,'') AS tags_json, featured, available, tracked, quantity,
  version, created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ItemRepo) Get(id string) (domain.CatalogItem, error) {
	var it domain.CatalogItem
	err := r.db.Get(&it, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	return it, err
}

func (r *ItemRepo) ListFeatured() ([]domain.CatalogItem, error) {
	var out []domain.CatalogItem
	err := r.db.Select(&out, `
	  SELECT `+itemColumns+`
	  FROM items
	  WHERE featured = 1 AND available = 1
	  ORDER BY created_at DESC`)
	return out, err
}

func (r *ItemRepo) ListByCategory(categoryID string) ([]domain.CatalogItem, error) {
	var out []domain.CatalogItem
	err := r.db.Select(&out, `
	  SELECT `+itemColumns+`
	  FROM items
	  WHERE category_id = ? AND available = 1
	  ORDER BY created_at DESC`, categoryID)
	return out, err
}

// ---------- Admin writes ----------

func (r *ItemRepo) SetFeatured(id string, featured bool) error {
	return r.mustTouch(`UPDATE items SET featured = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, featured, id)
}

func (r *ItemRepo) SetCategory(id, categoryID string) error {
	return r.mustTouch(`UPDATE items SET category_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, categoryID, id)
}

func (r *ItemRepo) SetAvailability(id string, available bool) error {
	return r.mustTouch(`UPDATE items SET available = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, available, id)
}

// UpsertQuantity sets the counter (restock) and re-derives the availability
// flag for tracked items.
func (r *ItemRepo) UpsertQuantity(id string, qty int) error {
	if qty < 0 {
		return domain.ErrInvalidQuantity
	}
	return r.mustTouch(`
	  UPDATE items
	  SET quantity = ?, version = version + 1,
	      available = CASE WHEN tracked = 1 THEN (? > 0) ELSE available END,
	      updated_at = CURRENT_TIMESTAMP
	  WHERE id = ?`, qty, qty, id)
}

func (r *ItemRepo) mustTouch(query string, args ...any) error {
	res, err := r.db.Exec(query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ---------- Transaction-scoped inventory contract ----------

type ItemSnapshot struct {
	ID         string  `db:"id"`
	CategoryID string  `db:"category_id"`
	Name       string  `db:"name"`
	Price      float64 `db:"price"`
	Tracked    bool    `db:"tracked"`
	Available  bool    `db:"available"`
	Quantity   int     `db:"quantity"`
	Version    int     `db:"version"`
}

// ReadForUpdateTx reads live item state for the given ids inside tx. The write
// transaction holds the sqlite write lock for its duration, which gives the
// read-for-update discipline the engine needs; the version column guards the
// window between read and conditional update. Items missing from the result
// were deleted mid-flight.
func ReadForUpdateTx(tx *sqlx.Tx, itemIDs []string) (map[string]ItemSnapshot, error) {
	query, args, err := sqlx.In(`SELECT id, category_id, name, price, tracked, available, quantity, version FROM items WHERE id IN (?)`, itemIDs)
	if err != nil {
		return nil, err
	}
	var rows []ItemSnapshot
	if err := tx.Select(&rows, tx.Rebind(query), args...); err != nil {
		return nil, err
	}
	out := make(map[string]ItemSnapshot, len(rows))
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// DecrementTx conditionally subtracts qty at the observed version, flipping
// availability off when the counter reaches zero. sql.ErrNoRows signals a lost
// race (version moved or quantity dropped below qty).
func DecrementTx(tx *sqlx.Tx, id string, qty, version int) error {
	res, err := tx.Exec(`
	  UPDATE items
	  SET quantity = quantity - ?,
	      available = CASE WHEN quantity - ? <= 0 THEN 0 ELSE available END,
	      version = version + 1,
	      updated_at = CURRENT_TIMESTAMP
	  WHERE id = ? AND version = ? AND quantity >= ?`, qty, qty, id, version, qty)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IncrementTx restores qty units (cancellation restock) and re-opens
// availability for tracked items.
func IncrementTx(tx *sqlx.Tx, id string, qty int) error {
	_, err := tx.Exec(`
	  UPDATE items
	  SET quantity = quantity + ?,
	      available = CASE WHEN tracked = 1 THEN 1 ELSE available END,
	      version = version + 1,
	      updated_at = CURRENT_TIMESTAMP
	  WHERE id = ?`, qty, id)
	return err
}
