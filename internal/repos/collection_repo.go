package repos

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"curio/internal/domain"
)

type CollectionRepo struct{ db *sqlx.DB }

func NewCollectionRepo(db *sqlx.DB) *CollectionRepo { return &CollectionRepo{db: db} }

// Ensure returns the user's collection id, creating the row lazily.
func (r *CollectionRepo) Ensure(userID string) (string, error) {
	var id string
	if err := r.db.Get(&id, `SELECT id FROM collections WHERE user_id = ?`, userID); err == nil {
		return id, nil
	} else if err != sql.ErrNoRows {
		return "", err
	}
	id = uuid.NewString()
	_, err := r.db.Exec(`
	  INSERT INTO collections(id, user_id, updated_at)
	  VALUES(?, ?, CURRENT_TIMESTAMP)
	  ON CONFLICT(user_id) DO NOTHING`, id, userID)
	if err != nil {
		return "", err
	}
	// Re-read in case a concurrent insert won the conflict.
	if err := r.db.Get(&id, `SELECT id FROM collections WHERE user_id = ?`, userID); err != nil {
		return "", err
	}
	return id, nil
}

// UpsertEntry merges qty into any existing entry for the same item.
func (r *CollectionRepo) UpsertEntry(collectionID, itemID string, qty int) error {
	_, err := r.db.Exec(`
	  INSERT INTO collection_entries(id, collection_id, item_id, qty, created_at)
	  VALUES(?, ?, ?, ?, CURRENT_TIMESTAMP)
	  ON CONFLICT(collection_id, item_id) DO UPDATE
	  SET qty = collection_entries.qty + excluded.qty, updated_at = CURRENT_TIMESTAMP
	`, uuid.NewString(), collectionID, itemID, qty)
	return err
}

// SetEntryQty overwrites an entry's quantity. Missing entries are a no-op so
// double-submitted updates are tolerated.
func (r *CollectionRepo) SetEntryQty(collectionID, entryID string, qty int) error {
	_, err := r.db.Exec(`
	  UPDATE collection_entries SET qty = ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ? AND collection_id = ?`, qty, entryID, collectionID)
	return err
}

// RemoveEntry deletes an entry; missing entries are a no-op.
func (r *CollectionRepo) RemoveEntry(collectionID, entryID string) error {
	_, err := r.db.Exec(`DELETE FROM collection_entries WHERE id = ? AND collection_id = ?`, entryID, collectionID)
	return err
}

// Entries returns the collection's lines joined with live item data. The
// joined name/price are advisory only; finalization re-reads inside its own
// transaction.
func (r *CollectionRepo) Entries(collectionID string) ([]domain.CollectionEntry, error) {
	out := []domain.CollectionEntry{}
	err := r.db.Select(&out, `
	  SELECT ce.id, ce.collection_id, ce.item_id, i.name AS item_name,
	         i.price AS unit_price, ce.qty, ce.created_at
	  FROM collection_entries ce JOIN items i ON i.id = ce.item_id
	  WHERE ce.collection_id = ?
	  ORDER BY ce.created_at, ce.id`, collectionID)
	return out, err
}

func (r *CollectionRepo) Clear(collectionID string) error {
	_, err := r.db.Exec(`DELETE FROM collection_entries WHERE collection_id = ?`, collectionID)
	return err
}

// ---------- Transaction-scoped ----------

// EntriesTx reads raw entries without joining live item data; the engine
// snapshots names and prices itself under its write lock.
func EntriesTx(tx *sqlx.Tx, collectionID string) ([]domain.CollectionEntry, error) {
	out := []domain.CollectionEntry{}
	err := tx.Select(&out, `
	  SELECT id, collection_id, item_id, qty, created_at
	  FROM collection_entries
	  WHERE collection_id = ?
	  ORDER BY created_at, id`, collectionID)
	return out, err
}

func ClearTx(tx *sqlx.Tx, collectionID string) error {
	_, err := tx.Exec(`DELETE FROM collection_entries WHERE collection_id = ?`, collectionID)
	return err
}
