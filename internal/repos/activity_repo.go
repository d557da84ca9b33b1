package repos

import (
	"strings"

	"github.com/jmoiron/sqlx"

	"curio/internal/domain"
)

type ActivityRepo struct{ db *sqlx.DB }

func NewActivityRepo(db *sqlx.DB) *ActivityRepo { return &ActivityRepo{db: db} }

const activityColumns = `
  id, number, user_id, status, contact_name, contact_email, method,
  COALESCE(location,'') AS location, COALESCE(notes,'') AS notes, total,
  restored, COALESCE(idempotency_key,'') AS idempotency_key,
  created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ActivityRepo) Get(id string) (domain.Activity, error) {
	var a domain.Activity
	err := r.db.Get(&a, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
	return a, err
}

func (r *ActivityRepo) Items(activityID string) ([]domain.ActivityItem, error) {
	out := []domain.ActivityItem{}
	err := r.db.Select(&out, `
	  SELECT activity_id, item_id, name, unit_price, qty, line_total
	  FROM activity_items
	  WHERE activity_id = ?
	  ORDER BY name`, activityID)
	return out, err
}

// ByIdempotencyKey returns a prior activity for (user, key), if one exists.
func (r *ActivityRepo) ByIdempotencyKey(userID, key string) (domain.Activity, error) {
	var a domain.Activity
	err := r.db.Get(&a, `
	  SELECT `+activityColumns+`
	  FROM activities
	  WHERE user_id = ? AND idempotency_key = ?`, userID, key)
	return a, err
}

func (r *ActivityRepo) ListByUser(userID string) ([]domain.Activity, error) {
	out := []domain.Activity{}
	err := r.db.Select(&out, `
	  SELECT `+activityColumns+`
	  FROM activities
	  WHERE user_id = ?
	  ORDER BY datetime(created_at) DESC`, userID)
	return out, err
}

func (r *ActivityRepo) ListLatest(limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []domain.Activity{}
	err := r.db.Select(&out, `
	  SELECT `+activityColumns+`
	  FROM activities
	  ORDER BY datetime(created_at) DESC
	  LIMIT ?`, limit)
	return out, err
}

// ---------- Transaction-scoped ----------

// CreateTx inserts the activity header. A UNIQUE violation on number is
// reported so callers can regenerate the number without aborting the
// transaction.
func CreateTx(tx *sqlx.Tx, a domain.Activity) (numberTaken bool, err error) {
	_, err = tx.Exec(`
	  INSERT INTO activities
	    (id, number, user_id, status, contact_name, contact_email, method, location, notes, total, idempotency_key, created_at)
	  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''), CURRENT_TIMESTAMP)`,
		a.ID, a.Number, a.UserID, a.Status, a.ContactName, a.ContactEmail,
		a.Method, a.Location, a.Notes, a.Total, a.IdempotencyKey)
	if err != nil && strings.Contains(err.Error(), "activities.number") {
		return true, nil
	}
	return false, err
}

func InsertItemTx(tx *sqlx.Tx, line domain.ActivityItem) error {
	_, err := tx.Exec(`
	  INSERT INTO activity_items(activity_id, item_id, name, unit_price, qty, line_total)
	  VALUES (?, ?, ?, ?, ?, ?)`,
		line.ActivityID, line.ItemID, line.Name, line.UnitPrice, line.Qty, line.LineTotal)
	return err
}

func GetTx(tx *sqlx.Tx, id string) (domain.Activity, error) {
	var a domain.Activity
	err := tx.Get(&a, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
	return a, err
}

func ItemsTx(tx *sqlx.Tx, activityID string) ([]domain.ActivityItem, error) {
	out := []domain.ActivityItem{}
	err := tx.Select(&out, `
	  SELECT activity_id, item_id, name, unit_price, qty, line_total
	  FROM activity_items
	  WHERE activity_id = ?`, activityID)
	return out, err
}

func UpdateStatusTx(tx *sqlx.Tx, id string, status domain.Status) error {
	_, err := tx.Exec(`UPDATE activities SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	return err
}

func MarkRestoredTx(tx *sqlx.Tx, id string) error {
	_, err := tx.Exec(`UPDATE activities SET restored = 1 WHERE id = ?`, id)
	return err
}
