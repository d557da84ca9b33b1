package services

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"curio/internal/cache"
	"curio/internal/domain"
	"curio/internal/metrics"
	"curio/internal/repos"
)

// StatusService drives the activity lifecycle. Transition into CANCELLED
// restores the frozen quantities to live inventory, exactly once.
type StatusService struct {
	DB     *sqlx.DB
	Acts   *repos.ActivityRepo
	Cache  *cache.Cache
	Notify Notifier
}

func NewStatusService(db *sqlx.DB, acts *repos.ActivityRepo, c *cache.Cache, n Notifier) *StatusService {
	return &StatusService{DB: db, Acts: acts, Cache: c, Notify: n}
}

func (s *StatusService) SetStatus(activityID string, next domain.Status) (domain.Activity, error) {
	if !next.Valid() {
		return domain.Activity{}, domain.ErrInvalidTransition
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return domain.Activity{}, err
	}
	defer func() { _ = tx.Rollback() }()

	act, err := repos.GetTx(tx, activityID)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Activity{}, domain.ErrNotFound
		}
		return domain.Activity{}, err
	}
	if !act.Status.CanTransition(next) {
		return domain.Activity{}, domain.ErrInvalidTransition
	}

	var restockedCategories []string
	if next == domain.StatusCancelled && !act.Restored {
		restockedCategories, err = s.restoreTx(tx, act.ID)
		if err != nil {
			return domain.Activity{}, err
		}
		if err := repos.MarkRestoredTx(tx, act.ID); err != nil {
			return domain.Activity{}, err
		}
	}

	if err := repos.UpdateStatusTx(tx, act.ID, next); err != nil {
		return domain.Activity{}, err
	}
	updated, err := repos.GetTx(tx, act.ID)
	if err != nil {
		return domain.Activity{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Activity{}, err
	}

	if len(restockedCategories) > 0 {
		keys := []string{cache.KeyFeatured}
		for _, cat := range restockedCategories {
			keys = append(keys, cache.CategoryKey(cat))
		}
		s.Cache.Invalidate(keys...)
	}

	metrics.StatusTransitions.WithLabelValues(string(next)).Inc()
	dispatch(s.Notify, NotifyEvent{
		Event:      "activity.status.changed",
		ActivityID: updated.ID,
		UserID:     updated.UserID,
		OldStatus:  string(act.Status),
		NewStatus:  string(updated.Status),
	})
	return updated, nil
}

// restoreTx increments live counters by each frozen line quantity, returning
// the category ids whose listings may have changed. Lines whose catalog item
// no longer exists are skipped.
func (s *StatusService) restoreTx(tx *sqlx.Tx, activityID string) ([]string, error) {
	lines, err := repos.ItemsTx(tx, activityID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ItemID)
	}
	snaps, err := repos.ReadForUpdateTx(tx, ids)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var categories []string
	for _, line := range lines {
		snap, ok := snaps[line.ItemID]
		if !ok {
			continue
		}
		// Finalize never decremented untracked items, so there is nothing to
		// give back for them.
		if !snap.Tracked {
			continue
		}
		if err := repos.IncrementTx(tx, line.ItemID, line.Qty); err != nil {
			return nil, err
		}
		if !seen[snap.CategoryID] {
			seen[snap.CategoryID] = true
			categories = append(categories, snap.CategoryID)
		}
	}
	return categories, nil
}
