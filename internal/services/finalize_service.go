package services

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"curio/internal/cache"
	"curio/internal/domain"
	"curio/internal/metrics"
	"curio/internal/repos"
)

type Contact struct {
	Name  string
	Email string
}

type FinalizeInput struct {
	Contact        Contact
	Method         string
	Location       string
	Notes          string
	IdempotencyKey string
}

// FinalizeService converts a user's collection into an immutable activity.
// The check-and-decrement runs in a single write transaction; on a lost
// version race the whole transaction is retried with the same input.
type FinalizeService struct {
	DB     *sqlx.DB
	Colls  *repos.CollectionRepo
	Acts   *repos.ActivityRepo
	Cache  *cache.Cache
	Notify Notifier
}

func NewFinalizeService(db *sqlx.DB, colls *repos.CollectionRepo, acts *repos.ActivityRepo, c *cache.Cache, n Notifier) *FinalizeService {
	return &FinalizeService{DB: db, Colls: colls, Acts: acts, Cache: c, Notify: n}
}

const (
	finalizeAttempts = 3
	numberAttempts   = 5
)

var (
	errLostRace     = errors.New("version race lost")
	errDuplicateKey = errors.New("idempotency key already committed")
)

// Finalize runs the whole conversion. On success the committed activity and
// its frozen lines are returned; cache invalidation and the creation
// notification happen strictly after commit.
func (s *FinalizeService) Finalize(userID string, in FinalizeInput) (domain.Activity, []domain.ActivityItem, error) {
	if in.IdempotencyKey != "" {
		if prior, err := s.Acts.ByIdempotencyKey(userID, in.IdempotencyKey); err == nil {
			items, err := s.Acts.Items(prior.ID)
			if err != nil {
				return domain.Activity{}, nil, err
			}
			metrics.FinalizeTotal.WithLabelValues("replayed").Inc()
			return prior, items, nil
		} else if err != sql.ErrNoRows {
			return domain.Activity{}, nil, err
		}
	}

	collID, err := s.Colls.Ensure(userID)
	if err != nil {
		return domain.Activity{}, nil, err
	}

	var lastErr error
	for attempt := 0; attempt < finalizeAttempts; attempt++ {
		act, items, flipped, err := s.finalizeOnce(collID, userID, in)
		switch {
		case err == nil:
			s.afterCommit(act, flipped)
			metrics.FinalizeTotal.WithLabelValues("ok").Inc()
			return act, items, nil
		case errors.Is(err, errLostRace):
			lastErr = err
			continue
		case errors.Is(err, errDuplicateKey):
			// A concurrent call with the same key committed first; hand back
			// its activity unchanged.
			prior, err := s.Acts.ByIdempotencyKey(userID, in.IdempotencyKey)
			if err != nil {
				return domain.Activity{}, nil, err
			}
			items, err := s.Acts.Items(prior.ID)
			if err != nil {
				return domain.Activity{}, nil, err
			}
			metrics.FinalizeTotal.WithLabelValues("replayed").Inc()
			return prior, items, nil
		default:
			metrics.FinalizeTotal.WithLabelValues("failed").Inc()
			return domain.Activity{}, nil, err
		}
	}
	metrics.FinalizeTotal.WithLabelValues("contention").Inc()
	return domain.Activity{}, nil, fmt.Errorf("%w: %v", domain.ErrConcurrentModification, lastErr)
}

type flippedItem struct {
	itemID     string
	categoryID string
}

func (s *FinalizeService) finalizeOnce(collID, userID string, in FinalizeInput) (domain.Activity, []domain.ActivityItem, []flippedItem, error) {
	tx, err := s.DB.Beginx()
	if err != nil {
		return domain.Activity{}, nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	entries, err := repos.EntriesTx(tx, collID)
	if err != nil {
		return domain.Activity{}, nil, nil, err
	}
	if len(entries) == 0 {
		return domain.Activity{}, nil, nil, domain.ErrEmptyCollection
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ItemID)
	}
	snaps, err := repos.ReadForUpdateTx(tx, ids)
	if err != nil {
		return domain.Activity{}, nil, nil, err
	}

	// Collect every offender before failing so the client can fix the whole
	// collection in one round trip.
	var short []string
	for _, e := range entries {
		snap, ok := snaps[e.ItemID]
		if !ok {
			return domain.Activity{}, nil, nil, domain.ErrNotFound
		}
		if snap.Tracked && e.Qty > snap.Quantity {
			short = append(short, e.ItemID)
		}
	}
	if len(short) > 0 {
		return domain.Activity{}, nil, nil, &domain.InsufficientAvailabilityError{ItemIDs: short}
	}

	var flipped []flippedItem
	for _, e := range entries {
		snap := snaps[e.ItemID]
		if !snap.Tracked {
			continue
		}
		if err := repos.DecrementTx(tx, e.ItemID, e.Qty, snap.Version); err != nil {
			if err == sql.ErrNoRows {
				return domain.Activity{}, nil, nil, errLostRace
			}
			return domain.Activity{}, nil, nil, err
		}
		if snap.Quantity-e.Qty == 0 {
			flipped = append(flipped, flippedItem{itemID: e.ItemID, categoryID: snap.CategoryID})
		}
	}

	act := domain.Activity{
		ID:             uuid.NewString(),
		UserID:         userID,
		Status:         domain.StatusPending,
		ContactName:    in.Contact.Name,
		ContactEmail:   in.Contact.Email,
		Method:         in.Method,
		Location:       in.Location,
		Notes:          in.Notes,
		IdempotencyKey: in.IdempotencyKey,
	}

	// Frozen line snapshots; the total is the sum of frozen line totals, no
	// live repricing after this point.
	items := make([]domain.ActivityItem, 0, len(entries))
	for _, e := range entries {
		snap := snaps[e.ItemID]
		items = append(items, domain.ActivityItem{
			ActivityID: act.ID,
			ItemID:     e.ItemID,
			Name:       snap.Name,
			UnitPrice:  snap.Price,
			Qty:        e.Qty,
			LineTotal:  snap.Price * float64(e.Qty),
		})
		act.Total += snap.Price * float64(e.Qty)
	}

	// Number collisions retry number generation only, not the transaction.
	inserted := false
	for i := 0; i < numberAttempts; i++ {
		act.Number = newActivityNumber()
		taken, err := repos.CreateTx(tx, act)
		if err != nil {
			if strings.Contains(err.Error(), "activities.idempotency_key") {
				return domain.Activity{}, nil, nil, errDuplicateKey
			}
			return domain.Activity{}, nil, nil, err
		}
		if !taken {
			inserted = true
			break
		}
	}
	if !inserted {
		return domain.Activity{}, nil, nil, fmt.Errorf("activity number space exhausted")
	}

	for _, line := range items {
		if err := repos.InsertItemTx(tx, line); err != nil {
			return domain.Activity{}, nil, nil, err
		}
	}

	if err := repos.ClearTx(tx, collID); err != nil {
		return domain.Activity{}, nil, nil, err
	}

	committed, err := repos.GetTx(tx, act.ID)
	if err != nil {
		return domain.Activity{}, nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Activity{}, nil, nil, err
	}
	return committed, items, flipped, nil
}

// afterCommit performs the post-transaction side effects: cache invalidation
// for items whose availability flipped, then the creation notification.
func (s *FinalizeService) afterCommit(act domain.Activity, flipped []flippedItem) {
	if len(flipped) > 0 {
		keys := []string{cache.KeyFeatured}
		for _, f := range flipped {
			keys = append(keys, cache.CategoryKey(f.categoryID))
		}
		s.Cache.Invalidate(keys...)
	}
	dispatch(s.Notify, NotifyEvent{
		Event:      "activity.created",
		ActivityID: act.ID,
		UserID:     act.UserID,
		NewStatus:  string(act.Status),
	})
}

// newActivityNumber derives a human-referenceable number; uniqueness is
// enforced by the store, this only needs to make collisions rare.
func newActivityNumber() string {
	buf := make([]byte, 3)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("CUR-%s-%s", time.Now().UTC().Format("20060102"), strings.ToUpper(hex.EncodeToString(buf)))
}
