package services

import (
	"database/sql"

	"curio/internal/domain"
	"curio/internal/repos"
)

type CollectionService struct {
	Colls *repos.CollectionRepo
	Items *repos.ItemRepo
}

func NewCollectionService(colls *repos.CollectionRepo, items *repos.ItemRepo) *CollectionService {
	return &CollectionService{Colls: colls, Items: items}
}

// Add merges qty into the user's collection entry for itemID. The
// availability check here is advisory; finalization re-validates under lock.
func (s *CollectionService) Add(userID, itemID string, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	it, err := s.Items.Get(itemID)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.ErrNotFound
		}
		return err
	}
	if it.Tracked && !it.Available {
		return &domain.InsufficientAvailabilityError{ItemIDs: []string{itemID}}
	}
	collID, err := s.Colls.Ensure(userID)
	if err != nil {
		return err
	}
	return s.Colls.UpsertEntry(collID, itemID, qty)
}

// Update sets an entry's quantity; zero removes it. Missing entries are a
// no-op to tolerate client double-submission.
func (s *CollectionService) Update(userID, entryID string, qty int) error {
	if qty < 0 {
		return domain.ErrInvalidQuantity
	}
	collID, err := s.Colls.Ensure(userID)
	if err != nil {
		return err
	}
	if qty == 0 {
		return s.Colls.RemoveEntry(collID, entryID)
	}
	return s.Colls.SetEntryQty(collID, entryID, qty)
}

func (s *CollectionService) Remove(userID, entryID string) error {
	collID, err := s.Colls.Ensure(userID)
	if err != nil {
		return err
	}
	return s.Colls.RemoveEntry(collID, entryID)
}

func (s *CollectionService) Clear(userID string) error {
	collID, err := s.Colls.Ensure(userID)
	if err != nil {
		return err
	}
	return s.Colls.Clear(collID)
}

type CollectionView struct {
	Entries []domain.CollectionEntry `json:"entries"`
	Total   float64                  `json:"total"`
}

func (s *CollectionService) View(userID string) (CollectionView, error) {
	collID, err := s.Colls.Ensure(userID)
	if err != nil {
		return CollectionView{}, err
	}
	entries, err := s.Colls.Entries(collID)
	if err != nil {
		return CollectionView{}, err
	}
	total := 0.0
	for _, e := range entries {
		total += e.UnitPrice * float64(e.Qty)
	}
	return CollectionView{Entries: entries, Total: total}, nil
}
