package services

import (
	"database/sql"

	"curio/internal/cache"
	"curio/internal/domain"
	"curio/internal/repos"
)

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Items *repos.ItemRepo
	Cache *cache.Cache
}

func NewCatalogService(cats *repos.CategoryRepo, items *repos.ItemRepo, c *cache.Cache) *CatalogService {
	return &CatalogService{Cats: cats, Items: items, Cache: c}
}

func (s *CatalogService) Categories() ([]domain.Category, error) {
	return s.Cats.List()
}

func (s *CatalogService) Item(id string) (domain.CatalogItem, error) {
	it, err := s.Items.Get(id)
	if err == sql.ErrNoRows {
		return it, domain.ErrNotFound
	}
	return it, err
}

// Featured serves the featured listing through the read-through cache.
func (s *CatalogService) Featured() ([]domain.CatalogItem, error) {
	v, err := s.Cache.GetOrLoad(cache.KeyFeatured, func() (any, error) {
		return s.Items.ListFeatured()
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.CatalogItem), nil
}

func (s *CatalogService) ByCategory(categoryID string) ([]domain.CatalogItem, error) {
	v, err := s.Cache.GetOrLoad(cache.CategoryKey(categoryID), func() (any, error) {
		return s.Items.ListByCategory(categoryID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.CatalogItem), nil
}

// ---------- Staff mutations ----------
// Every write below invalidates the affected keys before returning, so the
// caller only sees success once stale reads are impossible.

func (s *CatalogService) SetFeatured(itemID string, featured bool) error {
	it, err := s.Item(itemID)
	if err != nil {
		return err
	}
	if err := s.Items.SetFeatured(itemID, featured); err != nil {
		return err
	}
	s.Cache.Invalidate(cache.KeyFeatured, cache.CategoryKey(it.CategoryID))
	return nil
}

func (s *CatalogService) SetCategory(itemID, categoryID string) error {
	ok, err := s.Cats.Exists(categoryID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	it, err := s.Item(itemID)
	if err != nil {
		return err
	}
	if err := s.Items.SetCategory(itemID, categoryID); err != nil {
		return err
	}
	s.Cache.Invalidate(cache.KeyFeatured, cache.CategoryKey(it.CategoryID), cache.CategoryKey(categoryID))
	return nil
}

func (s *CatalogService) SetAvailability(itemID string, available bool) error {
	it, err := s.Item(itemID)
	if err != nil {
		return err
	}
	if err := s.Items.SetAvailability(itemID, available); err != nil {
		return err
	}
	s.Cache.Invalidate(cache.KeyFeatured, cache.CategoryKey(it.CategoryID))
	return nil
}

// Restock sets an item's counter; the availability flag follows the counter
// for tracked items, so the public keys are invalidated as well.
func (s *CatalogService) Restock(itemID string, qty int) error {
	it, err := s.Item(itemID)
	if err != nil {
		return err
	}
	if err := s.Items.UpsertQuantity(itemID, qty); err != nil {
		return err
	}
	s.Cache.Invalidate(cache.KeyFeatured, cache.CategoryKey(it.CategoryID))
	return nil
}
