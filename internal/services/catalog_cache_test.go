package services_test

import (
	"testing"
	"time"

	"curio/internal/cache"
	"curio/internal/repos"
	"curio/internal/services"
)

func newCatalog(t *testing.T, f fixture) *services.CatalogService {
	t.Helper()
	c := cache.New(16, time.Minute)
	return services.NewCatalogService(repos.NewCategoryRepo(f.db), f.items, c)
}

func TestCatalog_FeaturedInvalidatesOnFlagChange(t *testing.T) {
	f := newFixture(t)
	cat := newCatalog(t, f)

	items, err := cat.Featured()
	if err != nil {
		t.Fatal(err)
	}
	for _, it := range items {
		if it.ID == "item-b" {
			t.Fatalf("item-b featured before flag set")
		}
	}

	// The write must invalidate before returning; the very next read sees it.
	if err := cat.SetFeatured("item-b", true); err != nil {
		t.Fatal(err)
	}
	items, err = cat.Featured()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, it := range items {
		if it.ID == "item-b" {
			found = true
		}
	}
	if !found {
		t.Fatalf("stale featured listing after synchronous invalidation")
	}
}

func TestCatalog_CategoryMoveInvalidatesBothKeys(t *testing.T) {
	f := newFixture(t)
	cat := newCatalog(t, f)

	prints, err := cat.ByCategory("prints")
	if err != nil {
		t.Fatal(err)
	}
	if len(prints) == 0 {
		t.Fatal("expected seeded prints")
	}

	if err := cat.SetCategory("item-b", "maps"); err != nil {
		t.Fatal(err)
	}

	prints, err = cat.ByCategory("prints")
	if err != nil {
		t.Fatal(err)
	}
	for _, it := range prints {
		if it.ID == "item-b" {
			t.Fatalf("item-b still listed in old category")
		}
	}
	maps, err := cat.ByCategory("maps")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, it := range maps {
		if it.ID == "item-b" {
			found = true
		}
	}
	if !found {
		t.Fatalf("item-b missing from new category listing")
	}
}

func TestCatalog_FinalizeFlipInvalidatesFeatured(t *testing.T) {
	f := newFixture(t)
	c := cache.New(16, time.Minute)
	cat := services.NewCatalogService(repos.NewCategoryRepo(f.db), f.items, c)
	fin := services.NewFinalizeService(f.db, f.colls, f.acts, c, services.LogNotifier{})

	// item-a is featured with counter 5; warm the cache, then drain it.
	items, err := cat.Featured()
	if err != nil {
		t.Fatal(err)
	}
	if len(items) == 0 {
		t.Fatal("expected a featured item")
	}

	user := "u-flip"
	coll := services.NewCollectionService(f.colls, f.items)
	if err := coll.Add(user, "item-a", 5); err != nil {
		t.Fatal(err)
	}
	if _, _, err := fin.Finalize(user, contact()); err != nil {
		t.Fatal(err)
	}

	items, err = cat.Featured()
	if err != nil {
		t.Fatal(err)
	}
	for _, it := range items {
		if it.ID == "item-a" {
			t.Fatalf("drained item still in cached featured listing")
		}
	}
}

func TestCatalog_RestockReopensAvailability(t *testing.T) {
	f := newFixture(t)
	cat := newCatalog(t, f)

	if _, err := f.db.Exec(`UPDATE items SET quantity = 0, available = 0 WHERE id = 'item-b'`); err != nil {
		t.Fatal(err)
	}
	if err := cat.Restock("item-b", 4); err != nil {
		t.Fatal(err)
	}
	qty, avail := itemQty(t, f, "item-b")
	if qty != 4 || !avail {
		t.Fatalf("restock: want qty=4 available, got qty=%d available=%v", qty, avail)
	}
}
