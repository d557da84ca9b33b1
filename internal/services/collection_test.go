package services_test

import (
	"errors"
	"testing"

	"curio/internal/domain"
)

func TestCollection_AddMergesQuantities(t *testing.T) {
	f := newFixture(t)
	user := "u-merge"
	if err := f.coll.Add(user, "item-a", 2); err != nil {
		t.Fatal(err)
	}
	if err := f.coll.Add(user, "item-a", 3); err != nil {
		t.Fatal(err)
	}

	cv, err := f.coll.View(user)
	if err != nil {
		t.Fatal(err)
	}
	if len(cv.Entries) != 1 || cv.Entries[0].Qty != 5 {
		t.Fatalf("want single merged entry qty 5, got %+v", cv.Entries)
	}
	if cv.Total != 500.00 {
		t.Fatalf("want total 500, got %v", cv.Total)
	}
}

func TestCollection_AddRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	if err := f.coll.Add("u-bad", "item-a", 0); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("want ErrInvalidQuantity, got %v", err)
	}
	if err := f.coll.Add("u-bad", "item-a", -2); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("want ErrInvalidQuantity, got %v", err)
	}
	if err := f.coll.Add("u-bad", "no-such-item", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCollection_AddSoftChecksAvailability(t *testing.T) {
	f := newFixture(t)
	if _, err := f.db.Exec(`UPDATE items SET quantity = 0, available = 0 WHERE id = 'item-b'`); err != nil {
		t.Fatal(err)
	}
	err := f.coll.Add("u-soft", "item-b", 1)
	if _, ok := domain.AsInsufficient(err); !ok {
		t.Fatalf("want InsufficientAvailabilityError, got %v", err)
	}
}

func TestCollection_UpdateZeroRemoves(t *testing.T) {
	f := newFixture(t)
	user := "u-zero"
	if err := f.coll.Add(user, "item-a", 2); err != nil {
		t.Fatal(err)
	}
	cv, err := f.coll.View(user)
	if err != nil {
		t.Fatal(err)
	}

	if err := f.coll.Update(user, cv.Entries[0].ID, 0); err != nil {
		t.Fatal(err)
	}
	cv, err = f.coll.View(user)
	if err != nil {
		t.Fatal(err)
	}
	if len(cv.Entries) != 0 {
		t.Fatalf("qty 0 should remove the entry, got %+v", cv.Entries)
	}
}

func TestCollection_RemoveMissingEntryIsNoop(t *testing.T) {
	f := newFixture(t)
	user := "u-noop"
	if err := f.coll.Remove(user, "gone-entry"); err != nil {
		t.Fatalf("remove of missing entry should be a no-op, got %v", err)
	}
	if err := f.coll.Update(user, "gone-entry", 4); err != nil {
		t.Fatalf("update of missing entry should be a no-op, got %v", err)
	}
}

func TestCollection_Clear(t *testing.T) {
	f := newFixture(t)
	user := "u-clear"
	if err := f.coll.Add(user, "item-a", 1); err != nil {
		t.Fatal(err)
	}
	if err := f.coll.Add(user, "item-b", 1); err != nil {
		t.Fatal(err)
	}
	if err := f.coll.Clear(user); err != nil {
		t.Fatal(err)
	}
	cv, err := f.coll.View(user)
	if err != nil {
		t.Fatal(err)
	}
	if len(cv.Entries) != 0 {
		t.Fatalf("clear left entries: %+v", cv.Entries)
	}
}
