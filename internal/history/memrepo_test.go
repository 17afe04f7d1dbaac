package history

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRepository(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Now()

	records := []*Record{
		{ID: "a", Variant: "janggi", Kind: "move", Move: "h3e3", CreatedAt: base},
		{ID: "b", Variant: "janggi", Kind: "analysis", Move: "h10g8", CreatedAt: base.Add(time.Second)},
		{ID: "c", Variant: "xiangqi", Kind: "move", Move: "b3e3", CreatedAt: base.Add(2 * time.Second)},
	}
	for _, rec := range records {
		if err := repo.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert(%s): %v", rec.ID, err)
		}
	}
	// Duplicate IDs are ignored, matching the database's ON CONFLICT.
	if err := repo.Insert(ctx, &Record{ID: "a", Variant: "janggi"}); err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}

	got, err := repo.Recent(ctx, "janggi", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("janggi records = %d, want 2", len(got))
	}
	if got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("order = %s, %s, want b, a", got[0].ID, got[1].ID)
	}

	limited, err := repo.Recent(ctx, "janggi", 1)
	if err != nil {
		t.Fatalf("Recent limited: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "b" {
		t.Fatalf("limited = %v", limited)
	}

	none, err := repo.Recent(ctx, "chess", 10)
	if err != nil || len(none) != 0 {
		t.Fatalf("chess records = %v, %v", none, err)
	}
}

func TestMemoryRepositoryCopiesRecords(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	rec := &Record{ID: "a", Variant: "janggi", Move: "h3e3", CreatedAt: time.Now()}
	if err := repo.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	rec.Move = "mutated"

	got, err := repo.Recent(ctx, "janggi", 1)
	if err != nil || len(got) != 1 {
		t.Fatalf("Recent: %v, %v", got, err)
	}
	if got[0].Move != "h3e3" {
		t.Fatalf("stored record mutated: %q", got[0].Move)
	}
}
