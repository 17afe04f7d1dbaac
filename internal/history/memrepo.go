package history

import (
	"context"
	"sort"
	"sync"
)

// memrepo is the development fallback used when no database is configured.
type memrepo struct {
	mu      sync.RWMutex
	records []*Record
}

func NewMemoryRepository() Repository {
	return &memrepo{}
}

func (m *memrepo) Insert(ctx context.Context, rec *Record) error {
	if rec == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.records {
		if existing.ID == rec.ID {
			return nil
		}
	}
	copied := *rec
	m.records = append(m.records, &copied)
	return nil
}

func (m *memrepo) Recent(ctx context.Context, variantName string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 10
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]*Record, 0, len(m.records))
	for _, rec := range m.records {
		if rec.Variant == variantName {
			items = append(items, rec)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
