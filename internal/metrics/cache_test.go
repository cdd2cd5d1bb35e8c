package metrics

import (
	"context"
	"testing"
)

func newTestCache(t *testing.T) *OfflineCache {
	t.Helper()
	cache, err := OpenOfflineCache(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("failed to open offline cache: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestOfflineCache_PersistAndLoad(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	entry := Entry{Metric: WireMetric{ResultKey: WireResultKey{DatasetDate: 42}}, RetryCount: 1}
	if err := cache.Persist(ctx, entry, 1000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows, err := cache.Load(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 cached row, got %d", len(rows))
	}
	if rows[0].Entry.Metric.ResultKey.DatasetDate != 42 || rows[0].Entry.RetryCount != 1 {
		t.Fatalf("expected persisted entry to round-trip, got %+v", rows[0])
	}
}

func TestOfflineCache_DeleteRemovesRow(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	_ = cache.Persist(ctx, Entry{}, 1)
	rows, _ := cache.Load(ctx, 10)
	if err := cache.Delete(ctx, rows[0].ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	count, err := cache.Count(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty cache after delete, got count %d", count)
	}
}

func TestOfflineCache_LoadOrdersOldestFirst(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	_ = cache.Persist(ctx, Entry{Metric: WireMetric{ResultKey: WireResultKey{DatasetDate: 1}}}, 100)
	_ = cache.Persist(ctx, Entry{Metric: WireMetric{ResultKey: WireResultKey{DatasetDate: 2}}}, 200)

	rows, err := cache.Load(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 || rows[0].Entry.Metric.ResultKey.DatasetDate != 1 {
		t.Fatalf("expected oldest-first order, got %+v", rows)
	}
}
