package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSyncOfflineCache_DeliversAndEmptiesCacheOnSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx := context.Background()
	cache := newTestCache(t)
	_ = cache.Persist(ctx, Entry{Metric: WireMetric{ResultKey: WireResultKey{DatasetDate: 1}}}, 1)
	_ = cache.Persist(ctx, Entry{Metric: WireMetric{ResultKey: WireResultKey{DatasetDate: 2}}}, 2)

	uploader := NewUploader(NewBuffer(10), cache, UploaderConfig{
		EndpointURL: server.URL,
		BackoffBase: time.Millisecond,
		BackoffCap:  time.Millisecond,
	})

	if err := SyncOfflineCache(ctx, cache, uploader); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	count, err := cache.Count(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty cache after successful sync, got %d", count)
	}
}

func TestSyncOfflineCache_LeavesCacheUnchangedOnRetryableFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx := context.Background()
	cache := newTestCache(t)
	_ = cache.Persist(ctx, Entry{Metric: WireMetric{ResultKey: WireResultKey{DatasetDate: 1}}}, 1)

	uploader := NewUploader(NewBuffer(10), cache, UploaderConfig{
		EndpointURL: server.URL,
		BackoffBase: time.Millisecond,
		BackoffCap:  time.Millisecond,
	})

	if err := SyncOfflineCache(ctx, cache, uploader); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	count, err := cache.Count(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 entry left after retryable failure, got %d", count)
	}
}

func TestSyncOfflineCache_TwiceInARowIsIdempotentOnSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx := context.Background()
	cache := newTestCache(t)
	_ = cache.Persist(ctx, Entry{Metric: WireMetric{ResultKey: WireResultKey{DatasetDate: 1}}}, 1)

	uploader := NewUploader(NewBuffer(10), cache, UploaderConfig{
		EndpointURL: server.URL,
		BackoffBase: time.Millisecond,
		BackoffCap:  time.Millisecond,
	})

	_ = SyncOfflineCache(ctx, cache, uploader)
	if err := SyncOfflineCache(ctx, cache, uploader); err != nil {
		t.Fatalf("unexpected error on second sync: %v", err)
	}
	count, _ := cache.Count(ctx)
	if count != 0 {
		t.Fatalf("expected cache to remain empty on second sync, got %d", count)
	}
}
