package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMetricRepository_SaveRejectsInvalidKey(t *testing.T) {
	cache := newTestCache(t)
	repo := NewMetricRepository(4, cache, UploaderConfig{BackoffBase: time.Millisecond, BackoffCap: time.Millisecond, FlushInterval: time.Hour})
	t.Cleanup(func() { repo.Shutdown() })

	badKey := NewResultKey(1).WithTag("", "value")
	if err := repo.Save(badKey, WireMetric{}); err == nil {
		t.Fatal("expected validation error for empty tag key")
	}
}

func TestMetricRepository_HealthCheckReflectsEndpointStatus(t *testing.T) {
	healthy := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Fatalf("expected a GET to /health, got %s", r.URL.Path)
		}
		if healthy {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer server.Close()

	cache := newTestCache(t)
	repo := NewMetricRepository(4, cache, UploaderConfig{
		EndpointURL: server.URL, BackoffBase: time.Millisecond, BackoffCap: time.Millisecond, FlushInterval: time.Hour,
	})
	t.Cleanup(func() { repo.Shutdown() })

	if !repo.HealthCheck(context.Background()) {
		t.Fatal("expected healthy repository when the endpoint answers 200")
	}
	healthy = false
	if repo.HealthCheck(context.Background()) {
		t.Fatal("expected unhealthy repository once the endpoint answers non-200")
	}
}

func TestMetricRepository_FlushUploadsImmediately(t *testing.T) {
	delivered := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered = true
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cache := newTestCache(t)
	repo := NewMetricRepository(4, cache, UploaderConfig{
		EndpointURL: server.URL,
		BackoffBase: time.Millisecond,
		BackoffCap:  time.Millisecond,
		FlushInterval: time.Hour,
	})
	t.Cleanup(func() { repo.Shutdown() })

	if err := repo.Save(NewResultKey(1), WireMetric{ResultKey: WireResultKey{DatasetDate: 1}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Flush(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !delivered {
		t.Fatal("expected flush to deliver the buffered metric immediately")
	}
}

func TestMetricRepository_ShutdownDrainsResidualBuffer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cache := newTestCache(t)
	repo := NewMetricRepository(4, cache, UploaderConfig{
		EndpointURL:   server.URL,
		BackoffBase:   time.Millisecond,
		BackoffCap:    time.Millisecond,
		FlushInterval: time.Hour,
	})

	if err := repo.Save(NewResultKey(1), WireMetric{ResultKey: WireResultKey{DatasetDate: 1}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats := repo.Shutdown()
	if stats.Uploaded != 1 {
		t.Fatalf("expected shutdown to drain and upload the residual entry, got %+v", stats)
	}
}
