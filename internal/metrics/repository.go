package metrics

import (
	"context"

	"github.com/canonica-labs/canonica-validate/internal/errors"
)

// MetricRepository is the façade validation code talks to: save() enqueues
// a metric for upload, flush() forces an immediate drain, shutdown() stops
// the background worker, and health_check() reports whether the metrics
// endpoint answers a GET on its /health route with 200 OK.
type MetricRepository struct {
	buffer   *Buffer
	cache    *OfflineCache
	uploader *Uploader
	cancel   context.CancelFunc
	done     chan WorkerStats
}

// NewMetricRepository wires a buffer, offline cache, and uploader into one
// façade and starts the uploader's background flush loop.
func NewMetricRepository(bufferCapacity int, cache *OfflineCache, uploaderConfig UploaderConfig) *MetricRepository {
	buffer := NewBuffer(bufferCapacity)
	uploader := NewUploader(buffer, cache, uploaderConfig)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan WorkerStats, 1)
	go func() { done <- uploader.Run(ctx) }()
	return &MetricRepository{buffer: buffer, cache: cache, uploader: uploader, cancel: cancel, done: done}
}

// Save validates key and enqueues metric for upload. A full buffer returns
// BufferOverflow; the caller decides whether to drop or retry.
func (r *MetricRepository) Save(key ResultKey, metric WireMetric) error {
	if err := key.Validate(); err != nil {
		return errors.NewRepositoryValidationError(err.Error())
	}
	return r.buffer.Push(Entry{Metric: metric})
}

// Flush drains and uploads the buffer's current contents immediately,
// bypassing the flush-interval ticker.
func (r *MetricRepository) Flush(ctx context.Context) error {
	entries := r.buffer.Drain(r.buffer.capacity)
	if len(entries) == 0 {
		return nil
	}
	if _, err := r.uploader.uploadWithRetry(ctx, entries); err != nil {
		for _, entry := range entries {
			if persistErr := r.cache.Persist(ctx, entry, 0); persistErr != nil {
				return persistErr
			}
		}
	}
	return nil
}

// Shutdown stops the background uploader, waits for it to drain whatever
// remains in the buffer (persisting to the offline cache anything that
// cannot be uploaded), and returns the stats for that final drain.
func (r *MetricRepository) Shutdown() WorkerStats {
	r.cancel()
	return <-r.done
}

// HealthCheck performs a single GET against the metrics endpoint's health
// route and reports whether it answered 200 OK.
func (r *MetricRepository) HealthCheck(ctx context.Context) bool {
	return r.uploader.healthCheck(ctx)
}

// Load returns the entries currently persisted in the offline cache,
// oldest first.
func (r *MetricRepository) Load(ctx context.Context, limit int) ([]CachedRow, error) {
	return r.cache.Load(ctx, limit)
}
