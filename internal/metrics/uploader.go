package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/canonica-labs/canonica-validate/internal/errors"
)

// UploaderConfig governs the upload worker's batching, retry, and backoff
// behaviour.
type UploaderConfig struct {
	EndpointURL   string
	APIKey        string
	FlushInterval time.Duration
	BatchSize     int
	MaxRetries    int
	BackoffBase   time.Duration
	BackoffCap    time.Duration
}

// Uploader drains a Buffer on a flush interval, posts batches to the
// metrics endpoint, and retries transient failures with capped exponential
// backoff plus jitter. Exhausted retries persist the batch to an
// OfflineCache rather than dropping it.
type Uploader struct {
	buffer *Buffer
	cache  *OfflineCache
	config UploaderConfig
	client *http.Client
	now    func() time.Time
	random *rand.Rand
}

// NewUploader builds an uploader over buffer, persisting exhausted entries
// to cache.
func NewUploader(buffer *Buffer, cache *OfflineCache, config UploaderConfig) *Uploader {
	return &Uploader{
		buffer: buffer,
		cache:  cache,
		config: config,
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
		random: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WorkerStats tallies what a flush (periodic or shutdown-drain) did to the
// entries it handled.
type WorkerStats struct {
	Uploaded int
	Failed   int
	Retried  int
}

// Add folds other into a copy of s.
func (s WorkerStats) Add(other WorkerStats) WorkerStats {
	return WorkerStats{
		Uploaded: s.Uploaded + other.Uploaded,
		Failed:   s.Failed + other.Failed,
		Retried:  s.Retried + other.Retried,
	}
}

// Run drains and uploads batches on a FlushInterval ticker until ctx is
// cancelled. On cancellation it drains whatever remains in the buffer,
// persisting to the offline cache anything that cannot be uploaded, and
// returns the accumulated WorkerStats for the whole run. Callers typically
// run this in its own goroutine and cancel ctx to trigger a graceful
// shutdown.
func (u *Uploader) Run(ctx context.Context) WorkerStats {
	ticker := time.NewTicker(u.config.FlushInterval)
	defer ticker.Stop()
	var total WorkerStats
	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.Background(), u.config.FlushInterval)
			total = total.Add(u.drainRemaining(drainCtx))
			cancel()
			return total
		case <-ticker.C:
			total = total.Add(u.flushOnce(ctx))
		}
	}
}

// drainRemaining repeatedly drains and uploads whatever is left in the
// buffer, in BatchSize chunks (the buffer's capacity when BatchSize is not
// positive), until it is empty.
func (u *Uploader) drainRemaining(ctx context.Context) WorkerStats {
	batchSize := u.config.BatchSize
	if batchSize <= 0 {
		batchSize = u.buffer.capacity
	}
	var stats WorkerStats
	for {
		entries := u.buffer.Drain(batchSize)
		if len(entries) == 0 {
			return stats
		}
		stats = stats.Add(u.upload(ctx, entries))
	}
}

func (u *Uploader) flushOnce(ctx context.Context) WorkerStats {
	entries := u.buffer.Drain(u.config.BatchSize)
	if len(entries) == 0 {
		return WorkerStats{}
	}
	return u.upload(ctx, entries)
}

// upload attempts delivery of entries with retry, persisting to the offline
// cache on exhausted/non-retryable failure, and reports the outcome.
func (u *Uploader) upload(ctx context.Context, entries []Entry) WorkerStats {
	retries, err := u.uploadWithRetry(ctx, entries)
	if err != nil {
		for _, entry := range entries {
			_ = u.cache.Persist(ctx, entry, u.now().UnixMilli())
		}
		return WorkerStats{Failed: len(entries), Retried: retries}
	}
	return WorkerStats{Uploaded: len(entries), Retried: retries}
}

// uploadWithRetry attempts delivery up to MaxRetries+1 times, applying
// exponential backoff with +/-20% jitter between attempts. It returns nil as
// soon as any attempt succeeds, or the last error once retries are
// exhausted, along with the number of retry attempts made.
func (u *Uploader) uploadWithRetry(ctx context.Context, entries []Entry) (int, error) {
	var lastErr error
	retries := 0
	for attempt := 0; attempt <= u.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := u.backoffDelay(attempt)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return retries, ctx.Err()
			case <-timer.C:
			}
			retries++
			for i := range entries {
				entries[i].RetryCount++
			}
		}

		err := u.uploadBatch(ctx, entries)
		if err == nil {
			return retries, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return retries, err
		}
	}
	return retries, lastErr
}

func (u *Uploader) backoffDelay(attempt int) time.Duration {
	base := float64(u.config.BackoffBase) * math.Pow(2, float64(attempt-1))
	ceiling := float64(u.config.BackoffCap)
	if base > ceiling {
		base = ceiling
	}
	jitter := base * (0.8 + 0.4*u.random.Float64())
	return time.Duration(jitter)
}

// healthCheck performs one GET against the metrics endpoint's health route
// and reports whether it answered 200 OK.
func (u *Uploader) healthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(u.config.EndpointURL, "/")+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := u.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (u *Uploader) uploadBatch(ctx context.Context, entries []Entry) error {
	req := UploadRequest{Metrics: make([]WireMetric, len(entries))}
	for i, entry := range entries {
		req.Metrics[i] = entry.Metric
	}

	body, err := json.Marshal(req)
	if err != nil {
		return errors.NewInternalError("failed to serialize upload batch", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.config.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return errors.NewDataSourceError("failed to build upload request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if u.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+u.config.APIKey)
	}

	resp, err := u.client.Do(httpReq)
	if err != nil {
		return &retryableError{cause: errors.NewDataSourceError("metrics upload request failed", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == 408 || resp.StatusCode == 429 || resp.StatusCode >= 500:
		return &retryableError{cause: errors.NewDataSourceError(fmt.Sprintf("metrics upload failed with retryable status %d", resp.StatusCode), nil)}
	default:
		return errors.NewDataSourceError(fmt.Sprintf("metrics upload failed with non-retryable status %d", resp.StatusCode), nil)
	}
}

// retryableError tags an error as transient so uploadWithRetry knows to
// keep trying rather than surfacing it immediately.
type retryableError struct {
	cause error
}

func (e *retryableError) Error() string { return e.cause.Error() }
func (e *retryableError) Unwrap() error { return e.cause }

func isRetryable(err error) bool {
	_, ok := err.(*retryableError)
	return ok
}
