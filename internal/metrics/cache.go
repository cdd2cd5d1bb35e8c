package metrics

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "modernc.org/sqlite"

	"github.com/canonica-labs/canonica-validate/internal/errors"
)

// OfflineCache persists entries the uploader could not deliver after
// exhausting retries. It is serialised behind a single writer handle; the
// underlying SQLite connection permits concurrent readers.
type OfflineCache struct {
	db *sql.DB
}

// OpenOfflineCache opens (creating if necessary) a SQLite-backed cache at
// path, ensuring its schema exists.
func OpenOfflineCache(ctx context.Context, path string) (*OfflineCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewRepositoryError("failed to open offline cache", err)
	}
	cache := &OfflineCache{db: db}
	if err := cache.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return cache, nil
}

func (c *OfflineCache) ensureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS cached_metrics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			metric BLOB NOT NULL,
			retry_count INTEGER NOT NULL,
			enqueued_at INTEGER NOT NULL
		)
	`
	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return errors.NewRepositoryError("failed to create offline cache schema", err)
	}
	return nil
}

// Persist writes entry to the cache, tagged with the time it was enqueued.
func (c *OfflineCache) Persist(ctx context.Context, entry Entry, enqueuedAtMillis int64) error {
	blob, err := json.Marshal(entry.Metric)
	if err != nil {
		return errors.NewInternalError("failed to serialize metric for offline cache", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO cached_metrics (metric, retry_count, enqueued_at) VALUES (?, ?, ?)`,
		blob, entry.RetryCount, enqueuedAtMillis)
	if err != nil {
		return errors.NewRepositoryError("failed to persist metric to offline cache", err)
	}
	return nil
}

// CachedRow is one persisted cache row, including its storage id so callers
// can delete it after a successful resync.
type CachedRow struct {
	ID         int64
	Entry      Entry
	EnqueuedAt int64
}

// Load reads up to limit rows from the cache, oldest first.
func (c *OfflineCache) Load(ctx context.Context, limit int) ([]CachedRow, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, metric, retry_count, enqueued_at FROM cached_metrics ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.NewRepositoryError("failed to load cached metrics", err)
	}
	defer rows.Close()

	var loaded []CachedRow
	for rows.Next() {
		var (
			id         int64
			blob       []byte
			retryCount int
			enqueuedAt int64
		)
		if err := rows.Scan(&id, &blob, &retryCount, &enqueuedAt); err != nil {
			return nil, errors.NewRepositoryError("failed to scan cached metric row", err)
		}
		var metric WireMetric
		if err := json.Unmarshal(blob, &metric); err != nil {
			return nil, errors.NewInternalError("failed to deserialize cached metric", err)
		}
		loaded = append(loaded, CachedRow{ID: id, Entry: Entry{Metric: metric, RetryCount: retryCount}, EnqueuedAt: enqueuedAt})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewRepositoryError("failed to iterate cached metric rows", err)
	}
	return loaded, nil
}

// Delete removes a persisted row by id, typically after a successful
// resync.
func (c *OfflineCache) Delete(ctx context.Context, id int64) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM cached_metrics WHERE id = ?`, id); err != nil {
		return errors.NewRepositoryError("failed to delete cached metric row", err)
	}
	return nil
}

// Count reports how many rows remain cached.
func (c *OfflineCache) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cached_metrics`).Scan(&count); err != nil {
		return 0, errors.NewRepositoryError("failed to count cached metrics", err)
	}
	return count, nil
}

// Close releases the underlying database handle.
func (c *OfflineCache) Close() error {
	return c.db.Close()
}
