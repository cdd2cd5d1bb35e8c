package metrics

import "context"

// SyncOfflineCache re-attempts delivery of every cached entry, oldest
// first, stopping at the first retryable failure so the cache is not
// hammered against a still-unreachable endpoint. Entries that upload
// successfully are deleted from the cache; a persistent retryable failure
// leaves the remainder of the cache untouched.
func SyncOfflineCache(ctx context.Context, cache *OfflineCache, uploader *Uploader) error {
	const pageSize = 100
	for {
		rows, err := cache.Load(ctx, pageSize)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		for _, row := range rows {
			entries := []Entry{row.Entry}
			if err := uploader.uploadBatch(ctx, entries); err != nil {
				if isRetryable(err) {
					return nil
				}
				if delErr := cache.Delete(ctx, row.ID); delErr != nil {
					return delErr
				}
				continue
			}
			if err := cache.Delete(ctx, row.ID); err != nil {
				return err
			}
		}

		if len(rows) < pageSize {
			return nil
		}
	}
}
