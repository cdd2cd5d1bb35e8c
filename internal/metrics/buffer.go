package metrics

import (
	"sync"

	"github.com/canonica-labs/canonica-validate/internal/errors"
)

// Entry is one queued metric pending upload or persistence to the offline
// cache, carrying the retry count the uploader has accumulated for it.
type Entry struct {
	Metric     WireMetric
	RetryCount int
}

// Buffer is the sink pipeline's only shared mutable structure: a
// mutex-guarded vector with a fixed capacity. Push and Drain hold the lock
// only for the duration of their slice operation.
type Buffer struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
}

// NewBuffer creates an empty buffer with the given capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{capacity: capacity}
}

// Push appends an entry, or returns BufferOverflow if the buffer is already
// at capacity. The caller decides locally whether to drop or retry.
func (b *Buffer) Push(entry Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.entries) >= b.capacity {
		return errors.NewBufferOverflow(b.capacity)
	}
	b.entries = append(b.entries, entry)
	return nil
}

// Drain removes and returns up to n entries in FIFO order.
func (b *Buffer) Drain(n int) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n > len(b.entries) {
		n = len(b.entries)
	}
	drained := make([]Entry, n)
	copy(drained, b.entries[:n])
	b.entries = b.entries[n:]
	return drained
}

// Len reports the current number of buffered entries.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
