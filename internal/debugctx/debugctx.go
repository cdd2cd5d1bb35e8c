// Package debugctx implements validationctx.DebugCollector: a per-run
// collector of the SQL text and timing every constraint submits, plus the
// derived timing summaries (total duration, slowest queries) and simple
// suggestions a human
// formatter can surface alongside a report.
package debugctx

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// QueryLogEntry records one SQL submission a constraint made during
// evaluation.
type QueryLogEntry struct {
	SQL        string
	DurationMS int64
}

// Collector accumulates QueryLogEntry values for one validation run and
// emits them as structured log lines via logrus. It implements
// validationctx.DebugCollector.
type Collector struct {
	mu      sync.Mutex
	logger  *logrus.Logger
	entries []QueryLogEntry
}

// NewCollector builds a collector logging through the given logrus logger.
// A nil logger falls back to logrus's default instance.
func NewCollector(logger *logrus.Logger) *Collector {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Collector{logger: logger}
}

// RecordQuery appends one submission and logs it at debug level.
func (c *Collector) RecordQuery(sql string, durationMS int64) {
	c.mu.Lock()
	c.entries = append(c.entries, QueryLogEntry{SQL: sql, DurationMS: durationMS})
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"sql":         sql,
		"duration_ms": durationMS,
	}).Debug("constraint submitted query")
}

// Entries returns a copy of every recorded query, in submission order.
func (c *Collector) Entries() []QueryLogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]QueryLogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// TotalDurationMS sums the recorded duration of every query.
func (c *Collector) TotalDurationMS() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total int64
	for _, e := range c.entries {
		total += e.DurationMS
	}
	return total
}

// SlowestQueries returns the n slowest recorded queries, descending by
// duration.
func (c *Collector) SlowestQueries(n int) []QueryLogEntry {
	entries := c.Entries()
	sort.Slice(entries, func(i, j int) bool { return entries[i].DurationMS > entries[j].DurationMS })
	if n > len(entries) {
		n = len(entries)
	}
	return entries[:n]
}

// Suggestions derives simple, rule-based hints from the collected queries:
// a large query count on one run, or any single query crossing a slow
// threshold, each produce one human-readable suggestion.
func (c *Collector) Suggestions(slowThresholdMS int64) []string {
	entries := c.Entries()
	var suggestions []string
	if len(entries) > 50 {
		suggestions = append(suggestions, "this run submitted a large number of queries; consider coalescing constraints over the same table")
	}
	for _, e := range entries {
		if e.DurationMS >= slowThresholdMS {
			suggestions = append(suggestions, "a query exceeded the slow-query threshold: "+e.SQL)
		}
	}
	return suggestions
}
