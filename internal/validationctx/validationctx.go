// Package validationctx carries the per-evaluation ambient state a
// constraint reads without receiving it as an explicit constructor argument:
// the engine-registered table name it should query, and an optional debug
// collector for SQL strings and timings. It is entered for the lifetime of a
// single constraint evaluation and released automatically when Evaluate
// returns, by virtue of Go's context scoping (the caller's ctx is never
// mutated, only a child is passed down).
package validationctx

import "context"

// DefaultTable is the table name assumed by single-source suites that never
// call WithTable.
const DefaultTable = "data"

// DebugCollector receives the SQL text and elapsed duration of every
// statement a constraint submits to the engine.
type DebugCollector interface {
	RecordQuery(sql string, durationMS int64)
}

type contextKey string

const (
	tableKey     contextKey = "canonica_validate_table"
	collectorKey contextKey = "canonica_validate_debug_collector"
)

// WithTable returns a context carrying the given ambient table name.
func WithTable(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, tableKey, name)
}

// TableName returns the ambient table name, or DefaultTable if none was set.
func TableName(ctx context.Context) string {
	if name, ok := ctx.Value(tableKey).(string); ok && name != "" {
		return name
	}
	return DefaultTable
}

// WithDebugCollector attaches a DebugCollector to the context.
func WithDebugCollector(ctx context.Context, c DebugCollector) context.Context {
	return context.WithValue(ctx, collectorKey, c)
}

// Collector returns the ambient DebugCollector, or nil if none was set.
func Collector(ctx context.Context) DebugCollector {
	c, _ := ctx.Value(collectorKey).(DebugCollector)
	return c
}
