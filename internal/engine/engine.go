// Package engine defines the contract a columnar query engine must satisfy
// to back constraint evaluation: register named tables, accept trusted SQL
// text, and return typed column batches. Constraint code never talks to a
// concrete database driver directly; it only ever sees a Session.
package engine

import "context"

// Batch is one ordered result batch: column names plus row-major values.
// Values use Go's native driver types (int64, float64, string, bool,
// time.Time, nil) as returned by database/sql; DowncastNumeric normalizes
// numeric types per the contract's downcast chain.
type Batch struct {
	Columns []string
	Rows    [][]any
}

// RowCount returns the number of rows in the batch.
func (b Batch) RowCount() int {
	return len(b.Rows)
}

// Dataframe is a handle to a not-yet-collected query result.
type Dataframe struct {
	SQL string
}

// Schema maps a table's column names to their engine-reported type names.
type Schema map[string]string

// TableProvider supplies the engine with however it needs to make a table
// queryable: a file path, a connection string, an in-memory record set, etc.
// Session implementations type-switch on concrete provider types they
// understand and reject ones they don't with errors.NewNotSupported.
type TableProvider interface {
	// ProviderKind is a short tag such as "csv", "parquet", "ndjson", "postgres".
	ProviderKind() string
}

// Session is the engine contract external to this module's hard core.
type Session interface {
	// RegisterTable makes a table queryable under name. Name uniqueness is
	// the caller's responsibility.
	RegisterTable(ctx context.Context, name string, provider TableProvider) error

	// SQL prepares a dataframe handle for the given (already-safety-validated)
	// SQL text. The text is trusted; Session performs no further validation.
	SQL(ctx context.Context, text string) (Dataframe, error)

	// Collect executes the dataframe and returns its result as ordered batches.
	Collect(ctx context.Context, df Dataframe) ([]Batch, error)

	// SchemaOf returns the column-name-to-type-name mapping for table.
	SchemaOf(ctx context.Context, table string) (Schema, error)

	// Name identifies the engine for routing and reporting ("duckdb", "trino", ...).
	Name() string

	// Close releases any resources held by the session. Idempotent.
	Close() error
}
