// Package duckdbsession implements engine.Session over an embedded DuckDB
// database via database/sql, the module's default local engine.
package duckdbsession

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/canonica-labs/canonica-validate/internal/engine"
	"github.com/canonica-labs/canonica-validate/internal/errors"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver registration
)

// Session wraps a DuckDB connection pool.
type Session struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// Config configures the session.
type Config struct {
	// DatabasePath is the path to the DuckDB database file, or ":memory:".
	DatabasePath string
}

// New opens a DuckDB session with the given configuration.
func New(cfg Config) (*Session, error) {
	path := cfg.DatabasePath
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.NewDataSourceError("failed to open DuckDB database", err)
	}
	return &Session{db: db, path: path}, nil
}

// NewInMemory opens an in-memory DuckDB session, primarily for tests.
func NewInMemory() (*Session, error) {
	return New(Config{DatabasePath: ":memory:"})
}

func (s *Session) Name() string { return "duckdb" }

// RegisterTable registers a table using a provider this session understands.
// A "postgres" provider is mapped onto a view over DuckDB's postgres_scan;
// CSV/Parquet/NDJSON file providers are each mapped onto a DuckDB CREATE
// VIEW over its native table function. Other provider kinds are not
// registered directly; internal/sources can materialize them to a file first.
func (s *Session) RegisterTable(ctx context.Context, name string, provider engine.TableProvider) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.NewDataSourceError("session is closed", nil)
	}

	if provider.ProviderKind() == "postgres" {
		type pgInfo interface {
			ConnInfo() string
			RemoteSchema() string
			RemoteTable() string
		}
		pg, ok := provider.(pgInfo)
		if !ok {
			return errors.NewNotSupported("postgres provider must implement ConnInfo/RemoteSchema/RemoteTable")
		}
		stmt := fmt.Sprintf(`CREATE OR REPLACE VIEW "%s" AS SELECT * FROM postgres_scan('%s', '%s', '%s')`,
			name, pg.ConnInfo(), pg.RemoteSchema(), pg.RemoteTable())
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.NewDataSourceError("failed to register postgres table "+name, err)
		}
		return nil
	}

	type pather interface{ Path() string }
	p, ok := provider.(pather)
	if !ok {
		return errors.NewNotSupported(fmt.Sprintf("provider kind %q requires a Path() accessor", provider.ProviderKind()))
	}

	var tableFn string
	switch provider.ProviderKind() {
	case "csv":
		tableFn = "read_csv_auto"
	case "parquet":
		tableFn = "read_parquet"
	case "ndjson":
		tableFn = "read_ndjson_auto"
	default:
		return errors.NewNotSupported("provider kind " + provider.ProviderKind())
	}

	stmt := fmt.Sprintf(`CREATE OR REPLACE VIEW "%s" AS SELECT * FROM %s('%s')`,
		name, tableFn, p.Path())
	_, err := s.db.ExecContext(ctx, stmt)
	if err != nil {
		return errors.NewDataSourceError("failed to register table "+name, err)
	}
	return nil
}

// SQL prepares a dataframe handle for trusted SQL text.
func (s *Session) SQL(ctx context.Context, text string) (engine.Dataframe, error) {
	if text == "" {
		return engine.Dataframe{}, errors.NewConfigurationError("SQL text is empty")
	}
	return engine.Dataframe{SQL: text}, nil
}

// Collect executes the dataframe and materializes its result as batches.
// DuckDB's Go driver returns a single logical result set; this session
// always yields exactly one Batch when there are results.
func (s *Session) Collect(ctx context.Context, df engine.Dataframe) ([]engine.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	if s.closed || s.db == nil {
		s.mu.RUnlock()
		return nil, errors.NewDataSourceError("session is closed", nil)
	}
	db := s.db
	s.mu.RUnlock()

	rows, err := db.QueryContext(ctx, df.SQL)
	if err != nil {
		return nil, errors.NewDataSourceError("query execution failed", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.NewDataSourceError("failed to read columns", err)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, errors.NewDataSourceError("failed to scan row", err)
		}
		resultRows = append(resultRows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDataSourceError("error during row iteration", err)
	}

	return []engine.Batch{{Columns: columns, Rows: resultRows}}, nil
}

// SchemaOf queries DuckDB's information schema for table's columns.
func (s *Session) SchemaOf(ctx context.Context, table string) (engine.Schema, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT column_name, data_type FROM information_schema.columns WHERE table_name = ?`, table)
	if err != nil {
		return nil, errors.NewDataSourceError("schema lookup failed", err)
	}
	defer rows.Close()

	schema := engine.Schema{}
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return nil, errors.NewDataSourceError("failed to scan schema row", err)
		}
		schema[name] = typ
	}
	if len(schema) == 0 {
		return nil, errors.NewColumnNotFound(table, "*")
	}
	return schema, nil
}

// Ping checks the underlying connection is reachable.
func (s *Session) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed || s.db == nil {
		return errors.NewDataSourceError("session is closed", nil)
	}
	return s.db.PingContext(ctx)
}

// Close releases the underlying connection pool. Idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
