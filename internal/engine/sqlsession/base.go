// Package sqlsession factors the database/sql plumbing shared by the remote
// engine.Session implementations for Trino and Snowflake (the BigQuery
// session uses its own client instead): open a pooled connection, run SQL,
// collect rows, look up a schema, ping, close. Each of those session packages
// supplies only its driver name, DSN construction, and reported engine name,
// and returns the *Base that Open builds.
package sqlsession

import (
	"context"
	"database/sql"
	"sync"

	"github.com/canonica-labs/canonica-validate/internal/engine"
	"github.com/canonica-labs/canonica-validate/internal/errors"
)

// Base is the engine.Session returned by the Trino and Snowflake sessions.
type Base struct {
	mu     sync.RWMutex
	db     *sql.DB
	name   string
	closed bool
}

// Open opens driverName with dsn and returns a Base reporting engineName.
func Open(driverName, dsn, engineName string) (*Base, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.NewDataSourceError("failed to open "+engineName+" connection", err)
	}
	return &Base{db: db, name: engineName}, nil
}

func (b *Base) Name() string { return b.name }

// RegisterTable is not supported by remote warehouse sessions in this
// module: tables are assumed pre-registered in the remote catalog.
func (b *Base) RegisterTable(ctx context.Context, name string, provider engine.TableProvider) error {
	return errors.NewNotSupported(b.name + ": RegisterTable (tables must already exist in the remote catalog)")
}

func (b *Base) SQL(ctx context.Context, text string) (engine.Dataframe, error) {
	if text == "" {
		return engine.Dataframe{}, errors.NewConfigurationError("SQL text is empty")
	}
	return engine.Dataframe{SQL: text}, nil
}

func (b *Base) Collect(ctx context.Context, df engine.Dataframe) ([]engine.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	if b.closed || b.db == nil {
		b.mu.RUnlock()
		return nil, errors.NewDataSourceError(b.name+": session is closed", nil)
	}
	db := b.db
	b.mu.RUnlock()

	rows, err := db.QueryContext(ctx, df.SQL)
	if err != nil {
		return nil, errors.NewDataSourceError(b.name+": query execution failed", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.NewDataSourceError(b.name+": failed to read columns", err)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.NewDataSourceError(b.name+": failed to scan row", err)
		}
		resultRows = append(resultRows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDataSourceError(b.name+": error during row iteration", err)
	}
	return []engine.Batch{{Columns: columns, Rows: resultRows}}, nil
}

func (b *Base) SchemaOf(ctx context.Context, table string) (engine.Schema, error) {
	return nil, errors.NewNotSupported(b.name + ": SchemaOf")
}

func (b *Base) Ping(ctx context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed || b.db == nil {
		return errors.NewDataSourceError(b.name+": session is closed", nil)
	}
	return b.db.PingContext(ctx)
}

func (b *Base) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
