package sources

import (
	"github.com/canonica-labs/canonica-validate/internal/errors"

	_ "github.com/lib/pq" // registers the "postgres" database/sql driver
)

// PostgresSource describes a single table in a remote Postgres database.
// DuckDB's postgres_scan table function is used to register it, so this
// provider only needs to hand the engine a libpq connection string plus the
// schema-qualified table name.
type PostgresSource struct {
	DSN    string
	Schema string
	Table  string
}

func (p PostgresSource) Validate() error {
	if p.DSN == "" {
		return errors.NewConfigurationError("postgres source: dsn is required")
	}
	if p.Table == "" {
		return errors.NewConfigurationError("postgres source: table is required")
	}
	return nil
}

func (p PostgresSource) ProviderKind() string { return "postgres" }

// ConnInfo returns the libpq connection string DuckDB's postgres_scan expects.
func (p PostgresSource) ConnInfo() string { return p.DSN }

// RemoteSchema returns the source schema, defaulting to public.
func (p PostgresSource) RemoteSchema() string {
	if p.Schema == "" {
		return "public"
	}
	return p.Schema
}

// RemoteTable returns the bare table name.
func (p PostgresSource) RemoteTable() string { return p.Table }
