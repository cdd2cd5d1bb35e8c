// Package snowflakesession implements engine.Session over Snowflake.
package snowflakesession

import (
	"fmt"

	"github.com/canonica-labs/canonica-validate/internal/engine/sqlsession"
	"github.com/canonica-labs/canonica-validate/internal/errors"

	_ "github.com/snowflakedb/gosnowflake" // registers as "snowflake"
)

// Config configures a Snowflake session.
type Config struct {
	Account, User, Password, Database, Schema, Warehouse, Role string
}

// New opens a Snowflake-backed session.
func New(cfg Config) (*sqlsession.Base, error) {
	if cfg.Account == "" || cfg.User == "" {
		return nil, errors.NewConfigurationError("snowflake: account and user are required")
	}
	dsn := fmt.Sprintf("%s:%s@%s/%s/%s?warehouse=%s",
		cfg.User, cfg.Password, cfg.Account, cfg.Database, cfg.Schema, cfg.Warehouse)
	if cfg.Role != "" {
		dsn += "&role=" + cfg.Role
	}
	return sqlsession.Open("snowflake", dsn, "snowflake")
}
