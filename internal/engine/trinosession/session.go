// Package trinosession implements engine.Session over a Trino coordinator.
package trinosession

import (
	"fmt"

	"github.com/canonica-labs/canonica-validate/internal/engine/sqlsession"

	_ "github.com/trinodb/trino-go-client/trino" // Trino driver registration
)

// Config configures a Trino session.
type Config struct {
	Host, User, Catalog, Schema string
	Port                        int
	SSLMode                     string
}

// New opens a Trino-backed session.
func New(cfg Config) (*sqlsession.Base, error) {
	if cfg.User == "" {
		cfg.User = "canonica-validate"
	}
	if cfg.Catalog == "" {
		cfg.Catalog = "memory"
	}
	if cfg.Schema == "" {
		cfg.Schema = "default"
	}
	scheme := "http"
	if cfg.SSLMode == "require" {
		scheme = "https"
	}
	dsn := fmt.Sprintf("%s://%s@%s:%d?catalog=%s&schema=%s",
		scheme, cfg.User, cfg.Host, cfg.Port, cfg.Catalog, cfg.Schema)
	return sqlsession.Open("trino", dsn, "trino")
}
