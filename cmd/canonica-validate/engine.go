package main

import (
	"context"
	"fmt"

	"github.com/canonica-labs/canonica-validate/internal/config"
	"github.com/canonica-labs/canonica-validate/internal/engine"
	"github.com/canonica-labs/canonica-validate/internal/engine/bigquerysession"
	"github.com/canonica-labs/canonica-validate/internal/engine/duckdbsession"
	"github.com/canonica-labs/canonica-validate/internal/engine/router"
	"github.com/canonica-labs/canonica-validate/internal/engine/snowflakesession"
	"github.com/canonica-labs/canonica-validate/internal/engine/trinosession"
	"github.com/canonica-labs/canonica-validate/internal/errors"
)

// buildEngineSession constructs the session for cfg.Engine.Kind, registers
// it as the sole entry in a fresh router, and returns it through router.Get
// rather than handing back the constructor's result directly. A run only
// ever addresses one configured engine, but going through the router keeps
// engine selection on the same rule-based path a multi-engine deployment
// would use, instead of a one-off switch wired straight to the CLI.
func buildEngineSession(ctx context.Context, cfg config.EngineConfig) (engine.Session, error) {
	session, err := newEngineSession(ctx, cfg)
	if err != nil {
		return nil, err
	}

	r := router.New()
	r.Register(cfg.Kind, session, 0)
	return r.Get(cfg.Kind)
}

func newEngineSession(ctx context.Context, cfg config.EngineConfig) (engine.Session, error) {
	switch cfg.Kind {
	case "duckdb":
		return duckdbsession.New(duckdbsession.Config{DatabasePath: cfg.Database})

	case "bigquery":
		return bigquerysession.New(ctx, bigquerysession.Config{
			ProjectID:       cfg.ProjectID,
			CredentialsJSON: cfg.CredentialsJSON,
			Location:        cfg.Location,
			DefaultDataset:  cfg.DefaultDataset,
		})

	case "snowflake":
		return snowflakesession.New(snowflakesession.Config{
			Account:   cfg.Host,
			User:      cfg.User,
			Password:  cfg.Password,
			Database:  cfg.Database,
			Schema:    cfg.Schema,
			Warehouse: cfg.Warehouse,
			Role:      cfg.Role,
		})

	case "trino":
		return trinosession.New(trinosession.Config{
			Host:    cfg.Host,
			Port:    cfg.Port,
			User:    cfg.User,
			Catalog: cfg.Catalog,
			Schema:  cfg.Schema,
			SSLMode: cfg.SSLMode,
		})

	default:
		return nil, errors.NewConfigurationError(fmt.Sprintf("engine kind %q has no session implementation; register a table-provider source against duckdb instead", cfg.Kind))
	}
}
