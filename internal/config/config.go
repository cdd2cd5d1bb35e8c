// Package config loads the validator's configuration: which engine to run
// against, the metric sink's upload behaviour, and the validator's
// concurrency envelope. Every value is validated on read; invalid values
// fail config construction rather than surfacing later as a runtime error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/canonica-labs/canonica-validate/internal/errors"
	"github.com/canonica-labs/canonica-validate/internal/validator"
)

// EngineConfig selects and configures the query engine a validation run
// executes against.
type EngineConfig struct {
	Kind     string `mapstructure:"kind"`
	Database string `mapstructure:"database"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Catalog  string `mapstructure:"catalog"`

	// User, Password, Schema, Warehouse, and Role configure the Snowflake
	// and Trino sessions; Database doubles as the Snowflake database name.
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
	Schema    string `mapstructure:"schema"`
	Warehouse string `mapstructure:"warehouse"`
	Role      string `mapstructure:"role"`
	SSLMode   string `mapstructure:"ssl_mode"`

	// ProjectID, CredentialsJSON, Location, and DefaultDataset configure
	// the BigQuery session.
	ProjectID       string `mapstructure:"project_id"`
	CredentialsJSON string `mapstructure:"credentials_json"`
	Location        string `mapstructure:"location"`
	DefaultDataset  string `mapstructure:"default_dataset"`
}

// SinkConfig configures the metric sink's upload worker and offline cache.
type SinkConfig struct {
	EndpointURL     string `mapstructure:"endpoint_url"`
	APIKey          string `mapstructure:"api_key"`
	BufferSize      int    `mapstructure:"buffer_size"`
	FlushIntervalMS int    `mapstructure:"flush_interval_ms"`
	BatchSize       int    `mapstructure:"batch_size"`
	MaxRetries      int    `mapstructure:"max_retries"`
	BackoffBaseMS   int    `mapstructure:"backoff_base_ms"`
	BackoffCapMS    int    `mapstructure:"backoff_cap_ms"`
	CachePath       string `mapstructure:"cache_path"`
}

// ValidatorConfig configures the bounded-concurrency executor.
type ValidatorConfig struct {
	MaxConcurrentValidations int  `mapstructure:"max_concurrent_validations"`
	MemoryBudgetMB           int  `mapstructure:"memory_budget_mb"`
	ValidationTimeoutSeconds int  `mapstructure:"validation_timeout_seconds"`
	EnableQueryOptimization  bool `mapstructure:"enable_query_optimization"`
}

// Config is the root configuration object, immutable once constructed and
// shared by reference among every component of a validation run.
type Config struct {
	Engine    EngineConfig    `mapstructure:"engine"`
	Sink      SinkConfig      `mapstructure:"sink"`
	Validator ValidatorConfig `mapstructure:"validator"`
}

// DefaultConfig returns the baseline configuration: an in-memory DuckDB
// engine and the validator's default operating envelope.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Kind:     "duckdb",
			Database: ":memory:",
		},
		Sink: SinkConfig{
			BufferSize:      1000,
			FlushIntervalMS: 5000,
			BatchSize:       100,
			MaxRetries:      5,
			BackoffBaseMS:   500,
			BackoffCapMS:    30000,
			CachePath:       "canonica-validate-cache.db",
		},
		Validator: ValidatorConfig{
			MaxConcurrentValidations: 4,
			MemoryBudgetMB:           512,
			ValidationTimeoutSeconds: 300,
			EnableQueryOptimization:  true,
		},
	}
}

// Load reads configuration from an optional file plus environment
// variables under the CANONICA_VALIDATE_ prefix, falling back to defaults
// for anything unset, then validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".canonica-validate"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("CANONICA_VALIDATE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.NewConfigurationError(fmt.Sprintf("error reading config: %v", err))
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.NewConfigurationError(fmt.Sprintf("error parsing config: %v", err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("engine.kind", defaults.Engine.Kind)
	v.SetDefault("engine.database", defaults.Engine.Database)
	v.SetDefault("engine.host", defaults.Engine.Host)
	v.SetDefault("engine.port", defaults.Engine.Port)
	v.SetDefault("engine.catalog", defaults.Engine.Catalog)
	v.SetDefault("engine.user", defaults.Engine.User)
	v.SetDefault("engine.schema", defaults.Engine.Schema)
	v.SetDefault("engine.warehouse", defaults.Engine.Warehouse)
	v.SetDefault("engine.role", defaults.Engine.Role)
	v.SetDefault("engine.ssl_mode", defaults.Engine.SSLMode)
	v.SetDefault("engine.project_id", defaults.Engine.ProjectID)
	v.SetDefault("engine.location", defaults.Engine.Location)
	v.SetDefault("engine.default_dataset", defaults.Engine.DefaultDataset)
	v.SetDefault("sink.endpoint_url", defaults.Sink.EndpointURL)
	v.SetDefault("sink.api_key", defaults.Sink.APIKey)
	v.SetDefault("sink.buffer_size", defaults.Sink.BufferSize)
	v.SetDefault("sink.flush_interval_ms", defaults.Sink.FlushIntervalMS)
	v.SetDefault("sink.batch_size", defaults.Sink.BatchSize)
	v.SetDefault("sink.max_retries", defaults.Sink.MaxRetries)
	v.SetDefault("sink.backoff_base_ms", defaults.Sink.BackoffBaseMS)
	v.SetDefault("sink.backoff_cap_ms", defaults.Sink.BackoffCapMS)
	v.SetDefault("sink.cache_path", defaults.Sink.CachePath)
	v.SetDefault("validator.max_concurrent_validations", defaults.Validator.MaxConcurrentValidations)
	v.SetDefault("validator.memory_budget_mb", defaults.Validator.MemoryBudgetMB)
	v.SetDefault("validator.validation_timeout_seconds", defaults.Validator.ValidationTimeoutSeconds)
	v.SetDefault("validator.enable_query_optimization", defaults.Validator.EnableQueryOptimization)
}

// Validate checks every field's documented bounds, failing construction
// rather than letting an invalid value reach a running component.
func (c *Config) Validate() error {
	switch c.Engine.Kind {
	case "duckdb", "bigquery", "snowflake", "trino", "redshift", "spark":
	default:
		return errors.NewConfigurationError(fmt.Sprintf("unknown engine kind %q", c.Engine.Kind))
	}
	if c.Sink.BufferSize < 1 {
		return errors.NewConfigurationError("sink.buffer_size must be at least 1")
	}
	if c.Sink.FlushIntervalMS < 1 {
		return errors.NewConfigurationError("sink.flush_interval_ms must be at least 1")
	}
	if c.Sink.BatchSize < 1 {
		return errors.NewConfigurationError("sink.batch_size must be at least 1")
	}
	if c.Sink.MaxRetries < 0 {
		return errors.NewConfigurationError("sink.max_retries cannot be negative")
	}
	if c.Sink.BackoffBaseMS < 1 {
		return errors.NewConfigurationError("sink.backoff_base_ms must be at least 1")
	}
	if c.Sink.BackoffCapMS < c.Sink.BackoffBaseMS {
		return errors.NewConfigurationError("sink.backoff_cap_ms must be at least backoff_base_ms")
	}
	if c.Sink.CachePath == "" {
		return errors.NewConfigurationError("sink.cache_path cannot be empty")
	}
	if _, err := validator.NewConfig(
		c.Validator.MaxConcurrentValidations,
		c.Validator.MemoryBudgetMB,
		c.Validator.ValidationTimeoutSeconds,
		c.Validator.EnableQueryOptimization,
	); err != nil {
		return err
	}
	return nil
}

// FlushInterval converts the millisecond field to a time.Duration.
func (c SinkConfig) FlushInterval() time.Duration {
	return time.Duration(c.FlushIntervalMS) * time.Millisecond
}

// BackoffBase converts the millisecond field to a time.Duration.
func (c SinkConfig) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseMS) * time.Millisecond
}

// BackoffCap converts the millisecond field to a time.Duration.
func (c SinkConfig) BackoffCap() time.Duration {
	return time.Duration(c.BackoffCapMS) * time.Millisecond
}
