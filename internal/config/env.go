package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"

	lserrors "github.com/Aman-CERP/litsearch/internal/errors"
)

// EnvPrefix prefixes every environment override, e.g. LITSEARCH_INDEX_PATH.
const EnvPrefix = "LITSEARCH"

// EnvConfig holds the environment overrides. Unset variables leave the
// loaded value alone.
type EnvConfig struct {
	// Env: LITSEARCH_INDEX_PATH
	IndexPath string `envconfig:"INDEX_PATH"`

	// Env: LITSEARCH_LOCK_TIMEOUT (e.g. 5s)
	LockTimeout time.Duration `envconfig:"LOCK_TIMEOUT"`

	// Env: LITSEARCH_MAX_RESULTS
	MaxResults int `envconfig:"MAX_RESULTS"`

	// Env: LITSEARCH_CATALOG_DSN
	CatalogDSN string `envconfig:"CATALOG_DSN"`

	// Env: LITSEARCH_SERVER_ADDR
	ServerAddr string `envconfig:"SERVER_ADDR"`

	// Env: LITSEARCH_LOG_LEVEL
	LogLevel string `envconfig:"LOG_LEVEL"`

	// Env: LITSEARCH_LOG_FILE
	LogFile string `envconfig:"LOG_FILE"`

	// Env: LITSEARCH_REINDEX_WORKERS
	ReindexWorkers int `envconfig:"REINDEX_WORKERS"`
}

// LoadFromEnv reads the LITSEARCH_* variables.
func LoadFromEnv() (EnvConfig, error) {
	var env EnvConfig
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return EnvConfig{}, lserrors.ConfigError("invalid environment override", err)
	}
	return env, nil
}

// applyEnvOverrides applies LITSEARCH_* environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	env, err := LoadFromEnv()
	if err != nil {
		return err
	}

	if env.IndexPath != "" {
		c.Index.BasePath = env.IndexPath
	}
	if env.LockTimeout != 0 {
		c.Index.LockTimeout = env.LockTimeout
	}
	if env.MaxResults != 0 {
		c.Search.MaxResults = env.MaxResults
	}
	if env.CatalogDSN != "" {
		c.Catalog.DSN = env.CatalogDSN
	}
	if env.ServerAddr != "" {
		c.Server.Addr = env.ServerAddr
	}
	if env.LogLevel != "" {
		c.Logging.Level = env.LogLevel
	}
	if env.LogFile != "" {
		c.Logging.File = env.LogFile
	}
	if env.ReindexWorkers != 0 {
		c.Reindex.Workers = env.ReindexWorkers
	}
	return nil
}
