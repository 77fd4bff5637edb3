package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	lserrors "github.com/Aman-CERP/litsearch/internal/errors"
)

// DefaultFileName is the config file looked up in the working directory when
// no path is given.
const DefaultFileName = "litsearch.yaml"

// Config represents the complete litsearch configuration.
type Config struct {
	Index    IndexConfig    `yaml:"index" json:"index"`
	Search   SearchConfig   `yaml:"search" json:"search"`
	Catalog  CatalogConfig  `yaml:"catalog" json:"catalog"`
	Server   ServerConfig   `yaml:"server" json:"server"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
	Analysis AnalysisConfig `yaml:"analysis" json:"analysis"`
	Reindex  ReindexConfig  `yaml:"reindex" json:"reindex"`
}

// IndexConfig configures namespace storage.
type IndexConfig struct {
	// BasePath is the directory holding one index directory per namespace.
	BasePath string `yaml:"base_path" json:"base_path"`

	// LockTimeout bounds the wait for a namespace lock.
	LockTimeout time.Duration `yaml:"lock_timeout" json:"lock_timeout"`
}

// SearchConfig configures matching and highlighting. These values are read
// once at startup and stay fixed for the life of the process.
type SearchConfig struct {
	MaxResults      int `yaml:"max_results" json:"max_results"`
	FragmentSize    int `yaml:"fragment_size" json:"fragment_size"`
	MaxFragments    int `yaml:"max_fragments" json:"max_fragments"`
	CandidateWindow int `yaml:"candidate_window" json:"candidate_window"`

	// Slop is the number of position shifts allowed inside a phrase.
	Slop int `yaml:"slop" json:"slop"`

	// EditDistance is the fuzzy match distance, at most 2.
	EditDistance int `yaml:"edit_distance" json:"edit_distance"`
	PrefixLength int `yaml:"prefix_length" json:"prefix_length"`

	// YearTolerance widens a publication year into an inclusive range.
	YearTolerance int `yaml:"year_tolerance" json:"year_tolerance"`

	HighlightBefore string `yaml:"highlight_before" json:"highlight_before"`
	HighlightAfter  string `yaml:"highlight_after" json:"highlight_after"`
}

// CatalogConfig points at the relational catalog.
type CatalogConfig struct {
	DSN string `yaml:"dsn" json:"dsn"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	File      string `yaml:"file" json:"file"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// AnalysisConfig configures the analyzer registry.
type AnalysisConfig struct {
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// ReindexConfig configures the startup rebuild.
type ReindexConfig struct {
	Workers int `yaml:"workers" json:"workers"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Index: IndexConfig{
			BasePath:    defaultDataPath("indexes"),
			LockTimeout: 5 * time.Second,
		},
		Search: SearchConfig{
			MaxResults:      100,
			FragmentSize:    75,
			MaxFragments:    5,
			CandidateWindow: 1000,
			Slop:            1,
			EditDistance:    2,
			PrefixLength:    0,
			YearTolerance:   20,
			HighlightBefore: "<span class='highlight'>",
			HighlightAfter:  "</span>",
		},
		Catalog: CatalogConfig{
			DSN: defaultDataPath("catalog.db"),
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Logging: LoggingConfig{
			Level:     "info",
			File:      defaultDataPath(filepath.Join("logs", "litsearch.log")),
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
		Analysis: AnalysisConfig{
			CacheSize: 4096,
		},
		Reindex: ReindexConfig{
			Workers: runtime.NumCPU(),
		},
	}
}

// defaultDataPath returns a path under ~/.litsearch.
func defaultDataPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".litsearch", name)
	}
	return filepath.Join(home, ".litsearch", name)
}

// Load builds the configuration: defaults, then the YAML file at path, then
// LITSEARCH_* environment variables. An empty path tries DefaultFileName in
// the working directory and silently skips it when absent; an explicit path
// must exist.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}
	if err := cfg.loadYAML(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadYAML decodes the file over the current values, so keys the file omits
// keep their defaults.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lserrors.New(lserrors.ErrCodeConfigNotFound,
				fmt.Sprintf("config file not found: %s", path), err)
		}
		return lserrors.ConfigError(fmt.Sprintf("failed to read config file %s", path), err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return lserrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err)
	}
	return nil
}

// expandPaths resolves a leading ~ in path-valued keys.
func (c *Config) expandPaths() {
	c.Index.BasePath = expandHome(c.Index.BasePath)
	c.Catalog.DSN = expandHome(c.Catalog.DSN)
	c.Logging.File = expandHome(c.Logging.File)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Index.BasePath) == "" {
		return lserrors.ConfigError("index.base_path must not be empty", nil)
	}
	if c.Index.LockTimeout <= 0 {
		return lserrors.ConfigError(fmt.Sprintf("index.lock_timeout must be positive, got %s", c.Index.LockTimeout), nil)
	}

	positive := map[string]int{
		"search.max_results":      c.Search.MaxResults,
		"search.fragment_size":    c.Search.FragmentSize,
		"search.max_fragments":    c.Search.MaxFragments,
		"search.candidate_window": c.Search.CandidateWindow,
	}
	for key, v := range positive {
		if v <= 0 {
			return lserrors.ConfigError(fmt.Sprintf("%s must be positive, got %d", key, v), nil)
		}
	}
	if c.Search.CandidateWindow < c.Search.MaxResults {
		return lserrors.ConfigError(fmt.Sprintf("search.candidate_window (%d) must be at least search.max_results (%d)",
			c.Search.CandidateWindow, c.Search.MaxResults), nil)
	}

	if c.Search.Slop < 0 {
		return lserrors.ConfigError(fmt.Sprintf("search.slop must be non-negative, got %d", c.Search.Slop), nil)
	}
	if c.Search.EditDistance < 0 || c.Search.EditDistance > 2 {
		return lserrors.ConfigError(fmt.Sprintf("search.edit_distance must be between 0 and 2, got %d", c.Search.EditDistance), nil)
	}
	if c.Search.PrefixLength < 0 {
		return lserrors.ConfigError(fmt.Sprintf("search.prefix_length must be non-negative, got %d", c.Search.PrefixLength), nil)
	}
	if c.Search.YearTolerance < 0 {
		return lserrors.ConfigError(fmt.Sprintf("search.year_tolerance must be non-negative, got %d", c.Search.YearTolerance), nil)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return lserrors.ConfigError(fmt.Sprintf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level), nil)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxFiles < 0 {
		return lserrors.ConfigError("logging.max_size_mb and logging.max_files must be non-negative", nil)
	}

	if c.Analysis.CacheSize < 0 {
		return lserrors.ConfigError(fmt.Sprintf("analysis.cache_size must be non-negative, got %d", c.Analysis.CacheSize), nil)
	}
	if c.Reindex.Workers < 0 {
		return lserrors.ConfigError(fmt.Sprintf("reindex.workers must be non-negative, got %d", c.Reindex.Workers), nil)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
