// Package config handles loading and managing agroscope configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/agroscope/agroscope/pkg/analysis"
	"github.com/agroscope/agroscope/pkg/filter"
	"github.com/agroscope/agroscope/pkg/flowgraph"
	"github.com/agroscope/agroscope/pkg/optimize"
	"github.com/agroscope/agroscope/pkg/table"
)

// Config is the top-level configuration for agroscope.
type Config struct {
	Dataset  DatasetConfig  `yaml:"dataset"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Storage  StorageConfig  `yaml:"storage"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// DatasetConfig says where the cost table lives and how to normalize it.
type DatasetConfig struct {
	Path     string   `yaml:"path"`  // file path or s3://, gs://, registry:// URI
	Sheet    string   `yaml:"sheet"` // XLSX sheet; first sheet when empty
	Suffixes []string `yaml:"suffixes"`
}

// AnalysisConfig controls the drill-down and the optimizer.
type AnalysisConfig struct {
	Hierarchy          filter.Hierarchy     `yaml:"hierarchy"`
	Plants             []string             `yaml:"plants"` // declared order breaks ties
	BusinessUnitColumn string               `yaml:"business_unit_column"`
	Components         []optimize.Component `yaml:"components"`
	Topology           string               `yaml:"topology"` // chain or fanout
}

// StorageConfig selects the dataset blob store.
type StorageConfig struct {
	Backend  string `yaml:"backend"` // local, s3, gcs
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	LocalDir string `yaml:"local_dir"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
	CacheSize   int      `yaml:"cache_size"` // datasets kept in memory
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Suffixes: append([]string(nil), table.DefaultSuffixes...),
		},
		Analysis: AnalysisConfig{
			Hierarchy:          filter.DefaultHierarchy(),
			Plants:             optimize.DefaultPlants(),
			BusinessUnitColumn: optimize.DefaultBusinessUnitColumn,
			Components:         optimize.DefaultComponents(),
			Topology:           string(flowgraph.Chain),
		},
		Storage: StorageConfig{
			Backend:  "local",
			LocalDir: filepath.Join(CacheDir(), "datasets"),
		},
		Server: ServerConfig{
			Port:      8080,
			CacheSize: 16,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a config file from the given path.
// If the file does not exist, it returns the default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the analysis settings that cannot be defaulted.
func (c *Config) Validate() error {
	if len(c.Analysis.Plants) == 0 {
		return fmt.Errorf("analysis.plants must list at least one plant")
	}
	seen := make(map[string]bool, len(c.Analysis.Plants))
	for _, p := range c.Analysis.Plants {
		if seen[p] {
			return fmt.Errorf("analysis.plants lists %q twice", p)
		}
		seen[p] = true
	}
	if err := c.Analysis.Hierarchy.Validate(nil); err != nil {
		return fmt.Errorf("analysis.hierarchy: %w", err)
	}
	if _, err := flowgraph.ParseTopology(c.Analysis.Topology); err != nil {
		return fmt.Errorf("analysis.topology: %w", err)
	}
	switch c.Storage.Backend {
	case "", "local", "s3", "gcs":
	default:
		return fmt.Errorf("storage.backend %q (want local, s3 or gcs)", c.Storage.Backend)
	}
	return nil
}

// Optimizer builds the optimizer described by the analysis settings.
func (c *Config) Optimizer() *optimize.Optimizer {
	o := optimize.New(c.Analysis.Plants...)
	o.BusinessUnitColumn = c.Analysis.BusinessUnitColumn
	if len(c.Analysis.Components) > 0 {
		o.Components = c.Analysis.Components
	}
	return o
}

// Pipeline builds the analysis pipeline described by the analysis settings.
func (c *Config) Pipeline() *analysis.Pipeline {
	p := analysis.NewPipeline(c.Optimizer())
	p.Hierarchy = c.Analysis.Hierarchy
	return p
}

// FindConfigFile looks for .agroscope/config.yaml in the given directory
// and its parents, returning the path if found, or "" if not.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".agroscope", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// CacheDir returns ~/.cache/agroscope, where the local storage backend keeps
// pushed datasets.
func CacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to temp dir if HOME isn't available
		home = os.TempDir()
	}
	return filepath.Join(home, ".cache", "agroscope")
}
