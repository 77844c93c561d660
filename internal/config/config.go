// Package config loads jarusage configuration from TOML, YAML or JSON files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for jarusage.
type Config struct {
	// Analysis settings
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`

	// Class file exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	// Cache settings for dependency archive listings
	Cache CacheConfig `koanf:"cache" toml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`
}

// AnalysisConfig controls the analysis run.
type AnalysisConfig struct {
	// Manifest is the default path of the resolved dependency manifest.
	Manifest string `koanf:"manifest" toml:"manifest"`
	// ClassesDir is the default compiled-output root.
	ClassesDir string `koanf:"classes_dir" toml:"classes_dir"`
	// Workers caps the scan worker count; 0 means 2x NumCPU.
	Workers int `koanf:"workers" toml:"workers"`
}

// ExcludeConfig defines class file exclusion patterns (gitignore syntax,
// relative to the compiled-output root).
type ExcludeConfig struct {
	Patterns []string `koanf:"patterns" toml:"patterns"`
}

// CacheConfig controls caching of per-archive class listings.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	// TTL is the entry lifetime in hours.
	TTL int `koanf:"ttl" toml:"ttl"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	// Format is one of text, json, markdown.
	Format  string `koanf:"format" toml:"format"`
	Color   bool   `koanf:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose"`
	// ShowZero includes unreferenced artifacts in text output.
	ShowZero bool `koanf:"show_zero" toml:"show_zero"`
	// Top limits the report to the N most referenced artifacts; 0 means all.
	Top int `koanf:"top" toml:"top"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Manifest:   "dependencies.json",
			ClassesDir: filepath.Join("target", "classes"),
			Workers:    0,
		},
		Exclude: ExcludeConfig{
			Patterns: nil,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     filepath.Join(".jarusage", "cache"),
			TTL:     24 * 7,
		},
		Output: OutputConfig{
			Format:   "text",
			Color:    true,
			Verbose:  false,
			ShowZero: false,
			Top:      0,
		},
	}
}

// Load loads configuration from a file, layered over the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"jarusage.toml",
		"jarusage.yaml",
		"jarusage.yml",
		"jarusage.json",
		".jarusage.toml",
		".jarusage.yaml",
		".jarusage.yml",
		".jarusage.json",
	}
	searchDirs := []string{".", ".jarusage"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				if cfg, err := Load(path); err == nil {
					return cfg
				}
			}
		}
	}
	return DefaultConfig()
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Analysis.Workers < 0 {
		return fmt.Errorf("analysis.workers must be >= 0, got %d", c.Analysis.Workers)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must be >= 0, got %d", c.Cache.TTL)
	}
	if c.Output.Top < 0 {
		return fmt.Errorf("output.top must be >= 0, got %d", c.Output.Top)
	}
	switch c.Output.Format {
	case "text", "json", "markdown", "md":
	default:
		return fmt.Errorf("output.format must be text, json or markdown, got %q", c.Output.Format)
	}
	return nil
}
