package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jward/canon/internal/naming"
)

// Config represents the complete configuration.
type Config struct {
	Naming  naming.Rules `yaml:"naming" json:"naming"`
	Options Options      `yaml:"options" json:"options"`
}

// Options represents canonicalization and indexing options.
type Options struct {
	// DefaultAttribute is the attribute name omitted when it is the only one.
	DefaultAttribute string `yaml:"defaultAttribute" json:"defaultAttribute"`
	// Workers is the number of parser goroutines; 0 uses every CPU.
	Workers int `yaml:"workers" json:"workers"`
	// Risor enables script evaluation of expressions the folder cannot handle.
	Risor bool `yaml:"risor" json:"risor"`
	// EvalTimeout bounds a single script evaluation, e.g. "250ms".
	EvalTimeout string `yaml:"evalTimeout" json:"evalTimeout"`
	// MaxDepth bounds how many field initializers are followed when folding.
	MaxDepth    int      `yaml:"maxDepth" json:"maxDepth"`
	Extensions  []string `yaml:"extensions" json:"extensions"`
	ExcludeDirs []string `yaml:"excludeDirs" json:"excludeDirs"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Naming:  DefaultRules(),
		Options: DefaultOptions(),
	}
}

// LoadFile loads configuration from a file (YAML or JSON based on extension).
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}

	var loaded Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			return fmt.Errorf("config: parsing YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &loaded); err != nil {
			return fmt.Errorf("config: parsing JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			if err := json.Unmarshal(data, &loaded); err != nil {
				return fmt.Errorf("config: unable to parse %s as YAML or JSON", path)
			}
		}
	}

	// Risor defaults to true, so presence has to be detected separately.
	risorSet, err := hasOption(data, path, "risor")
	if err != nil {
		return err
	}
	c.merge(&loaded, risorSet)
	return c.Validate()
}

// merge merges the loaded config into the current config.
func (c *Config) merge(loaded *Config, risorSet bool) {
	if c.Naming.Rename == nil {
		c.Naming.Rename = make(map[string]string)
	}
	for k, v := range loaded.Naming.Rename {
		c.Naming.Rename[k] = v
	}
	c.Naming.Suppress = append(c.Naming.Suppress, loaded.Naming.Suppress...)
	if len(loaded.Naming.Keep) > 0 {
		c.Naming.Keep = loaded.Naming.Keep
	}
	if loaded.Naming.SuppressHidden {
		c.Naming.SuppressHidden = true
	}

	if loaded.Options.DefaultAttribute != "" {
		c.Options.DefaultAttribute = loaded.Options.DefaultAttribute
	}
	if loaded.Options.Workers != 0 {
		c.Options.Workers = loaded.Options.Workers
	}
	if risorSet {
		c.Options.Risor = loaded.Options.Risor
	}
	if loaded.Options.EvalTimeout != "" {
		c.Options.EvalTimeout = loaded.Options.EvalTimeout
	}
	if loaded.Options.MaxDepth > 0 {
		c.Options.MaxDepth = loaded.Options.MaxDepth
	}
	if len(loaded.Options.Extensions) > 0 {
		c.Options.Extensions = loaded.Options.Extensions
	}
	if loaded.Options.ExcludeDirs != nil {
		c.Options.ExcludeDirs = loaded.Options.ExcludeDirs
	}
}

// hasOption reports whether the options section of data sets key.
func hasOption(data []byte, path, key string) (bool, error) {
	var raw struct {
		Options map[string]any `yaml:"options" json:"options"`
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &raw); err != nil {
			return false, fmt.Errorf("config: parsing JSON: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &raw); err != nil {
		if err := json.Unmarshal(data, &raw); err != nil {
			return false, fmt.Errorf("config: unable to parse %s as YAML or JSON", path)
		}
	}
	_, ok := raw.Options[key]
	return ok, nil
}

// Validate checks option values that cannot be checked while decoding.
func (c *Config) Validate() error {
	if c.Options.Workers < 0 {
		return fmt.Errorf("config: workers must not be negative, got %d", c.Options.Workers)
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	return nil
}

// Timeout returns EvalTimeout as a duration.
func (c *Config) Timeout() (time.Duration, error) {
	if c.Options.EvalTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Options.EvalTimeout)
	if err != nil {
		return 0, fmt.Errorf("config: evalTimeout: %w", err)
	}
	return d, nil
}

// IncludeFile reports whether path has one of the configured extensions.
func (c *Config) IncludeFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range c.Options.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// ExcludeDir reports whether a directory with the given base name is skipped.
func (c *Config) ExcludeDir(name string) bool {
	for _, d := range c.Options.ExcludeDirs {
		if d == name {
			return true
		}
	}
	return false
}
