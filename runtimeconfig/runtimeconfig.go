// Package runtimeconfig loads the on-disk configuration for a memory
// runtime deployment (storage backend, compaction thresholds, tokenizer
// model, log level), dispatching on file extension between YAML and JSON.
package runtimeconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentcore/memoryruntime"
	"github.com/agentcore/memoryruntime/runtimelog"
)

// StorageBackend selects which Storage implementation a deployment uses.
type StorageBackend string

const (
	BackendMemory StorageBackend = "memory"
	BackendSQLite StorageBackend = "sqlite"
)

// StorageConfig configures the persistence backend.
type StorageConfig struct {
	Backend    StorageBackend `yaml:"backend" json:"backend"`
	SQLitePath string         `yaml:"sqlitePath,omitempty" json:"sqlitePath,omitempty"`
}

// CompactionConfig is the config-file form of memoryruntime.CompactionConfig,
// so thresholds can be tuned per deployment without touching code.
type CompactionConfig struct {
	SoftThreshold       int `yaml:"softThreshold" json:"softThreshold"`
	HardThreshold       int `yaml:"hardThreshold" json:"hardThreshold"`
	TruncationThreshold int `yaml:"truncationThreshold" json:"truncationThreshold"`
}

// ToRuntime converts the file-shaped config into the type CompactionManager
// expects.
func (c CompactionConfig) ToRuntime() memoryruntime.CompactionConfig {
	return memoryruntime.CompactionConfig{
		SoftThreshold:       c.SoftThreshold,
		HardThreshold:       c.HardThreshold,
		TruncationThreshold: c.TruncationThreshold,
	}
}

// TokenizerConfig selects the model name a tokenizer counts tokens for.
type TokenizerConfig struct {
	Model string `yaml:"model" json:"model"`
}

// Config is the top-level deployment configuration.
type Config struct {
	Storage    StorageConfig    `yaml:"storage" json:"storage"`
	Compaction CompactionConfig `yaml:"compaction" json:"compaction"`
	Tokenizer  TokenizerConfig  `yaml:"tokenizer" json:"tokenizer"`
	LogLevel   string           `yaml:"logLevel" json:"logLevel"`
}

// Default returns the configuration a fresh deployment starts from: an
// in-memory store, the default compaction thresholds, the character-count
// tokenizer fallback, and info-level logging.
func Default() Config {
	dc := memoryruntime.DefaultCompactionConfig()
	return Config{
		Storage: StorageConfig{Backend: BackendMemory},
		Compaction: CompactionConfig{
			SoftThreshold:       dc.SoftThreshold,
			HardThreshold:       dc.HardThreshold,
			TruncationThreshold: dc.TruncationThreshold,
		},
		Tokenizer: TokenizerConfig{Model: "char-count"},
		LogLevel:  runtimelog.LevelInfo.String(),
	}
}

// Validate reports whether the config is internally consistent.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("runtimeconfig: sqlitePath is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("runtimeconfig: unknown storage backend %q", c.Storage.Backend)
	}
	if c.Compaction.SoftThreshold <= 0 || c.Compaction.HardThreshold <= 0 || c.Compaction.TruncationThreshold <= 0 {
		return fmt.Errorf("runtimeconfig: compaction thresholds must be positive")
	}
	if c.Compaction.SoftThreshold > c.Compaction.HardThreshold || c.Compaction.HardThreshold > c.Compaction.TruncationThreshold {
		return fmt.Errorf("runtimeconfig: thresholds must satisfy soft <= hard <= truncation")
	}
	return nil
}

// ParseFile loads a Config from path, dispatching on file extension between
// the JSON and YAML parsers.
func ParseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return ParseJSON(data)
	case ".yml", ".yaml":
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("runtimeconfig: unsupported file extension %q", ext)
	}
}

// ParseYAML loads a Config from YAML, rejecting unknown fields.
func ParseYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseJSON loads a Config from JSON.
func ParseJSON(data []byte) (*Config, error) {
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg to path, dispatching on extension like ParseFile.
func (c Config) Save(path string) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	case ".yml", ".yaml":
		data, err := yaml.Marshal(c)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	default:
		return fmt.Errorf("runtimeconfig: unsupported file extension %q", ext)
	}
}
