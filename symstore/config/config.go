// Package config loads the symbol builder's store/importer configuration
// from a TOML file, in the spirit of Orizon's own project-config loader
// (cmd/orizon-config) but using go-toml/v2 for the encoding instead of
// JSON, matching the TOML convention used elsewhere across the example
// pack for structured config files.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// StoreConfig is the top-level configuration for one StoreManager process:
// the module's pointer width and which importer (if any) feeds its store
// on demand (spec 4.8, 6).
type StoreConfig struct {
	PointerSize uint64         `toml:"pointer_size"`
	SeedBasicC  bool           `toml:"seed_basic_c_types"`
	Importer    ImporterConfig `toml:"importer"`
	LogLevel    string         `toml:"log_level"`
}

// ImporterConfig selects and configures exactly one importer backend.
// Kind "none" or the empty string (the zero value) means the store runs
// without an on-demand importer; Validate checks only the section that
// Kind selects.
type ImporterConfig struct {
	Kind string `toml:"kind"` // "none", "file", or "remote"

	File   FileImporterConfig   `toml:"file"`
	Remote RemoteImporterConfig `toml:"remote"`
}

// FileImporterConfig configures symstore/importfile.
type FileImporterConfig struct {
	Directory string `toml:"directory"`
}

// RemoteImporterConfig configures symstore/importremote.
type RemoteImporterConfig struct {
	BaseURL        string        `toml:"base_url"`
	ConnectTimeout time.Duration `toml:"connect_timeout"`
	InsecureTLS    bool          `toml:"insecure_tls"`
}

// Default returns the configuration a bare CLI invocation uses absent a
// config file: an 8-byte pointer module with basic C types seeded and no
// importer.
func Default() StoreConfig {
	return StoreConfig{
		PointerSize: 8,
		SeedBasicC:  true,
		LogLevel:    "info",
		Importer:    ImporterConfig{Kind: "none"},
	}
}

// Load reads and parses a TOML configuration file at path.
func Load(path string) (StoreConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return StoreConfig{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return StoreConfig{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return StoreConfig{}, fmt.Errorf("config: %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration is internally consistent.
func (c StoreConfig) Validate() error {
	if c.PointerSize != 4 && c.PointerSize != 8 {
		return fmt.Errorf("pointer_size must be 4 or 8, got %d", c.PointerSize)
	}

	switch c.Importer.Kind {
	case "", "none":
	case "file":
		if c.Importer.File.Directory == "" {
			return fmt.Errorf("importer.file.directory is required when importer.kind = \"file\"")
		}
	case "remote":
		if c.Importer.Remote.BaseURL == "" {
			return fmt.Errorf("importer.remote.base_url is required when importer.kind = \"remote\"")
		}
	default:
		return fmt.Errorf("unknown importer.kind %q", c.Importer.Kind)
	}

	return nil
}

// Save writes cfg to path as TOML, creating the file if needed.
func Save(path string, cfg StoreConfig) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encoding: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}
