// Package config loads and saves the optimizer's ambient tunables —
// settings that shape how the engine runs without changing rule
// semantics (the rewrite cap, the window size ceiling, diff/stats
// output formatting). Teacher style (config/config.go): a Config struct
// of nested, toml-tagged sections, a DefaultConfig constructor, and
// Load/Save helpers built on BurntSushi/toml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds the optimizer's ambient configuration.
type Config struct {
	// Engine tunables: the knobs spec.md leaves to "implementation".
	Engine struct {
		// RewriteCap bounds consecutive rewrites at one window position
		// before the engine treats a rule set as self-regenerating
		// (spec.md §9 open question 3).
		RewriteCap int `toml:"rewrite_cap"`

		// MaxWindowSizeCeiling clamps the computed max window size
		// (the largest pattern_linecount across all rules) even if a
		// rule file declares longer patterns than this.
		MaxWindowSizeCeiling int `toml:"max_window_size_ceiling"`
	} `toml:"engine"`

	// Diff settings control the optional before/after diff rendered by
	// the CLI's -diff flag, the GUI, and the web API.
	Diff struct {
		ColorOutput  bool `toml:"color_output"`
		ContextLines int  `toml:"context_lines"`
	} `toml:"diff"`

	// Stats settings control rewrite-statistics export.
	Stats struct {
		Enabled    bool   `toml:"enabled"`
		OutputFile string `toml:"output_file"`
		Format     string `toml:"format"` // json, csv, html
	} `toml:"stats"`

	// API settings configure the optional HTTP API mode.
	API struct {
		Port int `toml:"port"`
	} `toml:"api"`
}

// DefaultConfig returns a Config populated with the optimizer's default
// tunables.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Engine.RewriteCap = 1000
	cfg.Engine.MaxWindowSizeCeiling = 15

	cfg.Diff.ColorOutput = true
	cfg.Diff.ContextLines = 2

	cfg.Stats.Enabled = false
	cfg.Stats.OutputFile = "stats.json"
	cfg.Stats.Format = "json"

	cfg.API.Port = 8080

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "zopt")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "zopt")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file. A missing file
// is not an error: the defaults are returned instead.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
