// Package config handles loading and saving treeview configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/treeview/config.yaml
//   - State:   ~/.local/state/treeview/ (last opened data files)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/treeview/pkg/tree"
)

// UIConfig holds terminal UI preference settings.
type UIConfig struct {
	Theme       string  `yaml:"theme,omitempty"`        // auto, dark, light
	DetailPane  bool    `yaml:"detail_pane"`            // Show the markdown detail pane
	DetailRatio float64 `yaml:"detail_ratio,omitempty"` // Width share of the detail pane (0.2-0.8)
	Indent      int     `yaml:"indent,omitempty"`       // Columns per depth level
}

// WatchConfig controls reloading the data files when they change.
type WatchConfig struct {
	Enabled      bool          `yaml:"enabled"`
	ForcePoll    bool          `yaml:"force_poll,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
	Debounce     time.Duration `yaml:"debounce,omitempty"`
}

// Config is the top-level configuration for treeview.
type Config struct {
	Tree   tree.Options `yaml:"tree"`
	UI     UIConfig     `yaml:"ui,omitempty"`
	Watch  WatchConfig  `yaml:"watch,omitempty"`
	Recent []string     `yaml:"recent,omitempty"` // Data files opened most recently, newest first
}

// MaxRecent bounds the recent file list.
const MaxRecent = 10

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	opts := tree.DefaultOptions()
	opts.SearchEnabled = true
	opts.ShowExpandCollapseAllButtons = true
	return Config{
		Tree: opts,
		UI: UIConfig{
			Theme:       "auto",
			DetailPane:  true,
			DetailRatio: 0.4,
			Indent:      2,
		},
		Watch: WatchConfig{
			Enabled:      true,
			PollInterval: 2 * time.Second,
			Debounce:     200 * time.Millisecond,
		},
	}
}

// ConfigDir returns the XDG config directory for treeview.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "treeview")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "treeview")
}

// StateDir returns the XDG state directory for treeview.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "treeview")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "treeview")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path. Keys missing from the file
// keep their default values. Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	for i := range cfg.Recent {
		cfg.Recent[i] = expandHome(cfg.Recent[i])
	}
	cfg.UI.DetailRatio = clampRatio(cfg.UI.DetailRatio)
	if cfg.UI.Indent <= 0 {
		cfg.UI.Indent = DefaultConfig().UI.Indent
	}

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// AddRecent moves path to the front of the recent list.
func (c *Config) AddRecent(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	out := []string{path}
	for _, p := range c.Recent {
		if p != path && len(out) < MaxRecent {
			out = append(out, p)
		}
	}
	c.Recent = out
}

func clampRatio(r float64) float64 {
	switch {
	case r == 0:
		return DefaultConfig().UI.DetailRatio
	case r < 0.2:
		return 0.2
	case r > 0.8:
		return 0.8
	}
	return r
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
