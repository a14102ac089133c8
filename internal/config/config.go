// Package config handles configuration loading and validation for boardnav.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"
)

// Source selects where the TUI loads boards and sub-items from.
type Source string

const (
	SourceLocal  Source = "local"  // SQLite store in the data dir
	SourceRemote Source = "remote" // REST API served by `boardnav serve`
)

// Capability profile names. See nav.ProfileCapabilities.
const (
	ProfileBrowse = "browse"
	ProfileManage = "manage"
)

// Config holds the application configuration.
type Config struct {
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	Source Source       `yaml:"source"`
	Remote RemoteConfig `yaml:"remote"`
	Server ServerConfig `yaml:"server"`
	Nav    NavConfig    `yaml:"nav"`
	TUI    TUIConfig    `yaml:"tui"`

	DataDir string `yaml:"-"` // set by caller, not from config file
}

// RemoteConfig configures the REST client used when Source is remote.
type RemoteConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig configures `boardnav serve`.
type ServerConfig struct {
	Addr     string `yaml:"addr"`
	ReadOnly bool   `yaml:"read_only"`
}

// NavConfig holds navigator policies.
type NavConfig struct {
	// SubItemInLocation persists the sub-item selection in the shareable location (sub=<id>).
	// Off by default: the sub-item selection resets on reload.
	SubItemInLocation bool `yaml:"subitem_in_location"`
	// Profile selects which per-item actions the columns offer (browse|manage).
	Profile string `yaml:"profile"`
	// RestoreLast reopens the last location per board when no explicit location is given.
	RestoreLast *bool `yaml:"restore_last"`
}

// TUIConfig holds terminal presentation preferences.
type TUIConfig struct {
	Theme  string `yaml:"theme"`  // auto|light|dark
	Glyphs string `yaml:"glyphs"` // unicode|ascii
	Mouse  *bool  `yaml:"mouse"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Source:   SourceLocal,
		Remote: RemoteConfig{
			BaseURL: "http://127.0.0.1:3340",
			Timeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:3340",
		},
		Nav: NavConfig{
			Profile: ProfileManage,
		},
		TUI: TUIConfig{
			Theme:  "auto",
			Glyphs: "unicode",
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.Source == "" {
		c.Source = defaults.Source
	}
	if c.Remote.BaseURL == "" {
		c.Remote.BaseURL = defaults.Remote.BaseURL
	}
	if c.Remote.Timeout == 0 {
		c.Remote.Timeout = defaults.Remote.Timeout
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Nav.Profile == "" {
		c.Nav.Profile = defaults.Nav.Profile
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = defaults.TUI.Theme
	}
	if c.TUI.Glyphs == "" {
		c.TUI.Glyphs = defaults.TUI.Glyphs
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("data_dir", c.DataDir, notEmpty),
		criterio.Run("log_level", c.LogLevel, oneOf("trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled")),
		criterio.Run("source", string(c.Source), oneOf(string(SourceLocal), string(SourceRemote))),
		criterio.Run("remote.base_url", c.Remote.BaseURL, absoluteURL),
		criterio.Run("nav.profile", c.Nav.Profile, oneOf(ProfileBrowse, ProfileManage)),
		criterio.Run("tui.theme", c.TUI.Theme, oneOf("auto", "light", "dark")),
		criterio.Run("tui.glyphs", c.TUI.Glyphs, oneOf("unicode", "ascii")),
	)
}

// RestoreLastEnabled reports whether the last location should be reopened (default true).
func (c *Config) RestoreLastEnabled() bool {
	return c.Nav.RestoreLast == nil || *c.Nav.RestoreLast
}

// MouseEnabled reports whether mouse hover/click tracking is on (default true).
func (c *Config) MouseEnabled() bool {
	return c.TUI.Mouse == nil || *c.TUI.Mouse
}

// DBFile returns the path to the SQLite board store.
func (c *Config) DBFile() string {
	return filepath.Join(c.DataDir, "boardnav.sqlite")
}

func notEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("cannot be empty")
	}
	return nil
}

func oneOf(allowed ...string) func(string) error {
	return func(s string) error {
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return fmt.Errorf("must be one of %s, got %q", strings.Join(allowed, "|"), s)
	}
}

func absoluteURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must be an http(s) url, got %q", s)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", s)
	}
	return nil
}
