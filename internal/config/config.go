package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"yearcal/internal/layout"
)

// NOTE: This file provides the configuration model and full load/save
// behavior, including first-run config creation and 0600 permissions.
// Files ending in .toml are read and written as TOML; everything else is
// YAML.

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url" toml:"url"`
	// ID is an internal identifier used for de-dup, logging and as the
	// calendar ID of every event the source produces.
	ID string `yaml:"id" json:"id" toml:"id"`
	// Name is a human-friendly label shown in the UI.
	Name string `yaml:"name" json:"name" toml:"name"`
	// Color is the bar color for this calendar, "#rrggbb".
	Color string `yaml:"color" json:"color" toml:"color"`
	// Disabled hides the calendar without removing the subscription.
	Disabled bool `yaml:"disabled,omitempty" json:"disabled,omitempty" toml:"disabled,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username" toml:"username"`
	Password string `yaml:"password" json:"password" toml:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen" toml:"listen"`

	// Timezone is the IANA timezone used as canonical display zone (e.g. "Asia/Seoul").
	Timezone string `yaml:"timezone" json:"timezone" toml:"timezone"`

	// WeekStart controls which weekday is treated as the first day of the week
	// in calendar views. Supported values:
	//   - "monday" (default)
	//   - "sunday"
	//   - "saturday"
	WeekStart string `yaml:"week_start" json:"week_start" toml:"week_start"`

	// Layout is the default year layout: "year" (week rows), "months"
	// (month rows) or "grid" (month blocks).
	Layout string `yaml:"layout" json:"layout" toml:"layout"`

	// MaxRows caps stacked event bars per grid instance. 0 uses the engine
	// default, negative disables the cap.
	MaxRows int `yaml:"max_rows" json:"max_rows" toml:"max_rows"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// used for periodic refresh.
	RefreshCron string `yaml:"refresh" json:"refresh" toml:"refresh"`

	// ShowAllDay and ShowTimed toggle all-day and timed events.
	ShowAllDay bool `yaml:"show_all_day" json:"show_all_day" toml:"show_all_day"`
	ShowTimed  bool `yaml:"show_timed" json:"show_timed" toml:"show_timed"`

	// CacheDir holds the on-disk ICS cache and the captured preview.
	CacheDir string `yaml:"cache_dir" json:"cache_dir" toml:"cache_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level" toml:"log_level"`

	// ICS is the list of subscribed ICS sources.
	ICS []ICSConfig `yaml:"ics" json:"ics" toml:"ics"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty" toml:"basic_auth,omitempty"`
}

const (
	defaultListen      = "127.0.0.1:8080"
	defaultTimezone    = "UTC"
	defaultWeekStart   = "monday"
	defaultLayout      = "year"
	defaultRefreshCron = "*/15 * * * *"
	defaultCacheDir    = "/var/lib/yearcal"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      defaultListen,
		Timezone:    defaultTimezone,
		WeekStart:   defaultWeekStart,
		Layout:      defaultLayout,
		MaxRows:     layout.DefaultMaxRows,
		RefreshCron: defaultRefreshCron,
		ShowAllDay:  true,
		ShowTimed:   true,
		CacheDir:    defaultCacheDir,
		LogLevel:    "info",
		ICS:         []ICSConfig{},
		BasicAuth:   nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	// WeekStart default & validation.
	switch strings.ToLower(c.WeekStart) {
	case "monday", "sunday", "saturday":
		c.WeekStart = strings.ToLower(c.WeekStart)
	default:
		// Unknown value; fall back to monday to avoid surprising layouts.
		c.WeekStart = defaultWeekStart
	}
	switch c.Layout {
	case "year", "months", "grid":
	default:
		c.Layout = defaultLayout
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	for i := range c.ICS {
		src := &c.ICS[i]
		if src.ID == "" {
			if src.Name != "" {
				src.ID = src.Name
			} else {
				src.ID = src.URL
			}
		}
	}
}

// CalendarConfig converts the stored week-start preference into the layout
// engine's configuration.
func (c *Config) CalendarConfig() layout.CalendarConfig {
	first, err := layout.ParseWeekday(c.WeekStart)
	if err != nil {
		first = layout.Monday
	}
	return layout.CalendarConfig{FirstDayOfWeek: first}
}

// EnabledCalendars returns the IDs of sources that are not disabled.
func (c *Config) EnabledCalendars() []string {
	ids := make([]string, 0, len(c.ICS))
	for _, src := range c.ICS {
		if !src.Disabled {
			ids = append(ids, src.ID)
		}
	}
	return ids
}

// Load loads configuration from the given path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML (or TOML) and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	// Decode over the defaults so keys missing from older files keep their
	// default values (notably the show_* toggles).
	cfg := DefaultConfig()
	if isTOML(path) {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse toml %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml %s: %w", path, err)
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML (TOML for .toml paths).
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := marshal(path, cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".yearcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func marshal(path string, cfg *Config) ([]byte, error) {
	if !isTOML(path) {
		return yaml.Marshal(cfg)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
