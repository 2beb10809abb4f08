package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Hotkeys maps control actions to global key names understood by the hook
// library (e.g. "f8"). Escape is always bound to an immediate stop and is
// not configurable.
type Hotkeys struct {
	StartStop   string `yaml:"start_stop"`
	PauseResume string `yaml:"pause_resume"`
	ToggleMouse string `yaml:"toggle_mouse"`
}

// Address describes where one coordinate axis lives in the game process.
// Addresses shift between game builds, so they always come from the file.
type Address struct {
	Base uint64 `yaml:"base_offset"`
}

// DirectionKeys binds movement directions to keyboard keys. Up/Down are only
// used when the z axis is tracked (rope/ladder style floor changes).
type DirectionKeys struct {
	North string `yaml:"north"`
	South string `yaml:"south"`
	East  string `yaml:"east"`
	West  string `yaml:"west"`
	Up    string `yaml:"up"`
	Down  string `yaml:"down"`
}

// Config holds every recognized option. Interval-like fields are plain
// seconds (floats) to match the legacy config files.
type Config struct {
	ModuleName       string  `yaml:"module_name"`
	RecordInterval   float64 `yaml:"record_interval"`
	PlaybackDelay    float64 `yaml:"playback_delay"`
	PlaybackTimeout  float64 `yaml:"playback_timeout"`
	WaitPollInterval float64 `yaml:"wait_poll_interval"`
	SettleDelay      float64 `yaml:"settle_delay"`
	KeyHoldDuration  float64 `yaml:"key_hold_duration"`
	MouseClickDelay  float64 `yaml:"mouse_click_delay"`
	MinClickInterval float64 `yaml:"min_click_interval"`
	MaxRetries       int     `yaml:"max_retries"`
	IncludeZ         bool    `yaml:"include_z"`
	RecordMouse      bool    `yaml:"record_mouse"`
	PathsDir         string  `yaml:"paths_dir"`
	StatesDir        string  `yaml:"states_dir"`
	LogLevel         string  `yaml:"log_level"`

	Hotkeys   Hotkeys            `yaml:"hotkeys"`
	Keys      DirectionKeys      `yaml:"keys"`
	Addresses map[string]Address `yaml:"addresses"`
}

// Default returns the configuration used when the file is missing or a
// field is absent from it.
func Default() *Config {
	return &Config{
		ModuleName:       "PokeAlliance_dx.exe",
		RecordInterval:   0.1,
		PlaybackDelay:    0.2,
		PlaybackTimeout:  1.0,
		WaitPollInterval: 0.005,
		SettleDelay:      0.15,
		KeyHoldDuration:  0.02,
		MouseClickDelay:  0.2,
		MinClickInterval: 0.3,
		MaxRetries:       3,
		IncludeZ:         true,
		RecordMouse:      true,
		PathsDir:         "paths",
		StatesDir:        "saved_states",
		LogLevel:         "info",
		Hotkeys: Hotkeys{
			StartStop:   "f8",
			PauseResume: "f9",
			ToggleMouse: "f10",
		},
		Keys: DirectionKeys{
			North: "w",
			South: "s",
			East:  "d",
			West:  "a",
			Up:    "e",
			Down:  "q",
		},
		Addresses: map[string]Address{},
	}
}

// Load reads the YAML config at path, applying defaults for any missing
// field. A missing file is not an error: the defaults are returned so a
// fresh checkout can run before the operator writes a config.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to decode %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.RecordInterval <= 0 {
		return fmt.Errorf("config: record_interval must be > 0, got %v", c.RecordInterval)
	}
	if c.PlaybackTimeout <= 0 {
		return fmt.Errorf("config: playback_timeout must be > 0, got %v", c.PlaybackTimeout)
	}
	if c.PlaybackDelay < 0 {
		return fmt.Errorf("config: playback_delay must be >= 0, got %v", c.PlaybackDelay)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("config: max_retries must be >= 1, got %d", c.MaxRetries)
	}
	return nil
}

// Save writes the config back to disk, keeping the previous version as a
// .bak file first so a bad edit can be recovered.
func (c *Config) Save(path string) error {
	if err := c.validate(); err != nil {
		return err
	}
	if prev, err := os.ReadFile(path); err == nil {
		if err := os.WriteFile(path+".bak", prev, 0o644); err != nil {
			return fmt.Errorf("config: failed to back up %s: %w", path, err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// Duration accessors; the raw fields stay in seconds for the file format.

func (c *Config) RecordEvery() time.Duration     { return seconds(c.RecordInterval) }
func (c *Config) DelayBetween() time.Duration    { return seconds(c.PlaybackDelay) }
func (c *Config) StallTimeout() time.Duration    { return seconds(c.PlaybackTimeout) }
func (c *Config) PollEvery() time.Duration       { return seconds(c.WaitPollInterval) }
func (c *Config) Settle() time.Duration          { return seconds(c.SettleDelay) }
func (c *Config) KeyHold() time.Duration         { return seconds(c.KeyHoldDuration) }
func (c *Config) ClickDelay() time.Duration      { return seconds(c.MouseClickDelay) }
func (c *Config) ClickDebounce() time.Duration   { return seconds(c.MinClickInterval) }
