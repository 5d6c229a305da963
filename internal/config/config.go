// Package config handles loading and resolving yojitsu configuration.
// Resolution order (first non-empty value wins):
//  1. CLI flags --db, --tz, --format
//  2. Environment variables YOJITSU_DB_PATH, YOJITSU_TZ
//  3. config.json in the current working directory
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/derickschaefer/yojitsu/internal/util"
)

const (
	DefaultConfigFile  = "config.json"
	DefaultFormat      = "table"
	DefaultTimezone    = "Asia/Tokyo"
	DefaultChartWidth  = 800
	DefaultChartHeight = 300
	DefaultPieSize     = 400
	EnvDBPath          = "YOJITSU_DB_PATH"
	EnvTimezone        = "YOJITSU_TZ"
)

// Keys lists the settable config.json keys in display order.
var Keys = []string{"default_format", "db_path", "timezone", "chart_width", "chart_height", "pie_size"}

// File is the on-disk representation of config.json.
type File struct {
	DefaultFormat string `json:"default_format"`
	DBPath        string `json:"db_path"`
	Timezone      string `json:"timezone"`
	ChartWidth    int    `json:"chart_width"`
	ChartHeight   int    `json:"chart_height"`
	PieSize       int    `json:"pie_size"`
}

// Flags carries the CLI flag values that take part in resolution. Empty
// fields are treated as unset.
type Flags struct {
	Format   string
	DBPath   string
	Timezone string
}

// Config is the fully-resolved runtime configuration.
// All callers use this struct; the File is only read during loading.
type Config struct {
	Format      string
	DBPath      string
	Timezone    string
	ChartWidth  int
	ChartHeight int
	PieSize     int
	ConfigPath  string // path of the config.json that was loaded (empty if none found)

	// Runtime overrides set from CLI flags after Load()
	Quiet   bool
	Verbose bool
	Debug   bool
}

// Load resolves configuration from all sources.
func Load(flags Flags) (*Config, error) {
	cfg := &Config{
		Format:      DefaultFormat,
		Timezone:    DefaultTimezone,
		ChartWidth:  DefaultChartWidth,
		ChartHeight: DefaultChartHeight,
		PieSize:     DefaultPieSize,
	}

	// Layer 1: config.json (lowest priority)
	f, path, err := loadFile()
	switch {
	case err == nil:
		applyFile(cfg, f, path)
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	// Layer 2: environment variables
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvTimezone); v != "" {
		cfg.Timezone = v
	}

	// Layer 3: CLI flags (highest priority)
	if flags.Format != "" {
		cfg.Format = flags.Format
	}
	if flags.DBPath != "" {
		cfg.DBPath = flags.DBPath
	}
	if flags.Timezone != "" {
		cfg.Timezone = flags.Timezone
	}

	// Set default DB path if still unset
	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.DBPath = filepath.Join(home, ".yojitsu", "yojitsu.db")
		}
	}

	return cfg, nil
}

// Validate returns an error if the timezone cannot be resolved or a chart
// size is not positive.
func (c *Config) Validate() error {
	var errs util.MultiError
	if _, err := util.LoadLocation(c.Timezone); err != nil {
		errs.Add(err)
	}
	if c.ChartWidth <= 0 || c.ChartHeight <= 0 {
		errs.Add(fmt.Errorf("chart size must be positive, got %dx%d", c.ChartWidth, c.ChartHeight))
	}
	if c.PieSize <= 0 {
		errs.Add(fmt.Errorf("pie_size must be positive, got %d", c.PieSize))
	}
	return errs.Err()
}

// Location resolves Timezone. Bucketing and "now" comparisons use it.
func (c *Config) Location() (*time.Location, error) {
	return util.LoadLocation(c.Timezone)
}

// loadFile attempts to read config.json from the current working directory.
// A missing file returns an error wrapping os.ErrNotExist.
func loadFile() (*File, string, error) {
	path, err := filepath.Abs(DefaultConfigFile)
	if err != nil {
		return nil, "", err
	}
	f, err := ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return f, path, nil
}

// ReadFile parses the config file at path.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config.json not found at %s: %w", path, os.ErrNotExist)
		}
		return nil, fmt.Errorf("reading config.json: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing config.json: %w", err)
	}
	return &f, nil
}

// applyFile copies values from a parsed File into cfg,
// skipping any fields that are zero/empty.
func applyFile(cfg *Config, f *File, path string) {
	cfg.ConfigPath = path
	if f.DefaultFormat != "" {
		cfg.Format = f.DefaultFormat
	}
	if f.DBPath != "" {
		cfg.DBPath = f.DBPath
	}
	if f.Timezone != "" {
		cfg.Timezone = f.Timezone
	}
	if f.ChartWidth > 0 {
		cfg.ChartWidth = f.ChartWidth
	}
	if f.ChartHeight > 0 {
		cfg.ChartHeight = f.ChartHeight
	}
	if f.PieSize > 0 {
		cfg.PieSize = f.PieSize
	}
}

// Set assigns one config.json key from its string form. A rejected value
// leaves f unchanged.
func (f *File) Set(key, val string) error {
	switch strings.ToLower(key) {
	case "default_format", "format":
		f.DefaultFormat = val
	case "db_path":
		f.DBPath = val
	case "timezone", "tz":
		if _, err := util.LoadLocation(val); err != nil {
			return err
		}
		f.Timezone = val
	case "chart_width", "chart_height", "pie_size":
		n, err := strconv.Atoi(val)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive integer", key)
		}
		switch strings.ToLower(key) {
		case "chart_width":
			f.ChartWidth = n
		case "chart_height":
			f.ChartHeight = n
		default:
			f.PieSize = n
		}
	default:
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s", key, strings.Join(Keys, ", "))
	}
	return nil
}

// Template returns a File populated with sensible defaults, suitable for
// writing an initial config.json via `yojitsu config init`.
func Template() File {
	return File{
		DefaultFormat: DefaultFormat,
		Timezone:      DefaultTimezone,
		ChartWidth:    DefaultChartWidth,
		ChartHeight:   DefaultChartHeight,
		PieSize:       DefaultPieSize,
	}
}

// WriteFile serialises a File to the given path.
func WriteFile(path string, f File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}
