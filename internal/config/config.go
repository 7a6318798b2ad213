package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/adrg/xdg"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	appName         = "newsranker"
	envPrefix       = "NEWSRANKER"
	defaultTimezone = "UTC"

	StateBackendFile = "file"
	StateBackendSQL  = "sql"
)

// Config holds high-level settings required across the application.
type Config struct {
	Environment string          `yaml:"environment"`
	Logging     LoggingConfig   `yaml:"logging"`
	State       StateConfig     `yaml:"state"`
	Output      OutputConfig    `yaml:"output"`
	Scheduler   SchedulerConfig `yaml:"scheduler"`
	Brave       BraveConfig     `yaml:"brave"`
	Collector   CollectorConfig `yaml:"collector"`
	Verticals   []VerticalRef   `yaml:"verticals"`
}

// LoggingConfig controls the zerolog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// StateConfig selects where the seen-URL state lives.
type StateConfig struct {
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
	Driver  string `yaml:"driver"`
	DSN     string `yaml:"dsn"`
}

// OutputConfig is where ranked reports are written.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// SchedulerConfig defines when the daemon runs.
type SchedulerConfig struct {
	Interval string         `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// IntervalDuration parses Interval, defaulting to a day.
func (s SchedulerConfig) IntervalDuration() time.Duration {
	d, err := time.ParseDuration(s.Interval)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// BraveConfig describes the search API behind the search, web and forum lanes.
type BraveConfig struct {
	Endpoint          string  `yaml:"endpoint"`
	APIKey            string  `yaml:"apiKey"`
	Timeout           string  `yaml:"timeout"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	ResultsPerQuery   int     `yaml:"resultsPerQuery"`
	MaxRetries        int     `yaml:"maxRetries"`
	Freshness         string  `yaml:"freshness"`
}

// TimeoutDuration parses Timeout, defaulting to 15s.
func (b BraveConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(b.Timeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// CollectorConfig tunes collector-side behaviour shared by all lanes.
type CollectorConfig struct {
	CacheTTL string `yaml:"cacheTTL"`
}

// CacheTTLDuration parses CacheTTL; zero disables the response cache.
func (c CollectorConfig) CacheTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// VerticalRef points at a vertical definition. An empty Path selects the
// built-in definition with the same name.
type VerticalRef struct {
	Name    string `yaml:"name"`
	Path    string `yaml:"path"`
	Enabled *bool  `yaml:"enabled"`
}

// IsEnabled defaults to true when unset.
func (v VerticalRef) IsEnabled() bool {
	return v.Enabled == nil || *v.Enabled
}

// envOverrides are read with envconfig. Tagged names fall back to the
// unprefixed variable, so BRAVE_API_KEY works as well as NEWSRANKER_BRAVE_API_KEY.
type envOverrides struct {
	Environment string `envconfig:"ENVIRONMENT"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
	StateDir    string `envconfig:"STATE_DIR"`
	StateDSN    string `envconfig:"DATABASE_DSN"`
	OutputDir   string `envconfig:"OUTPUT_DIR"`
	BraveAPIKey string `envconfig:"BRAVE_API_KEY"`
}

// DefaultConfigPath is the XDG location of the app config file.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// Load reads YAML configuration (if present) and applies environment overrides.
// A missing file is not an error; an unreadable or malformed one is.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = DefaultConfigPath()
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}
	cfg.bindTimezone()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints of the app config.
func (c Config) Validate() error {
	switch c.State.Backend {
	case StateBackendFile:
		if strings.TrimSpace(c.State.Dir) == "" {
			return fmt.Errorf("%w: state.dir is required for the file backend", ErrInvalidConfig)
		}
	case StateBackendSQL:
		if strings.TrimSpace(c.State.DSN) == "" {
			return fmt.Errorf("%w: state.dsn is required for the sql backend", ErrInvalidConfig)
		}
		if c.State.Driver != "postgres" && c.State.Driver != "sqlite" {
			return fmt.Errorf("%w: state.driver must be postgres or sqlite, got %q", ErrInvalidConfig, c.State.Driver)
		}
	default:
		return fmt.Errorf("%w: unknown state backend %q", ErrInvalidConfig, c.State.Backend)
	}
	for i, v := range c.Verticals {
		if strings.TrimSpace(v.Name) == "" {
			return fmt.Errorf("%w: verticals[%d]: name is required", ErrInvalidConfig, i)
		}
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	if env.Environment != "" {
		c.Environment = env.Environment
	}
	if env.LogLevel != "" {
		c.Logging.Level = env.LogLevel
	}
	if env.StateDir != "" {
		c.State.Dir = env.StateDir
	}
	if env.StateDSN != "" {
		c.State.DSN = env.StateDSN
	}
	if env.OutputDir != "" {
		c.Output.Dir = env.OutputDir
	}
	if env.BraveAPIKey != "" {
		c.Brave.APIKey = env.BraveAPIKey
	}
	return nil
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Environment != "" {
		base.Environment = override.Environment
	}
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.State.Backend != "" {
		base.State.Backend = override.State.Backend
	}
	if override.State.Dir != "" {
		base.State.Dir = override.State.Dir
	}
	if override.State.Driver != "" {
		base.State.Driver = override.State.Driver
	}
	if override.State.DSN != "" {
		base.State.DSN = override.State.DSN
	}

	if override.Output.Dir != "" {
		base.Output.Dir = override.Output.Dir
	}

	if override.Scheduler.Interval != "" {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Brave.Endpoint != "" {
		base.Brave.Endpoint = override.Brave.Endpoint
	}
	if override.Brave.APIKey != "" {
		base.Brave.APIKey = override.Brave.APIKey
	}
	if override.Brave.Timeout != "" {
		base.Brave.Timeout = override.Brave.Timeout
	}
	if override.Brave.RequestsPerSecond > 0 {
		base.Brave.RequestsPerSecond = override.Brave.RequestsPerSecond
	}
	if override.Brave.ResultsPerQuery > 0 {
		base.Brave.ResultsPerQuery = override.Brave.ResultsPerQuery
	}
	if override.Brave.MaxRetries > 0 {
		base.Brave.MaxRetries = override.Brave.MaxRetries
	}
	if override.Brave.Freshness != "" {
		base.Brave.Freshness = override.Brave.Freshness
	}

	if override.Collector.CacheTTL != "" {
		base.Collector.CacheTTL = override.Collector.CacheTTL
	}

	if len(override.Verticals) > 0 {
		base.Verticals = override.Verticals
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Environment: "local",
		Logging:     LoggingConfig{Level: "info"},
		State: StateConfig{
			Backend: StateBackendFile,
			Dir:     filepath.Join(xdg.StateHome, appName),
			Driver:  "postgres",
		},
		Output:    OutputConfig{Dir: filepath.Join(xdg.DataHome, appName, "reports")},
		Scheduler: SchedulerConfig{Interval: "24h", Timezone: defaultTimezone, location: tz},
		Brave: BraveConfig{
			Endpoint:          "https://api.search.brave.com/res/v1",
			Timeout:           "15s",
			RequestsPerSecond: 1,
			ResultsPerQuery:   10,
			MaxRetries:        3,
			Freshness:         "pd",
		},
		Collector: CollectorConfig{CacheTTL: "10m"},
		Verticals: []VerticalRef{
			{Name: "ai_news"},
			{Name: "private_markets"},
			{Name: "stocks"},
		},
	}
}
