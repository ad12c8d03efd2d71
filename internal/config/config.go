// Package config loads the oneway configuration file, applies environment
// overrides and validates the result.
package config

import (
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/oneway/internal/credential"
	"github.com/felixgeelhaar/oneway/internal/errors"
	"github.com/felixgeelhaar/oneway/internal/telemetry"
)

// Environment variables recognised by ApplyEnv.
const (
	EnvConfig     = "ONEWAY_CONFIG"
	EnvGraphQLURL = "ONEWAY_GRAPHQL_URL"
	EnvAPIURL     = "ONEWAY_API_URL"
	EnvStore      = "ONEWAY_STORE"
	EnvRedisAddr  = "ONEWAY_REDIS_ADDR"
	EnvPassphrase = "ONEWAY_PASSPHRASE"
	EnvOTLP       = "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"
)

// Config is the oneway configuration
type Config struct {
	Endpoints Endpoints       `yaml:"endpoints"`
	HTTP      HTTPConfig      `yaml:"http"`
	Store     StoreConfig     `yaml:"store"`
	Logging   LoggingConfig   `yaml:"logging"`
	Output    OutputConfig    `yaml:"output"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type Endpoints struct {
	GraphQL string `yaml:"graphql"`
	API     string `yaml:"api"`
}

type HTTPConfig struct {
	// Timeout bounds each request; 0 waits indefinitely.
	Timeout time.Duration `yaml:"timeout"`
}

type StoreConfig struct {
	Backend string      `yaml:"backend"`         // file, encrypted-file, redis, memory
	Path    string      `yaml:"path,omitempty"`  // default ~/.oneway/credentials.json
	Redis   RedisConfig `yaml:"redis,omitempty"` // redis backend only

	// Passphrase comes from ONEWAY_PASSPHRASE only and is never written.
	Passphrase string `yaml:"-"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "text", "json"
}

type OutputConfig struct {
	Format  string `yaml:"format"` // "text", "json", "yaml"
	NoColor bool   `yaml:"no_color,omitempty"`
}

type TelemetryConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint,omitempty"` // OTLP/HTTP traces URL
	SampleRate float64 `yaml:"sample_rate"`
}

type MetricsConfig struct {
	// Textfile receives the Prometheus text exposition after each command.
	Textfile string `yaml:"textfile,omitempty"`
}

// Default returns the configuration for a backend on localhost:3001.
func Default() *Config {
	return &Config{
		Endpoints: Endpoints{
			GraphQL: "http://localhost:3001/graphql",
			API:     "http://localhost:3001",
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Backend: credential.BackendFile,
			Redis: RedisConfig{
				Prefix: "oneway:",
			},
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Output: OutputConfig{
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			SampleRate: 1.0,
		},
	}
}

// Path resolves the configuration file: explicit path, then ONEWAY_CONFIG,
// then ~/.oneway/config.yaml.
func Path(explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if getenv != nil {
		if p := getenv(EnvConfig); p != "" {
			return p, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".oneway", "config.yaml"), nil
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigRead, "failed to read config", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigRead, "failed to parse config", err).
			WithSuggestion(fmt.Sprintf("Check the YAML syntax of %s", path))
	}
	return cfg, nil
}

// Save writes the configuration with mode 0600.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ApplyEnv overlays environment variables on the configuration.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		return
	}
	if v := getenv(EnvGraphQLURL); v != "" {
		c.Endpoints.GraphQL = v
	}
	if v := getenv(EnvAPIURL); v != "" {
		c.Endpoints.API = v
	}
	if v := getenv(EnvStore); v != "" {
		c.Store.Backend = v
	}
	if v := getenv(EnvRedisAddr); v != "" {
		c.Store.Redis.Addr = v
	}
	if v := getenv(EnvPassphrase); v != "" {
		c.Store.Passphrase = v
	}
	if v := getenv(EnvOTLP); v != "" {
		c.Telemetry.Enabled = true
		c.Telemetry.Endpoint = v
	}
}

// Validate rejects unusable configurations.
func (c *Config) Validate() error {
	var problems []string

	for name, raw := range map[string]string{
		"endpoints.graphql": c.Endpoints.GraphQL,
		"endpoints.api":     c.Endpoints.API,
	} {
		if err := validateURL(raw); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
		}
	}

	if c.HTTP.Timeout < 0 {
		problems = append(problems, "http.timeout must not be negative")
	}

	if !slices.Contains(credential.Backends, c.Store.Backend) {
		problems = append(problems, fmt.Sprintf("store.backend %q is not one of %s",
			c.Store.Backend, strings.Join(credential.Backends, ", ")))
	}
	if c.Store.Backend == credential.BackendRedis && c.Store.Redis.Addr == "" {
		problems = append(problems, "store.redis.addr is required for the redis backend")
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of text, json", c.Logging.Format))
	}

	switch c.Output.Format {
	case "text", "json", "yaml":
	default:
		problems = append(problems, fmt.Sprintf("output.format %q is not one of text, json, yaml", c.Output.Format))
	}

	if math.IsNaN(c.Telemetry.SampleRate) || c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		problems = append(problems, "telemetry.sample_rate must be between 0 and 1")
	}
	if c.Telemetry.Endpoint != "" {
		if err := validateURL(c.Telemetry.Endpoint); err != nil {
			problems = append(problems, fmt.Sprintf("telemetry.endpoint: %v", err))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	slices.Sort(problems)
	return errors.NewConfigInvalidError(strings.Join(problems, "; "))
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// StoreOptions maps the store section onto credential.Options.
func (c *Config) StoreOptions() credential.Options {
	return credential.Options{
		Backend:    c.Store.Backend,
		Path:       expandHome(c.Store.Path),
		Passphrase: c.Store.Passphrase,
		Redis: credential.RedisOptions{
			Addr:     c.Store.Redis.Addr,
			Password: c.Store.Redis.Password,
			DB:       c.Store.Redis.DB,
			Prefix:   c.Store.Redis.Prefix,
		},
	}
}

// TelemetryOptions maps the telemetry section onto telemetry.Config.
func (c *Config) TelemetryOptions(serviceVersion string) telemetry.Config {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = serviceVersion
	cfg.Enabled = c.Telemetry.Enabled
	cfg.Endpoint = c.Telemetry.Endpoint
	cfg.SampleRate = c.Telemetry.SampleRate
	return cfg
}

// MetricsTextfile returns the expanded textfile path, or "" when disabled.
func (c *Config) MetricsTextfile() string {
	return expandHome(c.Metrics.Textfile)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Keys lists the dot-notation keys understood by Get and Set.
var Keys = []string{
	"endpoints.graphql",
	"endpoints.api",
	"http.timeout",
	"store.backend",
	"store.path",
	"store.redis.addr",
	"store.redis.db",
	"store.redis.prefix",
	"logging.level",
	"logging.format",
	"output.format",
	"output.no_color",
	"telemetry.enabled",
	"telemetry.endpoint",
	"telemetry.sample_rate",
	"metrics.textfile",
}

// Get retrieves a value using dot notation.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "endpoints.graphql":
		return c.Endpoints.GraphQL, nil
	case "endpoints.api":
		return c.Endpoints.API, nil
	case "http.timeout":
		return c.HTTP.Timeout.String(), nil
	case "store.backend":
		return c.Store.Backend, nil
	case "store.path":
		return c.Store.Path, nil
	case "store.redis.addr":
		return c.Store.Redis.Addr, nil
	case "store.redis.db":
		return strconv.Itoa(c.Store.Redis.DB), nil
	case "store.redis.prefix":
		return c.Store.Redis.Prefix, nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.format":
		return c.Logging.Format, nil
	case "output.format":
		return c.Output.Format, nil
	case "output.no_color":
		return strconv.FormatBool(c.Output.NoColor), nil
	case "telemetry.enabled":
		return strconv.FormatBool(c.Telemetry.Enabled), nil
	case "telemetry.endpoint":
		return c.Telemetry.Endpoint, nil
	case "telemetry.sample_rate":
		return strconv.FormatFloat(c.Telemetry.SampleRate, 'g', -1, 64), nil
	case "metrics.textfile":
		return c.Metrics.Textfile, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// Set assigns a value using dot notation.
func (c *Config) Set(key, value string) error {
	switch key {
	case "endpoints.graphql":
		c.Endpoints.GraphQL = value
	case "endpoints.api":
		c.Endpoints.API = value
	case "http.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		c.HTTP.Timeout = d
	case "store.backend":
		c.Store.Backend = value
	case "store.path":
		c.Store.Path = value
	case "store.redis.addr":
		c.Store.Redis.Addr = value
	case "store.redis.db":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer %q: %w", value, err)
		}
		c.Store.Redis.DB = n
	case "store.redis.prefix":
		c.Store.Redis.Prefix = value
	case "logging.level":
		c.Logging.Level = value
	case "logging.format":
		c.Logging.Format = value
	case "output.format":
		c.Output.Format = value
	case "output.no_color":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q: %w", value, err)
		}
		c.Output.NoColor = b
	case "telemetry.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q: %w", value, err)
		}
		c.Telemetry.Enabled = b
	case "telemetry.endpoint":
		c.Telemetry.Endpoint = value
	case "telemetry.sample_rate":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", value, err)
		}
		c.Telemetry.SampleRate = f
	case "metrics.textfile":
		c.Metrics.Textfile = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
