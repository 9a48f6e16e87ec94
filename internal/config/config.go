// Package config loads and validates service configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig
	GitHub    GitHubConfig
	Cache     CacheConfig
	Telemetry TelemetryConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`
}

// GitHubConfig configures the upstream GraphQL target and result caps.
// Org is deliberately not validated: an unset organization yields empty
// query results rather than a startup failure. The token itself lives in
// the environment, never in the config file.
type GitHubConfig struct {
	Org             string `yaml:"org"`
	TokenEnv        string `yaml:"token_env"`
	GraphQLEndpoint string `yaml:"graphql_endpoint"`
	APIBaseURL      string `yaml:"api_base_url"`
	RequestTimeout  time.Duration
	RepoNumber      int `yaml:"repo_number"`
	UserNumber      int `yaml:"user_number"`
}

// CacheConfig configures the cache store backend.
type CacheConfig struct {
	Backend       string `yaml:"backend"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// TelemetryConfig configures OpenTelemetry behavior.
type TelemetryConfig struct {
	OTELEnabled          bool    `yaml:"otel_enabled"`
	OTELTraceMode        string  `yaml:"otel_trace_mode"`
	OTELTraceSampleRatio float64 `yaml:"otel_trace_sample_ratio"`
}

// Load reads configuration from YAML and validates the result.
func Load(reader io.Reader) (*Config, error) {
	if reader == nil {
		return nil, fmt.Errorf("config reader is nil")
	}

	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)

	var raw rawConfig
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	cfg := raw.toConfig()
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates configuration values.
func (c *Config) Validate() error {
	var errs []string

	if !slices.Contains(validLogLevels, c.Server.LogLevel) {
		errs = append(errs, "server.log_level must be one of debug|info|warn|error")
	}
	if c.GitHub.RepoNumber <= 0 {
		errs = append(errs, "github.repo_number must be > 0")
	}
	if c.GitHub.UserNumber <= 0 {
		errs = append(errs, "github.user_number must be > 0")
	}
	if c.GitHub.RequestTimeout <= 0 {
		errs = append(errs, "github.request_timeout must be > 0")
	}
	if c.Cache.Backend != "redis" && c.Cache.Backend != "memory" {
		errs = append(errs, "cache.backend must be redis or memory")
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		errs = append(errs, "cache.redis_addr is required when cache.backend=redis")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.GitHub.TokenEnv == "" {
		cfg.GitHub.TokenEnv = "GITHUB_PAT_TOKEN"
	}
	if cfg.GitHub.GraphQLEndpoint == "" {
		cfg.GitHub.GraphQLEndpoint = "https://api.github.com/graphql"
	}
	if cfg.GitHub.APIBaseURL == "" {
		cfg.GitHub.APIBaseURL = "https://api.github.com/"
	}
	if cfg.GitHub.RequestTimeout == 0 {
		cfg.GitHub.RequestTimeout = 30 * time.Second
	}
	if cfg.GitHub.RepoNumber == 0 {
		cfg.GitHub.RepoNumber = 100
	}
	if cfg.GitHub.UserNumber == 0 {
		cfg.GitHub.UserNumber = 50
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "redis"
	}
	if cfg.Cache.Backend == "redis" && cfg.Cache.RedisAddr == "" {
		cfg.Cache.RedisAddr = "localhost:6379"
	}
}

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil || value.Kind == 0 || strings.TrimSpace(value.Value) == "" {
		d.Duration = 0
		return nil
	}

	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("decode duration: %w", err)
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

type rawConfig struct {
	Server    ServerConfig    `yaml:"server"`
	GitHub    rawGitHub       `yaml:"github"`
	Cache     CacheConfig     `yaml:"cache"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type rawGitHub struct {
	Org             string   `yaml:"org"`
	TokenEnv        string   `yaml:"token_env"`
	GraphQLEndpoint string   `yaml:"graphql_endpoint"`
	APIBaseURL      string   `yaml:"api_base_url"`
	RequestTimeout  duration `yaml:"request_timeout"`
	RepoNumber      int      `yaml:"repo_number"`
	UserNumber      int      `yaml:"user_number"`
}

func (r rawConfig) toConfig() *Config {
	return &Config{
		Server: r.Server,
		GitHub: GitHubConfig{
			Org:             r.GitHub.Org,
			TokenEnv:        r.GitHub.TokenEnv,
			GraphQLEndpoint: r.GitHub.GraphQLEndpoint,
			APIBaseURL:      r.GitHub.APIBaseURL,
			RequestTimeout:  r.GitHub.RequestTimeout.Duration,
			RepoNumber:      r.GitHub.RepoNumber,
			UserNumber:      r.GitHub.UserNumber,
		},
		Cache:     r.Cache,
		Telemetry: r.Telemetry,
	}
}
