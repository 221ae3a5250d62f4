package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env     string `yaml:"env" env:"APP_ENV"`
		Name    string `yaml:"name" env:"APP_NAME"`
		Version string `yaml:"version" env:"APP_VERSION"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level" env:"LOG_LEVEL"`
	} `yaml:"log"`

	Server struct {
		Addr string `yaml:"addr" env:"SERVER_ADDR"`
		// PublicURL is the externally visible base used to build the OAuth callback URL.
		PublicURL       string        `yaml:"public_url" env:"SERVER_PUBLIC_URL"`
		ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
		WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	} `yaml:"server"`

	GitHub GitHubSection `yaml:"github"`

	State struct {
		// Secret seeds the state signing key. Required in prod.
		Secret string        `yaml:"secret" env:"STATE_SECRET"`
		TTL    time.Duration `yaml:"ttl" env:"STATE_TTL"`
		Store  string        `yaml:"store" env:"STATE_STORE"` // memory | redis
		Redis  struct {
			Addr     string `yaml:"addr" env:"STATE_REDIS_ADDR"`
			Password string `yaml:"password" env:"STATE_REDIS_PASSWORD"`
			DB       int    `yaml:"db" env:"STATE_REDIS_DB"`
			Prefix   string `yaml:"prefix" env:"STATE_REDIS_PREFIX"`
		} `yaml:"redis"`
	} `yaml:"state"`

	// RateLimit applies a per-IP fixed window to the sign-in routes. It shares the state
	// backend: redis limits are global, memory limits are per replica.
	RateLimit struct {
		Requests int           `yaml:"requests" env:"RATE_LIMIT_REQUESTS"` // 0 disables
		Window   time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW"`
		Prefix   string        `yaml:"prefix" env:"RATE_LIMIT_PREFIX"`
	} `yaml:"rate_limit"`

	Users struct {
		Driver string `yaml:"driver" env:"USERS_DRIVER"` // memory | postgres
		DSN    string `yaml:"dsn" env:"USERS_DSN"`
		// MaxConns caps the pgx pool; 0 keeps the pgx default.
		MaxConns int32 `yaml:"max_conns" env:"USERS_MAX_CONNS"`
	} `yaml:"users"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled" env:"TRACING_ENABLED"`
		Endpoint    string  `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
		Insecure    bool    `yaml:"insecure" env:"TRACING_INSECURE"`
		SampleRatio float64 `yaml:"sample_ratio" env:"TRACING_SAMPLE_RATIO"`
	} `yaml:"tracing"`

	Security struct {
		// SecretBoxMasterKey decrypts enc: values, e.g. the GitHub client secret.
		SecretBoxMasterKey string `yaml:"secretbox_master_key" env:"SECRETBOX_MASTER_KEY"`
	} `yaml:"security"`
}

// GitHubSection is the raw github block. Read it through GitHubSettings.
type GitHubSection struct {
	Enabled      bool          `yaml:"enabled" env:"GITHUB_ENABLED"`
	ClientID     string        `yaml:"client_id" env:"GITHUB_CLIENT_ID"`
	ClientSecret string        `yaml:"client_secret" env:"GITHUB_CLIENT_SECRET"` // plain or enc:
	APIURL       string        `yaml:"api_url" env:"GITHUB_API_URL"`
	WebURL       string        `yaml:"web_url" env:"GITHUB_WEB_URL"`
	Scope        string        `yaml:"scope" env:"GITHUB_SCOPE"`
	Timeout      time.Duration `yaml:"timeout" env:"GITHUB_TIMEOUT"`
}

// Load reads the YAML file at path (skipped when path is empty), applies environment overrides,
// fills defaults and validates.
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	c.App.Env = strings.ToLower(strings.TrimSpace(c.App.Env))
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "githubauth"
	}
	if c.App.Version == "" {
		c.App.Version = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.PublicURL == "" {
		port := "8080"
		if _, p, err := net.SplitHostPort(c.Server.Addr); err == nil && p != "" {
			port = p
		}
		c.Server.PublicURL = "http://localhost:" + port
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	if c.State.TTL == 0 {
		c.State.TTL = 10 * time.Minute
	}
	c.State.Store = strings.ToLower(strings.TrimSpace(c.State.Store))
	if c.State.Store == "" {
		c.State.Store = "memory"
	}
	if c.State.Redis.Prefix == "" {
		c.State.Redis.Prefix = "githubauth:state:"
	}

	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.RateLimit.Prefix == "" {
		c.RateLimit.Prefix = "githubauth:rl:"
	}

	c.Users.Driver = strings.ToLower(strings.TrimSpace(c.Users.Driver))
	if c.Users.Driver == "" {
		c.Users.Driver = "memory"
	}

	if c.Tracing.SampleRatio == 0 {
		c.Tracing.SampleRatio = 1
	}
}

// Validate checks cross-field constraints. It expects defaults to be applied.
func (c *Config) Validate() error {
	var errs []error

	switch c.App.Env {
	case "dev", "staging", "prod":
	default:
		errs = append(errs, fmt.Errorf("app.env %q: want dev, staging or prod", c.App.Env))
	}

	switch c.State.Store {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.State.Redis.Addr) == "" {
			errs = append(errs, errors.New("state.redis.addr is required when state.store is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("state.store %q: want memory or redis", c.State.Store))
	}
	if c.IsProd() && strings.TrimSpace(c.State.Secret) == "" {
		errs = append(errs, errors.New("state.secret is required in prod"))
	}
	if c.State.TTL < 0 {
		errs = append(errs, errors.New("state.ttl must be positive"))
	}

	if c.RateLimit.Requests < 0 {
		errs = append(errs, errors.New("rate_limit.requests must not be negative"))
	}
	if c.RateLimit.Window < 0 {
		errs = append(errs, errors.New("rate_limit.window must be positive"))
	}

	switch c.Users.Driver {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Users.DSN) == "" {
			errs = append(errs, errors.New("users.dsn is required when users.driver is postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("users.driver %q: want memory or postgres", c.Users.Driver))
	}

	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, errors.New("tracing.sample_ratio must be within [0,1]"))
	}

	if _, err := c.GitHubSettings().ProviderConfig(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (c *Config) IsProd() bool { return c.App.Env == "prod" }

// GitHubSettings returns the read-only accessor over the github block.
func (c *Config) GitHubSettings() GitHubSettings {
	return GitHubSettings{raw: c.GitHub, masterKey: c.Security.SecretBoxMasterKey}
}
