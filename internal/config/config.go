// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Session storage backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	APIBaseURL      string `mapstructure:"API_BASE_URL"`
	APITimeoutMS    int    `mapstructure:"API_TIMEOUT_MS"`
	SessionBackend  string `mapstructure:"SESSION_BACKEND"`
	SessionFile     string `mapstructure:"SESSION_FILE"`
	SessionKey      string `mapstructure:"SESSION_KEY"`
	RedisURL        string `mapstructure:"REDIS_URL"`
	ToastDurationMS int    `mapstructure:"TOAST_DURATION_MS"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	Env             string `mapstructure:"APP_ENV"`

	TracingEnabled  bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampler  float64 `mapstructure:"TRACING_SAMPLER_RATIO"`

	// Fake API server only.
	FakeAPIPort string `mapstructure:"FAKEAPI_PORT"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	SeedPosts   int    `mapstructure:"FAKEAPI_SEED_POSTS"`
}

// APITimeout returns the per-request gateway timeout.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutMS) * time.Millisecond
}

// ToastDuration returns how long a feedback message stays visible.
func (c *Config) ToastDuration() time.Duration {
	return time.Duration(c.ToastDurationMS) * time.Millisecond
}

// IsProduction reports whether APP_ENV names a production profile.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// LoadConfig loads application configuration from .env, config files and
// environment variables, in increasing order of precedence.
func LoadConfig() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The config file is optional
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read profile config 'config.%s.yml': %w", env, err)
			}
		} else {
			log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
		}
	}

	viper.SetDefault("API_BASE_URL", "http://localhost:3000/api")
	viper.SetDefault("API_TIMEOUT_MS", 30000)
	viper.SetDefault("SESSION_BACKEND", BackendFile)
	viper.SetDefault("SESSION_FILE", defaultSessionFile())
	viper.SetDefault("SESSION_KEY", "token")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("TOAST_DURATION_MS", 3000)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
	viper.SetDefault("FAKEAPI_PORT", "3000")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("FAKEAPI_SEED_POSTS", 0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.normalize()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) normalize() {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	c.SessionBackend = strings.ToLower(strings.TrimSpace(c.SessionBackend))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.SessionKey == "" {
		c.SessionKey = "token"
	}
}

// Validate ensures that required configuration values are present and sane.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("API_BASE_URL must be an absolute http(s) URL, got %q", c.APIBaseURL)
	}
	if c.APITimeoutMS <= 0 {
		return errors.New("API_TIMEOUT_MS must be positive")
	}
	if c.ToastDurationMS <= 0 {
		return errors.New("TOAST_DURATION_MS must be positive")
	}

	switch c.SessionBackend {
	case BackendFile:
		if c.SessionFile == "" {
			return errors.New("SESSION_FILE is required for the file session backend")
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis session backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("SESSION_BACKEND must be one of file, redis, memory; got %q", c.SessionBackend)
	}

	if c.IsProduction() {
		if u.Scheme == "http" && !isLoopback(u.Hostname()) {
			return errors.New("API_BASE_URL must use https in production")
		}
	}

	return nil
}

// ValidateFakeAPI checks the settings only the fake API server reads.
func (c *Config) ValidateFakeAPI() error {
	if strings.TrimSpace(c.FakeAPIPort) == "" {
		return errors.New("FAKEAPI_PORT is required")
	}
	if c.SeedPosts < 0 {
		return errors.New("FAKEAPI_SEED_POSTS cannot be negative")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be changed from the default value in production")
	}
	return nil
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".vibeclient", "session.yml")
	}
	return filepath.Join(home, ".vibeclient", "session.yml")
}
