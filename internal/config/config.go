// Package config loads the service configuration from config/app.yaml or
// config/app.toml, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultFiles are tried in order; the first existing one is loaded
var DefaultFiles = []string{"config/app.yaml", "config/app.toml"}

type Config struct {
	Environment     string        `yaml:"environment" toml:"environment" env:"APP_ENV"`
	HTTPAddr        string        `yaml:"http_addr" toml:"http_addr" env:"HTTP_ADDR"`
	PublicBaseURL   string        `yaml:"public_base_url" toml:"public_base_url" env:"PUBLIC_BASE_URL"`
	AllowedOrigins  []string      `yaml:"allowed_origins" toml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`

	DatabaseDriver string `yaml:"database_driver" toml:"database_driver" env:"DATABASE_DRIVER"`
	DatabaseURL    string `yaml:"database_url" toml:"database_url" env:"DATABASE_URL"`

	Storage StorageConfig `yaml:"storage" toml:"storage"`
	Auth    AuthConfig    `yaml:"auth" toml:"auth"`
	Log     LogConfig     `yaml:"log" toml:"log"`
	Jobs    JobsConfig    `yaml:"jobs" toml:"jobs"`
}

type StorageConfig struct {
	Backend       string `yaml:"backend" toml:"backend" env:"STORAGE_BACKEND"`
	LocalDir      string `yaml:"local_dir" toml:"local_dir" env:"STORAGE_LOCAL_DIR"`
	S3Endpoint    string `yaml:"s3_endpoint" toml:"s3_endpoint" env:"S3_ENDPOINT"`
	S3AccessKey   string `yaml:"s3_access_key" toml:"s3_access_key" env:"S3_ACCESS_KEY"`
	S3SecretKey   string `yaml:"s3_secret_key" toml:"s3_secret_key" env:"S3_SECRET_KEY"`
	S3Region      string `yaml:"s3_region" toml:"s3_region" env:"S3_REGION"`
	S3UseSSL      bool   `yaml:"s3_use_ssl" toml:"s3_use_ssl" env:"S3_USE_SSL"`
	S3PublicURL   string `yaml:"s3_public_url" toml:"s3_public_url" env:"S3_PUBLIC_URL"`
	ImageMIME     string `yaml:"image_mime" toml:"image_mime" env:"IMAGE_MIME"`
	ImageMaxBytes int64  `yaml:"image_max_bytes" toml:"image_max_bytes" env:"IMAGE_MAX_BYTES"`
}

type AuthConfig struct {
	SessionSecret string        `yaml:"session_secret" toml:"session_secret" env:"SESSION_SECRET"`
	SessionTTL    time.Duration `yaml:"session_ttl" toml:"session_ttl" env:"SESSION_TTL"`
	CookieSecure  bool          `yaml:"cookie_secure" toml:"cookie_secure" env:"COOKIE_SECURE"`
}

type LogConfig struct {
	Level    string `yaml:"level" toml:"level" env:"LOG_LEVEL"`
	Format   string `yaml:"format" toml:"format" env:"LOG_FORMAT"`
	Database bool   `yaml:"database" toml:"database" env:"LOG_TO_DATABASE"`
}

type JobsConfig struct {
	PromoExpirySchedule string `yaml:"promo_expiry_schedule" toml:"promo_expiry_schedule" env:"PROMO_EXPIRY_SCHEDULE"`
	ActivityCapacity    int    `yaml:"activity_capacity" toml:"activity_capacity" env:"ACTIVITY_CAPACITY"`
}

// Default returns the configuration used when nothing overrides it
func Default() Config {
	return Config{
		Environment:     "development",
		HTTPAddr:        ":8080",
		PublicBaseURL:   "http://localhost:8080",
		ShutdownTimeout: 10 * time.Second,
		DatabaseDriver:  "postgres",
		Storage: StorageConfig{
			Backend:       "local",
			LocalDir:      "./media",
			S3Region:      "us-east-1",
			S3UseSSL:      true,
			ImageMIME:     "image/webp",
			ImageMaxBytes: 5 * 1024 * 1024,
		},
		Auth: AuthConfig{
			SessionTTL:   12 * time.Hour,
			CookieSecure: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Jobs: JobsConfig{
			PromoExpirySchedule: "@hourly",
			ActivityCapacity:    50,
		},
	}
}

// LoadConfig loads DefaultFiles then the environment and validates the result
func LoadConfig() (*Config, error) {
	return Load(DefaultFiles...)
}

// Load applies defaults, the first existing file of files, then environment
// variables, and validates the result.
func Load(files ...string) (*Config, error) {
	cfg := Default()

	for _, file := range files {
		loaded, err := loadFile(&cfg, file)
		if err != nil {
			return nil, err
		}
		if loaded {
			break
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(cfg *Config, file string) (bool, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file %s: %w", file, err)
	}

	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return false, fmt.Errorf("failed to parse config file %s: %w", file, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return false, fmt.Errorf("failed to parse config file %s: %w", file, err)
		}
	default:
		return false, fmt.Errorf("unsupported config file format: %s", file)
	}
	return true, nil
}

// Validate checks every field and reports all problems at once
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("http_addr is required"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}

	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("database_driver must be postgres or sqlite, got %q", c.DatabaseDriver))
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}

	switch c.Storage.Backend {
	case "local":
		if c.Storage.LocalDir == "" {
			errs = append(errs, errors.New("storage.local_dir is required for the local backend"))
		}
		if c.PublicBaseURL == "" {
			errs = append(errs, errors.New("public_base_url is required for the local backend"))
		}
	case "s3":
		if c.Storage.S3Endpoint == "" || c.Storage.S3AccessKey == "" || c.Storage.S3SecretKey == "" {
			errs = append(errs, errors.New("S3_ENDPOINT, S3_ACCESS_KEY and S3_SECRET_KEY are required for the s3 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend must be local or s3, got %q", c.Storage.Backend))
	}
	if !strings.HasPrefix(c.Storage.ImageMIME, "image/") {
		errs = append(errs, fmt.Errorf("storage.image_mime must be an image type, got %q", c.Storage.ImageMIME))
	}
	if c.Storage.ImageMaxBytes <= 0 {
		errs = append(errs, errors.New("storage.image_max_bytes must be positive"))
	}

	if len(c.Auth.SessionSecret) < 32 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 32 bytes"))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("auth.session_ttl must be positive"))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", c.Log.Format))
	}

	if c.Jobs.ActivityCapacity <= 0 {
		errs = append(errs, errors.New("jobs.activity_capacity must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
