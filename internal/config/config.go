package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Built-in defaults, matching the router's factory settings.
const (
	DefaultOrigin    = "192.168.1.1"
	DefaultUsername  = "admin"
	DefaultPassword  = "admin@123"
	DefaultTimeout   = 30 * time.Second
	DefaultLogLevel  = "info"
	DefaultLogFormat = "auto"
)

// Environment variable names.
const (
	EnvOrigin      = "SYROCTL_ORIGIN"
	EnvUser        = "SYROCTL_USER"
	EnvPass        = "SYROCTL_PASS"
	EnvTimeout     = "SYROCTL_TIMEOUT"
	EnvLogLevel    = "SYROCTL_LOG_LEVEL"
	EnvLogFormat   = "SYROCTL_LOG_FORMAT"
	EnvMetricsFile = "SYROCTL_METRICS_FILE"
)

// Config holds everything a syroctl run needs before flags are applied.
type Config struct {
	Origin      string
	Username    string
	Password    string
	Timeout     time.Duration
	LogLevel    string
	LogFormat   string
	MetricsFile string // empty disables the textfile export
}

// Load reads configuration from environment variables over built-in
// defaults. With no envFiles a .env in the working directory is loaded if
// present; explicitly named files must exist.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		// Best-effort .env loading (not required)
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	timeout, err := envOrDefaultDuration(EnvTimeout, DefaultTimeout)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Origin:      envOrDefault(EnvOrigin, DefaultOrigin),
		Username:    envOrDefault(EnvUser, DefaultUsername),
		Password:    envOrDefault(EnvPass, DefaultPassword),
		Timeout:     timeout,
		LogLevel:    envOrDefault(EnvLogLevel, DefaultLogLevel),
		LogFormat:   envOrDefault(EnvLogFormat, DefaultLogFormat),
		MetricsFile: strings.TrimSpace(os.Getenv(EnvMetricsFile)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that cannot be caught later by the router client.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Origin) == "" {
		missing = append(missing, "origin")
	}
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be greater than 0, got %s", c.Timeout)
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) (time.Duration, error) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
}
