package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all configuration for the SolarSight dashboard service
type Config struct {
	// Server configuration
	Port string `env:"PORT,default=8080"`

	// Prediction API
	APIURL         string        `env:"API_URL"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=0s"`

	// Dashboard behaviour
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL,default=15m"`
	LocationsFile   string        `env:"LOCATIONS_FILE"`
	DefaultLocation string        `env:"DEFAULT_LOCATION,default=lagos"`
	DefaultHorizon  int           `env:"DEFAULT_HORIZON,default=24"`

	// Sessions
	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL,default=1h"`
	MaxSessions    int           `env:"MAX_SESSIONS,default=500"`

	// Local testing configuration
	MockupMode bool   `env:"MOCKUP_MODE,default=false"`
	MockupDir  string `env:"MOCKUP_DIR"`

	// Service configuration
	Environment string `env:"ENVIRONMENT,default=development"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
	LogFormat   string `env:"LOG_FORMAT,default=json"`
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	cfg.APIURL = NormalizeBaseURL(cfg.APIURL)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// NormalizeBaseURL trims whitespace and trailing slashes and assumes https
// when no scheme is given. An empty value stays empty.
func NormalizeBaseURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	if u == "" {
		return ""
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + u
	}
	return u
}

// Validate checks values that envconfig cannot express as tags.
func (c *Config) Validate() error {
	var errs []error
	if c.DefaultHorizon != 24 && c.DefaultHorizon != 48 {
		errs = append(errs, fmt.Errorf("DEFAULT_HORIZON must be 24 or 48, got %d", c.DefaultHorizon))
	}
	if c.RefreshInterval <= 0 {
		errs = append(errs, fmt.Errorf("REFRESH_INTERVAL must be positive, got %s", c.RefreshInterval))
	}
	if c.SessionIdleTTL <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_IDLE_TTL must be positive, got %s", c.SessionIdleTTL))
	}
	if c.MaxSessions <= 0 {
		errs = append(errs, fmt.Errorf("MAX_SESSIONS must be positive, got %d", c.MaxSessions))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must not be negative, got %s", c.RequestTimeout))
	}
	if c.APIURL == "" && !c.MockupMode {
		errs = append(errs, errors.New("API_URL is required unless MOCKUP_MODE is enabled"))
	}
	return errors.Join(errs...)
}
