package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the callward services.
// Environment variables are parsed from the CALLWARD_ prefix.
type Config struct {
	// Build target selects the high-level environment: local, cloud-dev, cloud
	BuildTarget string `envconfig:"BUILD_TARGET" default:"local"`

	// Derived or override driver
	DBDriver string `envconfig:"DB_DRIVER" default:"auto"`

	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Postgres Configuration
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// SQLite Configuration (local build target)
	SQLitePath string `envconfig:"SQLITE_PATH" default:"callward.db"`

	// Voice provider
	VoiceAPIURL     string `envconfig:"VOICE_API_URL" default:"https://api.elevenlabs.io"`
	VoiceAPIKey     string `envconfig:"VOICE_API_KEY" default:""`
	VoiceAgentID    string `envconfig:"VOICE_AGENT_ID" default:""`
	VoiceFromNumber string `envconfig:"VOICE_FROM_NUMBER" default:""`

	// Google OAuth (calendar access)
	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID" default:""`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET" default:""`

	// Availability defaults
	DefaultCalendarID  string `envconfig:"DEFAULT_CALENDAR_ID" default:"primary"`
	MinFreeSlotMinutes int    `envconfig:"MIN_FREE_SLOT_MINUTES" default:"15"`
	BusinessHoursStart int    `envconfig:"BUSINESS_HOURS_START" default:"9"`
	BusinessHoursEnd   int    `envconfig:"BUSINESS_HOURS_END" default:"17"`

	// Dispatch tuning. One tolerance covers both the recurring-call firing
	// window and reminder re-validation.
	DispatchToleranceMinutes int `envconfig:"DISPATCH_TOLERANCE_MINUTES" default:"5"`
	ReminderPollSeconds      int `envconfig:"REMINDER_POLL_SECONDS" default:"30"`

	// Health checking
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"5"`
}

// ResolveDefaults validates BuildTarget and derives DBDriver when set to
// "auto" or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDB string

	switch c.BuildTarget {
	case "local":
		defaultDB = "sqlite"
	case "cloud-dev", "cloud":
		defaultDB = "postgres"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}

	allowedDB := map[string]bool{"postgres": true, "sqlite": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN required for DB_DRIVER=postgres")
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Variables are prefixed with CALLWARD_, e.g. CALLWARD_HTTP_PORT.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("CALLWARD", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Int("dispatch_tolerance_minutes", cfg.DispatchToleranceMinutes).
		Bool("voice_key_present", cfg.VoiceAPIKey != "").
		Bool("postgres_dsn_present", cfg.PostgresDSN != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	return &Config{
		BuildTarget:               "local",
		DBDriver:                  "sqlite",
		SQLitePath:                ":memory:",
		Environment:               EnvTesting,
		HTTPPort:                  8080,
		DefaultCalendarID:         "primary",
		MinFreeSlotMinutes:        15,
		BusinessHoursStart:        9,
		BusinessHoursEnd:          17,
		DispatchToleranceMinutes:  5,
		ReminderPollSeconds:       30,
		HealthIntervalSeconds:     30,
		HealthProbeTimeoutSeconds: 5,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
