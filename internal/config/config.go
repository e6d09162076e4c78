// Package config provides configuration management using Viper.
// It loads configuration from environment variables, .env files, and config files.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerPort                = 8080
	defaultServerHost                = "0.0.0.0"
	defaultReadTimeout               = 30 * time.Second
	defaultWriteTimeout              = 30 * time.Second
	defaultDatabasePath              = "./data/fairshare.db"
	defaultDatabaseConnectionTimeout = 5 * time.Second
	defaultDatabaseEnableWAL         = true
	defaultMigrationsPath            = "file://./migrations"
	defaultLogLevel                  = "info"
	defaultLogPretty                 = false

	defaultStudioTotalDuration   = 240
	defaultStudioTickInterval    = time.Second
	defaultStudioMinVisibleWidth = 0.08
	defaultStudioShowDelay       = 0 * time.Second
	defaultStudioDismissAfter    = 5 * time.Second
	defaultStudioFadeOut         = 300 * time.Millisecond
	defaultStudioRetrigger       = "always"
	defaultStudioIdleTimeout     = 30 * time.Minute
	defaultStudioCleanupInterval = time.Minute
	defaultStudioRulerMarks      = 10

	defaultCatalogWatch = false

	envPrefix = "FAIRSHARE"
)

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validRetriggers = []string{"always", "once"}
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Studio   StudioConfig
	Catalog  CatalogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Path              string
	ConnectionTimeout time.Duration
	EnableWAL         bool
	MigrationsPath    string `mapstructure:"migrations_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// StudioConfig holds playback, layout and overlay settings for studio sessions
type StudioConfig struct {
	// TotalDuration is the timeline scale in seconds; zero leaves new sessions uninitialized
	TotalDuration   int64         `mapstructure:"total_duration"`
	TickInterval    time.Duration `mapstructure:"tick_interval"`
	MinVisibleWidth float64       `mapstructure:"min_visible_width"`
	ShowDelay       time.Duration `mapstructure:"show_delay"`
	DismissAfter    time.Duration `mapstructure:"dismiss_after"`
	FadeOut         time.Duration `mapstructure:"fade_out"`
	Retrigger       string        `mapstructure:"retrigger"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	RulerMarks      int           `mapstructure:"ruler_marks"`
}

// CatalogConfig points at the default clip catalog file. An empty path
// means sessions start from the built-in demo catalog.
type CatalogConfig struct {
	Path  string
	Watch bool
}

// Load reads configuration from .env file, config files, environment variables, and defaults
func Load() (*Config, error) {
	return load("")
}

// LoadFromFile is Load with an explicit config file instead of the search path
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config file path cannot be empty")
	}
	return load(path)
}

func load(file string) (*Config, error) {
	// .env files are optional in production and CI where env vars are set directly
	_ = godotenv.Load() // nolint:errcheck // .env file is optional

	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/fairshare")
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		// No config file on the search path: defaults and env vars apply
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.host", defaultServerHost)
	v.SetDefault("server.readtimeout", defaultReadTimeout)
	v.SetDefault("server.writetimeout", defaultWriteTimeout)

	v.SetDefault("database.path", defaultDatabasePath)
	v.SetDefault("database.connectiontimeout", defaultDatabaseConnectionTimeout)
	v.SetDefault("database.enablewal", defaultDatabaseEnableWAL)
	v.SetDefault("database.migrations_path", defaultMigrationsPath)

	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.pretty", defaultLogPretty)

	v.SetDefault("studio.total_duration", defaultStudioTotalDuration)
	v.SetDefault("studio.tick_interval", defaultStudioTickInterval)
	v.SetDefault("studio.min_visible_width", defaultStudioMinVisibleWidth)
	v.SetDefault("studio.show_delay", defaultStudioShowDelay)
	v.SetDefault("studio.dismiss_after", defaultStudioDismissAfter)
	v.SetDefault("studio.fade_out", defaultStudioFadeOut)
	v.SetDefault("studio.retrigger", defaultStudioRetrigger)
	v.SetDefault("studio.idle_timeout", defaultStudioIdleTimeout)
	v.SetDefault("studio.cleanup_interval", defaultStudioCleanupInterval)
	v.SetDefault("studio.ruler_marks", defaultStudioRulerMarks)

	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.watch", defaultCatalogWatch)
}

// Validate checks that configuration values are valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("invalid read timeout: %v (must be > 0)", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("invalid write timeout: %v (must be > 0)", c.Server.WriteTimeout)
	}
	if c.Database.ConnectionTimeout <= 0 {
		return fmt.Errorf("invalid database connection timeout: %v (must be > 0)", c.Database.ConnectionTimeout)
	}

	if !contains(validLogLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Logging.Level, strings.Join(validLogLevels, ", "))
	}

	if err := c.Studio.validate(); err != nil {
		return err
	}

	if c.Catalog.Watch && c.Catalog.Path == "" {
		return errors.New("catalog watch requires a catalog path")
	}

	return nil
}

func (s *StudioConfig) validate() error {
	// Zero is allowed and leaves sessions uninitialized until a catalog supplies a scale
	if s.TotalDuration < 0 {
		return fmt.Errorf("invalid studio total duration: %d (must be >= 0)", s.TotalDuration)
	}
	if s.TickInterval <= 0 {
		return fmt.Errorf("invalid studio tick interval: %v (must be > 0)", s.TickInterval)
	}
	if s.MinVisibleWidth < 0 || s.MinVisibleWidth > 1 {
		return fmt.Errorf("invalid studio min visible width: %v (must be between 0 and 1)", s.MinVisibleWidth)
	}
	if s.ShowDelay < 0 {
		return fmt.Errorf("invalid studio show delay: %v (must be >= 0)", s.ShowDelay)
	}
	if s.DismissAfter <= 0 {
		return fmt.Errorf("invalid studio dismiss after: %v (must be > 0)", s.DismissAfter)
	}
	if s.FadeOut < 0 {
		return fmt.Errorf("invalid studio fade out: %v (must be >= 0)", s.FadeOut)
	}
	if !contains(validRetriggers, s.Retrigger) {
		return fmt.Errorf("invalid studio retrigger policy: %s (must be one of: %s)", s.Retrigger, strings.Join(validRetriggers, ", "))
	}
	if s.IdleTimeout < 0 {
		return fmt.Errorf("invalid studio idle timeout: %v (must be >= 0)", s.IdleTimeout)
	}
	if s.CleanupInterval <= 0 {
		return fmt.Errorf("invalid studio cleanup interval: %v (must be > 0)", s.CleanupInterval)
	}
	if s.RulerMarks < 1 {
		return fmt.Errorf("invalid studio ruler marks: %d (must be >= 1)", s.RulerMarks)
	}
	return nil
}

// contains checks if a string slice contains a specific value
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
