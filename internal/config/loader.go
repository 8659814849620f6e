package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers understood by the CLI.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Config captures file and environment driven settings for the rental desk.
type Config struct {
	Storage       StorageConfig       `yaml:"storage"`
	Seed          string              `yaml:"seed"`
	Log           LogConfig           `yaml:"log"`
	Auth          AuthConfig          `yaml:"auth"`
	Rentals       RentalsConfig       `yaml:"rentals"`
	Maintenance   MaintenanceConfig   `yaml:"maintenance"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Dashboard     DashboardConfig     `yaml:"dashboard"`
	Metrics       MetricsConfig       `yaml:"metrics"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	// Path is a directory for the file driver and a database file for sqlite.
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AuthConfig struct {
	PasswordScheme string `yaml:"password_scheme"`
}

type RentalsConfig struct {
	DailyRate float64 `yaml:"daily_rate"`
}

type MaintenanceConfig struct {
	DueAfterDays       int `yaml:"due_after_days"`
	UpcomingWindowDays int `yaml:"upcoming_window_days"`
}

type NotificationsConfig struct {
	// Refire is "always" or "transition".
	Refire string `yaml:"refire"`
}

type DashboardConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used when neither a file nor the environment sets a value.
func Default() Config {
	return Config{
		Storage:       StorageConfig{Driver: DriverFile, Path: "./rentaldesk-data"},
		Seed:          "demo",
		Log:           LogConfig{Level: "info", Format: "text"},
		Auth:          AuthConfig{PasswordScheme: "plain"},
		Rentals:       RentalsConfig{DailyRate: 50},
		Maintenance:   MaintenanceConfig{DueAfterDays: 30, UpcomingWindowDays: 7},
		Notifications: NotificationsConfig{Refire: "always"},
		Dashboard:     DashboardConfig{CacheTTL: 30 * time.Second},
	}
}

// Load builds the configuration from defaults, the optional YAML file at path and RENTAL_*
// environment variables, in that order of precedence (environment wins).
//
// A missing file is only an error when path was given explicitly. Every invalid value is
// reported in a single error.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	invalid := make([]string, 0, 4)
	applyEnv(&cfg, &invalid)
	validate(cfg, &invalid)

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config file %s not found", path)
	}
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, invalid *[]string) {
	if v := env("RENTAL_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = strings.ToLower(v)
	}
	if v := env("RENTAL_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := env("RENTAL_SEED"); v != "" {
		cfg.Seed = strings.ToLower(v)
	}
	if v := env("RENTAL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := env("RENTAL_LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
	if v := env("RENTAL_PASSWORD_SCHEME"); v != "" {
		cfg.Auth.PasswordScheme = strings.ToLower(v)
	}
	if v := env("RENTAL_DAILY_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*invalid = append(*invalid, "RENTAL_DAILY_RATE")
		} else {
			cfg.Rentals.DailyRate = rate
		}
	}
	if v := env("RENTAL_MAINTENANCE_DUE_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			*invalid = append(*invalid, "RENTAL_MAINTENANCE_DUE_DAYS")
		} else {
			cfg.Maintenance.DueAfterDays = days
		}
	}
	if v := env("RENTAL_UPCOMING_WINDOW_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			*invalid = append(*invalid, "RENTAL_UPCOMING_WINDOW_DAYS")
		} else {
			cfg.Maintenance.UpcomingWindowDays = days
		}
	}
	if v := env("RENTAL_NOTIFICATION_REFIRE"); v != "" {
		cfg.Notifications.Refire = strings.ToLower(v)
	}
	if v := env("RENTAL_DASHBOARD_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			*invalid = append(*invalid, "RENTAL_DASHBOARD_CACHE_TTL")
		} else {
			cfg.Dashboard.CacheTTL = ttl
		}
	}
	if v := env("RENTAL_METRICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			*invalid = append(*invalid, "RENTAL_METRICS_ENABLED")
		} else {
			cfg.Metrics.Enabled = enabled
		}
	}
}

func validate(cfg Config, invalid *[]string) {
	switch cfg.Storage.Driver {
	case DriverMemory, DriverFile, DriverSQLite:
	default:
		*invalid = append(*invalid, "storage.driver")
	}
	if cfg.Storage.Driver != DriverMemory && strings.TrimSpace(cfg.Storage.Path) == "" {
		*invalid = append(*invalid, "storage.path")
	}
	switch cfg.Seed {
	case "demo", "empty":
	default:
		*invalid = append(*invalid, "seed")
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		*invalid = append(*invalid, "log.level")
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		*invalid = append(*invalid, "log.format")
	}
	switch cfg.Auth.PasswordScheme {
	case "plain", "argon2id":
	default:
		*invalid = append(*invalid, "auth.password_scheme")
	}
	if cfg.Rentals.DailyRate < 0 {
		*invalid = append(*invalid, "rentals.daily_rate")
	}
	if cfg.Maintenance.DueAfterDays < 0 {
		*invalid = append(*invalid, "maintenance.due_after_days")
	}
	if cfg.Maintenance.UpcomingWindowDays < 0 {
		*invalid = append(*invalid, "maintenance.upcoming_window_days")
	}
	switch cfg.Notifications.Refire {
	case "always", "transition":
	default:
		*invalid = append(*invalid, "notifications.refire")
	}
	if cfg.Dashboard.CacheTTL < 0 {
		*invalid = append(*invalid, "dashboard.cache_ttl")
	}
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
