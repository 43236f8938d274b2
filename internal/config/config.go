// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration values for the API server and remindctl.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"].
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// StoreDriver selects the reminder store: "postgres" (default) or "sqlite".
	StoreDriver string

	// DatabaseURL is the Postgres connection string. Required when StoreDriver is postgres.
	DatabaseURL string

	// SQLitePath is the database file for the sqlite driver. ":memory:" is allowed.
	SQLitePath string

	// WorkerPoolSize bounds concurrent storage calls. Defaults to 64.
	WorkerPoolSize int

	// GeofenceRadiusMeters is the trigger radius. Defaults to 100.
	GeofenceRadiusMeters float64

	// GeofenceMaxActive is the simulated device's limit on armed geofences. Defaults to 100.
	GeofenceMaxActive int

	// NotifyWebhookURL, when set, adds a webhook channel next to the log channel.
	NotifyWebhookURL string

	// AuthJWTSecret, when set, requires an HS256 bearer token on the API.
	AuthJWTSecret string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// SimLocationState is the simulated location setting: enabled, resolvable or disabled.
	SimLocationState string

	// SimAcceptPrompt makes the simulated user accept the location prompt. Defaults to true.
	SimAcceptPrompt bool
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set and any
// values that do not parse.
func Load() (Config, error) {
	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		CORSOrigins:      splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		StoreDriver:      strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		SQLitePath:       getEnv("SQLITE_PATH", "georeminder.db"),
		NotifyWebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
		AuthJWTSecret:    os.Getenv("AUTH_JWT_SECRET"),
		SimLocationState: getEnv("SIM_LOCATION_STATE", "enabled"),
	}

	var missing, invalid []string
	parse := func(key string, fn func(string) error) {
		if v := os.Getenv(key); v != "" {
			if err := fn(v); err != nil {
				invalid = append(invalid, key)
			}
		}
	}

	cfg.WorkerPoolSize = 64
	parse("WORKER_POOL_SIZE", func(v string) (err error) {
		cfg.WorkerPoolSize, err = positiveInt(v)
		return err
	})
	cfg.GeofenceRadiusMeters = 100
	parse("GEOFENCE_RADIUS_METERS", func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("not a positive number")
		}
		cfg.GeofenceRadiusMeters = f
		return nil
	})
	cfg.GeofenceMaxActive = 100
	parse("GEOFENCE_MAX_ACTIVE", func(v string) (err error) {
		cfg.GeofenceMaxActive, err = positiveInt(v)
		return err
	})
	cfg.MaxBodyBytes = 1 << 20
	parse("MAX_BODY_BYTES", func(v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("not a positive integer")
		}
		cfg.MaxBodyBytes = n
		return nil
	})
	cfg.SimAcceptPrompt = true
	parse("SIM_ACCEPT_PROMPT", func(v string) (err error) {
		cfg.SimAcceptPrompt, err = strconv.ParseBool(v)
		return err
	})

	switch cfg.StoreDriver {
	case DriverPostgres:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case DriverSQLite:
	default:
		invalid = append(invalid, "STORE_DRIVER")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func positiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return n, nil
}
