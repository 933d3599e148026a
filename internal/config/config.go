// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// SheetID is the published spreadsheet document id. Required.
	SheetID string

	// SheetGIDs lists the tab gids to sync, one per program day.
	// Defaults to ["0"]. Set SHEET_GIDS to a comma-separated list.
	SheetGIDs []string

	// MetaSheetGID is the optional key/value meta tab overriding the
	// metadata read from the grid's fixed header cells. Empty disables it.
	MetaSheetGID string

	// SyncCron is a cron expression for periodic background sync
	// (e.g. "*/15 * * * *"). Empty disables the scheduler.
	SyncCron string

	// CacheTTL is how long a stored program snapshot is served before a
	// re-fetch is attempted. Defaults to 10m.
	CacheTTL time.Duration

	// ProgramPageURL is the rendered program page printed to PDF by the
	// export endpoint. Empty disables PDF export.
	ProgramPageURL string
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CORSOrigins:    splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		SheetGIDs:      splitCSV(getEnv("SHEET_GIDS", "0")),
		MetaSheetGID:   os.Getenv("META_SHEET_GID"),
		SyncCron:       os.Getenv("SYNC_CRON"),
		ProgramPageURL: os.Getenv("PROGRAM_PAGE_URL"),
	}

	if len(cfg.SheetGIDs) == 0 {
		cfg.SheetGIDs = []string{"0"}
	}

	ttl := getEnv("CACHE_TTL", "10m")
	d, err := time.ParseDuration(ttl)
	if err != nil {
		return Config{}, fmt.Errorf("invalid CACHE_TTL %q: %w", ttl, err)
	}
	cfg.CacheTTL = d

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.SheetID = os.Getenv("SHEET_ID")
	if cfg.SheetID == "" {
		missing = append(missing, "SHEET_ID")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
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
