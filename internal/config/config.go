package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Port is the HTTP server port.
	Port int

	// DatabasePath is the SQLite database file location.
	DatabasePath string

	// IngestAPIKey authorizes write endpoints. When empty the server
	// refuses ingest requests with a configuration error.
	IngestAPIKey string

	// BlockedCountries lists canonical client country names whose jobs are
	// skipped during ingest.
	BlockedCountries []string

	// RollupSchedule is the cron expression for the daily stats rollup.
	RollupSchedule string
}

// Load reads configuration from a .env file (if present) and environment
// variables with sensible defaults.
func Load() (*Config, error) {
	// Missing .env is fine; real env vars take precedence either way.
	_ = godotenv.Load()

	port := 8080
	if p := os.Getenv("PORT"); p != "" {
		var err error
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "upworkinsights.db"
	}

	schedule := os.Getenv("ROLLUP_SCHEDULE")
	if schedule == "" {
		schedule = "5 0 * * *"
	}

	return &Config{
		Port:             port,
		DatabasePath:     dbPath,
		IngestAPIKey:     os.Getenv("INGEST_API_KEY"),
		BlockedCountries: splitList(os.Getenv("BLOCKED_COUNTRIES")),
		RollupSchedule:   schedule,
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
