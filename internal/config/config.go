// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an error.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// CompactionOff disables the compaction job when used as COMPACTION_SCHEDULE.
const CompactionOff = "off"

// Config holds all runtime configuration for the tracker service.
type Config struct {
	Port        string
	GRPCPort    string
	DatabaseURL string
	RedisURL    string

	// DBMaxConns caps the pgx pool; 0 keeps the pgx default.
	DBMaxConns int32

	LogLevel slog.Level

	// CompactionSchedule is a cron spec, or CompactionOff.
	CompactionSchedule string

	RunMigrations bool
}

// Load reads environment variables and returns a validated Config. A .env
// file in the working directory is loaded first when present; variables
// already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	port := os.Getenv("TRACKER_PORT")
	if port == "" {
		port = "8082"
	}

	grpcPort := os.Getenv("TRACKER_GRPC_PORT")
	if grpcPort == "" {
		grpcPort = "9082"
	}

	var maxConns int32
	if s := os.Getenv("DB_MAX_CONNS"); s != "" {
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("DB_MAX_CONNS must be a positive integer, got %q", s)
		}
		maxConns = int32(v)
	}

	level := slog.LevelInfo
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		if err := level.UnmarshalText([]byte(s)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
		}
	}

	schedule := strings.TrimSpace(os.Getenv("COMPACTION_SCHEDULE"))
	if schedule == "" {
		schedule = "@daily"
	}
	if schedule != CompactionOff {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return nil, fmt.Errorf("invalid COMPACTION_SCHEDULE %q: %w", schedule, err)
		}
	}

	runMigrations := true
	if s := os.Getenv("RUN_MIGRATIONS"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("RUN_MIGRATIONS must be a boolean, got %q", s)
		}
		runMigrations = v
	}

	return &Config{
		Port:               port,
		GRPCPort:           grpcPort,
		DatabaseURL:        dbURL,
		RedisURL:           redisURL,
		DBMaxConns:         maxConns,
		LogLevel:           level,
		CompactionSchedule: schedule,
		RunMigrations:      runMigrations,
	}, nil
}
