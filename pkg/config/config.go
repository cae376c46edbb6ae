package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application. It is built once at
// process start and threaded through explicitly; nothing else reads the
// environment.
type Config struct {
	Env string // development, staging, production

	// Database
	Database DatabaseConfig

	// Pipeline
	Pipeline PipelineConfig

	// Market data collection
	Naver NaverConfig

	// API
	Port string

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// PipelineConfig holds the static per-run parameters of the ranking pipeline.
type PipelineConfig struct {
	MomentumTopN     int
	ReversalTopN     int
	Horizons         []int
	SuccessThreshold float64
	SnapshotPath     string
	StrategyPath     string
	HistoryDays      int // price history loaded per symbol
}

// NaverConfig holds Naver Finance collection configuration.
type NaverConfig struct {
	BaseURL      string
	ChartURL     string
	ListingPages int
	RatePerSec   float64
}

// Load reads configuration from environment variables. This is the only
// os.Getenv call site in the repository.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Pipeline: PipelineConfig{
			MomentumTopN:     getEnvAsInt("PIPELINE_MOMENTUM_TOP_N", 10),
			ReversalTopN:     getEnvAsInt("PIPELINE_REVERSAL_TOP_N", 5),
			Horizons:         getEnvAsIntSlice("PIPELINE_HORIZONS", []int{3, 5, 10, 14}),
			SuccessThreshold: getEnvAsFloat("PIPELINE_SUCCESS_THRESHOLD", 0.04),
			SnapshotPath:     getEnv("PIPELINE_SNAPSHOT_PATH", "data/quantpipe_snapshot.json"),
			StrategyPath:     getEnv("PIPELINE_STRATEGY_PATH", ""),
			HistoryDays:      getEnvAsInt("PIPELINE_HISTORY_DAYS", 260),
		},

		Naver: NaverConfig{
			BaseURL:      getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
			ChartURL:     getEnv("NAVER_CHART_URL", "https://fchart.stock.naver.com"),
			ListingPages: getEnvAsInt("NAVER_LISTING_PAGES", 2),
			RatePerSec:   getEnvAsFloat("NAVER_RATE_PER_SEC", 5),
		},

		Port: getEnv("PORT", "8089"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks required values and basic sanity.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}
	if c.Pipeline.MomentumTopN <= 0 || c.Pipeline.ReversalTopN <= 0 {
		return fmt.Errorf("top-N values must be positive")
	}
	if c.Pipeline.SuccessThreshold <= 0 || c.Pipeline.SuccessThreshold >= 1 {
		return fmt.Errorf("PIPELINE_SUCCESS_THRESHOLD must be a fraction in (0, 1)")
	}
	if len(c.Pipeline.Horizons) == 0 {
		return fmt.Errorf("PIPELINE_HORIZONS must not be empty")
	}
	for _, h := range c.Pipeline.Horizons {
		if h <= 0 {
			return fmt.Errorf("horizon must be positive, got %d", h)
		}
	}
	if c.Pipeline.SnapshotPath == "" {
		return fmt.Errorf("PIPELINE_SNAPSHOT_PATH is required")
	}
	return nil
}

// loadEnvFile tries to load .env from a few likely locations.
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}

// getEnvAsIntSlice parses a comma-separated list, e.g. "3,5,10,14".
func getEnvAsIntSlice(key string, defaultValue []int) []int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	values := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return defaultValue
		}
		values = append(values, v)
	}
	return values
}
