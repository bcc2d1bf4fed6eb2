package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/bturcotte520/FlashCards/internal/srs"
)

type Config struct {
	Addr               string
	DBPath             string
	LogLevel           string
	StatsWorkerCount   int
	StatsQueueSize     int
	DueRefreshInterval time.Duration
	SessionTTL         time.Duration
	SessionShuffle     bool
	RequestTimeout     time.Duration
	MaxUploadBytes     int64
	MinEaseFactor      float64
	DefaultEaseFactor  float64
	EasyBonus          float64
	IntervalModifier   float64
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:               envOr("ADDR", ":8080"),
		DBPath:             envOr("DB_PATH", "file:flashcards.db"),
		LogLevel:           envOr("LOG_LEVEL", "INFO"),
		StatsWorkerCount:   envIntOr("STATS_WORKER_COUNT", 1),
		StatsQueueSize:     envIntOr("STATS_QUEUE_SIZE", 32),
		DueRefreshInterval: envDurationOr("DUE_REFRESH_INTERVAL", 5*time.Minute),
		SessionTTL:         envDurationOr("SESSION_TTL", 6*time.Hour),
		SessionShuffle:     envBoolOr("SESSION_SHUFFLE", true),
		RequestTimeout:     envDurationOr("REQUEST_TIMEOUT", 30*time.Second),
		MaxUploadBytes:     int64(envIntOr("MAX_UPLOAD_BYTES", 10<<20)),
		MinEaseFactor:      envFloatOr("MIN_EASE_FACTOR", srs.DefaultParameters.MinEaseFactor),
		DefaultEaseFactor:  envFloatOr("DEFAULT_EASE_FACTOR", srs.DefaultParameters.DefaultEaseFactor),
		EasyBonus:          envFloatOr("EASY_BONUS", srs.DefaultParameters.EasyBonus),
		IntervalModifier:   envFloatOr("INTERVAL_MODIFIER", srs.DefaultParameters.IntervalModifier),
	}
}

// SRSParameters returns the scheduling parameters described by c.
func (c Config) SRSParameters() srs.Parameters {
	return srs.Parameters{
		MinEaseFactor:     c.MinEaseFactor,
		DefaultEaseFactor: c.DefaultEaseFactor,
		EasyBonus:         c.EasyBonus,
		IntervalModifier:  c.IntervalModifier,
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Addr) == "" {
		problems = append(problems, "ADDR cannot be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		problems = append(problems, "DB_PATH cannot be empty")
	}
	if c.StatsWorkerCount <= 0 {
		problems = append(problems, fmt.Sprintf("STATS_WORKER_COUNT must be positive, got %d", c.StatsWorkerCount))
	}
	if c.StatsQueueSize <= 0 {
		problems = append(problems, fmt.Sprintf("STATS_QUEUE_SIZE must be positive, got %d", c.StatsQueueSize))
	}
	if c.DueRefreshInterval <= 0 {
		problems = append(problems, fmt.Sprintf("DUE_REFRESH_INTERVAL must be positive, got %s", c.DueRefreshInterval))
	}
	if c.SessionTTL <= 0 {
		problems = append(problems, fmt.Sprintf("SESSION_TTL must be positive, got %s", c.SessionTTL))
	}
	if c.RequestTimeout < 0 {
		problems = append(problems, fmt.Sprintf("REQUEST_TIMEOUT cannot be negative, got %s", c.RequestTimeout))
	}
	if c.MaxUploadBytes < 0 {
		problems = append(problems, fmt.Sprintf("MAX_UPLOAD_BYTES cannot be negative, got %d", c.MaxUploadBytes))
	}
	if err := c.SRSParameters().Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid value for %s=%q, using default %v", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}

func envBoolOr(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("invalid value for %s=%q, using default %t", key, v, def)
	}
	return def
}
