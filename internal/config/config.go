package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Upvote counter strategies.
const (
	UpvoteNaive  = "naive"
	UpvoteAtomic = "atomic"
)

// Config holds everything main needs to wire the server. Values come from
// the environment, which godotenv may have populated from a .env file.
type Config struct {
	Port            string
	DatabaseURL     string
	MongoDatabase   string
	CORSOrigin      string
	GinMode         string
	UpvoteStrategy  string
	RateInterval    time.Duration // one write per interval per IP
	RateBurst       int
	ShutdownTimeout time.Duration
}

// Load reads the environment and fills in defaults for anything unset.
func Load() (Config, error) {
	cfg := Config{
		Port:            getenv("PORT", "8080"),
		DatabaseURL:     getenv("DATABASE_URL", "sqlite://questlog.db"),
		MongoDatabase:   getenv("MONGODB_DATABASE", "questlog"),
		CORSOrigin:      getenv("CORS_ORIGIN", "*"),
		GinMode:         getenv("GIN_MODE", "debug"),
		UpvoteStrategy:  strings.ToLower(getenv("UPVOTE_STRATEGY", UpvoteNaive)),
		RateInterval:    3 * time.Second,
		RateBurst:       1,
		ShutdownTimeout: 5 * time.Second,
	}

	if cfg.UpvoteStrategy != UpvoteNaive && cfg.UpvoteStrategy != UpvoteAtomic {
		return cfg, fmt.Errorf("config: UPVOTE_STRATEGY must be %q or %q, got %q", UpvoteNaive, UpvoteAtomic, cfg.UpvoteStrategy)
	}

	var err error
	if cfg.RateInterval, err = durationEnv("RATE_LIMIT_INTERVAL", cfg.RateInterval); err != nil {
		return cfg, err
	}
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return cfg, err
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return cfg, fmt.Errorf("config: RATE_LIMIT_BURST must be a positive integer, got %q", v)
		}
		cfg.RateBurst = n
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback, fmt.Errorf("config: %s must be a positive duration, got %q", key, v)
	}
	return d, nil
}
