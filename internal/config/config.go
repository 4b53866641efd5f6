package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

const maxFetchBatchSize = 100

// Config holds all service settings, populated from environment variables.
type Config struct {
	FeedBaseURL           string
	FeedTimeout           time.Duration
	FetchBatchSize        int
	FeedCacheSize         int
	FeedCacheTTL          time.Duration
	FeedRequestsPerSecond float64
	RefreshInterval       time.Duration
	StationRegistryPath   string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Snapshot export.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSnapshotTopic string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is read first if present;
// variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	feedTimeout, err := parseDuration("FEED_TIMEOUT", "30s", false)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("FEED_CACHE_TTL", "0s", true)
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parseDuration("REFRESH_INTERVAL", "5m", true)
	if err != nil {
		return nil, err
	}

	batchSize, err := parseInt("FEED_BATCH_SIZE", 5, 1, maxFetchBatchSize)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseInt("FEED_CACHE_SIZE", 0, 0, 1_000_000)
	if err != nil {
		return nil, err
	}

	rps, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("FEED_REQUESTS_PER_SECOND", "0"), 64)
	if err != nil || rps < 0 {
		return nil, errors.New("invalid FEED_REQUESTS_PER_SECOND: must be a non-negative number")
	}

	cfg := &Config{
		FeedBaseURL:           sharedcfg.EnvOrDefault("FEED_BASE_URL", "http://localhost:8000/files/network/data/latest/"),
		FeedTimeout:           feedTimeout,
		FetchBatchSize:        batchSize,
		FeedCacheSize:         cacheSize,
		FeedCacheTTL:          cacheTTL,
		FeedRequestsPerSecond: rps,
		RefreshInterval:       refreshInterval,
		StationRegistryPath:   os.Getenv("STATION_REGISTRY_PATH"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSnapshotTopic: sharedcfg.EnvOrDefault("KAFKA_SNAPSHOT_TOPIC", "station-snapshots"),
	}

	if cfg.FeedBaseURL == "" {
		return nil, errors.New("FEED_BASE_URL is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaSnapshotTopic == "" {
		return nil, errors.New("KAFKA_SNAPSHOT_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		if allowZero {
			return 0, fmt.Errorf("invalid %s: must be a non-negative duration", key)
		}
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseInt(key string, def, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be between %d and %d", key, lo, hi)
	}
	return n, nil
}
