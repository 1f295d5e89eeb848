package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Dataset partitions.
	DataDir          string
	PartitionCount   int
	PartitionPattern string
	LoadWorkers      int
	ViewCacheSize    int

	// Pre-built artifacts.
	MapHTMLPath string
	ModelDir    string

	// Optional publishing of normalized records.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool
	BatchSize    int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	partitionCount, err := parsePositiveInt("PARTITION_COUNT", 13)
	if err != nil {
		return nil, err
	}
	loadWorkers, err := parsePositiveInt("LOAD_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	viewCacheSize, err := parsePositiveInt("VIEW_CACHE_SIZE", 64)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if raw := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataDir:          sharedcfg.EnvOrDefault("DATA_DIR", "data"),
		PartitionCount:   partitionCount,
		PartitionPattern: sharedcfg.EnvOrDefault("PARTITION_PATTERN", "crash_data_%d.csv"),
		LoadWorkers:      loadWorkers,
		ViewCacheSize:    viewCacheSize,

		MapHTMLPath: sharedcfg.EnvOrDefault("MAP_HTML_PATH", "chicago_map.html"),
		ModelDir:    sharedcfg.EnvOrDefault("MODEL_DIR", "models"),

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "normalized-crash-records"),
		KafkaEnabled: kafkaEnabled,
		BatchSize:    batchSize,
	}

	if strings.Count(cfg.PartitionPattern, "%d") != 1 {
		return nil, errors.New("PARTITION_PATTERN must contain exactly one %d")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when publishing is enabled")
	}

	return cfg, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer, got %q", key, s)
	}
	return n, nil
}
