package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds all configuration for the stats service
type Config struct {
	Database DatabaseConfig
	Telegram TelegramConfig
	Kafka    KafkaConfig
	Cache    CacheConfig
	Scanner  ScannerConfig
	Logging  LoggingConfig
	Service  ServiceConfig
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// TelegramConfig holds Telegram MTProto configuration
type TelegramConfig struct {
	APIID   int
	APIHash string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers          []string
	AttributionTopic string
}

// CacheConfig holds channel statistics cache configuration
type CacheConfig struct {
	FreshnessMaxAge  time.Duration // how long a computed entry stays fresh
	StaleFlagTimeout time.Duration // how long a refresh flag may stay set before the reaper clears it
	ReaperInterval   time.Duration
}

// ScannerConfig holds ad-attribution scanner configuration
type ScannerConfig struct {
	Interval       time.Duration // pause between scan cycles
	ChannelTimeout time.Duration // per-channel budget inside one cycle
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// ServiceConfig holds service configuration
type ServiceConfig struct {
	Name string
	Port string
}

// Result is fx.Out struct for providing config dependencies
type Result struct {
	fx.Out

	Config         *Config
	DatabaseConfig *DatabaseConfig
	TelegramConfig *TelegramConfig
	KafkaConfig    *KafkaConfig
	CacheConfig    *CacheConfig
	ScannerConfig  *ScannerConfig
	LoggingConfig  *LoggingConfig
	ServiceConfig  *ServiceConfig
}

// Out loads config and exposes each section for fx DI
func Out() (Result, error) {
	cfg, err := Load()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Config:         cfg,
		DatabaseConfig: &cfg.Database,
		TelegramConfig: &cfg.Telegram,
		KafkaConfig:    &cfg.Kafka,
		CacheConfig:    &cfg.Cache,
		ScannerConfig:  &cfg.Scanner,
		LoggingConfig:  &cfg.Logging,
		ServiceConfig:  &cfg.Service,
	}, nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	apiID, err := strconv.Atoi(getEnv("TELEGRAM_API_ID", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_API_ID: %w", err)
	}

	freshness, err := time.ParseDuration(getEnv("CACHE_FRESHNESS_MAX_AGE", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_FRESHNESS_MAX_AGE: %w", err)
	}

	staleTimeout, err := time.ParseDuration(getEnv("CACHE_STALE_FLAG_TIMEOUT", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_STALE_FLAG_TIMEOUT: %w", err)
	}

	reaperInterval, err := time.ParseDuration(getEnv("CACHE_REAPER_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_REAPER_INTERVAL: %w", err)
	}

	scanInterval, err := time.ParseDuration(getEnv("SCAN_INTERVAL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCAN_INTERVAL: %w", err)
	}

	channelTimeout, err := time.ParseDuration(getEnv("SCAN_CHANNEL_TIMEOUT", "2m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCAN_CHANNEL_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DATABASE_HOST", "localhost"),
			Port:     getEnv("DATABASE_PORT", "5432"),
			User:     getEnv("DATABASE_USER", "stats_user"),
			Password: getEnv("DATABASE_PASSWORD", "stats_pass"),
			DBName:   getEnv("DATABASE_NAME", "stats_db"),
			SSLMode:  getEnv("DATABASE_SSLMODE", "disable"),
		},
		Telegram: TelegramConfig{
			APIID:   apiID,
			APIHash: getEnv("TELEGRAM_API_HASH", ""),
		},
		Kafka: KafkaConfig{
			Brokers:          strings.Split(getEnv("KAFKA_BROKERS", "localhost:9093"), ","),
			AttributionTopic: getEnv("KAFKA_ATTRIBUTION_TOPIC", "ads.attribution"),
		},
		Cache: CacheConfig{
			FreshnessMaxAge:  freshness,
			StaleFlagTimeout: staleTimeout,
			ReaperInterval:   reaperInterval,
		},
		Scanner: ScannerConfig{
			Interval:       scanInterval,
			ChannelTimeout: channelTimeout,
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Service: ServiceConfig{
			Name: getEnv("SERVICE_NAME", "stats-service"),
			Port: getEnv("SERVICE_PORT", "8085"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.APIID == 0 {
		return fmt.Errorf("TELEGRAM_API_ID is required")
	}

	if c.Telegram.APIHash == "" {
		return fmt.Errorf("TELEGRAM_API_HASH is required")
	}

	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}

	if c.Cache.FreshnessMaxAge <= 0 {
		return fmt.Errorf("CACHE_FRESHNESS_MAX_AGE must be positive")
	}

	if c.Scanner.Interval <= 0 {
		return fmt.Errorf("SCAN_INTERVAL must be positive")
	}

	return nil
}

// GetDSN returns database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
