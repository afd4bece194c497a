package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TELEGRAM_API_ID", "12345")
	t.Setenv("TELEGRAM_API_HASH", "abc123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, []string{"localhost:9093"}, cfg.Kafka.Brokers)
	assert.Equal(t, "ads.attribution", cfg.Kafka.AttributionTopic)
	assert.Equal(t, time.Hour, cfg.Cache.FreshnessMaxAge)
	assert.Equal(t, 10*time.Minute, cfg.Cache.StaleFlagTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Cache.ReaperInterval)
	assert.Equal(t, 10*time.Minute, cfg.Scanner.Interval)
	assert.Equal(t, 2*time.Minute, cfg.Scanner.ChannelTimeout)
	assert.Equal(t, "stats-service", cfg.Service.Name)
	assert.Equal(t, "8085", cfg.Service.Port)
}

func TestLoad_MissingTelegramCredentials(t *testing.T) {
	t.Setenv("TELEGRAM_API_ID", "0")
	t.Setenv("TELEGRAM_API_HASH", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("TELEGRAM_API_ID", "12345")
	t.Setenv("TELEGRAM_API_HASH", "abc123")
	t.Setenv("CACHE_FRESHNESS_MAX_AGE", "not-a-duration")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db",
		Port:     "5433",
		User:     "u",
		Password: "p",
		DBName:   "stats",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=db port=5433 user=u password=p dbname=stats sslmode=disable",
		cfg.GetDSN(),
	)
}
