package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/schedule")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, "schedule:jobs", cfg.QueueName)
	assert.Equal(t, "eng", cfg.OCRLanguages)
	assert.Equal(t, 10, cfg.WorkerConcurrency)
	assert.Equal(t, 120000, cfg.ProcessingTimeout)
	assert.Equal(t, int64(33554432), cfg.MaxImageSize)
	assert.Empty(t, cfg.CalendarAPIURL)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/schedule")
	t.Setenv("REDIS_URL", "redis://cache:6380")
	t.Setenv("QUEUE_NAME", "shifts")
	t.Setenv("WORKER_CONCURRENCY", "4")
	t.Setenv("CALENDAR_API_URL", "http://calendar:8080")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "redis://cache:6380", cfg.RedisURL)
	assert.Equal(t, "shifts", cfg.QueueName)
	assert.Equal(t, 4, cfg.WorkerConcurrency)
	assert.Equal(t, "http://calendar:8080", cfg.CalendarAPIURL)
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigIgnoresMalformedInt(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/schedule")
	t.Setenv("WORKER_CONCURRENCY", "lots")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.WorkerConcurrency)
}

func TestValidateBounds(t *testing.T) {
	base := func() *Config {
		return &Config{
			RedisURL:          "redis://localhost:6379",
			DatabaseURL:       "postgres://localhost/schedule",
			WorkerConcurrency: 10,
			ProcessingTimeout: 120000,
			MaxImageSize:      33554432,
		}
	}

	assert.NoError(t, base().Validate())

	c := base()
	c.WorkerConcurrency = 0
	assert.Error(t, c.Validate())

	c = base()
	c.WorkerConcurrency = 101
	assert.Error(t, c.Validate())

	c = base()
	c.MaxImageSize = 512
	assert.Error(t, c.Validate())

	c = base()
	c.ProcessingTimeout = 500
	assert.Error(t, c.Validate())
}
