/**
 * Configuration for the schedule extraction worker.
 *
 * Loaded from environment variables; cmd/worker reads a .env file first.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds worker configuration.
type Config struct {
	// Redis queue configuration
	RedisURL  string
	QueueName string

	// PostgreSQL configuration
	DatabaseURL string

	// Calendar sink (external collaborator; empty disables calendar push)
	CalendarAPIURL string

	// OCR configuration
	OCRLanguages string

	// Worker configuration
	WorkerConcurrency int
	ProcessingTimeout int // milliseconds
	MaxImageSize      int64

	Environment string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		RedisURL:          getEnvOrDefault("REDIS_URL", "redis://localhost:6379"),
		QueueName:         getEnvOrDefault("QUEUE_NAME", "schedule:jobs"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		CalendarAPIURL:    getEnvOrDefault("CALENDAR_API_URL", ""),
		OCRLanguages:      getEnvOrDefault("OCR_LANGUAGES", "eng"),
		WorkerConcurrency: getEnvAsIntOrDefault("WORKER_CONCURRENCY", 10),
		ProcessingTimeout: getEnvAsIntOrDefault("PROCESSING_TIMEOUT", 120000), // 2 minutes
		MaxImageSize:      getEnvAsInt64OrDefault("MAX_IMAGE_SIZE", 33554432), // 32MB
		Environment:       getEnvOrDefault("ENVIRONMENT", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid.
func (c *Config) Validate() error {
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 100 {
		return fmt.Errorf("WORKER_CONCURRENCY must be between 1 and 100, got %d", c.WorkerConcurrency)
	}

	if c.MaxImageSize < 1024 || c.MaxImageSize > 1073741824 { // 1KB to 1GB
		return fmt.Errorf("MAX_IMAGE_SIZE must be between 1KB and 1GB, got %d", c.MaxImageSize)
	}

	if c.ProcessingTimeout < 1000 {
		return fmt.Errorf("PROCESSING_TIMEOUT must be at least 1000ms, got %d", c.ProcessingTimeout)
	}

	return nil
}

// getEnvOrDefault gets an environment variable or returns the default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets an environment variable as int or returns the default.
func getEnvAsIntOrDefault(key string, defaultValue int) int {
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

// getEnvAsInt64OrDefault gets an environment variable as int64 or returns the default.
func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}
