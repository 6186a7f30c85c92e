package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	DefaultMaxUsersPerDocument = 50
	DefaultMaxDocumentSize     = 10 * 1024 * 1024 // 10 MiB
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port string
	Host string

	// CORS origin for the REST surface; "*" by default.
	CORSOrigin string

	// Optional; when set, connection stats are published to this redis.
	RedisAddr string

	MaxUsersPerDocument    int
	MaxDocumentSize        int
	EnableTypingIndicators bool
	EnableCursorSharing    bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:       getEnvOrDefault("PORT", "3000"),
		Host:       getEnvOrDefault("HOST", ""),
		CORSOrigin: getEnvOrDefault("CORS_ORIGIN", "*"),
		RedisAddr:  os.Getenv("REDIS_ADDR"),
	}

	var err error
	if cfg.MaxUsersPerDocument, err = getEnvInt("MAX_USERS_PER_DOCUMENT", DefaultMaxUsersPerDocument); err != nil {
		return nil, err
	}
	if cfg.MaxDocumentSize, err = getEnvInt("MAX_DOCUMENT_SIZE", DefaultMaxDocumentSize); err != nil {
		return nil, err
	}
	if cfg.EnableTypingIndicators, err = getEnvBool("ENABLE_TYPING_INDICATORS", true); err != nil {
		return nil, err
	}
	if cfg.EnableCursorSharing, err = getEnvBool("ENABLE_CURSOR_SHARING", true); err != nil {
		return nil, err
	}

	if cfg.MaxUsersPerDocument < 1 {
		return nil, fmt.Errorf("MAX_USERS_PER_DOCUMENT must be positive, got %d", cfg.MaxUsersPerDocument)
	}
	if cfg.MaxDocumentSize < 1 {
		return nil, fmt.Errorf("MAX_DOCUMENT_SIZE must be positive, got %d", cfg.MaxDocumentSize)
	}
	return cfg, nil
}

// Default returns the built-in configuration, used by tests.
func Default() *Config {
	return &Config{
		Port:                   "3000",
		CORSOrigin:             "*",
		MaxUsersPerDocument:    DefaultMaxUsersPerDocument,
		MaxDocumentSize:        DefaultMaxDocumentSize,
		EnableTypingIndicators: true,
		EnableCursorSharing:    true,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
