package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Store  StoreConfig
	Server ServerConfig
	Text   TextConfig
	AI     AIConfig
}

// StoreConfig holds database-related configuration
type StoreConfig struct {
	// DSN is a sqlite path; ":memory:" keeps the session store in process,
	// matching the one-user-session lifetime of the accepted-fingerprint set.
	DSN string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr        string
	UploadDir   string
	MaxUploadMB int64
}

// TextConfig holds text-layer reader configuration
type TextConfig struct {
	Pdftotext string // binary name or absolute path
}

// AIConfig holds remote extraction configuration
type AIConfig struct {
	Provider    string // "openai" or "gemini"
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Store: StoreConfig{
			DSN: getEnv("STORE_DSN", ":memory:"),
		},
		Server: ServerConfig{
			Addr:        getEnv("HTTP_ADDR", ":8080"),
			UploadDir:   getEnv("UPLOAD_DIR", "./uploads"),
			MaxUploadMB: getEnvAsInt64("MAX_UPLOAD_MB", 20),
		},
		Text: TextConfig{
			Pdftotext: getEnv("PDFTOTEXT_BIN", "pdftotext"),
		},
		AI: AIConfig{
			Provider:    getEnv("AI_PROVIDER", "gemini"),
			APIKey:      getEnv("AI_API_KEY", ""),
			BaseURL:     getEnv("AI_BASE_URL", ""),
			Model:       getEnv("AI_MODEL", ""),
			Temperature: getEnvAsFloat32("AI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("AI_TIMEOUT", 45*time.Second),
		},
	}
}

// Validate checks the parts of the configuration that have no workable
// default. The AI key is allowed to be empty: the fallback path then fails
// terminally for low-confidence documents, which is the documented behavior.
func (c *Config) Validate() error {
	if c.Store.DSN == "" {
		return NewAppError("CONFIG_ERROR", "STORE_DSN is required", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
