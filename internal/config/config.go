package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration, loaded from the environment
// with optional .env support.
type Config struct {
	// Addr is the listen address of the web server.
	Addr string
	// WebhookURL is the default inference webhook. It may be empty; the web
	// page lets the user supply one per request.
	WebhookURL string
	// Backend selects the inference backend: "webhook" or "ollama".
	Backend string
	// OllamaURL and OllamaModel configure the ollama backend.
	OllamaURL   string
	OllamaModel string
	// RequestTimeout bounds one webhook request.
	RequestTimeout time.Duration
	// SendMaxDim caps the long side of the encoded image (0 = original).
	SendMaxDim int
	// JPEGQuality is the transport JPEG quality (1-100).
	JPEGQuality int
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Addr:           getEnv("ADDR", ":8080"),
		WebhookURL:     getEnv("WEBHOOK_URL", ""),
		Backend:        getEnv("BACKEND", "webhook"),
		OllamaURL:      getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:    getEnv("OLLAMA_MODEL", "llava"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		SendMaxDim:     getEnvInt("SEND_MAX_DIM", 0),
		JPEGQuality:    getEnvInt("JPEG_QUALITY", 95),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("JPEG_QUALITY must be between 1 and 100")
	}
	if c.SendMaxDim < 0 {
		return fmt.Errorf("SEND_MAX_DIM must not be negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive")
	}
	switch c.Backend {
	case "webhook", "ollama":
	default:
		return fmt.Errorf("BACKEND must be 'webhook' or 'ollama', got %q", c.Backend)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}
