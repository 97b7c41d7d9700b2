package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderStub   = "stub"
)

// Config holds all configuration for the call audit service
type Config struct {
	// Server configuration
	Port           string
	AllowedOrigins []string
	MaxUploadBytes int64
	RateLimit      int

	// Analysis provider
	Provider      string
	GeminiAPIKey  string
	GeminiModel   string
	GeminiTimeout time.Duration

	// Review workstation
	AdvanceDelay time.Duration

	// Audit trail; an empty URL disables publishing
	AMQPURL           string
	AMQPExchange      string
	AMQPRoutingPrefix string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads an optional .env file and then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("Failed to read .env file: %v", err)
	}

	config := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		MaxUploadBytes: int64(getIntEnv("MAX_UPLOAD_BYTES", 50<<20)),
		RateLimit:      getIntEnv("RATE_LIMIT_PER_MINUTE", 30),

		Provider:      strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiTimeout: getDurationEnv("GEMINI_TIMEOUT", 0),

		AdvanceDelay: getDurationEnv("ADVANCE_DELAY", 450*time.Millisecond),

		AMQPURL:           getEnv("AMQP_URL", ""),
		AMQPExchange:      getEnv("AMQP_EXCHANGE", "call-audit"),
		AMQPRoutingPrefix: getEnv("AMQP_ROUTING_PREFIX", "audit"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return config
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	case ProviderStub:
	default:
		return errors.New("LLM_PROVIDER must be gemini or stub")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	if c.RateLimit <= 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
