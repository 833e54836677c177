// Package config centralises configuration parsing for the exercise tracker.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures runtime configuration values for the exercise tracker.
type Config struct {
	HTTPAddress        string
	StorageURL         string // postgres://, mongodb:// or memory://
	MongoDatabase      string
	KafkaBrokers       []string // empty disables event publishing
	EventsTopic        string
	CORSAllowedOrigins []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
	LogLevel           string
}

// Load reads an optional .env file and then environment variables into Config.
// Variables already set in the environment win over .env entries.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads environment variables into Config, applying defaults for local dev.
func FromEnv() Config {
	port := getEnv("PORT", "3000")
	return Config{
		HTTPAddress:        getEnv("HTTP_ADDRESS", ":"+port),
		StorageURL:         getEnv("STORAGE_URL", getEnv("MONGO_URI", "memory://")),
		MongoDatabase:      getEnv("MONGO_DATABASE", "exercisetracker"),
		KafkaBrokers:       splitAndTrim(getEnv("KAFKA_BROKERS", "")),
		EventsTopic:        getEnv("EVENTS_TOPIC", "exercise_events"),
		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ReadTimeout:        getDurationEnv("HTTP_READ_TIMEOUT", 5*time.Second),
		WriteTimeout:       getDurationEnv("HTTP_WRITE_TIMEOUT", 10*time.Second),
		IdleTimeout:        getDurationEnv("HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:    getDurationEnv("SHUTDOWN_TIMEOUT", 15*time.Second),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}
