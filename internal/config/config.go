package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                int
	FeedPort            int // UDP port for decoder feeds
	Password            string
	LogDirectory        string
	DatabasePath        string
	StaticDirectory     string
	ErrorThreshold      float64 // Observations with a higher error score skip validation; must be positive
	StopCount           int     // Minimum count of the leading code before scanning may stop
	Symbology           string
	ResultFlushInterval time.Duration
	ResultBufferLimit   int
	FeedNames           map[string]string // source IP -> feed name
}

// Load reads an optional .env file and builds the configuration from the environment.
func Load() *Config {
	// A missing .env is fine, the environment alone is enough.
	_ = godotenv.Load()

	return &Config{
		Port:                getEnvAsInt("PORT", 8080),
		FeedPort:            getEnvAsInt("FEED_PORT", 9090),
		Password:            getEnv("PASSWORD", "scanner"),
		LogDirectory:        getEnv("LOG_DIR", filepath.Join(".", "logs")),
		DatabasePath:        getEnv("DB_PATH", filepath.Join(".", "data", "sessions.db")),
		StaticDirectory:     getEnv("STATIC_DIR", "static"),
		ErrorThreshold:      getEnvAsPositiveFloat("ERROR_THRESHOLD", 0.25),
		StopCount:           getEnvAsInt("STOP_COUNT", 6),
		Symbology:           getEnv("SYMBOLOGY", "upc"),
		ResultFlushInterval: getEnvAsDuration("RESULT_FLUSH_INTERVAL", 30*time.Second),
		ResultBufferLimit:   getEnvAsInt("RESULT_BUFFER_LIMIT", 20),
		FeedNames:           parseFeedNames(getEnv("FEED_SOURCES", "")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsPositiveFloat falls back to the default for zero or negative values.
func getEnvAsPositiveFloat(key string, defaultValue float64) float64 {
	if v := getEnvAsFloat(key, defaultValue); v > 0 {
		return v
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("45s") or plain seconds ("45").
// Zero and negative durations fall back to the default.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		seconds, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		d = time.Duration(seconds) * time.Second
	}
	if d <= 0 {
		return defaultValue
	}
	return d
}

// parseFeedNames parses "10.0.0.5=till-1,10.0.0.6=till-2".
func parseFeedNames(value string) map[string]string {
	names := make(map[string]string)
	for _, pair := range strings.Split(value, ",") {
		ip, name, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || ip == "" || name == "" {
			continue
		}
		names[strings.TrimSpace(ip)] = strings.TrimSpace(name)
	}
	return names
}
