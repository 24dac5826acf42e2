package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "ERROR_THRESHOLD", "STOP_COUNT", "SYMBOLOGY", "RESULT_FLUSH_INTERVAL", "FEED_SOURCES"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Port)
	}
	if cfg.ErrorThreshold != 0.25 {
		t.Errorf("Expected error threshold 0.25, got %v", cfg.ErrorThreshold)
	}
	if cfg.StopCount != 6 {
		t.Errorf("Expected stop count 6, got %d", cfg.StopCount)
	}
	if cfg.Symbology != "upc" {
		t.Errorf("Expected symbology upc, got %s", cfg.Symbology)
	}
	if cfg.ResultFlushInterval != 30*time.Second {
		t.Errorf("Expected 30s flush interval, got %v", cfg.ResultFlushInterval)
	}
	if len(cfg.FeedNames) != 0 {
		t.Errorf("Expected no feed names, got %v", cfg.FeedNames)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ERROR_THRESHOLD", "0.4")
	t.Setenv("STOP_COUNT", "not-a-number")
	t.Setenv("RESULT_FLUSH_INTERVAL", "5")
	t.Setenv("FEED_SOURCES", "10.0.0.5=till-1, 10.0.0.6 = till-2,broken")

	cfg := Load()

	if cfg.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.Port)
	}
	if cfg.ErrorThreshold != 0.4 {
		t.Errorf("Expected error threshold 0.4, got %v", cfg.ErrorThreshold)
	}
	if cfg.StopCount != 6 {
		t.Errorf("Invalid STOP_COUNT should fall back to 6, got %d", cfg.StopCount)
	}
	if cfg.ResultFlushInterval != 5*time.Second {
		t.Errorf("Expected 5s flush interval, got %v", cfg.ResultFlushInterval)
	}
	if cfg.FeedNames["10.0.0.5"] != "till-1" || cfg.FeedNames["10.0.0.6"] != "till-2" {
		t.Errorf("Unexpected feed names: %v", cfg.FeedNames)
	}
	if len(cfg.FeedNames) != 2 {
		t.Errorf("Expected 2 feed names, got %d", len(cfg.FeedNames))
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		value    string
		expected time.Duration
	}{
		{"", time.Minute},
		{"45s", 45 * time.Second},
		{"2m", 2 * time.Minute},
		{"10", 10 * time.Second},
		{"soon", time.Minute},
		{"0", time.Minute},
		{"0s", time.Minute},
		{"-5s", time.Minute},
	}

	for _, tt := range tests {
		t.Setenv("TEST_DURATION", tt.value)
		if got := getEnvAsDuration("TEST_DURATION", time.Minute); got != tt.expected {
			t.Errorf("getEnvAsDuration(%q) = %v, expected %v", tt.value, got, tt.expected)
		}
	}
}

func TestLoad_NonPositiveValuesUseDefaults(t *testing.T) {
	t.Setenv("ERROR_THRESHOLD", "0")
	t.Setenv("RESULT_FLUSH_INTERVAL", "-1")

	cfg := Load()
	if cfg.ErrorThreshold != 0.25 {
		t.Errorf("Expected default error threshold, got %v", cfg.ErrorThreshold)
	}
	if cfg.ResultFlushInterval != 30*time.Second {
		t.Errorf("Expected default flush interval, got %v", cfg.ResultFlushInterval)
	}

	t.Setenv("ERROR_THRESHOLD", "-0.5")
	if cfg := Load(); cfg.ErrorThreshold != 0.25 {
		t.Errorf("Expected default error threshold for negative value, got %v", cfg.ErrorThreshold)
	}
}
