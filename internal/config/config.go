package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Result store backends
const (
	ResultStoreMemory = "memory"
	ResultStoreSQLite = "sqlite"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64

	// Scoring
	MaxTextLength        int
	MaxDecodedImageBytes int64
	DefaultStride        int
	WorkerCount          int

	// Result history
	ResultStore  string
	SQLitePath   string
	HistoryLimit int

	// OCR
	OCREnabled  bool
	OCRLanguage string

	// Image sources
	AllowedImageHosts   []string
	AzureStorageAccount string
	AzureStorageKey     string

	LogLevel string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether blob credentials were supplied
func (c *Config) AzureEnabled() bool {
	return c.AzureStorageAccount != "" && c.AzureStorageKey != ""
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 20*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB

		MaxTextLength:        int(parseIntOrDefault("MAX_TEXT_LENGTH", 10000)),
		MaxDecodedImageBytes: parseIntOrDefault("MAX_DECODED_IMAGE_BYTES", 128*1024*1024), // 128MB of RGBA
		DefaultStride:        int(parseIntOrDefault("DEFAULT_STRIDE", 4)),
		WorkerCount:          int(parseIntOrDefault("WORKER_COUNT", 0)), // 0 = CPU count

		ResultStore:  strings.ToLower(getEnvOrDefault("RESULT_STORE", ResultStoreMemory)),
		SQLitePath:   getEnvOrDefault("SQLITE_PATH", "emotion_results.db"),
		HistoryLimit: int(parseIntOrDefault("HISTORY_LIMIT", 1000)),

		OCREnabled:  parseBoolOrDefault("OCR_ENABLED", false),
		OCRLanguage: getEnvOrDefault("OCR_LANGUAGE", "eng"),

		AllowedImageHosts:   parseListOrDefault("ALLOWED_IMAGE_HOSTS"),
		AzureStorageAccount: os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:     os.Getenv("AZURE_STORAGE_KEY"),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and combinations of settings
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.AnalysisTimeout)
	}
	if c.MaxTextLength <= 0 {
		return fmt.Errorf("MAX_TEXT_LENGTH must be > 0 (got %d)", c.MaxTextLength)
	}
	if c.MaxDecodedImageBytes <= 0 {
		return fmt.Errorf("MAX_DECODED_IMAGE_BYTES must be > 0 (got %d)", c.MaxDecodedImageBytes)
	}
	if c.DefaultStride <= 0 {
		return fmt.Errorf("DEFAULT_STRIDE must be > 0 (got %d)", c.DefaultStride)
	}
	if c.WorkerCount < 0 {
		return fmt.Errorf("WORKER_COUNT must be >= 0 (got %d)", c.WorkerCount)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("HISTORY_LIMIT must be >= 0 (got %d)", c.HistoryLimit)
	}
	switch c.ResultStore {
	case ResultStoreMemory:
	case ResultStoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required when RESULT_STORE=sqlite")
		}
	default:
		return fmt.Errorf("RESULT_STORE must be %q or %q (got %q)", ResultStoreMemory, ResultStoreSQLite, c.ResultStore)
	}
	if (c.AzureStorageAccount == "") != (c.AzureStorageKey == "") {
		return fmt.Errorf("AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY must be set together")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseListOrDefault(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	return out
}
