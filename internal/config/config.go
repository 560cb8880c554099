package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Extractor backends.
const (
	BackendOpenAI    = "openai"
	BackendTesseract = "tesseract"
)

type Config struct {
	Host              string
	Port              string
	RequestTimeout    time.Duration
	ImageFetchTimeout time.Duration
	LogLevel          string

	ExtractorBackend  string
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	OpenAITimeout     time.Duration
	TesseractLanguage string

	GaugeMaxAttempts    int
	OverviewMaxAttempts int
	OverviewMinRecords  int
	RetryDelay          time.Duration
	FailureDelay        time.Duration

	StatusURL    string
	PublishURL   string
	APIToken     string
	PollInterval time.Duration
	Parallelism  int
	WorkbookPath string

	ProfilesPath  string
	SourcesPath   string
	DefaultSystem string
	DebugDir      string

	AzureAccountName      string
	AzureAccountKey       string
	AzureArchiveContainer string

	SettingsURL             string
	CaptureURL              string
	CameraCommand           string
	CaptureFallbackInterval time.Duration
	CapturePollInterval     time.Duration
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether blob credentials are configured
func (c *Config) AzureEnabled() bool {
	return c.AzureAccountName != "" && c.AzureAccountKey != ""
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Host:              getEnvOrDefault("HOST", "0.0.0.0"),
		Port:              getEnvOrDefault("PORT", "8080"),
		RequestTimeout:    parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout: parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),

		ExtractorBackend:  strings.ToLower(getEnvOrDefault("EXTRACTOR_BACKEND", BackendOpenAI)),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:       getEnvOrDefault("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:     getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAITimeout:     parseDurationOrDefault("OPENAI_TIMEOUT", 60*time.Second),
		TesseractLanguage: getEnvOrDefault("TESSERACT_LANGUAGE", "deu+eng"),

		GaugeMaxAttempts:    int(parseIntOrDefault("GAUGE_MAX_ATTEMPTS", 3)),
		OverviewMaxAttempts: int(parseIntOrDefault("OVERVIEW_MAX_ATTEMPTS", 5)),
		OverviewMinRecords:  int(parseIntOrDefault("OVERVIEW_MIN_RECORDS", 15)),
		RetryDelay:          parseDurationOrDefault("RETRY_DELAY", 2*time.Second),
		FailureDelay:        parseDurationOrDefault("FAILURE_DELAY", 3*time.Second),

		StatusURL:    os.Getenv("STATUS_URL"),
		PublishURL:   os.Getenv("PUBLISH_URL"),
		APIToken:     os.Getenv("API_TOKEN"),
		PollInterval: parseDurationOrDefault("POLL_INTERVAL", 2*time.Minute),
		Parallelism:  int(parseIntOrDefault("PARALLELISM", 1)),
		WorkbookPath: os.Getenv("WORKBOOK_PATH"),

		ProfilesPath:  getEnvOrDefault("PROFILES_PATH", "configs/conf.json"),
		SourcesPath:   getEnvOrDefault("SOURCES_PATH", "configs/sources.yaml"),
		DefaultSystem: getEnvOrDefault("DEFAULT_SYSTEM", "1"),
		DebugDir:      os.Getenv("DEBUG_DIR"),

		AzureAccountName:      os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureAccountKey:       os.Getenv("AZURE_STORAGE_KEY"),
		AzureArchiveContainer: os.Getenv("AZURE_ARCHIVE_CONTAINER"),

		SettingsURL:             os.Getenv("CAMERA_SETTINGS_URL"),
		CaptureURL:              os.Getenv("CAMERA_CAPTURE_URL"),
		CameraCommand:           getEnvOrDefault("CAMERA_COMMAND", "libcamera-still"),
		CaptureFallbackInterval: parseDurationOrDefault("CAPTURE_FALLBACK_INTERVAL", 360*time.Second),
		CapturePollInterval:     parseDurationOrDefault("CAPTURE_POLL_INTERVAL", 5*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. Credentials are checked by the components
// that need them.
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.OpenAITimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, openai=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.OpenAITimeout)
	}
	switch c.ExtractorBackend {
	case BackendOpenAI, BackendTesseract:
	default:
		return fmt.Errorf("invalid EXTRACTOR_BACKEND: %q", c.ExtractorBackend)
	}
	if c.GaugeMaxAttempts < 1 || c.OverviewMaxAttempts < 1 {
		return fmt.Errorf("max attempts must be >= 1 (got gauge=%d, overview=%d)", c.GaugeMaxAttempts, c.OverviewMaxAttempts)
	}
	if c.OverviewMinRecords < 1 {
		return fmt.Errorf("OVERVIEW_MIN_RECORDS must be >= 1 (got %d)", c.OverviewMinRecords)
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("PARALLELISM must be >= 1 (got %d)", c.Parallelism)
	}
	if c.PollInterval <= 0 || c.CapturePollInterval <= 0 || c.CaptureFallbackInterval <= 0 {
		return fmt.Errorf("intervals must be > 0")
	}
	if c.APIToken == "" {
		for _, u := range []struct{ name, url string }{
			{"STATUS_URL", c.StatusURL},
			{"PUBLISH_URL", c.PublishURL},
			{"CAMERA_CAPTURE_URL", c.CaptureURL},
		} {
			if u.url != "" {
				return fmt.Errorf("API_TOKEN is required when %s is set", u.name)
			}
		}
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
