package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"

	"github.com/FACorreiaa/coverage-reports/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Samples       SamplesConfig
	Storage       storage.Config
	Import        ImportConfig
	Observability ObservabilityConfig
	Logging       LoggingConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	BaseURL            string
	RateLimitPerSecond int
	RateLimitBurst     int
	CORSOrigins        []string
	MaxUploadBytes     int64
}

// SamplesConfig locates the bundled sample files behind the csv and json
// presets.
type SamplesConfig struct {
	CSVName  string
	JSONName string
	// BaseURL overrides Server.BaseURL for preset URLs, e.g. an s3:// bucket.
	BaseURL string
}

type ImportConfig struct {
	MaxBytes        int64
	RefreshSchedule string
	DefaultSource   string
	Currency        string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	TracingEnabled bool
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 20),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 40),
			CORSOrigins:        getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
			MaxUploadBytes:     getEnvAsInt64("SERVER_MAX_UPLOAD_BYTES", 10<<20),
		},
		Samples: SamplesConfig{
			CSVName:  getEnv("SAMPLES_CSV_NAME", "services.csv"),
			JSONName: getEnv("SAMPLES_JSON_NAME", "services.json"),
			BaseURL:  getEnv("SAMPLES_BASE_URL", ""),
		},
		Storage: storage.Config{
			Type:              storage.StorageType(getEnv("STORAGE_TYPE", string(storage.StorageTypeLocal))),
			LocalPath:         getEnv("STORAGE_LOCAL_PATH", "./data"),
			S3Bucket:          getEnv("STORAGE_S3_BUCKET", ""),
			S3Region:          getEnv("STORAGE_S3_REGION", ""),
			S3AccessKeyID:     getEnv("STORAGE_S3_ACCESS_KEY_ID", ""),
			S3SecretAccessKey: getEnv("STORAGE_S3_SECRET_ACCESS_KEY", ""),
			S3Endpoint:        getEnv("STORAGE_S3_ENDPOINT", ""),
		},
		Import: ImportConfig{
			MaxBytes:        getEnvAsInt64("IMPORT_MAX_BYTES", 32<<20),
			RefreshSchedule: getEnv("IMPORT_REFRESH_SCHEDULE", ""),
			DefaultSource:   getEnv("IMPORT_DEFAULT_SOURCE", "csv"),
			Currency:        getEnv("REPORT_CURRENCY", "ARS"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			TracingEnabled: getEnvAsBool("TRACING_ENABLED", false),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the application cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT out of range: %d", c.Server.Port)
	}
	if c.Server.RateLimitPerSecond < 0 || c.Server.RateLimitBurst < 0 {
		return errors.New("rate limits must not be negative")
	}
	switch c.Storage.Type {
	case storage.StorageTypeLocal:
	case storage.StorageTypeS3:
		if c.Storage.S3Bucket == "" || c.Storage.S3Region == "" {
			return errors.New("STORAGE_S3_BUCKET and STORAGE_S3_REGION are required for s3 storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE_TYPE %q", c.Storage.Type)
	}
	switch strings.ToLower(c.Import.DefaultSource) {
	case "csv", "json", "none":
	default:
		return fmt.Errorf("IMPORT_DEFAULT_SOURCE must be csv, json or none, got %q", c.Import.DefaultSource)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Logging.Format)
	}
	return nil
}

// Addr returns host:port for the HTTP listener.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// PresetBaseURL is where the csv and json presets are fetched from.
func (c *Config) PresetBaseURL() string {
	if c.Samples.BaseURL != "" {
		return c.Samples.BaseURL
	}
	return c.Server.BaseURL
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
