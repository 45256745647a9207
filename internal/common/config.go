package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	OCR     OCRConfig
	Jobs    JobsConfig
	Archive ArchiveConfig
	Log     LogConfig
}

// ServerConfig holds transport-related configuration
type ServerConfig struct {
	HTTPAddr       string
	GRPCHealthAddr string
	BaseURL        string
}

// StorageConfig selects and configures the blob store backend
type StorageConfig struct {
	Backend      string // "local" | "gcs"
	LocalPath    string
	GCSProjectID string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Engine      string // "gosseract" | "cli"
	Binary      string
	Languages   []string
	TessdataDir string
}

// JobsConfig holds job engine tuning
type JobsConfig struct {
	SweepInterval  time.Duration
	Retention      time.Duration
	MaxConcurrency int64
}

// ArchiveConfig configures the optional terminal-job archive
type ArchiveConfig struct {
	Driver string // "none" | "sqlite" | "postgres"
	DSN    string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level slog.Level
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	httpAddr := getEnv("HTTP_ADDR", ":3333")
	return &Config{
		Server: ServerConfig{
			HTTPAddr:       httpAddr,
			GRPCHealthAddr: getEnvAllowEmpty("GRPC_HEALTH_ADDR", ":3334"),
			BaseURL:        getEnv("BASE_URL", "http://localhost"+httpAddr),
		},
		Storage: StorageConfig{
			Backend:      strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
			LocalPath:    getEnv("LOCAL_STORAGE_PATH", "/tmp"),
			GCSProjectID: getEnv("GCS_PROJECT_ID", ""),
		},
		OCR: OCRConfig{
			Engine:      strings.ToLower(getEnv("OCR_ENGINE", "gosseract")),
			Binary:      getEnv("TESSERACT_BINARY", "tesseract"),
			Languages:   strings.Split(getEnv("OCR_LANGUAGES", "chi_sim+eng"), "+"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
		},
		Jobs: JobsConfig{
			SweepInterval:  getEnvAsDuration("JOB_SWEEP_INTERVAL", time.Hour),
			Retention:      getEnvAsDuration("JOB_RETENTION", 24*time.Hour),
			MaxConcurrency: int64(getEnvAsInt("JOB_MAX_CONCURRENCY", 4)),
		},
		Archive: ArchiveConfig{
			Driver: strings.ToLower(getEnv("ARCHIVE_DRIVER", "none")),
			DSN:    getEnv("ARCHIVE_DSN", ""),
		},
		Log: LogConfig{
			Level: getEnvAsLevel("LOG_LEVEL", slog.LevelInfo),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty treats an explicitly empty variable as a value (used to disable listeners).
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
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

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	if value := os.Getenv(key); value != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(value)); err == nil {
			return lvl
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return NewAppError(CodeConfig, "HTTP_ADDR is required", ErrBadRequest)
	}
	switch c.Storage.Backend {
	case "local":
		if c.Storage.LocalPath == "" {
			return NewAppError(CodeConfig, "LOCAL_STORAGE_PATH is required for the local backend", ErrBadRequest)
		}
	case "gcs":
	default:
		return NewAppError(CodeConfig, "STORAGE_BACKEND must be local or gcs", ErrBadRequest)
	}
	if c.OCR.Engine != "gosseract" && c.OCR.Engine != "cli" {
		return NewAppError(CodeConfig, "OCR_ENGINE must be gosseract or cli", ErrBadRequest)
	}
	if len(c.OCR.Languages) == 0 || c.OCR.Languages[0] == "" {
		return NewAppError(CodeConfig, "OCR_LANGUAGES must name at least one model", ErrBadRequest)
	}
	if c.Jobs.SweepInterval <= 0 || c.Jobs.Retention <= 0 {
		return NewAppError(CodeConfig, "JOB_SWEEP_INTERVAL and JOB_RETENTION must be positive", ErrBadRequest)
	}
	if c.Jobs.MaxConcurrency <= 0 {
		return NewAppError(CodeConfig, "JOB_MAX_CONCURRENCY must be positive", ErrBadRequest)
	}
	switch c.Archive.Driver {
	case "none":
	case "sqlite", "postgres":
		if c.Archive.DSN == "" {
			return NewAppError(CodeConfig, "ARCHIVE_DSN is required when ARCHIVE_DRIVER is set", ErrBadRequest)
		}
	default:
		return NewAppError(CodeConfig, "ARCHIVE_DRIVER must be none, sqlite or postgres", ErrBadRequest)
	}
	return nil
}
