package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Environment string `validate:"required,oneof=development production test"`
	Port        string `validate:"required,numeric"`
	Token       string
	BaseURL     string `validate:"required,url"`
	LogLevel    string `validate:"required"`
	Host        HostConfig
	Media       MediaConfig
	Processing  ProcessingConfig
}

// HostConfig describes what the host environment can do. NativeFileAccess is
// the capability flag: it is read once here and injected everywhere else.
type HostConfig struct {
	NativeFileAccess bool
	SnapshotDir      string `validate:"required"`
	UploadDir        string `validate:"required,nefield=SnapshotDir"`
}

type MediaConfig struct {
	FFmpegPath           string
	FFprobePath          string
	ProbeTimeout         time.Duration `validate:"gt=0"`
	SnapshotTimeout      time.Duration `validate:"gt=0"`
	SnapshotMaxDimension int           `validate:"gte=0"`
	ContentRefTTL        time.Duration `validate:"gt=0"`
}

type ProcessingConfig struct {
	Concurrency    int   `validate:"gte=1"`
	MaxUploadBytes int64 `validate:"gt=0"`
}

func Load() *Config {
	return &Config{
		Environment: getEnv("ENV", "development"),
		Port:        getEnv("PORT", "3000"),
		Token:       getEnv("TOKEN", ""),
		BaseURL:     getEnv("BASE_URL", "http://localhost:3000"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Host: HostConfig{
			NativeFileAccess: getEnvBool("NATIVE_FILE_ACCESS", false),
			SnapshotDir:      getEnv("SNAPSHOT_DIR", filepath.Join(os.TempDir(), "file-message-snapshots")),
			UploadDir:        getEnv("UPLOAD_DIR", filepath.Join(os.TempDir(), "file-message-uploads")),
		},
		Media: MediaConfig{
			FFmpegPath:           getEnv("FFMPEG_PATH", ""),
			FFprobePath:          getEnv("FFPROBE_PATH", ""),
			ProbeTimeout:         getEnvDuration("PROBE_TIMEOUT", 15*time.Second),
			SnapshotTimeout:      getEnvDuration("SNAPSHOT_TIMEOUT", 10*time.Second),
			SnapshotMaxDimension: getEnvInt("SNAPSHOT_MAX_DIMENSION", 0),
			ContentRefTTL:        getEnvDuration("CONTENT_REF_TTL", 30*time.Minute),
		},
		Processing: ProcessingConfig{
			Concurrency:    getEnvInt("PROCESSING_CONCURRENCY", 4),
			MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 512<<20)),
		},
	}
}

// Validate checks the loaded values before any service is built from them.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
