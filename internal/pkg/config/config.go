package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"video-processor/pkg/constants"
)

type Config struct {
	Server    ServerConfig
	Queue     QueueConfig
	Storage   StorageConfig
	Transcode TranscodeConfig
	Database  DatabaseConfig
	Hooks     HookConfig
	Poster    PosterConfig
	Mirror    MirrorConfig
	Log       LogConfig
	Auth      AuthConfig
	Presets   Presets
}

type ServerConfig struct {
	Port      string
	Host      string
	APIPrefix string
}

type QueueConfig struct {
	Name              string
	RedisURL          string
	Concurrency       int
	CompletedTTL      time.Duration
	Lease             time.Duration
	MaxAttempts       int
	WorkerMetricsAddr string
}

type StorageConfig struct {
	StaticDir  string // STATIC_DIR override, may be empty
	UploadsDir string // PAYLOAD_UPLOADS_DIR override, may be empty
	MediaDir   string // configured static dir of the default collection
}

type TranscodeConfig struct {
	FFmpegBin  string
	FFprobeBin string
	DefaultCRF int
}

type DatabaseConfig struct {
	DSN         string
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	AutoMigrate bool
}

type HookConfig struct {
	AutoEnqueue         bool
	AutoEnqueuePreset   string
	AutoReplaceOriginal bool
}

type PosterConfig struct {
	Enabled bool
	Width   int
}

type MirrorConfig struct {
	Bucket string
	Region string
}

type LogConfig struct {
	Level  string
	Format string
}

type AuthConfig struct {
	APIToken string
}

// LoadConfig reads the process environment. Presets come from PRESETS_FILE
// when it exists, otherwise the built-in set is used.
func LoadConfig() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:      getEnv("SERVER_PORT", "3000"),
			Host:      getEnv("SERVER_HOST", "0.0.0.0"),
			APIPrefix: getEnv("API_PREFIX", "/api"),
		},
		Queue: QueueConfig{
			Name:              getEnv("QUEUE_NAME", constants.DefaultQueueName),
			RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
			Concurrency:       getEnvAsInt("WORKER_CONCURRENCY", 1),
			CompletedTTL:      time.Duration(getEnvAsInt64("JOB_COMPLETED_TTL_SECONDS", constants.DefaultCompletedJobTTL)) * time.Second,
			Lease:             time.Duration(getEnvAsInt64("JOB_LEASE_SECONDS", 900)) * time.Second,
			MaxAttempts:       getEnvAsInt("JOB_MAX_ATTEMPTS", 3),
			WorkerMetricsAddr: os.Getenv("WORKER_METRICS_ADDR"),
		},
		Storage: StorageConfig{
			StaticDir:  strings.TrimSpace(os.Getenv("STATIC_DIR")),
			UploadsDir: strings.TrimSpace(os.Getenv("PAYLOAD_UPLOADS_DIR")),
			MediaDir:   getEnv("UPLOAD_DIR", "uploads"),
		},
		Transcode: TranscodeConfig{
			FFmpegBin:  getEnv("FFMPEG_BIN", "ffmpeg"),
			FFprobeBin: getEnv("FFPROBE_BIN", "ffprobe"),
			DefaultCRF: getEnvAsInt("DEFAULT_CRF", constants.DefaultCRF),
		},
		Database: DatabaseConfig{
			DSN:         os.Getenv("DB_DSN"),
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", ""),
			DBName:      getEnv("DB_NAME", "video_processor"),
			AutoMigrate: getEnvAsBool("RUN_AUTO_MIGRATION", false),
		},
		Hooks: HookConfig{
			AutoEnqueue:         getEnvAsBool("AUTO_ENQUEUE", false),
			AutoEnqueuePreset:   strings.TrimSpace(os.Getenv("AUTO_ENQUEUE_PRESET")),
			AutoReplaceOriginal: getEnvAsBool("AUTO_REPLACE_ORIGINAL", false),
		},
		Poster: PosterConfig{
			Enabled: getEnvAsBool("POSTER_ENABLED", false),
			Width:   getEnvAsInt("POSTER_WIDTH", 640),
		},
		Mirror: MirrorConfig{
			Bucket: os.Getenv("S3_BUCKET"),
			Region: getEnv("S3_REGION", "eu-central-1"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIToken: os.Getenv("API_TOKEN"),
		},
	}
	if _, set := os.LookupEnv("WORKER_METRICS_ADDR"); !set {
		config.Queue.WorkerMetricsAddr = ":9102"
	}
	if config.Queue.Concurrency < 1 {
		config.Queue.Concurrency = 1
	}
	if config.Queue.MaxAttempts < 1 {
		config.Queue.MaxAttempts = 1
	}

	if !filepath.IsAbs(config.Storage.MediaDir) {
		root, err := findProjectRoot()
		if err != nil {
			return nil, err
		}
		config.Storage.MediaDir = filepath.Join(root, config.Storage.MediaDir)
	}
	if err := os.MkdirAll(config.Storage.MediaDir, 0755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}

	presets, err := LoadPresets(getEnv("PRESETS_FILE", "presets.yaml"))
	if err != nil {
		return nil, err
	}
	config.Presets = presets

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.Hooks.AutoEnqueue {
		if c.Hooks.AutoEnqueuePreset == "" {
			return fmt.Errorf("AUTO_ENQUEUE_PRESET is required when AUTO_ENQUEUE is enabled")
		}
		if _, ok := c.Presets[c.Hooks.AutoEnqueuePreset]; !ok {
			return fmt.Errorf("AUTO_ENQUEUE_PRESET %q is not a configured preset", c.Hooks.AutoEnqueuePreset)
		}
	}
	if c.Transcode.DefaultCRF < 0 {
		return fmt.Errorf("DEFAULT_CRF must not be negative")
	}
	return nil
}

// PostgresDSN prefers DB_DSN and otherwise assembles one from the DB_* keys.
func (d DatabaseConfig) PostgresDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.DBName)
}

func findProjectRoot() (string, error) {
	current, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(current, "go.mod")); err == nil {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return os.Getwd()
		}
		current = parent
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
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
