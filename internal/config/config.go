package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the consent service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"consent-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"CONSENT_API_PORT" envDefault:"4000"`
	LogLevel        string        `env:"CONSENT_LOG_LEVEL" envDefault:"info"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Storage Backend Selection
	StorageBackend string        `env:"CONSENT_STORAGE_BACKEND" envDefault:"s3"` // Options: "s3" or "local"
	StorageTimeout time.Duration `env:"CONSENT_STORAGE_TIMEOUT" envDefault:"60s"`

	// Local Storage Configuration
	LocalStoragePath    string `env:"CONSENT_LOCAL_STORAGE_PATH"`
	LocalStorageBaseURL string `env:"CONSENT_LOCAL_STORAGE_BASE_URL"`

	// S3 Storage Configuration
	S3Endpoint       string `env:"CONSENT_S3_ENDPOINT"`
	S3PublicEndpoint string `env:"CONSENT_S3_PUBLIC_ENDPOINT"`
	S3Region         string `env:"CONSENT_S3_REGION" envDefault:"ap-south-1"`
	S3Bucket         string `env:"CONSENT_S3_BUCKET"`
	S3AccessKeyID    string `env:"CONSENT_S3_ACCESS_KEY_ID"`
	S3SecretKey      string `env:"CONSENT_S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle   bool   `env:"CONSENT_S3_USE_PATH_STYLE" envDefault:"false"`

	// Recording Configuration
	RecordingPrefix   string `env:"CONSENT_RECORDING_PREFIX" envDefault:"recordings"`
	DefaultCampaign   string `env:"CONSENT_DEFAULT_CAMPAIGN" envDefault:"N/A"`
	MaxRecordingBytes int64  `env:"CONSENT_MAX_BYTES" envDefault:"104857600"`

	// Ledger Configuration
	LedgerKey       string `env:"CONSENT_LEDGER_KEY" envDefault:"ledger/recordings.xlsx"`
	LedgerQueueSize int    `env:"CONSENT_LEDGER_QUEUE_SIZE" envDefault:"64"`

	// Capture Configuration
	CaptureDuration   time.Duration `env:"CONSENT_CAPTURE_DURATION" envDefault:"30s"`
	MaxActiveSessions int           `env:"CONSENT_MAX_ACTIVE_SESSIONS" envDefault:"32"`
	SessionRetention  time.Duration `env:"CONSENT_SESSION_RETENTION" envDefault:"10m"`
	DefaultLanguage   string        `env:"CONSENT_DEFAULT_LANGUAGE" envDefault:"en"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.S3Bucket = strings.TrimSpace(c.S3Bucket)
	c.S3AccessKeyID = strings.TrimSpace(c.S3AccessKeyID)
	c.S3SecretKey = strings.TrimSpace(c.S3SecretKey)
	c.S3Endpoint = strings.TrimSpace(c.S3Endpoint)
	c.S3PublicEndpoint = strings.TrimSpace(c.S3PublicEndpoint)
	c.RecordingPrefix = strings.Trim(strings.TrimSpace(c.RecordingPrefix), "/")
	c.LedgerKey = strings.TrimPrefix(strings.TrimSpace(c.LedgerKey), "/")
	c.DefaultCampaign = strings.TrimSpace(c.DefaultCampaign)

	if c.MaxRecordingBytes <= 0 {
		c.MaxRecordingBytes = 100 * 1024 * 1024
	}
	if c.CaptureDuration <= 0 {
		c.CaptureDuration = 30 * time.Second
	}
	if c.MaxActiveSessions <= 0 {
		c.MaxActiveSessions = 1
	}
	if c.LedgerQueueSize <= 0 {
		c.LedgerQueueSize = 1
	}
	if c.DefaultCampaign == "" {
		c.DefaultCampaign = "N/A"
	}
	if c.LedgerKey == "" {
		return fmt.Errorf("CONSENT_LEDGER_KEY must not be empty")
	}
	if !c.IsLocalStorage() && !c.IsS3Storage() {
		return fmt.Errorf("unknown CONSENT_STORAGE_BACKEND %q (expected s3 or local)", c.StorageBackend)
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// IsLocalStorage returns true if local storage backend is configured.
func (c *Config) IsLocalStorage() bool {
	return strings.ToLower(strings.TrimSpace(c.StorageBackend)) == "local"
}

// IsS3Storage returns true if S3 storage backend is configured.
func (c *Config) IsS3Storage() bool {
	backend := strings.ToLower(strings.TrimSpace(c.StorageBackend))
	return backend == "" || backend == "s3"
}
