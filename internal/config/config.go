package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Storage
	StorageDir     string `envconfig:"STORAGE_DIR" default:"./data"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"524288000"`

	// Detection
	DetectorType string `envconfig:"DETECTOR_TYPE" default:"pigo"`
	CascadePath  string `envconfig:"CASCADE_PATH" default:"./models/facefinder"`
	DeepFaceURL  string `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	AWSRegion    string `envconfig:"AWS_REGION" default:"us-east-1"`

	// Codec
	FFmpegPath  string `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	FFprobePath string `envconfig:"FFPROBE_PATH" default:"ffprobe"`

	// Processing
	PreviewMaxWidth int `envconfig:"PREVIEW_MAX_WIDTH" default:"640"`

	// Retention
	RetentionTTL  time.Duration `envconfig:"RETENTION_TTL" default:"24h"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"1h"`

	// Webhooks
	WebhookSecret string `envconfig:"WEBHOOK_SECRET" default:""`

	// Security
	AdminToken string `envconfig:"ADMIN_TOKEN" required:"true"`

	// Rate limiting
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"30"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
