package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

const (
	MediaBackendCloudinary = "cloudinary"
	MediaBackendS3         = "s3"
)

// Config captures the runtime configuration of the testimonial service.
// Media host and metadata store credentials are optional at startup; a call
// that needs a missing value fails when it is made.
type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	LogFile   string `env:"LOG_FILE"`

	MediaBackend      string `env:"MEDIA_BACKEND" envDefault:"cloudinary"`
	CloudinaryCloud   string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryPreset  string `env:"CLOUDINARY_UPLOAD_PRESET"`
	CloudinaryBaseURL string `env:"CLOUDINARY_API_URL" envDefault:"https://api.cloudinary.com"`
	MediaFolder       string `env:"MEDIA_FOLDER" envDefault:"mct_uploads"`

	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3PublicURL string `env:"S3_PUBLIC_URL"`
	S3Bucket    string `env:"S3_BUCKET" envDefault:"testimonials"`
	S3Region    string `env:"S3_REGION" envDefault:"eu-central-1"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`

	DatabaseURL     string `env:"DATABASE_URL"`
	SupabaseURL     string `env:"SUPABASE_URL"`
	SupabaseAnonKey string `env:"SUPABASE_ANON_KEY"`

	SpoolDir        string        `env:"SPOOL_DIR"`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	DisplayTimezone string        `env:"DISPLAY_TIMEZONE" envDefault:"Asia/Kolkata"`
	GeoIPDatabase   string        `env:"GEOIP_DB"`

	SlackWebhookURL string `env:"SLACK_WEBHOOK_URL"`
	WebhookURL      string `env:"WEBHOOK_URL"`
	WebhookSecret   string `env:"WEBHOOK_SECRET"`

	ListmonkURL        string `env:"LISTMONK_URL"`
	ListmonkUsername   string `env:"LISTMONK_USERNAME"`
	ListmonkPassword   string `env:"LISTMONK_PASSWORD"`
	ListmonkTemplateID int    `env:"LISTMONK_TEMPLATE_ID" envDefault:"0"`
	NotifyEmail        string `env:"NOTIFY_EMAIL"`
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg.MediaBackend = strings.ToLower(strings.TrimSpace(cfg.MediaBackend))
	switch cfg.MediaBackend {
	case MediaBackendCloudinary, MediaBackendS3:
	default:
		return Config{}, fmt.Errorf("unknown MEDIA_BACKEND %q", cfg.MediaBackend)
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}

	return cfg, nil
}

// UsesPostgres reports whether testimonials are stored in a directly reachable
// Postgres database rather than through the Supabase REST API.
func (c Config) UsesPostgres() bool {
	return c.DatabaseURL != ""
}

func (c Config) SecureCookies() bool {
	return strings.HasPrefix(c.BaseURL, "https://")
}

// MediaOrigin is the origin uploaded videos are served from, used to extend the
// Content-Security-Policy media-src.
func (c Config) MediaOrigin() string {
	if c.MediaBackend == MediaBackendS3 {
		if c.S3PublicURL != "" {
			return originOf(c.S3PublicURL)
		}
		return originOf(c.S3Endpoint)
	}
	return "https://res.cloudinary.com"
}

func originOf(raw string) string {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return ""
	}
	host, _, _ := strings.Cut(rest, "/")
	return scheme + "://" + host
}
