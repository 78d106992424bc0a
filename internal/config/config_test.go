package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.MediaBackend != MediaBackendCloudinary {
		t.Errorf("expected cloudinary backend, got %q", cfg.MediaBackend)
	}
	if cfg.MediaFolder != "mct_uploads" {
		t.Errorf("expected folder mct_uploads, got %q", cfg.MediaFolder)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("expected 30m session TTL, got %s", cfg.SessionTTL)
	}
	if cfg.UsesPostgres() {
		t.Error("expected Supabase store when DATABASE_URL is unset")
	}
}

func TestLoadMissingCredentialsIsNotAnError(t *testing.T) {
	t.Setenv("CLOUDINARY_CLOUD_NAME", "")
	t.Setenv("SUPABASE_URL", "")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected startup to succeed without credentials, got %v", err)
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("TEST_ONLY_CONFIG_MARKER=1\nMEDIA_FOLDER=from_file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MEDIA_FOLDER", "")
	os.Unsetenv("MEDIA_FOLDER")
	t.Cleanup(func() {
		os.Unsetenv("MEDIA_FOLDER")
		os.Unsetenv("TEST_ONLY_CONFIG_MARKER")
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MediaFolder != "from_file" {
		t.Errorf("expected folder from env file, got %q", cfg.MediaFolder)
	}
}

func TestLoadRejectsUnknownMediaBackend(t *testing.T) {
	t.Setenv("MEDIA_BACKEND", "ftp")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error for unknown media backend")
	}
}

func TestLoadNormalizesMediaBackend(t *testing.T) {
	t.Setenv("MEDIA_BACKEND", " S3 ")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MediaBackend != MediaBackendS3 {
		t.Errorf("expected s3, got %q", cfg.MediaBackend)
	}
}

func TestSecureCookies(t *testing.T) {
	tests := []struct {
		baseURL string
		want    bool
	}{
		{"https://testimonials.maymar.org.in", true},
		{"http://localhost:8080", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.baseURL, func(t *testing.T) {
			if got := (Config{BaseURL: tt.baseURL}).SecureCookies(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMediaOrigin(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"cloudinary", Config{MediaBackend: MediaBackendCloudinary}, "https://res.cloudinary.com"},
		{"s3 public url", Config{MediaBackend: MediaBackendS3, S3PublicURL: "https://cdn.example.com/videos", S3Endpoint: "http://minio:9000"}, "https://cdn.example.com"},
		{"s3 endpoint", Config{MediaBackend: MediaBackendS3, S3Endpoint: "http://minio:9000"}, "http://minio:9000"},
		{"s3 unset", Config{MediaBackend: MediaBackendS3}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.MediaOrigin(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
