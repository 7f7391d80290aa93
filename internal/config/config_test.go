package config

import (
	"log/slog"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != 8001 {
		t.Errorf("Expected default port 8001, got %d", cfg.Port)
	}
	if cfg.DataFile != "data/albums.json" {
		t.Errorf("Expected default data file, got %s", cfg.DataFile)
	}
	if cfg.UploadDir != "uploads" {
		t.Errorf("Expected default upload dir, got %s", cfg.UploadDir)
	}
	if cfg.PublicBaseURL() != "http://localhost:8001" {
		t.Errorf("Expected derived base URL, got %s", cfg.PublicBaseURL())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("BASE_URL", "https://gallery.example.com/")
	t.Setenv("BLOB_BACKEND", "s3")
	t.Setenv("S3_BUCKET", "images")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:9000" {
		t.Errorf("Unexpected addr %s", cfg.Addr())
	}
	if cfg.PublicBaseURL() != "https://gallery.example.com" {
		t.Errorf("Expected trailing slash trimmed, got %s", cfg.PublicBaseURL())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "relative base url", cfg: Config{BaseURL: "/api", BlobBackend: "local"}, wantErr: true},
		{name: "s3 without bucket", cfg: Config{Port: 8001, BlobBackend: "s3"}, wantErr: true},
		{name: "unknown backend", cfg: Config{Port: 8001, BlobBackend: "ftp"}, wantErr: true},
		{name: "negative max upload", cfg: Config{Port: 8001, BlobBackend: "local", MaxUploadBytes: -1}, wantErr: true},
		{name: "local ok", cfg: Config{Port: 8001, BlobBackend: "local"}, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		cfg := Config{LogLevel: in}
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, expected %v", in, got, want)
		}
	}
}
