package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// ========================================
// Defaults
// ========================================

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg := Load()

	if cfg.Port != 5000 {
		t.Errorf("Expected port 5000, got %d", cfg.Port)
	}
	if cfg.CameraDevice != "0" {
		t.Errorf("Expected camera device 0, got %q", cfg.CameraDevice)
	}
	if cfg.ConfidenceThreshold != 0.6 {
		t.Errorf("Expected confidence threshold 0.6, got %v", cfg.ConfidenceThreshold)
	}
	if cfg.FocalLength != 700 {
		t.Errorf("Expected focal length 700, got %v", cfg.FocalLength)
	}
	if cfg.ReferenceWidth != 0.5 {
		t.Errorf("Expected reference width 0.5, got %v", cfg.ReferenceWidth)
	}
	if cfg.StatusInterval != 1500*time.Millisecond {
		t.Errorf("Expected status interval 1.5s, got %v", cfg.StatusInterval)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("Expected wildcard origin, got %v", cfg.AllowedOrigins)
	}
}

// ========================================
// Environment overrides
// ========================================

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("PORT", "8081")
	t.Setenv("CAMERA_DEVICE", "rtsp://cam/stream")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.75")
	t.Setenv("STATUS_INTERVAL", "2s")
	t.Setenv("ALLOWED_ORIGINS", "http://a.local, http://b.local,")

	cfg := Load()

	if cfg.Port != 8081 {
		t.Errorf("Expected port 8081, got %d", cfg.Port)
	}
	if cfg.CameraDevice != "rtsp://cam/stream" {
		t.Errorf("Unexpected camera device %q", cfg.CameraDevice)
	}
	if cfg.ConfidenceThreshold != 0.75 {
		t.Errorf("Expected 0.75, got %v", cfg.ConfidenceThreshold)
	}
	if cfg.StatusInterval != 2*time.Second {
		t.Errorf("Expected 2s, got %v", cfg.StatusInterval)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.local" {
		t.Errorf("Unexpected origins %v", cfg.AllowedOrigins)
	}
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("PORT", "abc")
	t.Setenv("FOCAL_LENGTH", "wide")
	t.Setenv("STATUS_INTERVAL", "soon")

	cfg := Load()

	if cfg.Port != 5000 {
		t.Errorf("Expected default port, got %d", cfg.Port)
	}
	if cfg.FocalLength != 700 {
		t.Errorf("Expected default focal length, got %v", cfg.FocalLength)
	}
	if cfg.StatusInterval != 1500*time.Millisecond {
		t.Errorf("Expected default interval, got %v", cfg.StatusInterval)
	}
}

func TestGetEnvAsDuration_PlainSeconds(t *testing.T) {
	t.Setenv("TEST_INTERVAL", "1.5")

	if d := getEnvAsDuration("TEST_INTERVAL", time.Second); d != 1500*time.Millisecond {
		t.Errorf("Expected 1.5s, got %v", d)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(envFile, []byte("JPEG_QUALITY=55\n"), 0644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Setenv("ENV_FILE", envFile)
	// godotenv does not override variables that are already set, so make
	// sure the key is absent and clean it up afterwards.
	os.Unsetenv("JPEG_QUALITY")
	defer os.Unsetenv("JPEG_QUALITY")

	cfg := Load()

	if cfg.JPEGQuality != 55 {
		t.Errorf("Expected JPEG quality from .env file, got %d", cfg.JPEGQuality)
	}
}
