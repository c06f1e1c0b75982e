package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFromMap_Defaults(t *testing.T) {
	cfg, err := LoadFromMap(map[string]string{})
	if err != nil {
		t.Fatalf("LoadFromMap: %v", err)
	}

	if len(cfg.Cameras.IDs) != 1 || cfg.Cameras.IDs[0] != "0" {
		t.Fatalf("expected default camera 0, got %v", cfg.Cameras.IDs)
	}
	if cfg.Obstruction.DarkPixelThreshold != 30 || cfg.Obstruction.FullBlockBrightness != 30 {
		t.Fatalf("unexpected obstruction thresholds: %+v", cfg.Obstruction)
	}
	if cfg.Obstruction.PartialDarkRatio != 0.5 || cfg.Obstruction.DebounceDuration != 3*time.Second {
		t.Fatalf("unexpected obstruction debounce: %+v", cfg.Obstruction)
	}
	if got := cfg.Cooldown.CooldownFor("weapon"); got != 10*time.Second {
		t.Fatalf("expected 10s weapon cooldown, got %s", got)
	}
	if got := cfg.Cooldown.CooldownFor("smoke"); got != 10*time.Second {
		t.Fatalf("expected default cooldown for unknown category, got %s", got)
	}
	if cfg.Detector.ConfidenceThreshold != 0.5 || cfg.Detector.InferenceSize != 512 {
		t.Fatalf("unexpected detector config: %+v", cfg.Detector)
	}
	if cfg.Detector.ClassCategories["weapon"] != "weapon" {
		t.Fatalf("expected weapon class mapping, got %v", cfg.Detector.ClassCategories)
	}
	if cfg.Detector.ClassCategories["0"] != "weapon" {
		t.Fatalf("expected class id 0 mapped to weapon by default, got %v", cfg.Detector.ClassCategories)
	}
	if cfg.Email.Enabled || cfg.SMS.Enabled {
		t.Fatalf("transports must be disabled without credentials")
	}
	if cfg.Dispatch.TransportRetries != 0 {
		t.Fatalf("retries must default to 0, got %d", cfg.Dispatch.TransportRetries)
	}
	if cfg.Storage.AlertLogPath != "alert_log.txt" {
		t.Fatalf("unexpected alert log path %q", cfg.Storage.AlertLogPath)
	}
}

func TestLoadFromMap_Overrides(t *testing.T) {
	cfg, err := LoadFromMap(map[string]string{
		"CAMERA_IDS":                  "0, 1,lobby",
		"COOLDOWN_WEAPON":             "2s",
		"COOLDOWN_SHARED_OBSTRUCTION": "true",
		"DETECTOR_CLASS_CATEGORIES":   "0:weapon,Knife:weapon,fire:fire",
		"SENDER_EMAIL":                "cam@example.com",
		"EMAIL_PASSWORD":              "secret",
		"RECEIVER_EMAIL":              "guard@example.com",
		"TWILIO_SID":                  "AC123",
		"TWILIO_TOKEN":                "token",
		"TWILIO_FROM":                 "+15550001",
		"TWILIO_TO":                   "+15550002",
	})
	if err != nil {
		t.Fatalf("LoadFromMap: %v", err)
	}

	if strings.Join(cfg.Cameras.IDs, "|") != "0|1|lobby" {
		t.Fatalf("unexpected camera ids %v", cfg.Cameras.IDs)
	}
	if cfg.Cooldown.CooldownFor("weapon") != 2*time.Second {
		t.Fatalf("weapon cooldown override not applied")
	}
	if !cfg.Cooldown.SharedObstruction {
		t.Fatalf("shared obstruction flag not applied")
	}
	if cfg.Detector.ClassCategories["knife"] != "weapon" || cfg.Detector.ClassCategories["0"] != "weapon" {
		t.Fatalf("unexpected class categories %v", cfg.Detector.ClassCategories)
	}
	if !cfg.Email.Enabled || !cfg.SMS.Enabled {
		t.Fatalf("expected both transports enabled")
	}
}

func TestLoadFromMap_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		want   string
	}{
		{"duplicate camera", map[string]string{"CAMERA_IDS": "0,0"}, "duplicate camera id"},
		{"bad camera id", map[string]string{"CAMERA_IDS": "cam/1"}, "invalid camera id"},
		{"bad source", map[string]string{"CAMERA_SOURCE": "rtsp"}, "unsupported CAMERA_SOURCE"},
		{"http without url", map[string]string{"CAMERA_SOURCE": "http"}, "CAMERA_SNAPSHOT_URL"},
		{"ratio out of range", map[string]string{"OBSTRUCTION_PARTIAL_DARK_RATIO": "1.5"}, "PARTIAL_DARK_RATIO"},
		{"dark threshold out of range", map[string]string{"OBSTRUCTION_DARK_PIXEL_THRESHOLD": "300"}, "DARK_PIXEL_THRESHOLD"},
		{"confidence out of range", map[string]string{"DETECTOR_CONFIDENCE": "2"}, "DETECTOR_CONFIDENCE"},
		{"bad class mapping", map[string]string{"DETECTOR_CLASS_CATEGORIES": "weapon"}, "DETECTOR_CLASS_CATEGORIES"},
		{"email without password", map[string]string{"SENDER_EMAIL": "a@b.c", "RECEIVER_EMAIL": "d@e.f"}, "EMAIL_PASSWORD"},
		{"partial twilio", map[string]string{"TWILIO_SID": "AC1"}, "TWILIO_TOKEN"},
		{"zero workers", map[string]string{"DISPATCH_WORKERS": "0"}, "DISPATCH_WORKERS"},
		{"bad audit backend", map[string]string{"AUDIT_BACKEND": "mongo"}, "AUDIT_BACKEND"},
		{"auth without token", map[string]string{"AUTH_ENABLED": "true"}, "AUTH_BEARER_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromMap(tt.values)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoad_YAMLOverlayEnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "surveillance.yaml")
	content := "camera_ids: [\"2\", \"3\"]\nCOOLDOWN_DEFAULT: 30s\nDISPATCH_WORKERS: 4\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DISPATCH_WORKERS", "6")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if strings.Join(cfg.Cameras.IDs, ",") != "2,3" {
		t.Fatalf("expected cameras from yaml, got %v", cfg.Cameras.IDs)
	}
	if cfg.Cooldown.Default != 30*time.Second {
		t.Fatalf("expected 30s default cooldown from yaml, got %s", cfg.Cooldown.Default)
	}
	if cfg.Dispatch.Workers != 6 {
		t.Fatalf("env must win over yaml, got %d workers", cfg.Dispatch.Workers)
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Database: "d"}
	want := "host=db port=5432 user=u password=p dbname=d sslmode=disable"
	if got := db.DSN(); got != want {
		t.Fatalf("DSN() = %q, want %q", got, want)
	}
}
