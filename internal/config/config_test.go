package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.ManagementPort != 8090 {
		t.Errorf("ManagementPort: got %d, want 8090", cfg.ManagementPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel: got %s", cfg.LogLevel)
	}
	if cfg.InjectionBlockThreshold != 0.6 {
		t.Errorf("InjectionBlockThreshold: got %f, want 0.6", cfg.InjectionBlockThreshold)
	}
	if cfg.InjectionReviewThreshold != 0.3 {
		t.Errorf("InjectionReviewThreshold: got %f, want 0.3", cfg.InjectionReviewThreshold)
	}
	if cfg.MergeOverlapThreshold != 0.80 {
		t.Errorf("MergeOverlapThreshold: got %f, want 0.80", cfg.MergeOverlapThreshold)
	}
	if len(cfg.SourcePreferenceOrder) != 2 || cfg.SourcePreferenceOrder[0] != "local_regex" {
		t.Errorf("SourcePreferenceOrder: got %v", cfg.SourcePreferenceOrder)
	}
	if cfg.NullContentOnMask {
		t.Error("NullContentOnMask should default to false")
	}
}

func TestLoadEnv_Overrides(t *testing.T) {
	cfg := Defaults()
	t.Setenv("MANAGEMENT_PORT", "9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("NER_ENABLED", "true")
	t.Setenv("NULL_CONTENT_ON_MASK", "true")

	loadEnv(cfg)

	if cfg.ManagementPort != 9999 {
		t.Errorf("ManagementPort: got %d, want 9999", cfg.ManagementPort)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: got %s", cfg.LogLevel)
	}
	if !cfg.NEREnabled {
		t.Error("NEREnabled should be true")
	}
	if !cfg.NullContentOnMask {
		t.Error("NullContentOnMask should be true")
	}
}

func TestLoadFile_MergesOverDefaults(t *testing.T) {
	cfg := Defaults()
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway-config.json")
	data, _ := json.Marshal(map[string]any{"managementPort": 1234, "logLevel": "warn"})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	loadFile(cfg, path)

	if cfg.ManagementPort != 1234 {
		t.Errorf("ManagementPort: got %d, want 1234", cfg.ManagementPort)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel: got %s, want warn", cfg.LogLevel)
	}
}

func TestLoadFile_MissingFileIsOptional(t *testing.T) {
	cfg := Defaults()
	loadFile(cfg, filepath.Join(t.TempDir(), "does-not-exist.json"))
	if cfg.ManagementPort != 8090 {
		t.Error("missing file should leave defaults untouched")
	}
}
