package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Scoring.Voice != nil || cfg.Server.Addr != nil {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}

func TestLoadConfigDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[scoring]
voice = "en-gb"

[[scoring.substitution]]
from = "ɚ"
to = "r"

[oracle]
recognizer-url = "http://localhost:9000/recognize"
recognizer-timeout = "30s"

[server]
addr = ":9090"
max-upload-mb = 5
allowed-origins = ["http://localhost:5173"]

[stats]
weak-top = 3
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Scoring.Voice == nil || *cfg.Scoring.Voice != "en-gb" {
		t.Fatalf("unexpected voice: %v", cfg.Scoring.Voice)
	}
	subs := cfg.Substitutions()
	if len(subs) != 1 || subs[0].From != "ɚ" || subs[0].To != "r" {
		t.Fatalf("unexpected substitutions: %+v", subs)
	}
	if cfg.Oracle.RecognizerTimeout == nil || *cfg.Oracle.RecognizerTimeout != 30*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.Oracle.RecognizerTimeout)
	}
	if cfg.Server.MaxUploadMB == nil || *cfg.Server.MaxUploadMB != 5 {
		t.Fatalf("unexpected max upload: %v", cfg.Server.MaxUploadMB)
	}
	if cfg.Server.AllowedOrigins == nil || len(*cfg.Server.AllowedOrigins) != 1 || (*cfg.Server.AllowedOrigins)[0] != "http://localhost:5173" {
		t.Fatalf("unexpected allowed origins: %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Stats.WeakTop == nil || *cfg.Stats.WeakTop != 3 {
		t.Fatalf("unexpected weak-top: %v", cfg.Stats.WeakTop)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[scoring]\nvoyce = \"en\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestDefaultPathsHonourXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "pronounce", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "pronounce", "pronounce.db") {
		t.Fatalf("unexpected db path %q", got)
	}
}
