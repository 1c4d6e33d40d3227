package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"taskdeck/internal/config"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("TASKDECK_API_URL", "")
	dir := t.TempDir()

	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.Dir != dir {
		t.Errorf("expected dir %q, got %q", dir, cfg.Dir)
	}
	if cfg.APIURL != config.DefaultAPIURL {
		t.Errorf("expected api url %q, got %q", config.DefaultAPIURL, cfg.APIURL)
	}
	if cfg.Timeout != config.DefaultTimeout {
		t.Errorf("expected timeout %v, got %v", config.DefaultTimeout, cfg.Timeout)
	}
	if cfg.Format != config.FormatText {
		t.Errorf("expected format %q, got %q", config.FormatText, cfg.Format)
	}
}

func TestNew_SettingsFile(t *testing.T) {
	t.Setenv("TASKDECK_API_URL", "")
	dir := t.TempDir()
	settings := "api_url: https://tracker.example.com/api/\ntimeout: 3s\nformat: yaml\n"
	if err := os.WriteFile(filepath.Join(dir, config.SettingsFile), []byte(settings), 0600); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.APIURL != "https://tracker.example.com/api" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.APIURL)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %v", cfg.Timeout)
	}
	if cfg.Format != config.FormatYAML {
		t.Errorf("expected yaml format, got %q", cfg.Format)
	}
}

func TestNew_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	settings := "api_url: https://file.example.com/api\n"
	if err := os.WriteFile(filepath.Join(dir, config.SettingsFile), []byte(settings), 0600); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	t.Setenv("TASKDECK_API_URL", "https://env.example.com/api")

	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.APIURL != "https://env.example.com/api" {
		t.Errorf("expected env override, got %q", cfg.APIURL)
	}
}

func TestNew_InvalidFormat(t *testing.T) {
	t.Setenv("TASKDECK_API_URL", "")
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.SettingsFile), []byte("format: xml\n"), 0600); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	if _, err := config.New(dir); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestDefaultConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := config.DefaultConfigDir(); got != filepath.Join("/tmp/xdg", "taskdeck") {
		t.Errorf("unexpected dir %q", got)
	}
}

func TestPaths(t *testing.T) {
	cfg := &config.Config{Dir: "/cfg"}
	cases := map[string]string{
		cfg.TokenPath():        "/cfg/token",
		cfg.UserPath():         "/cfg/user.json",
		cfg.SettingsPath():     "/cfg/config.yaml",
		cfg.GoogleClientPath(): "/cfg/google_client.json",
		cfg.GoogleTokenPath():  "/cfg/google_token.json",
	}
	for got, want := range cases {
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}
