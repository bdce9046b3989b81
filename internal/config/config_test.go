package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "debug: true\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.OAuth.CallbackPort != DefaultCallbackPort {
		t.Errorf("CallbackPort = %d, want default %d", cfg.OAuth.CallbackPort, DefaultCallbackPort)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true from file")
	}
	if cfg.AuthDir == "" {
		t.Error("AuthDir not defaulted")
	}
}

func TestLoadConfigNormalizesBaseURL(t *testing.T) {
	path := writeConfig(t, "base-url: \"https://api.example.com/v1\"\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.BaseURL != "https://api.example.com/v1/" {
		t.Errorf("BaseURL = %q, want trailing slash appended", cfg.BaseURL)
	}
}

func TestLoadConfigParsesOAuthSection(t *testing.T) {
	path := writeConfig(t, `
oauth:
  google-client-id: "g-123"
  github-client-id: "gh-456"
  callback-port: 9000
  timeout-seconds: 120
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.OAuth.GoogleClientID != "g-123" || cfg.OAuth.GitHubClientID != "gh-456" {
		t.Errorf("client IDs = %q/%q", cfg.OAuth.GoogleClientID, cfg.OAuth.GitHubClientID)
	}
	if cfg.OAuth.CallbackPort != 9000 {
		t.Errorf("CallbackPort = %d, want 9000", cfg.OAuth.CallbackPort)
	}
	if cfg.OAuth.TimeoutSeconds != 120 {
		t.Errorf("TimeoutSeconds = %d, want 120", cfg.OAuth.TimeoutSeconds)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, "base-url: \"http://file.example/api/\"\n")
	t.Setenv("UPWATCH_BASE_URL", "http://env.example/api")
	t.Setenv("UPWATCH_GOOGLE_CLIENT_ID", "env-google")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.BaseURL != "http://env.example/api/" {
		t.Errorf("BaseURL = %q, want env override with trailing slash", cfg.BaseURL)
	}
	if cfg.OAuth.GoogleClientID != "env-google" {
		t.Errorf("GoogleClientID = %q, want env override", cfg.OAuth.GoogleClientID)
	}
}

func TestLoadConfigOptionalMissingFile(t *testing.T) {
	cfg, err := LoadConfigOptional(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfigOptional() error = %v", err)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default", cfg.BaseURL)
	}
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "base-url: [unclosed\n")

	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() accepted malformed YAML")
	}
}

func TestAuthFilePath(t *testing.T) {
	cfg := &Config{AuthDir: "/tmp/upwatch"}
	want := filepath.Join("/tmp/upwatch", "session.json")
	if got := cfg.AuthFilePath(); got != want {
		t.Errorf("AuthFilePath() = %q, want %q", got, want)
	}
}
