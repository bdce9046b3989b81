// Package config provides configuration management for the UpWatch CLI.
// It handles loading and parsing YAML configuration files, and provides
// structured access to application settings including the backend base URL,
// auth storage location, OAuth client identifiers, proxy configuration,
// and logging behavior.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default values applied when the configuration file omits them.
const (
	DefaultBaseURL      = "http://127.0.0.1:8000/api/"
	DefaultCallbackPort = 53682
)

// OAuthConfig holds the client identifiers for the third-party sign-in
// providers. A provider with an empty client ID is treated as not configured
// and sign-in attempts against it fail fast.
type OAuthConfig struct {
	// GoogleClientID is the OAuth2 client ID for Google sign-in.
	GoogleClientID string `yaml:"google-client-id" json:"google-client-id"`

	// GitHubClientID is the OAuth2 client ID for GitHub sign-in.
	GitHubClientID string `yaml:"github-client-id" json:"github-client-id"`

	// CallbackPort is the local port the OAuth callback receiver listens on.
	CallbackPort int `yaml:"callback-port" json:"callback-port"`

	// TimeoutSeconds bounds how long a sign-in attempt may wait for the
	// provider flow to complete. <= 0 waits until the flow settles or the
	// popup is closed.
	TimeoutSeconds int `yaml:"timeout-seconds,omitempty" json:"timeout-seconds,omitempty"`
}

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// BaseURL is the root URL of the uptime-monitoring backend API.
	BaseURL string `yaml:"base-url" json:"base-url"`

	// AuthDir is the directory where the session file is persisted.
	AuthDir string `yaml:"auth-dir" json:"auth-dir"`

	// ProxyURL is the URL of an optional proxy server to use for outbound requests.
	ProxyURL string `yaml:"proxy-url" json:"proxy-url"`

	// RequestLog enables or disables detailed request logging functionality.
	RequestLog bool `yaml:"request-log" json:"request-log"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug" json:"debug"`

	// LoggingToFile routes log output to rotating files instead of stdout.
	LoggingToFile bool `yaml:"logging-to-file" json:"logging-to-file"`

	// LogDir overrides the directory used for rotating log files.
	LogDir string `yaml:"log-dir,omitempty" json:"log-dir,omitempty"`

	// OAuth configures the third-party sign-in providers.
	OAuth OAuthConfig `yaml:"oauth" json:"oauth"`
}

// LoadConfig reads a YAML configuration file from the given path, applies
// defaults and environment overrides, and returns the parsed Config.
func LoadConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return &cfg, nil
}

// LoadConfigOptional behaves like LoadConfig but returns an empty Config with
// defaults applied when the file does not exist. It is used on first run,
// before the user has written a config file.
func LoadConfigOptional(configFile string) (*Config, error) {
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		cfg := &Config{}
		cfg.applyDefaults()
		cfg.applyEnvOverrides()
		return cfg, nil
	}
	return LoadConfig(configFile)
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}
	if c.AuthDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.AuthDir = filepath.Join(home, ".upwatch")
		} else {
			c.AuthDir = ".upwatch"
		}
	}
	if c.OAuth.CallbackPort <= 0 {
		c.OAuth.CallbackPort = DefaultCallbackPort
	}
}

// applyEnvOverrides lets environment variables win over file values so that
// secrets can be kept out of the config file.
func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv("UPWATCH_BASE_URL")); v != "" {
		c.BaseURL = v
		if !strings.HasSuffix(c.BaseURL, "/") {
			c.BaseURL += "/"
		}
	}
	if v := strings.TrimSpace(os.Getenv("UPWATCH_GOOGLE_CLIENT_ID")); v != "" {
		c.OAuth.GoogleClientID = v
	}
	if v := strings.TrimSpace(os.Getenv("UPWATCH_GITHUB_CLIENT_ID")); v != "" {
		c.OAuth.GitHubClientID = v
	}
	if v := strings.TrimSpace(os.Getenv("UPWATCH_PROXY_URL")); v != "" {
		c.ProxyURL = v
	}
}

// AuthFilePath returns the location of the persisted session file.
func (c *Config) AuthFilePath() string {
	return filepath.Join(c.AuthDir, "session.json")
}
