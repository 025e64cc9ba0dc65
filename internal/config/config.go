package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings represents the application configuration
type Settings struct {
	HTTPPort     int    `yaml:"http_port"`
	HTTPSPort    int    `yaml:"https_port"`
	DocumentRoot string `yaml:"document_root"`
	PHPVersion   string `yaml:"php_version"`
	ServerName   string `yaml:"server_name"`
	CertDays     int    `yaml:"cert_days"`
}

// configDir is the default config directory
const configDir = ".config/apachedev"
const configFile = "config.yaml"

// Defaults matching the provisioning behavior: HTTP on 8080, HTTPS on 443,
// document root ~/Sites, PHP 8.4.
const (
	DefaultHTTPPort   = 8080
	DefaultHTTPSPort  = 443
	DefaultPHPVersion = "8.4"
	DefaultServerName = "localhost"
	DefaultCertDays   = 825
)

// New creates Settings with default values
func New() *Settings {
	return &Settings{
		HTTPPort:     DefaultHTTPPort,
		HTTPSPort:    DefaultHTTPSPort,
		DocumentRoot: "~/Sites",
		PHPVersion:   DefaultPHPVersion,
		ServerName:   DefaultServerName,
		CertDays:     DefaultCertDays,
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

// ConfigPath returns the config file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the settings from disk
func Load() (*Settings, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	// If config doesn't exist, return defaults
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return New(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save writes the settings to disk
func (s *Settings) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks the settings for consistency
func (s *Settings) Validate() error {
	if s.HTTPPort < 1 || s.HTTPPort > 65535 {
		return fmt.Errorf("http_port must be between 1 and 65535, got %d", s.HTTPPort)
	}
	if s.HTTPSPort < 1 || s.HTTPSPort > 65535 {
		return fmt.Errorf("https_port must be between 1 and 65535, got %d", s.HTTPSPort)
	}
	if s.HTTPPort == s.HTTPSPort {
		return fmt.Errorf("http_port and https_port must differ, both are %d", s.HTTPPort)
	}
	if s.PHPVersion == "" {
		return fmt.Errorf("php_version cannot be empty")
	}
	if s.ServerName == "" {
		return fmt.Errorf("server_name cannot be empty")
	}
	if s.CertDays < 1 {
		return fmt.Errorf("cert_days must be positive, got %d", s.CertDays)
	}
	return nil
}

// ExpandedRoot returns the document root with a leading ~ expanded to the
// user's home directory.
func (s *Settings) ExpandedRoot() (string, error) {
	return ExpandPath(s.DocumentRoot)
}

// ExpandPath expands a leading ~ or ~/ in a path to the home directory.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// PHPFormula returns the Homebrew formula name for the configured PHP version.
// The current PHP series is published as plain "php"; older series use
// versioned formulae such as "php@8.3".
func (s *Settings) PHPFormula() string {
	if s.PHPVersion == DefaultPHPVersion {
		return "php"
	}
	return "php@" + s.PHPVersion
}
