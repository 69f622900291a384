/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// AutoKey asks BootstrapConfig to generate a value
const AutoKey = "auto"

// Config represents the TagFile configuration
type Config struct {
	Container Container `yaml:"container"`
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
	Snapshot  Snapshot  `yaml:"snapshot"`
}

// Container selects the backing file
type Container struct {
	Path        string `yaml:"path"`
	ContentFile bool   `yaml:"content_file"`
}

// Server contains HTTP server configuration
type Server struct {
	Bind   string `yaml:"bind"`
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

// Logging contains logging configuration
type Logging struct {
	Level    string   `yaml:"level"`
	Format   string   `yaml:"format"`
	Outputs  []string `yaml:"outputs"`
	Rotation Rotation `yaml:"rotation"`
}

// Rotation configures lumberjack for file outputs
type Rotation struct {
	Enable     bool   `yaml:"enable"`
	Filename   string `yaml:"filename"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Snapshot configures the default export location
type Snapshot struct {
	Dir string `yaml:"dir"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Container: Container{
			Path:        "./data/store.tagfile",
			ContentFile: true,
		},
		Server: Server{
			Bind:   "127.0.0.1",
			Port:   8080,
			APIKey: AutoKey,
		},
		Logging: Logging{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: Rotation{
				MaxSizeMB:  10,
				MaxBackups: 1,
				MaxAgeDays: 7,
			},
		},
		Snapshot: Snapshot{
			Dir: "./data/snapshot",
		},
	}
}

// Validate checks the configuration for values that cannot work
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Container.Path) == "" {
		errs = append(errs, errors.New("container.path is required"))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level is not recognized: %q", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format is not recognized: %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// LoadConfig loads configuration from the specified path. Fields missing
// from the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Holds the API key, so owner-only
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a new configuration with a generated API key
func BootstrapConfig(configPath string, containerPath string) (*Config, error) {
	config := DefaultConfig()
	if containerPath != "" {
		config.Container.Path = containerPath
		config.Snapshot.Dir = filepath.Join(filepath.Dir(containerPath), "snapshot")
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Server.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./tagfile.yaml"
	}

	// ~/.config/tagfile/config.yaml on Linux and macOS
	configDir := filepath.Join(homeDir, ".config", "tagfile")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
