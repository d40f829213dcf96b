/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ssargent/imgdedup/pkg/codec"
	"gopkg.in/yaml.v3"
)

// Config represents the imgdedup configuration: server-facing fields carried
// over from the teacher's KV store config, plus the global mutable state
// enumerated in spec.md §9 for the sync/match/dedup CLI and API operations.
type Config struct {
	DataDir  string   `yaml:"data_dir"`
	Port     int      `yaml:"port"`
	Bind     string   `yaml:"bind"`
	Security Security `yaml:"security"`
	Logging  Logging  `yaml:"logging"`

	// Verbose enables progress/diagnostic logging at the CLI boundary.
	Verbose bool `yaml:"verbose"`
	// WorkDir is the directory synchronize/match/dedup operate against.
	WorkDir string `yaml:"work_dir"`
	// OutPath is the destination folder for Dedup's moved duplicates.
	OutPath string `yaml:"out_path"`
	// Recursive controls whether the directory synchronizer descends into subdirectories.
	Recursive bool `yaml:"recursive"`

	// CacheIndexPath overrides the B+ tree index file location (default: WorkDir/.imgdedup/index.bpt).
	CacheIndexPath string `yaml:"cache_index_path"`
	// CacheDataPath overrides the thumbnail cache file location (default: WorkDir/.imgdedup/thumbs.tmc).
	CacheDataPath string `yaml:"cache_data_path"`
	// CacheDontUse makes the sync command return without opening the cache or index;
	// match and dedup do not check it and still read the existing cache.
	CacheDontUse bool `yaml:"cache_dont_use"`
	// CacheNoUpdate makes the sync command skip its synchronize pass (use the cache as-is).
	CacheNoUpdate bool `yaml:"cache_no_update"`
	// CacheDump requests a textual dump of the cache/tree instead of a normal run.
	CacheDump bool `yaml:"cache_dump"`

	// CompareMethod selects the fuzzy-compare strategy (see spec.md §6): "a" average,
	// "r" RMS, "hr"/"hh" histogram variants, "p" pixel. imgdedup implements "p" (pixel,
	// codec.CompareFuzzy); other method codes are accepted for CLI compatibility but
	// currently fall back to the pixel comparator.
	CompareMethod string `yaml:"compare_method"`
	// PixelsDiff caps how many mismatched pixels a fuzzy compare tolerates.
	PixelsDiff int `yaml:"pixels_diff"`
	// PixelTolerance is the per-channel absolute difference tolerance T.
	PixelTolerance float64 `yaml:"pixel_tolerance"`
}

// Security contains security-related configuration
type Security struct {
	SystemKey    string `yaml:"system_key"`
	SystemAPIKey string `yaml:"system_api_key"`
	ClientAPIKey string `yaml:"client_api_key"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Port:    8080,
		Bind:    "127.0.0.1",
		Security: Security{
			SystemKey:    "auto",
			SystemAPIKey: "auto",
			ClientAPIKey: "auto",
		},
		Logging: Logging{
			Level: "info",
		},
		WorkDir:        ".",
		OutPath:        "./dedup-out",
		CompareMethod:  "p",
		PixelsDiff:     codec.DefaultMaxPixelDiff,
		PixelTolerance: float64(codec.DefaultPixelTolerance),
	}
}

// LoadConfig loads configuration from the specified path
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	// Validate path to prevent directory traversal
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

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with secure permissions (0600)
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

// BootstrapConfig creates a new configuration with generated keys if it doesn't exist
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	// Generate secure keys
	systemKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate system key: %w", err)
	}
	config.Security.SystemKey = systemKey

	systemAPIKey, err := GenerateSecureKey(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate system API key: %w", err)
	}
	config.Security.SystemAPIKey = systemAPIKey

	clientAPIKey, err := GenerateSecureKey(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate client API key: %w", err)
	}
	config.Security.ClientAPIKey = clientAPIKey

	// Save the configuration
	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	// Use OS-specific default locations
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./imgdedup.yaml"
	}

	// For Linux/macOS, use ~/.config/imgdedup/config.yaml
	configDir := filepath.Join(homeDir, ".config", "imgdedup")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
