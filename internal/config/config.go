// Package config handles configuration loading and management for Foreman.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for Foreman.
type Config struct {
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	AWS        AWSConfig        `mapstructure:"aws"`
	DB         DBConfig         `mapstructure:"db"`
	Supervisor SupervisorConfig `mapstructure:"supervisor"`
	Escalation EscalationConfig `mapstructure:"escalation"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// AWSConfig holds AWS Bedrock settings for escalation capabilities.
type AWSConfig struct {
	// UseBedrock routes model calls through AWS Bedrock instead of the
	// direct Anthropic API.
	UseBedrock bool   `mapstructure:"use_bedrock"`
	Region     string `mapstructure:"region"`
	Profile    string `mapstructure:"profile"`
}

// DBConfig holds storage paths. Empty values mean the project-local
// defaults under .foreman/.
type DBConfig struct {
	Path        string `mapstructure:"path"`
	ArchivePath string `mapstructure:"archive_path"`
}

// SupervisorConfig holds supervisor settings.
type SupervisorConfig struct {
	// MaxWorkers bounds concurrent executors.
	MaxWorkers int `mapstructure:"max_workers"`
}

// EscalationConfig holds escalation routing settings.
type EscalationConfig struct {
	// Enabled turns consultation on. When off, executors work
	// unassisted at every complexity.
	Enabled bool `mapstructure:"enabled"`
	// Model is the Claude model consulted by escalation capabilities.
	Model string `mapstructure:"model"`
	// ConsultTimeout bounds each capability call.
	ConsultTimeout time.Duration `mapstructure:"consult_timeout"`
	// ConsensusTolerance is the dissent fraction a consensus panel
	// absorbs before the split is surfaced.
	ConsensusTolerance float64 `mapstructure:"consensus_tolerance"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY)
// 2. Project config (.foreman.yaml in current directory or parent)
// 3. User config (~/.config/foreman/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	// Environment variable overrides
	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("aws.region", "AWS_REGION")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("aws.use_bedrock", cfg.AWS.UseBedrock)
	v.Set("aws.region", cfg.AWS.Region)
	v.Set("aws.profile", cfg.AWS.Profile)
	v.Set("db.path", cfg.DB.Path)
	v.Set("db.archive_path", cfg.DB.ArchivePath)
	v.Set("supervisor.max_workers", cfg.Supervisor.MaxWorkers)
	v.Set("escalation.enabled", cfg.Escalation.Enabled)
	v.Set("escalation.model", cfg.Escalation.Model)
	v.Set("escalation.consult_timeout", cfg.Escalation.ConsultTimeout.String())
	v.Set("escalation.consensus_tolerance", cfg.Escalation.ConsensusTolerance)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")

	v.SetDefault("aws.use_bedrock", false)
	v.SetDefault("aws.region", "")
	v.SetDefault("aws.profile", "")

	v.SetDefault("db.path", "")
	v.SetDefault("db.archive_path", "")

	v.SetDefault("supervisor.max_workers", 4)

	v.SetDefault("escalation.enabled", true)
	v.SetDefault("escalation.model", "")
	v.SetDefault("escalation.consult_timeout", "2m")
	v.SetDefault("escalation.consensus_tolerance", 0.34)
}

// getUserConfigDir returns the XDG config directory for Foreman.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "foreman")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "foreman")
	}
	return filepath.Join(home, ".config", "foreman")
}

// findProjectConfig searches for .foreman.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".foreman.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Supervisor: SupervisorConfig{
			MaxWorkers: 4,
		},
		Escalation: EscalationConfig{
			Enabled:            true,
			ConsultTimeout:     2 * time.Minute,
			ConsensusTolerance: 0.34,
		},
	}
}
