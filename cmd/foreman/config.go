package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ShayCichocki/foreman/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify Foreman configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/foreman/config.yaml
Project-specific overrides can be placed in .foreman.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	// Mask API key if set
	apiKeyDisplay := "(not set)"
	if cfg.Anthropic.APIKey != "" {
		apiKeyDisplay = "****"
	}

	fmt.Printf("anthropic.api_key: %s\n", apiKeyDisplay)
	fmt.Printf("aws.use_bedrock: %t\n", cfg.AWS.UseBedrock)
	fmt.Printf("aws.region: %s\n", cfg.AWS.Region)
	fmt.Printf("aws.profile: %s\n", cfg.AWS.Profile)
	fmt.Printf("db.path: %s\n", cfg.DB.Path)
	fmt.Printf("db.archive_path: %s\n", cfg.DB.ArchivePath)
	fmt.Printf("supervisor.max_workers: %d\n", cfg.Supervisor.MaxWorkers)
	fmt.Printf("escalation.enabled: %t\n", cfg.Escalation.Enabled)
	fmt.Printf("escalation.model: %s\n", cfg.Escalation.Model)
	fmt.Printf("escalation.consult_timeout: %s\n", cfg.Escalation.ConsultTimeout)
	fmt.Printf("escalation.consensus_tolerance: %g\n", cfg.Escalation.ConsensusTolerance)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		if cfg.Anthropic.APIKey == "" {
			return "(not set)", nil
		}
		return "****", nil
	case "aws.use_bedrock":
		return strconv.FormatBool(cfg.AWS.UseBedrock), nil
	case "aws.region":
		return cfg.AWS.Region, nil
	case "aws.profile":
		return cfg.AWS.Profile, nil
	case "db.path":
		return cfg.DB.Path, nil
	case "db.archive_path":
		return cfg.DB.ArchivePath, nil
	case "supervisor.max_workers":
		return strconv.Itoa(cfg.Supervisor.MaxWorkers), nil
	case "escalation.enabled":
		return strconv.FormatBool(cfg.Escalation.Enabled), nil
	case "escalation.model":
		return cfg.Escalation.Model, nil
	case "escalation.consult_timeout":
		return cfg.Escalation.ConsultTimeout.String(), nil
	case "escalation.consensus_tolerance":
		return strconv.FormatFloat(cfg.Escalation.ConsensusTolerance, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "aws.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for aws.use_bedrock: %w", err)
		}
		cfg.AWS.UseBedrock = b
	case "aws.region":
		cfg.AWS.Region = value
	case "aws.profile":
		cfg.AWS.Profile = value
	case "db.path":
		cfg.DB.Path = value
	case "db.archive_path":
		cfg.DB.ArchivePath = value
	case "supervisor.max_workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_workers: %w", err)
		}
		if n < 1 {
			return fmt.Errorf("max_workers must be at least 1")
		}
		cfg.Supervisor.MaxWorkers = n
	case "escalation.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for escalation.enabled: %w", err)
		}
		cfg.Escalation.Enabled = b
	case "escalation.model":
		cfg.Escalation.Model = value
	case "escalation.consult_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for consult_timeout: %w", err)
		}
		cfg.Escalation.ConsultTimeout = d
	case "escalation.consensus_tolerance":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for consensus_tolerance: %w", err)
		}
		if f < 0 || f >= 1 {
			return fmt.Errorf("consensus_tolerance must be in [0, 1)")
		}
		cfg.Escalation.ConsensusTolerance = f
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
