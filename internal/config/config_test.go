package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Supervisor.MaxWorkers != 4 {
		t.Errorf("expected default max_workers 4, got %d", cfg.Supervisor.MaxWorkers)
	}

	if !cfg.Escalation.Enabled {
		t.Error("expected escalation.enabled to be true")
	}

	if cfg.Escalation.ConsultTimeout != 2*time.Minute {
		t.Errorf("expected consult_timeout 2m, got %v", cfg.Escalation.ConsultTimeout)
	}

	if cfg.Escalation.ConsensusTolerance != 0.34 {
		t.Errorf("expected consensus_tolerance 0.34, got %v", cfg.Escalation.ConsensusTolerance)
	}

	if cfg.AWS.UseBedrock {
		t.Error("expected aws.use_bedrock to be false")
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
anthropic:
  api_key: test-key
aws:
  use_bedrock: true
  region: us-west-2
  profile: dev
db:
  path: /tmp/tasks.db
supervisor:
  max_workers: 8
escalation:
  enabled: false
  model: claude-sonnet-4-20250514
  consult_timeout: 30s
  consensus_tolerance: 0.25
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "test-key" {
		t.Errorf("expected api_key 'test-key', got %q", cfg.Anthropic.APIKey)
	}

	if !cfg.AWS.UseBedrock {
		t.Error("expected aws.use_bedrock to be true")
	}

	if cfg.AWS.Region != "us-west-2" {
		t.Errorf("expected region 'us-west-2', got %q", cfg.AWS.Region)
	}

	if cfg.DB.Path != "/tmp/tasks.db" {
		t.Errorf("expected db path '/tmp/tasks.db', got %q", cfg.DB.Path)
	}

	if cfg.Supervisor.MaxWorkers != 8 {
		t.Errorf("expected max_workers 8, got %d", cfg.Supervisor.MaxWorkers)
	}

	if cfg.Escalation.Enabled {
		t.Error("expected escalation.enabled to be false")
	}

	if cfg.Escalation.ConsultTimeout != 30*time.Second {
		t.Errorf("expected consult_timeout 30s, got %v", cfg.Escalation.ConsultTimeout)
	}

	if cfg.Escalation.ConsensusTolerance != 0.25 {
		t.Errorf("expected consensus_tolerance 0.25, got %v", cfg.Escalation.ConsensusTolerance)
	}
}

func TestLoadFromPathDefaultsFillGaps(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
supervisor:
  max_workers: 2
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Supervisor.MaxWorkers != 2 {
		t.Errorf("expected max_workers 2, got %d", cfg.Supervisor.MaxWorkers)
	}

	// Everything left unset falls back to defaults.
	if cfg.Escalation.ConsensusTolerance != 0.34 {
		t.Errorf("expected consensus_tolerance 0.34, got %v", cfg.Escalation.ConsensusTolerance)
	}
	if cfg.Escalation.ConsultTimeout != 2*time.Minute {
		t.Errorf("expected consult_timeout 2m, got %v", cfg.Escalation.ConsultTimeout)
	}
}

func TestExpandEnvInAPIKey(t *testing.T) {
	os.Setenv("FOREMAN_TEST_KEY", "expanded-value")
	defer os.Unsetenv("FOREMAN_TEST_KEY")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
anthropic:
  api_key: ${FOREMAN_TEST_KEY}
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "expanded-value" {
		t.Errorf("expected 'expanded-value', got %q", cfg.Anthropic.APIKey)
	}
}

func TestGetUserConfigDir(t *testing.T) {
	os.Setenv("XDG_CONFIG_HOME", "/custom/config")
	defer os.Unsetenv("XDG_CONFIG_HOME")

	dir := getUserConfigDir()
	expected := "/custom/config/foreman"
	if dir != expected {
		t.Errorf("expected %q, got %q", expected, dir)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	os.Setenv("XDG_CONFIG_HOME", tmpDir)
	defer os.Unsetenv("XDG_CONFIG_HOME")

	cfg := Default()
	cfg.Supervisor.MaxWorkers = 6
	cfg.Escalation.ConsensusTolerance = 0.5

	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFromPath(filepath.Join(tmpDir, "foreman", "config.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if loaded.Supervisor.MaxWorkers != 6 {
		t.Errorf("expected max_workers 6, got %d", loaded.Supervisor.MaxWorkers)
	}
	if loaded.Escalation.ConsensusTolerance != 0.5 {
		t.Errorf("expected consensus_tolerance 0.5, got %v", loaded.Escalation.ConsensusTolerance)
	}
}
