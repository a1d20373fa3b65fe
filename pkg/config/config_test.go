package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return configPath
}

func TestLoad_MinimalConfig(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: "INFO"

chat:
  port: 12345
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify defaults were applied
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected default shutdown_timeout 5s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Chat.BindAddress != "localhost" {
		t.Errorf("Expected default bind address 'localhost', got %q", cfg.Chat.BindAddress)
	}
	if cfg.Chat.Port != 12345 {
		t.Errorf("Expected chat port 12345, got %d", cfg.Chat.Port)
	}
	if cfg.API.Enabled {
		t.Error("Expected API disabled by default")
	}
}

func TestLoad_FullConfig(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: "debug"
  format: "json"
  output: "stderr"

shutdown_timeout: "10s"

chat:
  bind_address: "0.0.0.0"
  port: 6667
  max_connections: 100

metrics:
  enabled: true

api:
  enabled: true
  port: 9000
  jwt:
    secret: "test-secret-key-for-testing-minimum-32-chars"
    access_token_duration: "1h"
  admin:
    username: "operator"
    password: "changeme"

seed:
  users:
    - name: alice
      password: hunter2
  channels:
    - lobby
    - random
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level normalized to DEBUG, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected format json, got %q", cfg.Logging.Format)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("Expected shutdown_timeout 10s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Chat.BindAddress != "0.0.0.0" {
		t.Errorf("Expected bind address 0.0.0.0, got %q", cfg.Chat.BindAddress)
	}
	if cfg.Chat.MaxConnections != 100 {
		t.Errorf("Expected max_connections 100, got %d", cfg.Chat.MaxConnections)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Expected metrics enabled")
	}
	if cfg.API.Port != 9000 {
		t.Errorf("Expected API port 9000, got %d", cfg.API.Port)
	}
	if cfg.API.JWT.AccessTokenDuration != time.Hour {
		t.Errorf("Expected token duration 1h, got %v", cfg.API.JWT.AccessTokenDuration)
	}
	if cfg.API.Admin.Username != "operator" {
		t.Errorf("Expected admin username operator, got %q", cfg.API.Admin.Username)
	}
	if len(cfg.Seed.Users) != 1 || cfg.Seed.Users[0].Name != "alice" {
		t.Errorf("Expected one seed user alice, got %+v", cfg.Seed.Users)
	}
	if len(cfg.Seed.Channels) != 2 {
		t.Errorf("Expected two seed channels, got %+v", cfg.Seed.Channels)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Expected defaults for missing file, got error: %v", err)
	}

	if cfg.Chat.Port != 12345 {
		t.Errorf("Expected default port 12345, got %d", cfg.Chat.Port)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level INFO, got %q", cfg.Logging.Level)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	configPath := writeConfig(t, "logging: [broken")

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for malformed YAML")
	}
}

func TestMustLoad_MissingExplicitFile(t *testing.T) {
	_, err := MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing explicit config file")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Chat.Port = 7000
	cfg.Seed.Users = []SeedUser{{Name: "alice", Password: "pw"}}

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Saved config missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected 0600 permissions, got %v", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to reload saved config: %v", err)
	}
	if loaded.Chat.Port != 7000 {
		t.Errorf("Expected port 7000 after round trip, got %d", loaded.Chat.Port)
	}
	if len(loaded.Seed.Users) != 1 || loaded.Seed.Users[0].Name != "alice" {
		t.Errorf("Expected seed user to survive round trip, got %+v", loaded.Seed.Users)
	}
}
