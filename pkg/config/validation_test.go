package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return GetDefaultConfig()
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("Default config should validate, got: %v", err)
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "VERBOSE"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error for invalid log level")
	}
	if !strings.Contains(err.Error(), "logging.level") {
		t.Errorf("Expected error to name logging.level, got: %v", err)
	}
}

func TestValidate_BadLogFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Format = "xml"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for invalid log format")
	}
}

func TestValidate_BadChatPort(t *testing.T) {
	cfg := validConfig()
	cfg.Chat.Port = 70000

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for out-of-range port")
	}
}

func TestValidate_NegativeShutdownTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.ShutdownTimeout = -1

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for negative shutdown timeout")
	}
}

func TestValidate_SeedDuplicateUser(t *testing.T) {
	cfg := validConfig()
	cfg.Seed.Users = []SeedUser{
		{Name: "alice", Password: "a"},
		{Name: "alice", Password: "b"},
	}

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "duplicate user") {
		t.Fatalf("Expected duplicate user error, got: %v", err)
	}
}

func TestValidate_SeedUserWithoutPassword(t *testing.T) {
	cfg := validConfig()
	cfg.Seed.Users = []SeedUser{{Name: "alice"}}

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for seed user without password")
	}
}

func TestValidate_SeedDuplicateChannel(t *testing.T) {
	cfg := validConfig()
	cfg.Seed.Channels = []string{"lobby", "lobby"}

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "duplicate channel") {
		t.Fatalf("Expected duplicate channel error, got: %v", err)
	}
}

func TestValidate_APIEnabledRequiresSecret(t *testing.T) {
	cfg := validConfig()
	cfg.API.Enabled = true
	cfg.API.Admin.Password = "adminpw"

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "secret") {
		t.Fatalf("Expected missing secret error, got: %v", err)
	}

	cfg.API.JWT.Secret = "test-secret-key-for-testing-minimum-32-chars"
	if err := Validate(cfg); err != nil {
		t.Fatalf("Expected valid config with secret, got: %v", err)
	}
}

func TestValidate_APIEnabledRequiresAdminPassword(t *testing.T) {
	cfg := validConfig()
	cfg.API.Enabled = true
	cfg.API.JWT.Secret = "test-secret-key-for-testing-minimum-32-chars"

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "admin password") {
		t.Fatalf("Expected missing admin password error, got: %v", err)
	}
}
