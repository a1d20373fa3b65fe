package config

import (
	"testing"

	"github.com/marmos91/parley/pkg/channel"
	"github.com/marmos91/parley/pkg/identity"
)

func TestSeedApply(t *testing.T) {
	users := identity.NewRegistry()
	channels := channel.NewRegistry()

	seed := SeedConfig{
		Users: []SeedUser{
			{Name: "alice", Password: "pw1"},
			{Name: "bob", Password: "pw2"},
		},
		Channels: []string{"lobby", "random"},
	}
	seed.Apply(users, channels)

	if users.Count() != 2 {
		t.Fatalf("Expected 2 seeded users, got %d", users.Count())
	}
	if channels.Count() != 2 {
		t.Fatalf("Expected 2 seeded channels, got %d", channels.Count())
	}

	// Seeded users authenticate with their seed password
	alice := users.Find("alice")
	if alice == nil {
		t.Fatal("Expected seeded user alice to exist")
	}

	// A seeded channel behaves like one created over the wire
	if channels.Find("lobby") == nil {
		t.Fatal("Expected seeded channel lobby to exist")
	}
}

func TestSeedApply_SkipsDuplicates(t *testing.T) {
	users := identity.NewRegistry()
	channels := channel.NewRegistry()
	users.Register("alice", "existing")
	channels.Create("lobby")

	seed := SeedConfig{
		Users:    []SeedUser{{Name: "alice", Password: "other"}},
		Channels: []string{"lobby"},
	}
	seed.Apply(users, channels)

	// The existing registration wins; apply is not fatal
	if users.Count() != 1 {
		t.Fatalf("Expected 1 user after duplicate seed, got %d", users.Count())
	}
	if channels.Count() != 1 {
		t.Fatalf("Expected 1 channel after duplicate seed, got %d", channels.Count())
	}
}

func TestSeedApply_Empty(t *testing.T) {
	users := identity.NewRegistry()
	channels := channel.NewRegistry()

	var seed SeedConfig
	seed.Apply(users, channels)

	if users.Count() != 0 || channels.Count() != 0 {
		t.Fatal("Expected empty registries after empty seed")
	}
}
