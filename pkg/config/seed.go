package config

import (
	"github.com/marmos91/parley/internal/logger"
	"github.com/marmos91/parley/pkg/channel"
	"github.com/marmos91/parley/pkg/identity"
)

// SeedConfig declares users and channels created at server startup, before
// the listener opens. Seeded entities behave exactly like ones created over
// the wire: seeded users still LOGIN, seeded channels still need JOIN.
type SeedConfig struct {
	// Users to register at startup
	Users []SeedUser `mapstructure:"users" yaml:"users,omitempty"`

	// Channels to create at startup
	Channels []string `mapstructure:"channels" yaml:"channels,omitempty"`
}

// SeedUser is one pre-registered user.
type SeedUser struct {
	// Name is the username
	Name string `mapstructure:"name" yaml:"name"`

	// Password is the cleartext password; it is hashed on registration and
	// never kept in memory afterwards
	Password string `mapstructure:"password" yaml:"password"`
}

// Apply registers the seed users and creates the seed channels.
//
// Registration failures (which after validation can only mean a name was
// seeded twice across reload paths) are logged and skipped, not fatal: the
// server starts with whatever subset applied cleanly.
func (s *SeedConfig) Apply(users *identity.Registry, channels *channel.Registry) {
	for _, u := range s.Users {
		if !users.Register(u.Name, u.Password) {
			logger.Warn("Seed user skipped", "name", u.Name)
			continue
		}
		logger.Debug("Seeded user", "name", u.Name)
	}

	for _, name := range s.Channels {
		if !channels.Create(name) {
			logger.Warn("Seed channel skipped", "name", name)
			continue
		}
		logger.Debug("Seeded channel", "name", name)
	}

	if len(s.Users) > 0 || len(s.Channels) > 0 {
		logger.Info("Seed data applied", "users", len(s.Users), "channels", len(s.Channels))
	}
}
