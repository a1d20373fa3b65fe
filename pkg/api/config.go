package api

import (
	"os"
	"time"

	"github.com/marmos91/parley/internal/logger"
)

// EnvAPISecret is the name of the environment variable for the admin API's
// JWT signing secret.
const EnvAPISecret = "PARLEY_API_SECRET"

// Config configures the admin REST API HTTP server.
//
// The API server provides health checks, admin authentication, read-only
// views of the chat registries, and the Prometheus metrics endpoint. It is
// optional: when Enabled is false the server is never started.
type Config struct {
	// Enabled controls whether the admin API server is started.
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the API endpoints.
	// Default: 8080
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. A zero or negative value means there is no timeout.
	// Default: 10s
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	// A zero or negative value means there is no timeout.
	// Default: 10s
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled. If zero, the value of ReadTimeout is used.
	// Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// JWT configures JWT authentication for API endpoints.
	JWT JWTConfig `mapstructure:"jwt" yaml:"jwt"`

	// Admin is the credential the /auth/login endpoint accepts.
	Admin AdminConfig `mapstructure:"admin" yaml:"admin"`
}

// JWTConfig configures JWT token generation and validation.
type JWTConfig struct {
	// Secret is the HMAC signing key for JWT tokens.
	// Must be at least 32 characters long.
	// Can also be set via the PARLEY_API_SECRET environment variable.
	// Environment variable takes precedence over config file.
	Secret string `mapstructure:"secret" yaml:"secret,omitempty"`

	// AccessTokenDuration is the lifetime of access tokens.
	// Default: 15m
	AccessTokenDuration time.Duration `mapstructure:"access_token_duration" yaml:"access_token_duration"`
}

// AdminConfig is the single admin identity for the API.
//
// The admin is an API-only identity: it does not exist in the chat user
// registry and cannot LOGIN over the chat protocol.
type AdminConfig struct {
	// Username is the admin username.
	// Default: "admin"
	Username string `mapstructure:"username" yaml:"username"`

	// Password is the admin password. It is hashed at server startup and
	// compared in constant time on login.
	Password string `mapstructure:"password" yaml:"password,omitempty"`
}

// GetSecret returns the JWT secret, preferring the environment variable.
// Returns empty string if neither env var nor config secret is set.
// Logs a warning if the environment variable overrides a config file value.
func (c *Config) GetSecret() string {
	envSecret := os.Getenv(EnvAPISecret)
	if envSecret != "" {
		if c.JWT.Secret != "" && c.JWT.Secret != envSecret {
			logger.Warn("JWT secret from environment variable overrides config file value",
				"env_var", EnvAPISecret)
		}
		return envSecret
	}
	return c.JWT.Secret
}

// HasSecret returns whether a JWT secret is configured.
func (c *Config) HasSecret() bool {
	return c.GetSecret() != ""
}
