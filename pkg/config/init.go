package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// sampleConfig is the commented configuration template written by
// 'parley init'. It is a template rather than a marshal of
// GetDefaultConfig so the generated file can carry comments and
// commented-out optional sections. The %s placeholder receives a
// freshly generated JWT secret.
const sampleConfig = `# Parley chat server configuration
#
# Every value can be overridden with an environment variable:
#   PARLEY_<SECTION>_<KEY>  (underscores for nested keys)
# Example: PARLEY_LOGGING_LEVEL=DEBUG

logging:
  # Minimum log level: DEBUG, INFO, WARN, ERROR
  level: INFO
  # Output format: text, json
  format: text
  # Where logs are written: stdout, stderr, or a file path
  output: stdout

# Maximum time to wait for sessions to finish during shutdown
shutdown_timeout: 5s

chat:
  # Address and port the chat listener binds to
  bind_address: localhost
  port: 12345
  # Maximum concurrent client connections (0 = unlimited)
  max_connections: 0

metrics:
  # Prometheus metrics, served on the admin API's /metrics endpoint
  enabled: false

api:
  # Optional admin REST API (read-only views plus login)
  enabled: false
  port: 8080
  jwt:
    # HMAC signing key, generated at init time. The PARLEY_API_SECRET
    # environment variable takes precedence over this value.
    secret: %s
    access_token_duration: 15m
  admin:
    username: admin
    # password: ""

# Users and channels created at startup. Seeded users still LOGIN over the
# chat protocol; seeded channels still need JOIN.
seed:
  channels:
    - lobby
  # users:
  #   - name: alice
  #     password: changeme
`

// InitConfig writes the sample configuration file to the default location.
//
// Returns the path of the written file. Fails if the file already exists
// unless force is true.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes the sample configuration file to an explicit path.
func InitConfigToPath(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	secret, err := generateJWTSecret()
	if err != nil {
		return fmt.Errorf("failed to generate JWT secret: %w", err)
	}

	content := fmt.Sprintf(sampleConfig, secret)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateJWTSecret produces a 64-character hex secret for HS256 signing.
func generateJWTSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
