// Package credentials stores the parleyctl session: server URL, username,
// and the access token from the last login.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultConfigDir is the directory for parleyctl configuration.
	DefaultConfigDir = "parleyctl"
	// CredentialsFileName is the name of the credentials file.
	CredentialsFileName = "credentials.json"
	// FilePermissions for the credentials file (read/write for owner only).
	FilePermissions = 0600
	// DirPermissions for config directories.
	DirPermissions = 0700
)

// ErrNotLoggedIn indicates no valid credentials exist.
var ErrNotLoggedIn = errors.New("not logged in - run 'parleyctl login' first")

// Credentials is one saved admin session. parleyctl talks to a single
// server, so there is no multi-context model: the last login wins.
type Credentials struct {
	ServerURL   string    `json:"server_url"`
	Username    string    `json:"username,omitempty"`
	AccessToken string    `json:"access_token,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
}

// IsExpired returns true if the access token has expired.
func (c *Credentials) IsExpired() bool {
	if c.ExpiresAt.IsZero() {
		return true
	}
	// Consider expired if within 60 seconds of expiration
	return time.Now().Add(60 * time.Second).After(c.ExpiresAt)
}

// Store manages credential storage and retrieval.
type Store struct {
	path string
}

// NewStore creates a credential store at the default location.
func NewStore() (*Store, error) {
	path, err := credentialsPath()
	if err != nil {
		return nil, err
	}
	return &Store{path: path}, nil
}

// NewStoreAt creates a credential store at an explicit path. Used by tests.
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// credentialsPath returns the path to the credentials file.
func credentialsPath() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise ~/.config
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}

	return filepath.Join(configHome, DefaultConfigDir, CredentialsFileName), nil
}

// Load reads the saved credentials.
// Returns ErrNotLoggedIn if no credentials file exists.
func (s *Store) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotLoggedIn
		}
		return nil, err
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("corrupt credentials file %s: %w", s.path, err)
	}
	return &creds, nil
}

// Save writes the credentials to disk with owner-only permissions.
func (s *Store) Save(creds *Credentials) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, DirPermissions); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, FilePermissions)
}

// Clear removes the saved credentials (logout). Clearing credentials that
// do not exist is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Path returns the path to the credentials file.
func (s *Store) Path() string {
	return s.path
}
