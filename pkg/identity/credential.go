package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2Iterations is the iteration count for password hashing.
// REGISTER and LOGIN hash inline on the chat path, so this stays low.
// Not a config knob: stored credentials depend on it.
const PBKDF2Iterations = 1000

// SaltLength is the number of random salt bytes generated per credential.
const SaltLength = 16

// KeyLength is the PBKDF2 output length in bytes.
const KeyLength = 32

// Credential holds the salted PBKDF2-HMAC-SHA256 digest of a password.
// The plaintext password is never stored.
type Credential struct {
	Salt []byte
	Hash []byte
}

// NewCredential derives a credential from a plaintext password using a fresh
// random salt.
//
// Returns an error only if the system's secure random source fails.
func NewCredential(password string) (Credential, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return Credential{}, fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := pbkdf2.Key([]byte(password), salt, PBKDF2Iterations, KeyLength, sha256.New)

	return Credential{Salt: salt, Hash: hash}, nil
}

// Verify reports whether the password matches this credential.
// The digest comparison is constant-time.
func (c Credential) Verify(password string) bool {
	computed := pbkdf2.Key([]byte(password), c.Salt, PBKDF2Iterations, KeyLength, sha256.New)
	return subtle.ConstantTimeCompare(computed, c.Hash) == 1
}
