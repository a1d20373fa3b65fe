package identity

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
)

func TestNewCredential(t *testing.T) {
	cred, err := NewCredential("hunter2")
	require.NoError(t, err)

	assert.Len(t, cred.Salt, SaltLength)
	assert.Len(t, cred.Hash, KeyLength)

	// The digest must be exactly PBKDF2-HMAC-SHA256 over the password with
	// the stored salt; clients registered by one build must verify on another.
	want := pbkdf2.Key([]byte("hunter2"), cred.Salt, PBKDF2Iterations, KeyLength, sha256.New)
	assert.Equal(t, want, cred.Hash)
}

func TestNewCredential_DistinctSalts(t *testing.T) {
	c1, err := NewCredential("same-password")
	require.NoError(t, err)
	c2, err := NewCredential("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, c1.Salt, c2.Salt)
	assert.NotEqual(t, c1.Hash, c2.Hash)

	assert.True(t, c1.Verify("same-password"))
	assert.True(t, c2.Verify("same-password"))
}

func TestCredential_Verify(t *testing.T) {
	cred, err := NewCredential("correct horse")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{name: "correct password", password: "correct horse", want: true},
		{name: "wrong password", password: "battery staple", want: false},
		{name: "empty password", password: "", want: false},
		{name: "prefix of password", password: "correct", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cred.Verify(tt.password))
		})
	}
}

func TestCredential_VerifyEmptyPassword(t *testing.T) {
	// An empty password is a valid (if unwise) credential; it must round-trip.
	cred, err := NewCredential("")
	require.NoError(t, err)

	assert.True(t, cred.Verify(""))
	assert.False(t, cred.Verify("anything"))
}
