package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// tokenBytes is the entropy of a session token. 32 bytes = 256 bits.
const tokenBytes = 32

// Manager mints opaque bearer tokens and produces the fingerprints that get
// stored in their place. It also signs the password-reset tokens (reset.go).
type Manager struct {
	secret   []byte
	resetTTL time.Duration
}

func NewManager(secret string, resetTTL time.Duration) *Manager {
	return &Manager{
		secret:   []byte(secret),
		resetTTL: resetTTL,
	}
}

// NewToken returns a fresh opaque session token: 32 bytes from crypto/rand,
// hex encoded. The raw value is handed to the client once and never stored.
func (m *Manager) NewToken() (string, error) {
	buf := make([]byte, tokenBytes)

	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(buf), nil
}

// Hash returns the deterministic HMAC fingerprint of a raw token
// (server-side pepper = token secret bytes). Store this, never the raw token.
func (m *Manager) Hash(raw string) string {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(raw))
	return hex.EncodeToString(h.Sum(nil))
}
