package clientcode

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Normalize canonicalizes user-entered code text: trimmed and uppercased.
// All hashing and comparison goes through the normalized form.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Hasher computes the durable lookup key for a client code. The hash is a
// keyed HMAC-SHA256 so the stored value cannot be inverted by precomputing
// the 32^8 code space without the server secret. This package is the only
// place hashes are ever computed.
type Hasher struct {
	secret []byte
}

// NewHasher creates a Hasher keyed with the given server secret.
func NewHasher(secret string) *Hasher {
	return &Hasher{secret: []byte(secret)}
}

// Hash returns the hex-encoded HMAC of the normalized code.
func (h *Hasher) Hash(code string) string {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(Normalize(code)))
	return hex.EncodeToString(mac.Sum(nil))
}
