package clientcode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agencykit/portal/internal/clientcode"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ABCD2345", clientcode.Normalize("abcd2345"))
	assert.Equal(t, "ABCD2345", clientcode.Normalize("  ABCD2345  "))
	assert.Equal(t, "ABCD2345", clientcode.Normalize("\tabcd2345\n"))
	assert.Equal(t, "", clientcode.Normalize("   "))
}

func TestHasher_Deterministic(t *testing.T) {
	h := clientcode.NewHasher("secret-key")

	assert.Equal(t, h.Hash("ABCD2345"), h.Hash("ABCD2345"))
}

func TestHasher_CaseAndWhitespaceInsensitive(t *testing.T) {
	h := clientcode.NewHasher("secret-key")

	// Hashing normalizes, so user-entered variants of the same code must
	// resolve to the same lookup key.
	assert.Equal(t, h.Hash("ABCD2345"), h.Hash("abcd2345"))
	assert.Equal(t, h.Hash("ABCD2345"), h.Hash("  abcd2345 "))
}

func TestHasher_SecretDependent(t *testing.T) {
	h1 := clientcode.NewHasher("secret-one")
	h2 := clientcode.NewHasher("secret-two")

	assert.NotEqual(t, h1.Hash("ABCD2345"), h2.Hash("ABCD2345"))
}

func TestHasher_DistinctCodes(t *testing.T) {
	h := clientcode.NewHasher("secret-key")

	assert.NotEqual(t, h.Hash("ABCD2345"), h.Hash("ABCD2346"))
}

func TestHasher_HexOutput(t *testing.T) {
	h := clientcode.NewHasher("secret-key")

	hash := h.Hash("ABCD2345")
	assert.Len(t, hash, 64, "hex-encoded SHA-256 HMAC should be 64 characters")
	assert.Regexp(t, "^[0-9a-f]+$", hash)
}
