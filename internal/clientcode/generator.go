package clientcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Alphabet is the set of symbols client codes are drawn from. Visually
// ambiguous glyphs (0/O, 1/I) are excluded so codes survive being read
// aloud or retyped from paper.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the fixed length of a client code.
const CodeLength = 8

// Generate produces a candidate client code sampled uniformly from Alphabet.
// Candidates are not guaranteed unique; the store enforces uniqueness with a
// retry loop. Codes are bearer credentials, so sampling uses crypto/rand.
func Generate() (string, error) {
	max := big.NewInt(int64(len(Alphabet)))
	buf := make([]byte, CodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("sampling code character: %w", err)
		}
		buf[i] = Alphabet[n.Int64()]
	}
	return string(buf), nil
}
