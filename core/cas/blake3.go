package cas

import (
	"encoding/hex"
	"regexp"

	"github.com/zeebo/blake3"
)

// blake3Pattern matches a lowercase BLAKE3-256 hex digest (64 characters).
var blake3Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Hash computes the BLAKE3-256 hex digest of data without storing it.
func Hash(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// isValidHash checks if a hash string is a valid BLAKE3 hex digest.
func isValidHash(hash string) bool {
	return blake3Pattern.MatchString(hash)
}
