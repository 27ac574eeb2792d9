package services

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// userHashLen is the number of hex characters kept from the digest.
const userHashLen = 16

// UserHasher derives a stable pseudonymous visitor id from a client IP.
// The raw IP is never stored.
type UserHasher struct {
	key [blake2b.Size256]byte
}

// NewUserHasher derives the hashing key from salt.
func NewUserHasher(salt string) *UserHasher {
	return &UserHasher{key: blake2b.Sum256([]byte(salt))}
}

// Hash returns the keyed BLAKE2b-256 digest of ip, hex-encoded and
// truncated to 16 characters.
func (h *UserHasher) Hash(ip string) string {
	m, err := blake2b.New256(h.key[:])
	if err != nil {
		// Only reachable with keys longer than 64 bytes.
		panic(err)
	}
	_, _ = m.Write([]byte(ip))
	return hex.EncodeToString(m.Sum(nil))[:userHashLen]
}
