package common

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// Hasher accumulates a SHA-256 digest over everything written to it.
type Hasher struct {
	h hash.Hash
}

func NewHasher() *Hasher {
	return &Hasher{h: sha256.New()}
}

func (h *Hasher) Write(p []byte) (int, error) {
	return h.h.Write(p)
}

// Sum returns the hex digest of the bytes written so far.
func (h *Hasher) Sum() string {
	return hex.EncodeToString(h.h.Sum(nil))
}

// ETag returns a strong entity tag for data, quoted for use in HTTP headers.
func ETag(data []byte) string {
	h := NewHasher()
	h.Write(data)
	return `"` + h.Sum()[:32] + `"`
}
