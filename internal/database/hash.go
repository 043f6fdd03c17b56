// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package database

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Supported user hash algorithms.
const (
	HashSHA256  = "sha256"
	HashBLAKE2b = "blake2b"
)

// Hasher turns raw user identifiers into salted one-way hashes. The same
// identifier always yields the same hash for a given algorithm and salt.
type Hasher struct {
	algorithm string
	salt      string
}

// NewHasher returns a hasher for algorithm ("sha256" or "blake2b").
// For blake2b the salt is the MAC key and must be at most 64 bytes.
func NewHasher(algorithm, salt string) (*Hasher, error) {
	switch algorithm {
	case "", HashSHA256:
		return &Hasher{algorithm: HashSHA256, salt: salt}, nil
	case HashBLAKE2b:
		if len(salt) > blake2b.Size {
			return nil, fmt.Errorf("blake2b salt must be at most %d bytes, got %d", blake2b.Size, len(salt))
		}
		return &Hasher{algorithm: HashBLAKE2b, salt: salt}, nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", algorithm)
	}
}

// Algorithm returns the configured algorithm name.
func (h *Hasher) Algorithm() string {
	return h.algorithm
}

// Hash returns the lowercase hex digest for identifier.
func (h *Hasher) Hash(identifier string) string {
	if h.algorithm == HashBLAKE2b {
		// New256 only fails for keys longer than 64 bytes, rejected in NewHasher.
		mac, err := blake2b.New256([]byte(h.salt))
		if err != nil {
			panic(err)
		}
		mac.Write([]byte(identifier))
		return hex.EncodeToString(mac.Sum(nil))
	}
	sum := sha256.Sum256([]byte(identifier + h.salt))
	return hex.EncodeToString(sum[:])
}
