// Package hashing provides the deterministic hash primitives used by the
// anonymization actions. All derivations are computed from a single BLAKE2b-256
// digest of the input bytes, so equal inputs always map to equal outputs.
package hashing

import (
	"encoding/hex"
	"math/big"

	"golang.org/x/crypto/blake2b"
)

// DefaultHashLength is the number of hex characters kept when no explicit
// hash length is configured.
const DefaultHashLength = 16

// MaxDateShiftDays bounds the date offset produced by DigestDays (about ten
// years in either direction).
const MaxDateShiftDays = 365 * 10

// Sum returns the BLAKE2b-256 digest of input.
func Sum(input []byte) [32]byte {
	return blake2b.Sum256(input)
}

// HashString computes the digest of input and renders it as lowercase
// base-16, truncated to length characters. A length of 0 selects
// DefaultHashLength; lengths beyond the full digest keep all 64 characters.
func HashString(input []byte, length int) string {
	if length <= 0 {
		length = DefaultHashLength
	}
	digest := Sum(input)
	encoded := hex.EncodeToString(digest[:])
	if length < len(encoded) {
		return encoded[:length]
	}
	return encoded
}

// HashBigInt interprets the digest of input as a big-endian unsigned integer.
func HashBigInt(input []byte) *big.Int {
	digest := Sum(input)
	return new(big.Int).SetBytes(digest[:])
}

// DigestDays reduces the digest of input to a signed day offset in
// [-MaxDateShiftDays, +MaxDateShiftDays].
func DigestDays(input []byte) int {
	span := big.NewInt(2*MaxDateShiftDays + 1)
	mod := new(big.Int).Mod(HashBigInt(input), span)
	return int(mod.Int64()) - MaxDateShiftDays
}
