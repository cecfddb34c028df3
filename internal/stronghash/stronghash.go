// Package stronghash provides the chunk-identity digest: a 32-byte
// Blake2b-256 hash, bit-identical to any other implementation's so
// archives interoperate across implementations.
package stronghash

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Size is the digest length in bytes.
const Size = 32

// Hash is a chunk-identity / source-integrity digest.
type Hash [Size]byte

// Sum computes the strong hash of data.
func Sum(data []byte) Hash {
	return Hash(blake2b.Sum256(data))
}

// Equal reports whether two hashes are identical, in constant time.
func (h Hash) Equal(other Hash) bool {
	return subtle.ConstantTimeCompare(h[:], other[:]) == 1
}

func (h Hash) String() string {
	return fmt.Sprintf("%x", h[:])
}

// Bytes returns the digest as a byte slice.
func (h Hash) Bytes() []byte {
	return h[:]
}

// FromBytes parses a digest out of a 32-byte slice.
func FromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != Size {
		return h, fmt.Errorf("stronghash: want %d bytes, got %d", Size, len(b))
	}
	copy(h[:], b)
	return h, nil
}
