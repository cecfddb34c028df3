// Package rollhash implements the two rolling-hash families the chunker
// can be configured with: RollSum (Adler-style) and BuzHash (cyclic).
// Both produce a 32-bit digest over a sliding byte window and support an
// O(1) update as the window advances one byte at a time.
package rollhash

import "fmt"

// Hash is a rolling digest over a fixed-width sliding window. Callers own
// the window: Roll is told which byte is leaving the window and which byte
// is entering it.
type Hash interface {
	// Roll advances the window by one byte, updating the digest that Sum
	// reports.
	Roll(outByte, inByte byte)
	// Sum returns the current digest without advancing the window.
	Sum() uint32
	// WindowSize returns the configured window width in bytes.
	WindowSize() int
	// Reset returns the hash to its zero-window initial state.
	Reset()
}

// Family identifies which rolling-hash algorithm a ChunkerConfig selects.
type Family uint8

const (
	FamilyRollSum Family = 0
	FamilyBuzHash Family = 1
)

func (f Family) String() string {
	switch f {
	case FamilyRollSum:
		return "rollsum"
	case FamilyBuzHash:
		return "buzhash"
	default:
		return "unknown"
	}
}

// ParseFamily parses a config-file family name ("rollsum" or "buzhash").
func ParseFamily(name string) (Family, error) {
	switch name {
	case "rollsum", "":
		return FamilyRollSum, nil
	case "buzhash":
		return FamilyBuzHash, nil
	default:
		return 0, fmt.Errorf("rollhash: unknown hash_family %q", name)
	}
}

// New constructs the rolling hash for the given family and window size.
func New(family Family, windowSize int) Hash {
	switch family {
	case FamilyBuzHash:
		return NewBuzHash(windowSize)
	default:
		return NewRollSum(windowSize)
	}
}

// BoundaryHit reports whether digest h marks a chunk boundary under the
// given avgChunkSize (which must be a power of two, per ChunkerConfig).
// A boundary is declared when the low bits of h are all ones.
func BoundaryHit(h uint32, avgChunkSize uint32) bool {
	mask := avgChunkSize - 1
	return h&mask == mask
}
