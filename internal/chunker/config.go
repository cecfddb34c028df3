package chunker

import (
	"fmt"
	"math/bits"

	"github.com/kelvinlabs/bita/internal/rollhash"
)

// Config is the chunker's boundary policy: immutable once set, and stored
// verbatim in every archive so cloning can replay the same boundaries the
// compressor used.
type Config struct {
	HashFamily     rollhash.Family `yaml:"hash_family"`
	HashWindowSize uint32          `yaml:"hash_window_size"`
	MinChunkSize   uint32          `yaml:"min_chunk_size"`
	AvgChunkSize   uint32          `yaml:"avg_chunk_size"`
	MaxChunkSize   uint32          `yaml:"max_chunk_size"`
}

// ErrConfig reports an invalid chunker configuration.
type ErrConfig struct {
	Reason string
}

func (e *ErrConfig) Error() string { return fmt.Sprintf("chunker: invalid config: %s", e.Reason) }

// DefaultWindowSize returns the default window width for family.
func DefaultWindowSize(family rollhash.Family) uint32 {
	if family == rollhash.FamilyBuzHash {
		return 20
	}
	return 64
}

// DefaultConfig returns a reasonable config for family with the default
// window size and a 16KiB/64KiB/256KiB min/avg/max split.
func DefaultConfig(family rollhash.Family) Config {
	return Config{
		HashFamily:     family,
		HashWindowSize: DefaultWindowSize(family),
		MinChunkSize:   16 * 1024,
		AvgChunkSize:   64 * 1024,
		MaxChunkSize:   256 * 1024,
	}
}

// Validate checks the three-way size ordering and the avg-is-power-of-two
// constraint (both load-bearing: avg-1 is used directly as the boundary
// mask).
func (c Config) Validate() error {
	if c.MinChunkSize == 0 {
		return &ErrConfig{Reason: "min_chunk_size must be >= 1"}
	}
	if c.MinChunkSize > c.AvgChunkSize {
		return &ErrConfig{Reason: "min_chunk_size must be <= avg_chunk_size"}
	}
	if c.AvgChunkSize > c.MaxChunkSize {
		return &ErrConfig{Reason: "avg_chunk_size must be <= max_chunk_size"}
	}
	if c.AvgChunkSize == 0 || bits.OnesCount32(c.AvgChunkSize) != 1 {
		return &ErrConfig{Reason: "avg_chunk_size must be a power of two"}
	}
	if c.HashWindowSize == 0 {
		return &ErrConfig{Reason: "hash_window_size must be >= 1"}
	}
	return nil
}

// Mask returns the boundary mask derived from AvgChunkSize (avg-1).
func (c Config) Mask() uint32 {
	return c.AvgChunkSize - 1
}
