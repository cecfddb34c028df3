// Package dictionary builds the in-memory lookup structure (C6) over a
// parsed archive.Dictionary: a strong-hash → descriptor-index map, the
// per-descriptor source-offset lists, and the coverage bitmap tracked
// during a clone.
package dictionary

import (
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/kelvinlabs/bita/internal/archive"
	"github.com/kelvinlabs/bita/internal/stronghash"
)

// Index is built once from a parsed Dictionary and is read-only for the
// rest of a clone; only the coverage bitmap mutates, under its own lock.
type Index struct {
	Dict *archive.Dictionary

	byHash  map[stronghash.Hash]uint32
	offsets [][]uint64

	mu       sync.Mutex
	covered  *bitset.BitSet
	numCover uint
}

// Build constructs an Index from dict. dict is assumed already validated
// (archive.Dictionary.Validate).
func Build(dict *archive.Dictionary) *Index {
	idx := &Index{
		Dict:    dict,
		byHash:  make(map[stronghash.Hash]uint32, len(dict.Descriptors)),
		offsets: dict.SourceOffsets(),
		covered: bitset.New(uint(len(dict.Descriptors))),
	}
	for i, d := range dict.Descriptors {
		idx.byHash[d.StrongHash] = uint32(i)
	}
	return idx
}

// Lookup resolves a strong hash to its descriptor index.
func (idx *Index) Lookup(h stronghash.Hash) (uint32, bool) {
	i, ok := idx.byHash[h]
	return i, ok
}

// SourceOffsets returns the sorted source offsets where descriptor descIdx
// lands.
func (idx *Index) SourceOffsets(descIdx uint32) []uint64 {
	return idx.offsets[descIdx]
}

// MarkCovered records descIdx as materialized. Returns true if this call is
// the one that covered it (false if it was already covered), so callers
// can tell first-delivery from a redundant seed hit.
func (idx *Index) MarkCovered(descIdx uint32) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.covered.Test(uint(descIdx)) {
		return false
	}
	idx.covered.Set(uint(descIdx))
	idx.numCover++
	return true
}

// IsCovered reports whether descIdx has already been materialized.
func (idx *Index) IsCovered(descIdx uint32) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.covered.Test(uint(descIdx))
}

// Complete reports whether every descriptor has been covered.
func (idx *Index) Complete() bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.numCover == uint(len(idx.Dict.Descriptors))
}

// Uncovered returns the descriptor indices not yet covered, in ascending
// order.
func (idx *Index) Uncovered() []uint32 {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	var out []uint32
	for i := uint32(0); i < uint32(len(idx.Dict.Descriptors)); i++ {
		if !idx.covered.Test(uint(i)) {
			out = append(out, i)
		}
	}
	return out
}
