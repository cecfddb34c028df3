// Package archive implements the on-disk archive format: header,
// length-prefixed dictionary frame, and chunk-data region.
package archive

import (
	"fmt"

	"github.com/kelvinlabs/bita/internal/chunker"
	"github.com/kelvinlabs/bita/internal/codec"
	"github.com/kelvinlabs/bita/internal/stronghash"
)

// Descriptor is one unique chunk: identity, size, and where its compressed
// bytes live in the chunk-data region (offset relative to the region's
// start).
type Descriptor struct {
	StrongHash       stronghash.Hash
	UncompressedSize uint32
	ArchiveOffset    uint64
	CompressedSize   uint32
	Codec            codec.Tag
}

// Dictionary is the parsed structured record at the head of every archive:
// source size and hash, the chunker config it was built with, the unique
// chunk descriptors, and the source-rebuild sequence (one descriptor index
// per occurrence of a chunk in source order).
type Dictionary struct {
	SourceTotalSize uint64
	SourceHash      stronghash.Hash
	ChunkerConfig   chunker.Config
	Descriptors     []Descriptor
	RebuildSequence []uint32
}

// Validate checks the dictionary invariants: rebuild indices are in range,
// sizes sum to the source total, and every descriptor is referenced at
// least once.
func (d *Dictionary) Validate() error {
	seen := make([]bool, len(d.Descriptors))
	var total uint64
	for i, idx := range d.RebuildSequence {
		if int(idx) >= len(d.Descriptors) {
			return fmt.Errorf("archive: rebuild sequence[%d] = %d out of range (have %d descriptors)", i, idx, len(d.Descriptors))
		}
		seen[idx] = true
		total += uint64(d.Descriptors[idx].UncompressedSize)
	}
	if total != d.SourceTotalSize {
		return fmt.Errorf("archive: rebuild sequence sums to %d bytes, want source_total_size %d", total, d.SourceTotalSize)
	}
	for i, ok := range seen {
		if !ok {
			return fmt.Errorf("archive: descriptor %d is never referenced by the rebuild sequence", i)
		}
	}
	return nil
}

// SourceOffsets derives, for each descriptor, the sorted list of source
// offsets where that chunk lands. Computed once at dictionary load.
func (d *Dictionary) SourceOffsets() [][]uint64 {
	offsets := make([][]uint64, len(d.Descriptors))
	var pos uint64
	for _, idx := range d.RebuildSequence {
		offsets[idx] = append(offsets[idx], pos)
		pos += uint64(d.Descriptors[idx].UncompressedSize)
	}
	return offsets
}
