package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"

	"github.com/kelvinlabs/bita/internal/chunker"
	"github.com/kelvinlabs/bita/internal/codec"
	"github.com/kelvinlabs/bita/internal/stronghash"
)

// Writer is the streaming archive builder: it accepts finalized chunks in
// descriptor order, appends their compressed bytes to the chunk-data
// region, and records each one's archive offset. Finalize serializes the
// dictionary and writes the complete header.
//
// The chunk-data region is accumulated in memory as chunks arrive; at most
// MaxChunkSize per chunk, this is simpler than spooling to a scratch file
// and avoids a second I/O pass.
type Writer struct {
	data        bytes.Buffer
	descriptors []Descriptor
	rebuild     []uint32
}

// NewWriter creates an empty archive builder.
func NewWriter() *Writer {
	return &Writer{}
}

// AddChunk registers a newly observed unique chunk: it appends compressed
// to the chunk-data region and returns the descriptor index to use for
// every RecordOccurrence call for this chunk (including this first one).
func (w *Writer) AddChunk(strongHash stronghash.Hash, uncompressedSize uint32, tag codec.Tag, compressed []byte) uint32 {
	offset := uint64(w.data.Len())
	w.data.Write(compressed)
	w.descriptors = append(w.descriptors, Descriptor{
		StrongHash:       strongHash,
		UncompressedSize: uncompressedSize,
		ArchiveOffset:    offset,
		CompressedSize:   uint32(len(compressed)),
		Codec:            tag,
	})
	return uint32(len(w.descriptors) - 1)
}

// RecordOccurrence appends descIdx to the source-rebuild sequence: called
// once per occurrence of a chunk in source order, including the first.
func (w *Writer) RecordOccurrence(descIdx uint32) {
	w.rebuild = append(w.rebuild, descIdx)
}

// Finalize serializes the dictionary built from cfg, sourceTotalSize,
// sourceHash, and the chunks/occurrences recorded so far, then writes the
// complete archive (header, dictionary frame, dictionary hash, chunk-data
// region) to dst.
func (w *Writer) Finalize(dst io.Writer, cfg chunker.Config, sourceTotalSize uint64, sourceHash stronghash.Hash) (*Dictionary, error) {
	dict := &Dictionary{
		SourceTotalSize: sourceTotalSize,
		SourceHash:      sourceHash,
		ChunkerConfig:   cfg,
		Descriptors:     w.descriptors,
		RebuildSequence: w.rebuild,
	}
	if err := dict.Validate(); err != nil {
		return nil, fmt.Errorf("archive: refusing to finalize invalid dictionary: %w", err)
	}

	dictBytes := encodeDictionary(dict)

	if _, err := dst.Write(Magic[:]); err != nil {
		return nil, fmt.Errorf("archive: write magic: %w", err)
	}
	if _, err := dst.Write([]byte{FormatVersion}); err != nil {
		return nil, fmt.Errorf("archive: write format version: %w", err)
	}

	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(dictBytes)))
	if _, err := dst.Write(lenBuf[:]); err != nil {
		return nil, fmt.Errorf("archive: write header length: %w", err)
	}

	if _, err := dst.Write(dictBytes); err != nil {
		return nil, fmt.Errorf("archive: write dictionary: %w", err)
	}

	dictHash := blake2b.Sum256(dictBytes)
	var hashFrame [DictionaryHashSize]byte
	copy(hashFrame[:32], dictHash[:])
	if _, err := dst.Write(hashFrame[:]); err != nil {
		return nil, fmt.Errorf("archive: write dictionary hash: %w", err)
	}

	if _, err := dst.Write(w.data.Bytes()); err != nil {
		return nil, fmt.Errorf("archive: write chunk-data region: %w", err)
	}

	return dict, nil
}
