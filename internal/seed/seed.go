// Package seed implements the seed scanner (C7): it runs the chunker over a
// seed byte source and hands every chunk that matches the dictionary index
// to a delivery callback, marking it covered so later seeds and the remote
// fetch phase skip it.
package seed

import (
	"context"
	"fmt"
	"io"

	"github.com/kelvinlabs/bita/internal/chunker"
	"github.com/kelvinlabs/bita/internal/dictionary"
	"github.com/kelvinlabs/bita/internal/stronghash"
)

// Delivery is one seed chunk that matched the dictionary and was not yet
// covered. SeedOffset is the chunk's offset within the seed stream itself,
// not the source/output offset. The clone assembler does not read it: its
// self-seed pass finds already-in-place bytes with its own residency scan
// of the output.
type Delivery struct {
	DescIndex  uint32
	Data       []byte
	SeedOffset int64
}

// Scanner drives one seed source at a time against a shared dictionary
// Index. It holds no per-seed state, so the same Scanner can be reused
// across a file seed, a streamed seed, and a self-seed pass.
type Scanner struct {
	idx *dictionary.Index
}

// New builds a Scanner over idx. idx's coverage bitmap is shared and
// mutated across every Scan call made with this Scanner.
func New(idx *dictionary.Index) *Scanner {
	return &Scanner{idx: idx}
}

// Scan reads r to EOF (or until ctx is cancelled, or until idx reports every
// descriptor covered), delivering each newly-covered chunk to deliver in the
// order it is found. deliver returning an error aborts the scan.
//
// Scan does not care whether r is a file, a device, or a non-seekable
// stream; every seed kind is just an io.Reader to this function.
func (s *Scanner) Scan(ctx context.Context, r io.Reader, deliver func(Delivery) error) error {
	ck, err := chunker.New(r, s.idx.Dict.ChunkerConfig)
	if err != nil {
		return fmt.Errorf("seed: building chunker: %w", err)
	}

	for {
		if s.idx.Complete() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		chunk, err := ck.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("seed: chunking failed: %w", err)
		}

		sh := stronghash.Sum(chunk.Data)
		descIdx, ok := s.idx.Lookup(sh)
		if !ok {
			continue
		}
		if !s.idx.MarkCovered(descIdx) {
			continue
		}
		if err := deliver(Delivery{DescIndex: descIdx, Data: chunk.Data, SeedOffset: chunk.Offset}); err != nil {
			return err
		}
	}
}
