// Package chunker implements the content-defined chunker: it streams
// bytes in and emits (offset, data) chunks whose boundaries are decided by
// a rolling hash and the size policy in Config. A boundary falls where the
// rolling digest's low bits are all ones, subject to the min/max size
// bounds; the max-size split takes precedence when both could fire on the
// same byte.
package chunker

import (
	"bufio"
	"io"

	"github.com/kelvinlabs/bita/internal/rollhash"
)

// Chunk is one emitted, byte-exact slice of the input.
type Chunk struct {
	Offset int64
	Data   []byte
}

// Chunker drives a single input stream to completion. It is not safe for
// concurrent use by multiple goroutines; the seed scanner and compressor
// each own one per stream.
type Chunker struct {
	cfg    Config
	r      *bufio.Reader
	offset int64
	done   bool
}

// New validates cfg and wraps r for chunking.
func New(r io.Reader, cfg Config) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{cfg: cfg, r: bufio.NewReaderSize(r, 64*1024)}, nil
}

// Next returns the next chunk, or io.EOF once the stream is exhausted.
func (c *Chunker) Next() (Chunk, error) {
	if c.done {
		return Chunk{}, io.EOF
	}

	window := make([]byte, c.cfg.HashWindowSize)
	winPos := 0
	windowFill := uint32(0)
	h := rollhash.New(c.cfg.HashFamily, int(c.cfg.HashWindowSize))

	startOffset := c.offset
	cur := make([]byte, 0, c.cfg.AvgChunkSize)

	for {
		b, err := c.r.ReadByte()
		if err == io.EOF {
			c.done = true
			if len(cur) == 0 {
				return Chunk{}, io.EOF
			}
			return Chunk{Offset: startOffset, Data: cur}, nil
		}
		if err != nil {
			return Chunk{}, err
		}

		cur = append(cur, b)
		c.offset++

		outByte := window[winPos]
		window[winPos] = b
		winPos = (winPos + 1) % len(window)
		h.Roll(outByte, b)
		if windowFill < uint32(len(window)) {
			windowFill++
		}

		size := uint32(len(cur))

		// Condition (1): forced split, checked first so it wins ties with (2).
		if size == c.cfg.MaxChunkSize {
			return Chunk{Offset: startOffset, Data: cur}, nil
		}

		// Condition (2): natural boundary, only once the window is primed
		// and the chunk has reached the minimum size.
		if size >= c.cfg.MinChunkSize && windowFill == uint32(len(window)) &&
			rollhash.BoundaryHit(h.Sum(), c.cfg.AvgChunkSize) {
			return Chunk{Offset: startOffset, Data: cur}, nil
		}
	}
}

// All drains the chunker to completion, convenience for small inputs and
// tests.
func All(r io.Reader, cfg Config) ([]Chunk, error) {
	ck, err := New(r, cfg)
	if err != nil {
		return nil, err
	}
	var chunks []Chunk
	for {
		chunk, err := ck.Next()
		if err == io.EOF {
			return chunks, nil
		}
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
}
