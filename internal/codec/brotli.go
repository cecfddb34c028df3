package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
)

// brotliCodec implements Codec over andybalholm/brotli. Brotli is the
// archive's default codec for new compressions; window 22 / quality 6 are
// the recommended defaults.
type brotliCodec struct{}

func newBrotliCodec() *brotliCodec { return &brotliCodec{} }

func (brotliCodec) Tag() Tag { return TagBrotli }

func (brotliCodec) Compress(data []byte, level int) ([]byte, error) {
	if level <= 0 {
		level = DefaultLevel(TagBrotli)
	}
	var buf bytes.Buffer
	w := brotli.NewWriterOptions(&buf, brotli.WriterOptions{Quality: level, LGWin: 22})
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("codec: brotli compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("codec: brotli compress: %w", err)
	}
	return buf.Bytes(), nil
}

func (brotliCodec) Decompress(data []byte, uncompressedSize int) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(data))
	out, err := io.ReadAll(io.LimitReader(r, int64(uncompressedSize)+1))
	if err != nil {
		return nil, fmt.Errorf("codec: brotli decompress: %w", err)
	}
	if len(out) != uncompressedSize {
		return nil, &ErrSizeMismatch{Want: uncompressedSize, Got: len(out)}
	}
	return out, nil
}
