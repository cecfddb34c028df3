package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// lzmaCodec implements Codec over ulikunitz/xz/lzma, using its classic
// stream framing with preset-6-equivalent defaults.
type lzmaCodec struct{}

func newLZMACodec() *lzmaCodec { return &lzmaCodec{} }

func (lzmaCodec) Tag() Tag { return TagLZMA }

func (lzmaCodec) Compress(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("codec: lzma compress: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("codec: lzma compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("codec: lzma compress: %w", err)
	}
	return buf.Bytes(), nil
}

func (lzmaCodec) Decompress(data []byte, uncompressedSize int) ([]byte, error) {
	r, err := lzma.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("codec: lzma decompress: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("codec: lzma decompress: %w", err)
	}
	if len(out) != uncompressedSize {
		return nil, &ErrSizeMismatch{Want: uncompressedSize, Got: len(out)}
	}
	return out, nil
}
