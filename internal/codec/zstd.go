package codec

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstdCodec implements Codec over klauspost/compress/zstd. Encoders and
// the decoder are expensive to construct and safe to reuse, so they are
// built lazily and memoized.
type zstdCodec struct {
	mu          sync.Mutex
	encoders    map[int]*zstd.Encoder
	decoderOnce sync.Once
	decoder     *zstd.Decoder
	decoderErr  error
}

func newZstdCodec() *zstdCodec {
	return &zstdCodec{encoders: make(map[int]*zstd.Encoder)}
}

func (*zstdCodec) Tag() Tag { return TagZstd }

func (c *zstdCodec) encoderFor(level int) (*zstd.Encoder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.encoders[level]; ok {
		return enc, nil
	}
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("codec: zstd encoder: %w", err)
	}
	c.encoders[level] = enc
	return enc, nil
}

func (c *zstdCodec) getDecoder() (*zstd.Decoder, error) {
	c.decoderOnce.Do(func() {
		c.decoder, c.decoderErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	})
	return c.decoder, c.decoderErr
}

func (c *zstdCodec) Compress(data []byte, level int) ([]byte, error) {
	if level <= 0 {
		level = DefaultLevel(TagZstd)
	}
	enc, err := c.encoderFor(level)
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(data, make([]byte, 0, len(data))), nil
}

func (c *zstdCodec) Decompress(data []byte, uncompressedSize int) ([]byte, error) {
	dec, err := c.getDecoder()
	if err != nil {
		return nil, fmt.Errorf("codec: zstd decoder: %w", err)
	}
	out, err := dec.DecodeAll(data, make([]byte, 0, uncompressedSize))
	if err != nil {
		return nil, fmt.Errorf("codec: zstd decompress: %w", err)
	}
	if len(out) != uncompressedSize {
		return nil, &ErrSizeMismatch{Want: uncompressedSize, Got: len(out)}
	}
	return out, nil
}
