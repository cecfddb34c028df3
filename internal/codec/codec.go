// Package codec implements the archive's chunk-compression registry: four
// wire-tagged codecs (none, Brotli, LZMA, Zstd), each exposing a uniform
// compress/decompress pair with declared-size verification.
package codec

import "fmt"

// Tag identifies a codec on the wire.
type Tag uint8

const (
	TagNone   Tag = 0
	TagBrotli Tag = 1
	TagLZMA   Tag = 2
	TagZstd   Tag = 3
)

func (t Tag) String() string {
	switch t {
	case TagNone:
		return "none"
	case TagBrotli:
		return "brotli"
	case TagLZMA:
		return "lzma"
	case TagZstd:
		return "zstd"
	default:
		return fmt.Sprintf("tag(%d)", t)
	}
}

// ErrUnsupported is returned when a codec tag is not compiled into this
// build. Clone checks every descriptor's tag before doing any I/O on
// chunk data.
type ErrUnsupported struct {
	Tag Tag
}

func (e *ErrUnsupported) Error() string {
	return fmt.Sprintf("codec: unsupported codec tag %s", e.Tag)
}

// ErrSizeMismatch is returned by Decompress when the decompressed length
// does not match the declared uncompressed size.
type ErrSizeMismatch struct {
	Want, Got int
}

func (e *ErrSizeMismatch) Error() string {
	return fmt.Sprintf("codec: decompressed size mismatch: want %d, got %d", e.Want, e.Got)
}

// Codec compresses and decompresses chunk bodies under one algorithm.
type Codec interface {
	Tag() Tag
	Compress(data []byte, level int) ([]byte, error)
	// Decompress errors if the decompressed length differs from
	// uncompressedSize.
	Decompress(data []byte, uncompressedSize int) ([]byte, error)
}

// ParseName parses a config-file codec name into its wire Tag.
func ParseName(name string) (Tag, error) {
	switch name {
	case "none":
		return TagNone, nil
	case "brotli", "":
		return TagBrotli, nil
	case "lzma":
		return TagLZMA, nil
	case "zstd":
		return TagZstd, nil
	default:
		return 0, fmt.Errorf("codec: unknown codec name %q", name)
	}
}

// DefaultLevel is the recommended compression level for a codec when the
// caller does not specify one.
func DefaultLevel(tag Tag) int {
	switch tag {
	case TagBrotli:
		return 6
	case TagLZMA:
		return 6
	case TagZstd:
		return 9
	default:
		return 0
	}
}

// Registry resolves a Tag to the Codec compiled into this build.
type Registry struct {
	codecs map[Tag]Codec
}

// NewRegistry builds the registry with all four built-in codecs.
func NewRegistry() *Registry {
	r := &Registry{codecs: make(map[Tag]Codec, 4)}
	r.Register(&noneCodec{})
	r.Register(newBrotliCodec())
	r.Register(newLZMACodec())
	r.Register(newZstdCodec())
	return r
}

// Register adds or replaces a codec implementation. Useful for builds that
// omit a codec, or tests that stub one out.
func (r *Registry) Register(c Codec) {
	r.codecs[c.Tag()] = c
}

// Get resolves tag to a Codec, or ErrUnsupported if it is not compiled in.
func (r *Registry) Get(tag Tag) (Codec, error) {
	c, ok := r.codecs[tag]
	if !ok {
		return nil, &ErrUnsupported{Tag: tag}
	}
	return c, nil
}

// Supports reports whether tag is compiled into this registry, without
// allocating an error.
func (r *Registry) Supports(tag Tag) bool {
	_, ok := r.codecs[tag]
	return ok
}
