// Package config is the YAML-backed configuration surface: nested structs
// tagged with `yaml` and `default` keys, with defaults filled in before
// decoding rather than at struct-tag-parse time.
package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/kelvinlabs/bita/internal/chunker"
	"github.com/kelvinlabs/bita/internal/codec"
	"github.com/kelvinlabs/bita/internal/rangeio"
	"github.com/kelvinlabs/bita/internal/rollhash"
)

// Config is the top-level configuration for both compress and clone runs.
type Config struct {
	Chunker ChunkerConfig `yaml:"chunker"`
	Archive ArchiveConfig `yaml:"archive"`
	Clone   CloneConfig   `yaml:"clone"`
}

// ChunkerConfig mirrors chunker.Config with string/yaml-friendly fields.
type ChunkerConfig struct {
	HashFamily     string `yaml:"hash_family" default:"rollsum"`
	HashWindowSize uint32 `yaml:"hash_window_size" default:"64"`
	MinChunkSize   uint32 `yaml:"min_chunk_size" default:"16384"`
	AvgChunkSize   uint32 `yaml:"avg_chunk_size" default:"65536"`
	MaxChunkSize   uint32 `yaml:"max_chunk_size" default:"262144"`
}

// ArchiveConfig picks the codec used for new compressions.
type ArchiveConfig struct {
	Codec string `yaml:"codec" default:"brotli"`
	Level int    `yaml:"level" default:"0"` // 0 = codec.DefaultLevel
}

// CloneConfig tunes the clone assembler's coalescer, worker pool, and
// retry policy.
type CloneConfig struct {
	MaxGapBytes    uint64 `yaml:"max_gap_bytes" default:"32768"`
	MaxRequestSize uint64 `yaml:"max_request_size" default:"0"` // 0 = unlimited
	Workers        int    `yaml:"workers" default:"0"`          // 0 = runtime.NumCPU
	MaxAttempts    int    `yaml:"max_attempts" default:"3"`
	InitialDelayMS int    `yaml:"initial_delay_ms" default:"100"`
	MaxDelayMS     int    `yaml:"max_delay_ms" default:"30000"`
}

// Default returns the struct-tag defaults above as a live Config: RollSum
// with a 64-byte window, 16K/64K/256K chunk bounds, Brotli, a 32K coalesce
// gap, and 3 retry attempts.
func Default() Config {
	return Config{
		Chunker: ChunkerConfig{
			HashFamily:     "rollsum",
			HashWindowSize: 64,
			MinChunkSize:   16 * 1024,
			AvgChunkSize:   64 * 1024,
			MaxChunkSize:   256 * 1024,
		},
		Archive: ArchiveConfig{Codec: "brotli"},
		Clone: CloneConfig{
			MaxGapBytes:    rangeio.DefaultMaxGapBytes,
			MaxRequestSize: rangeio.DefaultMaxRequestSize,
			MaxAttempts:    3,
			InitialDelayMS: 100,
			MaxDelayMS:     30000,
		},
	}
}

// Load decodes YAML from r over Default(), so any field the document omits
// keeps its default.
func Load(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("config: decoding yaml: %w", err)
	}
	return cfg, nil
}

// ToChunker converts the YAML-facing config into chunker.Config.
func (c Config) ToChunker() (chunker.Config, error) {
	family, err := rollhash.ParseFamily(c.Chunker.HashFamily)
	if err != nil {
		return chunker.Config{}, err
	}
	return chunker.Config{
		HashFamily:     family,
		HashWindowSize: c.Chunker.HashWindowSize,
		MinChunkSize:   c.Chunker.MinChunkSize,
		AvgChunkSize:   c.Chunker.AvgChunkSize,
		MaxChunkSize:   c.Chunker.MaxChunkSize,
	}, nil
}

// ToCodecTag converts the configured codec name into its wire tag.
func (c Config) ToCodecTag() (codec.Tag, error) {
	return codec.ParseName(c.Archive.Codec)
}
