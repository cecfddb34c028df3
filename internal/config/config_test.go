package config

import (
	"strings"
	"testing"

	"github.com/kelvinlabs/bita/internal/codec"
	"github.com/kelvinlabs/bita/internal/rollhash"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsForOmittedFields(t *testing.T) {
	cfg, err := Load(strings.NewReader(`
chunker:
  min_chunk_size: 4096
`))
	require.NoError(t, err)
	require.Equal(t, uint32(4096), cfg.Chunker.MinChunkSize)
	require.Equal(t, uint32(64*1024), cfg.Chunker.AvgChunkSize, "omitted field should keep its default")
	require.Equal(t, "brotli", cfg.Archive.Codec)
}

func TestLoadEmptyDocumentIsAllDefaults(t *testing.T) {
	cfg, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestToChunkerAndCodecTag(t *testing.T) {
	cfg := Default()
	cfg.Chunker.HashFamily = "buzhash"
	cfg.Archive.Codec = "zstd"

	ck, err := cfg.ToChunker()
	require.NoError(t, err)
	require.Equal(t, rollhash.FamilyBuzHash, ck.HashFamily)

	tag, err := cfg.ToCodecTag()
	require.NoError(t, err)
	require.Equal(t, codec.TagZstd, tag)
}

func TestToChunkerRejectsUnknownFamily(t *testing.T) {
	cfg := Default()
	cfg.Chunker.HashFamily = "not-a-family"
	_, err := cfg.ToChunker()
	require.Error(t, err)
}
