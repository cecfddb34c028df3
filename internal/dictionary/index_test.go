package dictionary

import (
	"testing"

	"github.com/kelvinlabs/bita/internal/archive"
	"github.com/kelvinlabs/bita/internal/chunker"
	"github.com/kelvinlabs/bita/internal/codec"
	"github.com/kelvinlabs/bita/internal/rollhash"
	"github.com/kelvinlabs/bita/internal/stronghash"
	"github.com/stretchr/testify/require"
)

func buildTestDict() *archive.Dictionary {
	h1 := stronghash.Sum([]byte("chunk-a"))
	h2 := stronghash.Sum([]byte("chunk-b"))
	return &archive.Dictionary{
		SourceTotalSize: 21,
		SourceHash:      stronghash.Sum([]byte("chunk-achunk-bchunk-a")),
		ChunkerConfig:   chunker.DefaultConfig(rollhash.FamilyRollSum),
		Descriptors: []archive.Descriptor{
			{StrongHash: h1, UncompressedSize: 7, Codec: codec.TagNone},
			{StrongHash: h2, UncompressedSize: 7, Codec: codec.TagNone},
		},
		RebuildSequence: []uint32{0, 1, 0},
	}
}

func TestIndexLookupAndOffsets(t *testing.T) {
	dict := buildTestDict()
	dict.SourceTotalSize = 21
	idx := Build(dict)

	h1 := stronghash.Sum([]byte("chunk-a"))
	di, ok := idx.Lookup(h1)
	require.True(t, ok)
	require.Equal(t, []uint64{0, 14}, idx.SourceOffsets(di))
}

func TestCoverageTracking(t *testing.T) {
	dict := buildTestDict()
	dict.SourceTotalSize = 21
	idx := Build(dict)

	require.False(t, idx.Complete())
	require.True(t, idx.MarkCovered(0))
	require.False(t, idx.MarkCovered(0), "second mark should report already-covered")
	require.False(t, idx.Complete())
	require.True(t, idx.MarkCovered(1))
	require.True(t, idx.Complete())
	require.Empty(t, idx.Uncovered())
}

func TestUncovered(t *testing.T) {
	dict := buildTestDict()
	dict.SourceTotalSize = 21
	idx := Build(dict)
	idx.MarkCovered(1)
	require.Equal(t, []uint32{0}, idx.Uncovered())
}
