package archive

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/kelvinlabs/bita/internal/chunker"
	"github.com/kelvinlabs/bita/internal/codec"
	"github.com/kelvinlabs/bita/internal/rollhash"
	"github.com/kelvinlabs/bita/internal/stronghash"
	"github.com/stretchr/testify/require"
)

func randomBytes(n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	b := make([]byte, n)
	_, _ = r.Read(b)
	return b
}

func TestCompressAndReadBack(t *testing.T) {
	data := randomBytes(512*1024, 3)
	opts := CompressOptions{
		Chunker: chunker.DefaultConfig(rollhash.FamilyBuzHash),
		Codec:   codec.TagZstd,
		Level:   codec.DefaultLevel(codec.TagZstd),
	}

	var archiveBuf bytes.Buffer
	dict, err := Compress(bytes.NewReader(data), opts, &archiveBuf)
	require.NoError(t, err)
	require.Equal(t, uint64(len(data)), dict.SourceTotalSize)

	ra := bytes.NewReader(archiveBuf.Bytes())
	readDict, regionStart, err := ReadFromReaderAt(ra)
	require.NoError(t, err)
	require.Equal(t, dict.SourceTotalSize, readDict.SourceTotalSize)
	require.Equal(t, dict.SourceHash, readDict.SourceHash)
	require.Equal(t, len(dict.Descriptors), len(readDict.Descriptors))

	reg := codec.NewRegistry()
	var rebuilt []byte
	for _, idx := range readDict.RebuildSequence {
		desc := readDict.Descriptors[idx]
		raw, err := ReadChunkRange(ra, regionStart, desc.ArchiveOffset, desc.CompressedSize)
		require.NoError(t, err)
		c, err := reg.Get(desc.Codec)
		require.NoError(t, err)
		plain, err := c.Decompress(raw, int(desc.UncompressedSize))
		require.NoError(t, err)
		rebuilt = append(rebuilt, plain...)
	}
	require.True(t, bytes.Equal(rebuilt, data))
}

func TestCompressDedupsRepeatedChunks(t *testing.T) {
	block := randomBytes(64*1024, 5)
	data := append(append([]byte{}, block...), block...)
	data = append(data, block...)

	opts := CompressOptions{
		Chunker: chunker.Config{
			HashFamily:     rollhash.FamilyRollSum,
			HashWindowSize: 64,
			MinChunkSize:   16 * 1024,
			AvgChunkSize:   64 * 1024,
			MaxChunkSize:   64 * 1024,
		},
		Codec: codec.TagNone,
	}

	var buf bytes.Buffer
	dict, err := Compress(bytes.NewReader(data), opts, &buf)
	require.NoError(t, err)
	require.Less(t, len(dict.Descriptors), len(dict.RebuildSequence))
}

func TestReadHeaderBadMagic(t *testing.T) {
	bad := bytes.Repeat([]byte{0xFF}, 64)
	_, err := ReadHeader(bytes.NewReader(bad))
	require.Error(t, err)
	var invalid *ErrInvalidArchive
	require.ErrorAs(t, err, &invalid)
}

func TestCorruptChunkDataDetected(t *testing.T) {
	data := randomBytes(256*1024, 11)
	opts := CompressOptions{
		Chunker: chunker.DefaultConfig(rollhash.FamilyRollSum),
		Codec:   codec.TagNone,
	}
	var buf bytes.Buffer
	_, err := Compress(bytes.NewReader(data), opts, &buf)
	require.NoError(t, err)

	corrupted := append([]byte{}, buf.Bytes()...)
	h, err := ReadHeader(bytes.NewReader(corrupted))
	require.NoError(t, err)
	regionStart := ChunkDataRegionOffset(h)
	require.Less(t, int(regionStart)+17, len(corrupted))
	corrupted[int(regionStart)+17] ^= 0xFF

	ra := bytes.NewReader(corrupted)
	dict, regionStart2, err := ReadFromReaderAt(ra)
	require.NoError(t, err)

	reg := codec.NewRegistry()
	found := false
	for _, desc := range dict.Descriptors {
		raw, err := ReadChunkRange(ra, regionStart2, desc.ArchiveOffset, desc.CompressedSize)
		require.NoError(t, err)
		c, err := reg.Get(desc.Codec)
		require.NoError(t, err)
		plain, decErr := c.Decompress(raw, int(desc.UncompressedSize))
		if decErr != nil || !stronghash.Sum(plain).Equal(desc.StrongHash) {
			found = true
		}
	}
	require.True(t, found, "expected at least one descriptor's strong hash to fail to verify after corruption")
}
