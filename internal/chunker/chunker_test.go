package chunker

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/kelvinlabs/bita/internal/rollhash"
	"github.com/stretchr/testify/require"
)

func randomBytes(n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	b := make([]byte, n)
	_, _ = r.Read(b)
	return b
}

func TestChunkerTiling(t *testing.T) {
	for _, family := range []rollhash.Family{rollhash.FamilyRollSum, rollhash.FamilyBuzHash} {
		cfg := DefaultConfig(family)
		data := randomBytes(512*1024+37, 1)

		chunks, err := All(bytes.NewReader(data), cfg)
		require.NoError(t, err)
		require.NotEmpty(t, chunks)

		var rebuilt []byte
		for i, c := range chunks {
			rebuilt = append(rebuilt, c.Data...)
			if i < len(chunks)-1 {
				require.GreaterOrEqual(t, len(c.Data), int(cfg.MinChunkSize))
			}
			require.LessOrEqual(t, len(c.Data), int(cfg.MaxChunkSize))
		}
		require.True(t, bytes.Equal(rebuilt, data))
	}
}

func TestChunkerDeterministic(t *testing.T) {
	cfg := DefaultConfig(rollhash.FamilyBuzHash)
	data := randomBytes(300*1024, 7)

	a, err := All(bytes.NewReader(data), cfg)
	require.NoError(t, err)
	b, err := All(bytes.NewReader(data), cfg)
	require.NoError(t, err)

	require.Equal(t, len(a), len(b))
	for i := range a {
		require.Equal(t, a[i].Offset, b[i].Offset)
		require.True(t, bytes.Equal(a[i].Data, b[i].Data))
	}
}

func TestS1AllZeros(t *testing.T) {
	cfg := Config{
		HashFamily:     rollhash.FamilyRollSum,
		HashWindowSize: 64,
		MinChunkSize:   4 * 1024,
		AvgChunkSize:   64 * 1024,
		MaxChunkSize:   256 * 1024,
	}
	data := make([]byte, 1024*1024)

	chunks, err := All(bytes.NewReader(data), cfg)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	require.LessOrEqual(t, len(chunks), 16)

	var total int
	for _, c := range chunks {
		total += len(c.Data)
	}
	require.Equal(t, len(data), total)
}

func TestS4SizeDistribution(t *testing.T) {
	cfg := Config{
		HashFamily:     rollhash.FamilyBuzHash,
		HashWindowSize: 20,
		MinChunkSize:   1024,
		AvgChunkSize:   4096,
		MaxChunkSize:   16384,
	}
	data := randomBytes(100*1024, 99)

	chunks, err := All(bytes.NewReader(data), cfg)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	var total, count int
	for i, c := range chunks {
		require.LessOrEqual(t, len(c.Data), int(cfg.MaxChunkSize))
		if i < len(chunks)-1 {
			require.GreaterOrEqual(t, len(c.Data), int(cfg.MinChunkSize))
		}
		total += len(c.Data)
		count++
	}
	require.Equal(t, len(data), total)

	mean := float64(total) / float64(count)
	require.InDelta(t, float64(cfg.AvgChunkSize), mean, float64(cfg.AvgChunkSize)*0.6)
}

func TestConfigValidation(t *testing.T) {
	cases := []Config{
		{MinChunkSize: 10, AvgChunkSize: 5, MaxChunkSize: 20, HashWindowSize: 4},
		{MinChunkSize: 5, AvgChunkSize: 10, MaxChunkSize: 3, HashWindowSize: 4},
		{MinChunkSize: 5, AvgChunkSize: 10, MaxChunkSize: 20, HashWindowSize: 4}, // avg not power of 2
		{MinChunkSize: 0, AvgChunkSize: 16, MaxChunkSize: 32, HashWindowSize: 4},
	}
	for _, c := range cases {
		require.Error(t, c.Validate())
	}

	ok := Config{MinChunkSize: 8, AvgChunkSize: 16, MaxChunkSize: 32, HashWindowSize: 4}
	require.NoError(t, ok.Validate())
}

func TestEmptyInput(t *testing.T) {
	cfg := DefaultConfig(rollhash.FamilyRollSum)
	chunks, err := All(bytes.NewReader(nil), cfg)
	require.NoError(t, err)
	require.Empty(t, chunks)
}
