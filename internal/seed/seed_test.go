package seed

import (
	"bytes"
	"context"
	"math/rand"
	"testing"

	"github.com/kelvinlabs/bita/internal/archive"
	"github.com/kelvinlabs/bita/internal/chunker"
	"github.com/kelvinlabs/bita/internal/codec"
	"github.com/kelvinlabs/bita/internal/dictionary"
	"github.com/kelvinlabs/bita/internal/rollhash"
	"github.com/stretchr/testify/require"
)

func randomBytes(n int, s int64) []byte {
	r := rand.New(rand.NewSource(s))
	b := make([]byte, n)
	_, _ = r.Read(b)
	return b
}

func compressToDict(t *testing.T, data []byte) *archive.Dictionary {
	t.Helper()
	opts := archive.CompressOptions{
		Chunker: chunker.DefaultConfig(rollhash.FamilyRollSum),
		Codec:   codec.TagNone,
	}
	var buf bytes.Buffer
	dict, err := archive.Compress(bytes.NewReader(data), opts, &buf)
	require.NoError(t, err)
	return dict
}

func TestScanDeliversSeedHitsAndCoversIndex(t *testing.T) {
	data := randomBytes(512*1024, 1)
	dict := compressToDict(t, data)
	idx := dictionary.Build(dict)

	sc := New(idx)
	var delivered [][]byte
	err := sc.Scan(context.Background(), bytes.NewReader(data), func(d Delivery) error {
		delivered = append(delivered, d.Data)
		return nil
	})
	require.NoError(t, err)
	require.True(t, idx.Complete(), "seeding with the exact source should cover every descriptor")

	// delivered chunks are the unique set, not source order, so compare
	// counts rather than byte-for-byte equality here.
	require.Equal(t, len(dict.Descriptors), len(delivered))
}

func TestScanSkipsAlreadyCoveredDescriptors(t *testing.T) {
	data := randomBytes(256*1024, 2)
	dict := compressToDict(t, data)
	idx := dictionary.Build(dict)

	sc := New(idx)
	var first, second int
	err := sc.Scan(context.Background(), bytes.NewReader(data), func(d Delivery) error {
		first++
		return nil
	})
	require.NoError(t, err)
	require.True(t, idx.Complete())

	// Scanning the same seed again should find nothing new: everything is
	// already covered, and Scan should short-circuit immediately.
	err = sc.Scan(context.Background(), bytes.NewReader(data), func(d Delivery) error {
		second++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 0, second)
	require.Greater(t, first, 0)
}

func TestScanIgnoresUnmatchedSeedData(t *testing.T) {
	data := randomBytes(128*1024, 3)
	dict := compressToDict(t, data)
	idx := dictionary.Build(dict)

	unrelated := randomBytes(128*1024, 99)
	sc := New(idx)
	var delivered int
	err := sc.Scan(context.Background(), bytes.NewReader(unrelated), func(d Delivery) error {
		delivered++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 0, delivered)
	require.False(t, idx.Complete())
}

func TestScanRespectsCancellation(t *testing.T) {
	data := randomBytes(1024*1024, 4)
	dict := compressToDict(t, data)
	idx := dictionary.Build(dict)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sc := New(idx)
	err := sc.Scan(ctx, bytes.NewReader(data), func(d Delivery) error {
		t.Fatal("deliver should not be called once context is already cancelled")
		return nil
	})
	require.Error(t, err)
}
