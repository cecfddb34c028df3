package codec

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func testPayload(n int) []byte {
	r := rand.New(rand.NewSource(42))
	b := make([]byte, n)
	_, _ = r.Read(b)
	return b
}

func TestRegistryRoundTrip(t *testing.T) {
	reg := NewRegistry()
	payload := testPayload(64 * 1024)

	for _, tag := range []Tag{TagNone, TagBrotli, TagLZMA, TagZstd} {
		t.Run(tag.String(), func(t *testing.T) {
			c, err := reg.Get(tag)
			require.NoError(t, err)

			compressed, err := c.Compress(payload, DefaultLevel(tag))
			require.NoError(t, err)

			out, err := c.Decompress(compressed, len(payload))
			require.NoError(t, err)
			require.True(t, bytes.Equal(out, payload))
		})
	}
}

func TestRegistryUnsupported(t *testing.T) {
	reg := NewRegistry()
	require.False(t, reg.Supports(Tag(99)))
	_, err := reg.Get(Tag(99))
	require.Error(t, err)
	var unsupported *ErrUnsupported
	require.ErrorAs(t, err, &unsupported)
}

func TestDecompressSizeMismatch(t *testing.T) {
	reg := NewRegistry()
	c, err := reg.Get(TagNone)
	require.NoError(t, err)

	_, err = c.Decompress([]byte("abc"), 10)
	require.Error(t, err)
	var mismatch *ErrSizeMismatch
	require.ErrorAs(t, err, &mismatch)
}

func TestCompressibleDataShrinks(t *testing.T) {
	reg := NewRegistry()
	payload := bytes.Repeat([]byte{0}, 256*1024)

	for _, tag := range []Tag{TagBrotli, TagLZMA, TagZstd} {
		c, err := reg.Get(tag)
		require.NoError(t, err)
		compressed, err := c.Compress(payload, DefaultLevel(tag))
		require.NoError(t, err)
		require.Less(t, len(compressed), len(payload)/4, "%s should shrink highly compressible data", tag)
	}
}
