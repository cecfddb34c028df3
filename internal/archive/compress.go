package archive

import (
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"

	"github.com/kelvinlabs/bita/internal/chunker"
	"github.com/kelvinlabs/bita/internal/codec"
	"github.com/kelvinlabs/bita/internal/metrics"
	"github.com/kelvinlabs/bita/internal/stronghash"
)

// CompressOptions configures a single compression run.
type CompressOptions struct {
	Chunker chunker.Config
	Codec   codec.Tag
	Level   int
	Metrics *metrics.Collector
}

// Compress chunks src, strong-hashes each chunk, dedups repeats via an
// in-memory set of hashes, compresses each unique chunk, and streams the
// result into an archive written to dst. It returns the in-memory
// Dictionary that was written.
func Compress(src io.Reader, opts CompressOptions, dst io.Writer) (*Dictionary, error) {
	reg := codec.NewRegistry()
	c, err := reg.Get(opts.Codec)
	if err != nil {
		return nil, err
	}
	mc := opts.Metrics
	if mc == nil {
		mc = metrics.NewCollector()
	}

	hasher, err := blake2b.New256(nil)
	if err != nil {
		return nil, fmt.Errorf("archive: source hasher: %w", err)
	}
	teed := io.TeeReader(src, hasher)

	ck, err := chunker.New(teed, opts.Chunker)
	if err != nil {
		return nil, err
	}

	w := NewWriter()
	seen := make(map[stronghash.Hash]uint32)
	var sourceTotalSize uint64

	for {
		chunk, err := ck.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("archive: chunking failed: %w", err)
		}

		sh := stronghash.Sum(chunk.Data)
		mc.RecordChunkHashed()
		idx, exists := seen[sh]
		if !exists {
			compressed, err := c.Compress(chunk.Data, opts.Level)
			if err != nil {
				return nil, fmt.Errorf("archive: compress chunk at offset %d: %w", chunk.Offset, err)
			}
			idx = w.AddChunk(sh, uint32(len(chunk.Data)), opts.Codec, compressed)
			seen[sh] = idx
		} else {
			mc.RecordDeduplicated(len(chunk.Data))
		}
		w.RecordOccurrence(idx)
		sourceTotalSize += uint64(len(chunk.Data))
	}

	sourceHash, err := stronghash.FromBytes(hasher.Sum(nil))
	if err != nil {
		return nil, err
	}

	return w.Finalize(dst, opts.Chunker, sourceTotalSize, sourceHash)
}
