// Package clone implements the clone assembler: it combines chunks found
// in local seeds with chunks fetched over a RangeReader to reconstruct a
// dictionary's source byte stream in a RandomWriter. Remote fetches fan
// out over a bounded errgroup worker pool.
package clone

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kelvinlabs/bita/internal/archive"
	"github.com/kelvinlabs/bita/internal/codec"
	"github.com/kelvinlabs/bita/internal/dictionary"
	"github.com/kelvinlabs/bita/internal/localio"
	"github.com/kelvinlabs/bita/internal/metrics"
	"github.com/kelvinlabs/bita/internal/rangeio"
	"github.com/kelvinlabs/bita/internal/retry"
	"github.com/kelvinlabs/bita/internal/seed"
	"github.com/kelvinlabs/bita/internal/stronghash"
)

// Options configures one Clone run.
type Options struct {
	Dictionary *archive.Dictionary

	// Seeds are scanned in order during phase 1, each as a plain
	// file/device or streamed source.
	Seeds []io.Reader

	// SelfSeedReader, if non-nil, is the existing output content read
	// sequentially before any writes begin.
	// SelfSeedReaderAt must read the same content at arbitrary offsets,
	// used both to plan the reorganization and to execute its writes.
	SelfSeedReader   io.Reader
	SelfSeedReaderAt io.ReaderAt

	RangeReader            rangeio.RangeReader
	ChunkDataRegionOffset  uint64
	Writer                 localio.RandomWriter
	RetryPolicy            *retry.Policy
	MaxGapBytes            uint64
	MaxRequestSize         uint64
	Workers                int
	Logger                 *zap.Logger
	Metrics                *metrics.Collector

	// VerifySourceHash, when true, makes phase 3 re-hash the entire
	// written output (via VerifyReaderAt) and compare against
	// Dictionary.SourceHash.
	VerifySourceHash bool
	VerifyReaderAt   io.ReaderAt
}

// Clone runs the three phases (seed reuse, remote fetch, finalize) and
// returns once the output equals the source byte-for-byte, or a
// fatal/cancelled error.
func Clone(ctx context.Context, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pol := opts.RetryPolicy
	if pol == nil {
		pol = retry.New(retry.WithLogger(logger))
	}
	maxGap := opts.MaxGapBytes
	if maxGap == 0 {
		maxGap = rangeio.DefaultMaxGapBytes
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	mc := opts.Metrics
	if mc == nil {
		mc = metrics.NewCollector()
	}

	idx := dictionary.Build(opts.Dictionary)
	reg := codec.NewRegistry()

	// Reject unsupported codec tags up front, before any chunk-data I/O.
	for i, d := range opts.Dictionary.Descriptors {
		if !reg.Supports(d.Codec) {
			return fmt.Errorf("clone: descriptor %d: %w", i, &codec.ErrUnsupported{Tag: d.Codec})
		}
	}

	// Phase 1 — seed reuse. The output is scanned as a self-seed first,
	// before any other seed writes to it.
	if opts.SelfSeedReader != nil && !idx.Complete() {
		if err := runSelfSeed(idx, opts, mc); err != nil {
			return wrapCancel(ctx, err)
		}
	}

	for _, sr := range opts.Seeds {
		if idx.Complete() {
			break
		}
		sc := seed.New(idx)
		err := sc.Scan(ctx, sr, func(d seed.Delivery) error {
			mc.RecordSeedHit()
			return deliverChunk(opts.Writer, opts.Dictionary, idx, d.DescIndex, d.Data)
		})
		if err != nil {
			return wrapCancel(ctx, err)
		}
	}

	// Phase 2 — remote fetch.
	if !idx.Complete() {
		if err := fetchRemote(ctx, idx, reg, pol, maxGap, opts, workers, logger, mc); err != nil {
			return wrapCancel(ctx, err)
		}
	}

	// Phase 3 — finalize.
	if !idx.Complete() {
		return fmt.Errorf("clone: incomplete after remote fetch: %d descriptors uncovered", len(idx.Uncovered()))
	}
	if opts.VerifySourceHash && opts.VerifyReaderAt != nil {
		if err := verifySourceHash(opts.Dictionary, opts.VerifyReaderAt); err != nil {
			return err
		}
	}
	return opts.Writer.Finalize()
}

// deliverChunk re-verifies the bytes' strong hash and writes them to every
// source offset the dictionary assigns the descriptor.
func deliverChunk(w localio.RandomWriter, dict *archive.Dictionary, idx *dictionary.Index, descIdx uint32, data []byte) error {
	desc := dict.Descriptors[descIdx]
	if !stronghash.Sum(data).Equal(desc.StrongHash) {
		return &ErrIntegrity{DescIndex: descIdx, Reason: "seed-delivered bytes do not match descriptor strong hash"}
	}
	for _, o := range idx.SourceOffsets(descIdx) {
		if err := w.WriteAt(o, data); err != nil {
			return fmt.Errorf("clone: writing descriptor %d at offset %d: %w", descIdx, o, err)
		}
	}
	return nil
}

func runSelfSeed(idx *dictionary.Index, opts Options, mc *metrics.Collector) error {
	readAt := func(offset uint64, length uint32) ([]byte, error) {
		buf := make([]byte, length)
		if _, err := opts.SelfSeedReaderAt.ReadAt(buf, int64(offset)); err != nil {
			return nil, err
		}
		return buf, nil
	}
	plan, err := planSelfSeed(idx, opts.SelfSeedReader, readAt)
	if err != nil {
		return err
	}
	for i := 0; i < plan.covered; i++ {
		mc.RecordSeedHit()
	}
	for _, w := range plan.writes {
		data, ok := plan.buffered[w.source]
		if !ok {
			data, err = readAt(w.source, w.size)
			if err != nil {
				return fmt.Errorf("clone: reading self-seed source at %d: %w", w.source, err)
			}
		}
		if !stronghash.Sum(data).Equal(opts.Dictionary.Descriptors[w.desc].StrongHash) {
			return &ErrIntegrity{DescIndex: w.desc, Reason: "self-seed resident bytes do not match descriptor strong hash"}
		}
		if err := opts.Writer.WriteAt(w.target, data); err != nil {
			return fmt.Errorf("clone: self-seed write at %d: %w", w.target, err)
		}
	}
	return nil
}

func fetchRemote(ctx context.Context, idx *dictionary.Index, reg *codec.Registry, pol *retry.Policy, maxGap uint64, opts Options, workers int, logger *zap.Logger, mc *metrics.Collector) error {
	uncovered := idx.Uncovered()
	if len(uncovered) == 0 {
		return nil
	}

	wants := make([]rangeio.Want, len(uncovered))
	for i, descIdx := range uncovered {
		d := opts.Dictionary.Descriptors[descIdx]
		wants[i] = rangeio.Want{Offset: d.ArchiveOffset, Length: d.CompressedSize, Index: int(descIdx)}
		mc.RecordSeedMiss()
	}
	ranges := rangeio.Coalesce(wants, maxGap, opts.MaxRequestSize)
	logger.Debug("clone: planned remote fetch", zap.Int("ranges", len(ranges)), zap.Int("descriptors", len(uncovered)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, rg := range ranges {
		rg := rg
		g.Go(func() error {
			var buf []byte
			err := pol.Execute(gctx, func() error {
				var fetchErr error
				buf, fetchErr = opts.RangeReader.ReadRange(gctx, opts.ChunkDataRegionOffset+rg.Start, rg.Length)
				return fetchErr
			})
			if err != nil {
				return fmt.Errorf("clone: fetching range at %d: %w", rg.Start, err)
			}
			mc.RecordRangeFetch(len(buf))
			for _, inner := range rg.Inner {
				descIdx := uint32(inner.WantIndex)
				desc := opts.Dictionary.Descriptors[descIdx]
				raw := buf[inner.BufOffset : inner.BufOffset+uint64(inner.BufLength)]

				c, err := reg.Get(desc.Codec)
				if err != nil {
					return err
				}
				plain, err := c.Decompress(raw, int(desc.UncompressedSize))
				if err != nil {
					return fmt.Errorf("clone: decompressing descriptor %d: %w", descIdx, err)
				}
				if !stronghash.Sum(plain).Equal(desc.StrongHash) {
					return &ErrIntegrity{DescIndex: descIdx, Reason: "fetched bytes do not match descriptor strong hash"}
				}
				for _, o := range idx.SourceOffsets(descIdx) {
					if err := opts.Writer.WriteAt(o, plain); err != nil {
						return fmt.Errorf("clone: writing descriptor %d at offset %d: %w", descIdx, o, err)
					}
				}
				idx.MarkCovered(descIdx)
			}
			return nil
		})
	}
	return g.Wait()
}

func verifySourceHash(dict *archive.Dictionary, r io.ReaderAt) error {
	buf := make([]byte, dict.SourceTotalSize)
	if _, err := r.ReadAt(buf, 0); err != nil {
		return fmt.Errorf("clone: reading output for source-hash verification: %w", err)
	}
	if !stronghash.Sum(buf).Equal(dict.SourceHash) {
		return &ErrIntegrity{Reason: "finalized output source hash does not match dictionary"}
	}
	return nil
}

func wrapCancel(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return &ErrCancelled{Cause: err}
	}
	return err
}
