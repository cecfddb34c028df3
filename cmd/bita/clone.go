package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kelvinlabs/bita/internal/archive"
	"github.com/kelvinlabs/bita/internal/clone"
	"github.com/kelvinlabs/bita/internal/localio"
	"github.com/kelvinlabs/bita/internal/retry"
)

// seedList implements flag.Value so --seed can repeat.
type seedList []string

func (s *seedList) String() string     { return strings.Join(*s, ",") }
func (s *seedList) Set(v string) error { *s = append(*s, v); return nil }

func runClone(args []string, log *zap.Logger) int {
	fs := flag.NewFlagSet("clone", flag.ContinueOnError)
	var seeds seedList
	fs.Var(&seeds, "seed", "path to a seed file; repeatable")
	configPath := fs.String("config", "", "path to a YAML config file; explicit flags override it")
	seedOutput := fs.Bool("seed-output", false, "scan the output file itself as a self-seed before writing")
	workers := fs.Int("workers", 0, "worker pool size (0 = runtime.NumCPU)")
	maxGap := fs.Uint64("max-gap", 0, "max gap in bytes to merge adjacent range requests")
	maxReq := fs.Uint64("max-request-size", 0, "max bytes per coalesced range request (0 = unlimited)")
	verify := fs.Bool("verify", false, "re-hash the full output and compare against the source hash")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: bita clone [flags] <archive> <output>")
		return exitUsage
	}
	archivePath, outputPath := fs.Arg(0), fs.Arg(1)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	if *workers != 0 {
		cfg.Clone.Workers = *workers
	}
	if *maxGap != 0 {
		cfg.Clone.MaxGapBytes = *maxGap
	}
	if *maxReq != 0 {
		cfg.Clone.MaxRequestSize = *maxReq
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitIOFailure
	}
	defer archiveFile.Close()

	dict, regionOffset, err := archive.ReadFromReaderAt(archiveFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitIntegrityFailed
	}

	rangeReader, err := localio.NewFileRangeReader(archivePath, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitIOFailure
	}
	defer rangeReader.Close()

	var seedReaders []io.Reader
	var seedFiles []*os.File
	for _, path := range seeds {
		f, err := localio.OpenSeed(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitIOFailure
		}
		seedFiles = append(seedFiles, f)
		seedReaders = append(seedReaders, f)
	}
	defer func() {
		for _, f := range seedFiles {
			_ = f.Close()
		}
	}()

	writer, err := localio.NewFileWriter(outputPath, dict.SourceTotalSize, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitIOFailure
	}

	pol := retry.New(
		retry.WithLogger(log),
		retry.WithMaxAttempts(cfg.Clone.MaxAttempts),
		retry.WithInitialDelay(time.Duration(cfg.Clone.InitialDelayMS)*time.Millisecond),
		retry.WithMaxDelay(time.Duration(cfg.Clone.MaxDelayMS)*time.Millisecond),
	)

	opts := clone.Options{
		Dictionary:            dict,
		Seeds:                 seedReaders,
		RangeReader:           rangeReader,
		ChunkDataRegionOffset: uint64(regionOffset),
		Writer:                writer,
		RetryPolicy:           pol,
		MaxGapBytes:           cfg.Clone.MaxGapBytes,
		MaxRequestSize:        cfg.Clone.MaxRequestSize,
		Workers:               cfg.Clone.Workers,
		Logger:                log,
		VerifySourceHash:      *verify,
	}
	if opts.Workers == 0 {
		opts.Workers = runtime.NumCPU()
	}

	if *seedOutput || *verify {
		selfSeed, err := os.Open(outputPath)
		if err == nil {
			defer selfSeed.Close()
			if *seedOutput {
				opts.SelfSeedReader = selfSeed
				opts.SelfSeedReaderAt = selfSeed
			}
			if *verify {
				opts.VerifyReaderAt = selfSeed
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("clone: received interrupt, cancelling")
		cancel()
	}()
	defer cancel()

	start := time.Now()
	err = clone.Clone(ctx, opts)
	if err != nil {
		// Clone finalizes the writer itself on success; on failure the
		// partially written output is left as-is, but the handle still
		// needs releasing.
		_ = writer.Finalize()
	}

	if err == nil {
		log.Info("clone complete", zap.Duration("elapsed", time.Since(start)))
		return exitSuccess
	}

	fmt.Fprintln(os.Stderr, err)
	var integrityErr *clone.ErrIntegrity
	var cancelledErr *clone.ErrCancelled
	switch {
	case errors.As(err, &integrityErr):
		return exitIntegrityFailed
	case errors.As(err, &cancelledErr):
		return exitCancelled
	default:
		return exitIOFailure
	}
}
