package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/kelvinlabs/bita/internal/archive"
	"github.com/kelvinlabs/bita/internal/chunker"
	"github.com/kelvinlabs/bita/internal/codec"
	"github.com/kelvinlabs/bita/internal/config"
	"github.com/kelvinlabs/bita/internal/rollhash"
)

// loadConfig reads a YAML config from path, or returns the built-in
// defaults when path is empty.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return config.Config{}, err
	}
	defer f.Close()
	return config.Load(f)
}

func runCompress(args []string, log *zap.Logger) int {
	fs := flag.NewFlagSet("compress", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file; explicit flags override it")
	hashFamily := fs.String("hash-family", "", "rolling-hash family: rollsum or buzhash")
	windowSize := fs.Uint("window-size", 0, "rolling-hash window size in bytes")
	minSize := fs.Uint("min", 0, "minimum chunk size")
	avgSize := fs.Uint("avg", 0, "average chunk size (must be a power of two)")
	maxSize := fs.Uint("max", 0, "maximum chunk size")
	codecName := fs.String("codec", "", "codec: none, brotli, lzma, zstd")
	level := fs.Int("level", 0, "compression level (0 = codec default)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: bita compress [flags] <input> <archive>")
		return exitUsage
	}
	inputPath, archivePath := fs.Arg(0), fs.Arg(1)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	if *hashFamily != "" {
		cfg.Chunker.HashFamily = *hashFamily
		// Switching family also switches the window default, unless the
		// window is pinned explicitly.
		if fam, err := rollhash.ParseFamily(*hashFamily); err == nil && *windowSize == 0 {
			cfg.Chunker.HashWindowSize = chunker.DefaultWindowSize(fam)
		}
	}
	if *windowSize != 0 {
		cfg.Chunker.HashWindowSize = uint32(*windowSize)
	}
	if *minSize != 0 {
		cfg.Chunker.MinChunkSize = uint32(*minSize)
	}
	if *avgSize != 0 {
		cfg.Chunker.AvgChunkSize = uint32(*avgSize)
	}
	if *maxSize != 0 {
		cfg.Chunker.MaxChunkSize = uint32(*maxSize)
	}
	if *codecName != "" {
		cfg.Archive.Codec = *codecName
	}
	if *level != 0 {
		cfg.Archive.Level = *level
	}

	ckCfg, err := cfg.ToChunker()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	tag, err := cfg.ToCodecTag()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	lvl := cfg.Archive.Level
	if lvl == 0 {
		lvl = codec.DefaultLevel(tag)
	}

	in, err := os.Open(inputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitIOFailure
	}
	defer in.Close()

	out, err := os.Create(archivePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitIOFailure
	}
	defer out.Close()

	opts := archive.CompressOptions{
		Chunker: ckCfg,
		Codec:   tag,
		Level:   lvl,
	}

	dict, err := archive.Compress(in, opts, out)
	if err != nil {
		log.Error("compress failed", zap.Error(err))
		return exitIOFailure
	}

	log.Info("compressed",
		zap.String("input", inputPath),
		zap.String("archive", archivePath),
		zap.Uint64("source_bytes", dict.SourceTotalSize),
		zap.Int("descriptors", len(dict.Descriptors)),
	)
	return exitSuccess
}
