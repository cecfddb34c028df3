package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/kelvinlabs/bita/internal/archive"
)

// runDiff summarizes an archive's dictionary: what a clone against an
// empty seed set would need to fetch.
func runDiff(args []string, log *zap.Logger) int {
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: bita diff <archive>")
		return exitUsage
	}
	archivePath := fs.Arg(0)

	f, err := os.Open(archivePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitIOFailure
	}
	defer f.Close()

	dict, _, err := archive.ReadFromReaderAt(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitIntegrityFailed
	}

	var compressedTotal uint64
	for _, d := range dict.Descriptors {
		compressedTotal += uint64(d.CompressedSize)
	}

	fmt.Printf("source size:        %d bytes\n", dict.SourceTotalSize)
	fmt.Printf("unique chunks:      %d\n", len(dict.Descriptors))
	fmt.Printf("total occurrences:  %d\n", len(dict.RebuildSequence))
	fmt.Printf("chunk-data size:    %d bytes\n", compressedTotal)
	fmt.Printf("hash family:        %s\n", dict.ChunkerConfig.HashFamily)
	fmt.Printf("chunk size bounds:  [%d, %d], avg %d\n",
		dict.ChunkerConfig.MinChunkSize, dict.ChunkerConfig.MaxChunkSize, dict.ChunkerConfig.AvgChunkSize)

	log.Debug("diff complete", zap.String("archive", archivePath))
	return exitSuccess
}
