// cmd/bita/main.go is a thin entry point: subcommand dispatch, env/flag
// driven wiring, and a zap logger. The heavy lifting lives in the
// internal packages; this command gives them a runnable home and wires
// the archive and output backends end to end.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/kelvinlabs/bita/internal/logger"
)

// Exit codes: success, usage error, integrity failure, I/O or network
// failure, cancelled.
const (
	exitSuccess         = 0
	exitUsage           = 1
	exitIntegrityFailed = 2
	exitIOFailure       = 3
	exitCancelled       = 4
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	log := newLogger()
	defer func() { _ = log.Sync() }()

	if len(args) == 0 {
		usage()
		return exitUsage
	}

	switch args[0] {
	case "compress":
		return runCompress(args[1:], log)
	case "clone":
		return runClone(args[1:], log)
	case "diff":
		return runDiff(args[1:], log)
	case "-h", "--help", "help":
		usage()
		return exitSuccess
	default:
		fmt.Fprintf(os.Stderr, "bita: unknown subcommand %q\n", args[0])
		usage()
		return exitUsage
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: bita <command> [flags]

commands:
  compress <input> <archive>   build an archive from a source file
  clone <archive> <output>     reconstruct output from an archive
  diff <archive>                summarize an archive's dictionary`)
}

// newLogger builds a production logger, or a console one when BITA_DEBUG
// is set.
func newLogger() *zap.Logger {
	if os.Getenv("BITA_DEBUG") != "" {
		return logger.NewDevelopment()
	}
	return logger.New()
}
