// Package localio implements the local-file backends for the archive and
// output contracts: direct os.File access, zap debug logging on every range
// read and output write,
// errors wrapped with the call that produced them, limited to the
// pread/pwrite subset clone needs.
package localio

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// RandomWriter is the output backend the clone assembler writes through:
// random-access writes followed by a single finalize. FileWriter is this
// module's one concrete implementation, over a local file.
type RandomWriter interface {
	WriteAt(offset uint64, data []byte) error
	Finalize() error
}

// FileWriter satisfies RandomWriter over a local file.
type FileWriter struct {
	f      *os.File
	logger *zap.Logger
}

// NewFileWriter opens (creating if necessary) path for random-access
// writes, pre-sizing it to size bytes so every WriteAt lands inside the
// file's extent.
func NewFileWriter(path string, size uint64, logger *zap.Logger) (*FileWriter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("localio: opening %s: %w", path, err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("localio: truncating %s to %d: %w", path, size, err)
	}
	return &FileWriter{f: f, logger: logger}, nil
}

// WriteAt writes data at offset, satisfying RandomWriter.
func (w *FileWriter) WriteAt(offset uint64, data []byte) error {
	n, err := w.f.WriteAt(data, int64(offset))
	if err != nil {
		return fmt.Errorf("localio: write %d bytes at offset %d: %w", len(data), offset, err)
	}
	w.logger.Debug("localio: wrote output bytes", zap.Uint64("offset", offset), zap.Int("n", n))
	return nil
}

// Finalize flushes and closes the underlying file.
func (w *FileWriter) Finalize() error {
	if err := w.f.Sync(); err != nil {
		return fmt.Errorf("localio: sync: %w", err)
	}
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("localio: close: %w", err)
	}
	return nil
}
