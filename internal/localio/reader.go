package localio

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// FileRangeReader satisfies rangeio.RangeReader over a local archive file
// via pread (os.File.ReadAt), for archives that live on local disk rather
// than behind HTTP.
type FileRangeReader struct {
	f      *os.File
	logger *zap.Logger
}

// NewFileRangeReader opens path read-only for range reads.
func NewFileRangeReader(path string, logger *zap.Logger) (*FileRangeReader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("localio: opening %s: %w", path, err)
	}
	return &FileRangeReader{f: f, logger: logger}, nil
}

// ReadRange reads length bytes at offset, satisfying rangeio.RangeReader.
func (r *FileRangeReader) ReadRange(_ context.Context, offset uint64, length uint64) ([]byte, error) {
	buf := make([]byte, length)
	n, err := r.f.ReadAt(buf, int64(offset))
	if err != nil {
		return nil, fmt.Errorf("localio: read %d bytes at offset %d: %w", length, offset, err)
	}
	r.logger.Debug("localio: read archive range", zap.Uint64("offset", offset), zap.Int("n", n))
	return buf, nil
}

// Close releases the underlying file handle.
func (r *FileRangeReader) Close() error {
	return r.f.Close()
}

// OpenSeed opens path for sequential reading as a file/device seed. The
// caller is responsible for closing the returned file.
func OpenSeed(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("localio: opening seed %s: %w", path, err)
	}
	return f, nil
}
