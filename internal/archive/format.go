package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Magic is the fixed 6-byte archive signature.
var Magic = [6]byte{'B', 'I', 'T', 'A', '1', 0}

// FormatVersion is written immediately after Magic. Readers reject
// anything but the version this implementation writes.
const FormatVersion = 1

// DictionaryHashSize is the width of the dictionary-hash frame: a 32-byte
// Blake2b-256 digest of the serialized dictionary followed by 32 reserved
// zero bytes.
const DictionaryHashSize = 64

// ErrInvalidArchive covers a bad magic, unknown format version, truncated
// frame, or an unreadable/corrupt dictionary.
type ErrInvalidArchive struct {
	Reason string
}

func (e *ErrInvalidArchive) Error() string {
	return fmt.Sprintf("archive: invalid archive: %s", e.Reason)
}

// Field tags for the nested chunker-config record.
const (
	tagHashFamily     = 1
	tagHashWindowSize = 2
	tagMinChunkSize   = 3
	tagAvgChunkSize   = 4
	tagMaxChunkSize   = 5
)

// Field tags for Descriptor entries.
const (
	tagDescStrongHash       = 1
	tagDescUncompressedSize = 2
	tagDescArchiveOffset    = 3
	tagDescCompressedSize   = 4
	tagDescCodec            = 5
)

func putUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func putTagByte(buf *bytes.Buffer, tag byte) {
	buf.WriteByte(tag)
}

func readUvarint(r io.ByteReader) (uint64, error) {
	v, err := binary.ReadUvarint(r)
	if err != nil {
		return 0, &ErrInvalidArchive{Reason: fmt.Sprintf("truncated varint: %v", err)}
	}
	return v, nil
}

func expectTag(r io.ByteReader, want byte, field string) error {
	got, err := r.ReadByte()
	if err != nil {
		return &ErrInvalidArchive{Reason: fmt.Sprintf("truncated frame reading %s tag: %v", field, err)}
	}
	if got != want {
		return &ErrInvalidArchive{Reason: fmt.Sprintf("unexpected tag for %s: want %d, got %d", field, want, got)}
	}
	return nil
}
