package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
)

// Header is the parsed fixed-size archive header.
type Header struct {
	FormatVersion uint8
	DictionaryLen uint64
}

// headerFixedSize is the byte width of Magic + FormatVersion + HeaderLenBE.
const headerFixedSize = 6 + 1 + 8

// ReadHeader reads and validates the magic and format version, returning
// the declared dictionary length.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [headerFixedSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, &ErrInvalidArchive{Reason: fmt.Sprintf("truncated header: %v", err)}
	}
	if !bytes.Equal(buf[:6], Magic[:]) {
		return Header{}, &ErrInvalidArchive{Reason: "bad magic"}
	}
	version := buf[6]
	if version != FormatVersion {
		return Header{}, &ErrInvalidArchive{Reason: fmt.Sprintf("unsupported format_version %d", version)}
	}
	dictLen := binary.BigEndian.Uint64(buf[7:15])
	return Header{FormatVersion: version, DictionaryLen: dictLen}, nil
}

// ReadDictionary reads the dictionary frame and its trailing hash
// immediately following a Header read from the same stream, verifying the
// hash before decoding.
func ReadDictionary(r io.Reader, h Header) (*Dictionary, error) {
	dictBytes := make([]byte, h.DictionaryLen)
	if _, err := io.ReadFull(r, dictBytes); err != nil {
		return nil, &ErrInvalidArchive{Reason: fmt.Sprintf("truncated dictionary frame: %v", err)}
	}

	var hashFrame [DictionaryHashSize]byte
	if _, err := io.ReadFull(r, hashFrame[:]); err != nil {
		return nil, &ErrInvalidArchive{Reason: fmt.Sprintf("truncated dictionary hash: %v", err)}
	}
	want := blake2b.Sum256(dictBytes)
	if !bytes.Equal(hashFrame[:32], want[:]) {
		return nil, &ErrInvalidArchive{Reason: "dictionary hash mismatch"}
	}

	dict, err := decodeDictionary(dictBytes)
	if err != nil {
		return nil, err
	}
	if err := dict.Validate(); err != nil {
		return nil, &ErrInvalidArchive{Reason: err.Error()}
	}
	return dict, nil
}

// ChunkDataRegionOffset returns the absolute byte offset, from the start of
// the archive, where the chunk-data region begins, given a header's
// declared dictionary length.
func ChunkDataRegionOffset(h Header) int64 {
	return int64(headerFixedSize) + int64(h.DictionaryLen) + int64(DictionaryHashSize)
}

// ReadFromReaderAt reads archive framing out of an io.ReaderAt (a local
// file, or an in-memory buffer) by wrapping it as a sequential reader for
// the fixed-size header and dictionary. It returns the parsed dictionary
// and the absolute offset of the chunk-data region.
func ReadFromReaderAt(ra io.ReaderAt) (*Dictionary, int64, error) {
	sr := io.NewSectionReader(ra, 0, 1<<62)
	h, err := ReadHeader(sr)
	if err != nil {
		return nil, 0, err
	}
	dict, err := ReadDictionary(sr, h)
	if err != nil {
		return nil, 0, err
	}
	return dict, ChunkDataRegionOffset(h), nil
}

// ReadChunkRange reads the compressed bytes for one chunk out of the
// chunk-data region, given the region's absolute start and the
// chunk's dictionary-relative offset/size.
func ReadChunkRange(ra io.ReaderAt, regionStart int64, archiveOffset uint64, compressedSize uint32) ([]byte, error) {
	buf := make([]byte, compressedSize)
	_, err := ra.ReadAt(buf, regionStart+int64(archiveOffset))
	if err != nil {
		return nil, fmt.Errorf("archive: read chunk range at offset %d: %w", archiveOffset, err)
	}
	return buf, nil
}
