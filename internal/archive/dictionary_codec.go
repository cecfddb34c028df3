package archive

import (
	"bytes"
	"fmt"

	"github.com/kelvinlabs/bita/internal/chunker"
	"github.com/kelvinlabs/bita/internal/codec"
	"github.com/kelvinlabs/bita/internal/rollhash"
	"github.com/kelvinlabs/bita/internal/stronghash"
)

func encodeChunkerConfig(cfg chunker.Config) []byte {
	var buf bytes.Buffer
	putTagByte(&buf, tagHashFamily)
	buf.WriteByte(byte(cfg.HashFamily))
	putTagByte(&buf, tagHashWindowSize)
	putUvarint(&buf, uint64(cfg.HashWindowSize))
	putTagByte(&buf, tagMinChunkSize)
	putUvarint(&buf, uint64(cfg.MinChunkSize))
	putTagByte(&buf, tagAvgChunkSize)
	putUvarint(&buf, uint64(cfg.AvgChunkSize))
	putTagByte(&buf, tagMaxChunkSize)
	putUvarint(&buf, uint64(cfg.MaxChunkSize))
	return buf.Bytes()
}

func decodeChunkerConfig(r *bytes.Reader) (chunker.Config, error) {
	var cfg chunker.Config

	if err := expectTag(r, tagHashFamily, "hash_family"); err != nil {
		return cfg, err
	}
	fam, err := r.ReadByte()
	if err != nil {
		return cfg, &ErrInvalidArchive{Reason: "truncated hash_family"}
	}
	cfg.HashFamily = rollhash.Family(fam)

	if err := expectTag(r, tagHashWindowSize, "hash_window_size"); err != nil {
		return cfg, err
	}
	v, err := readUvarint(r)
	if err != nil {
		return cfg, err
	}
	cfg.HashWindowSize = uint32(v)

	if err := expectTag(r, tagMinChunkSize, "min_chunk_size"); err != nil {
		return cfg, err
	}
	if v, err = readUvarint(r); err != nil {
		return cfg, err
	}
	cfg.MinChunkSize = uint32(v)

	if err := expectTag(r, tagAvgChunkSize, "avg_chunk_size"); err != nil {
		return cfg, err
	}
	if v, err = readUvarint(r); err != nil {
		return cfg, err
	}
	cfg.AvgChunkSize = uint32(v)

	if err := expectTag(r, tagMaxChunkSize, "max_chunk_size"); err != nil {
		return cfg, err
	}
	if v, err = readUvarint(r); err != nil {
		return cfg, err
	}
	cfg.MaxChunkSize = uint32(v)

	return cfg, nil
}

func encodeDescriptor(buf *bytes.Buffer, d Descriptor) {
	putTagByte(buf, tagDescStrongHash)
	putUvarint(buf, stronghash.Size)
	buf.Write(d.StrongHash.Bytes())
	putTagByte(buf, tagDescUncompressedSize)
	putUvarint(buf, uint64(d.UncompressedSize))
	putTagByte(buf, tagDescArchiveOffset)
	putUvarint(buf, d.ArchiveOffset)
	putTagByte(buf, tagDescCompressedSize)
	putUvarint(buf, uint64(d.CompressedSize))
	putTagByte(buf, tagDescCodec)
	buf.WriteByte(byte(d.Codec))
}

func decodeDescriptor(r *bytes.Reader) (Descriptor, error) {
	var d Descriptor

	if err := expectTag(r, tagDescStrongHash, "strong_hash"); err != nil {
		return d, err
	}
	n, err := readUvarint(r)
	if err != nil {
		return d, err
	}
	if n != stronghash.Size {
		return d, &ErrInvalidArchive{Reason: fmt.Sprintf("strong_hash length %d != %d", n, stronghash.Size)}
	}
	hashBytes := make([]byte, stronghash.Size)
	if _, err := r.Read(hashBytes); err != nil {
		return d, &ErrInvalidArchive{Reason: "truncated strong_hash"}
	}
	sh, err := stronghash.FromBytes(hashBytes)
	if err != nil {
		return d, &ErrInvalidArchive{Reason: err.Error()}
	}
	d.StrongHash = sh

	if err := expectTag(r, tagDescUncompressedSize, "uncompressed_size"); err != nil {
		return d, err
	}
	v, err := readUvarint(r)
	if err != nil {
		return d, err
	}
	d.UncompressedSize = uint32(v)

	if err := expectTag(r, tagDescArchiveOffset, "archive_offset"); err != nil {
		return d, err
	}
	if v, err = readUvarint(r); err != nil {
		return d, err
	}
	d.ArchiveOffset = v

	if err := expectTag(r, tagDescCompressedSize, "compressed_size"); err != nil {
		return d, err
	}
	if v, err = readUvarint(r); err != nil {
		return d, err
	}
	d.CompressedSize = uint32(v)

	if err := expectTag(r, tagDescCodec, "codec"); err != nil {
		return d, err
	}
	tag, err := r.ReadByte()
	if err != nil {
		return d, &ErrInvalidArchive{Reason: "truncated codec tag"}
	}
	d.Codec = codec.Tag(tag)

	return d, nil
}

// encodeDictionary serializes a Dictionary to its wire frame:
// varint/length-prefixed fields, with the nested chunker-config record
// carrying fixed field tags.
func encodeDictionary(d *Dictionary) []byte {
	var buf bytes.Buffer

	putUvarint(&buf, d.SourceTotalSize)
	buf.Write(d.SourceHash.Bytes())

	cfgBytes := encodeChunkerConfig(d.ChunkerConfig)
	putUvarint(&buf, uint64(len(cfgBytes)))
	buf.Write(cfgBytes)

	putUvarint(&buf, uint64(len(d.Descriptors)))
	for _, desc := range d.Descriptors {
		encodeDescriptor(&buf, desc)
	}

	putUvarint(&buf, uint64(len(d.RebuildSequence)))
	for _, idx := range d.RebuildSequence {
		putUvarint(&buf, uint64(idx))
	}

	return buf.Bytes()
}

func decodeDictionary(raw []byte) (*Dictionary, error) {
	r := bytes.NewReader(raw)
	d := &Dictionary{}

	total, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	d.SourceTotalSize = total

	hashBytes := make([]byte, stronghash.Size)
	if _, err := r.Read(hashBytes); err != nil {
		return nil, &ErrInvalidArchive{Reason: "truncated source_hash"}
	}
	sh, err := stronghash.FromBytes(hashBytes)
	if err != nil {
		return nil, &ErrInvalidArchive{Reason: err.Error()}
	}
	d.SourceHash = sh

	cfgLen, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	cfgBytes := make([]byte, cfgLen)
	if _, err := r.Read(cfgBytes); err != nil {
		return nil, &ErrInvalidArchive{Reason: "truncated chunker_config"}
	}
	cfg, err := decodeChunkerConfig(bytes.NewReader(cfgBytes))
	if err != nil {
		return nil, err
	}
	d.ChunkerConfig = cfg

	descCount, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	d.Descriptors = make([]Descriptor, descCount)
	for i := range d.Descriptors {
		desc, err := decodeDescriptor(r)
		if err != nil {
			return nil, err
		}
		d.Descriptors[i] = desc
	}

	seqCount, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	d.RebuildSequence = make([]uint32, seqCount)
	for i := range d.RebuildSequence {
		v, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		d.RebuildSequence[i] = uint32(v)
	}

	return d, nil
}
