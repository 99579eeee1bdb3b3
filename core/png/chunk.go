package png

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"unicode/utf8"
)

const (
	lengthSize = 4
	typeSize   = 4
	crcSize    = 4

	// chunkOverhead is the size of a chunk with no data.
	chunkOverhead = lengthSize + typeSize + crcSize
)

// Chunk is one length-prefixed, checksummed record of a PNG datastream.
// A Chunk is immutable once constructed.
type Chunk struct {
	length    uint32
	chunkType ChunkType
	data      []byte
	crc       uint32
}

// NewChunk builds a chunk of type t carrying a copy of data. The CRC is
// computed from the type and data.
func NewChunk(t ChunkType, data []byte) *Chunk {
	owned := make([]byte, len(data))
	copy(owned, data)
	return &Chunk{
		length:    uint32(len(owned)),
		chunkType: t,
		data:      owned,
		crc:       checksum(t, owned),
	}
}

// NewTextChunk builds a chunk whose data is the UTF-8 encoding of text.
func NewTextChunk(typ, text string) (*Chunk, error) {
	t, err := ParseChunkType(typ)
	if err != nil {
		return nil, err
	}
	return NewChunk(t, []byte(text)), nil
}

// ParseChunk decodes a single chunk from the start of b. Bytes after the
// chunk's CRC are ignored. The stored CRC is kept as-is and not checked
// against the data; call VerifyCRC for that.
func ParseChunk(b []byte) (*Chunk, error) {
	if len(b) < chunkOverhead {
		return nil, fmt.Errorf("%w: chunk needs at least %d bytes, have %d", ErrUnexpectedEnd, chunkOverhead, len(b))
	}

	length := binary.BigEndian.Uint32(b[0:lengthSize])
	need := uint64(chunkOverhead) + uint64(length)
	if uint64(len(b)) < need {
		return nil, fmt.Errorf("%w: chunk declares %d data bytes, only %d available", ErrUnexpectedEnd, length, len(b)-chunkOverhead)
	}

	var raw [4]byte
	copy(raw[:], b[lengthSize:lengthSize+typeSize])
	t, err := ChunkTypeFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	dataStart := lengthSize + typeSize
	dataEnd := dataStart + int(length)
	data := make([]byte, length)
	copy(data, b[dataStart:dataEnd])

	return &Chunk{
		length:    length,
		chunkType: t,
		data:      data,
		crc:       binary.BigEndian.Uint32(b[dataEnd : dataEnd+crcSize]),
	}, nil
}

// Length returns the number of data bytes.
func (c *Chunk) Length() uint32 {
	return c.length
}

// Type returns the chunk type.
func (c *Chunk) Type() ChunkType {
	return c.chunkType
}

// Data returns a copy of the chunk data.
func (c *Chunk) Data() []byte {
	out := make([]byte, len(c.data))
	copy(out, c.data)
	return out
}

// CRC returns the stored checksum.
func (c *Chunk) CRC() uint32 {
	return c.crc
}

// ComputedCRC returns the checksum of the chunk's current type and data.
func (c *Chunk) ComputedCRC() uint32 {
	return checksum(c.chunkType, c.data)
}

// VerifyCRC returns ErrChecksumMismatch when the stored CRC does not match
// the type and data.
func (c *Chunk) VerifyCRC() error {
	if got := c.ComputedCRC(); got != c.crc {
		return fmt.Errorf("%w: %s stores 0x%08x, computed 0x%08x", ErrChecksumMismatch, c.chunkType, c.crc, got)
	}
	return nil
}

// DataString returns the data as text. It fails with ErrInvalidEncoding
// when the data is not valid UTF-8.
func (c *Chunk) DataString() (string, error) {
	if !utf8.Valid(c.data) {
		return "", fmt.Errorf("%w: %s chunk", ErrInvalidEncoding, c.chunkType)
	}
	return string(c.data), nil
}

// Size returns the encoded size of the chunk including framing.
func (c *Chunk) Size() int {
	return chunkOverhead + len(c.data)
}

// Bytes encodes the chunk as length, type, data and CRC.
func (c *Chunk) Bytes() []byte {
	return c.appendTo(make([]byte, 0, c.Size()))
}

func (c *Chunk) appendTo(buf []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, c.length)
	buf = append(buf, c.chunkType[:]...)
	buf = append(buf, c.data...)
	return binary.BigEndian.AppendUint32(buf, c.crc)
}

func (c *Chunk) String() string {
	return fmt.Sprintf("chunk_type: %s, data_length: %d", c.chunkType, c.length)
}

// checksum is CRC-32/ISO-HDLC over the type bytes followed by the data.
func checksum(t ChunkType, data []byte) uint32 {
	crc := crc32.Update(0, crc32.IEEETable, t[:])
	return crc32.Update(crc, crc32.IEEETable, data)
}
