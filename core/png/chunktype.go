// Package png reads, edits and rewrites PNG datastreams at the chunk level.
//
// A datastream is the fixed 8-byte signature followed by a sequence of
// chunks. Each chunk is framed as
//
//	[4-byte big-endian length][4-byte type][length bytes of data][4-byte big-endian CRC-32]
//
// where the CRC covers the type and data bytes. Chunk data is never
// interpreted: the package does not decode pixels, decompress payloads or
// enforce ordering rules such as IHDR first and IEND last.
//
// All operations work on in-memory buffers and are synchronous. A Png value
// is not safe for concurrent mutation.
package png

import (
	"fmt"
	"strings"
)

// propertyBit is bit 5 of a chunk type byte, the ASCII case bit.
const propertyBit = 0x20

// ChunkType is a 4-byte chunk type code. The case of each byte encodes a
// property of the chunk: ancillary, private, reserved and safe-to-copy.
type ChunkType [4]byte

// ChunkTypeFromBytes returns the chunk type for b. Every byte must be an
// ASCII letter. The reserved bit is not checked; see IsValid.
func ChunkTypeFromBytes(b [4]byte) (ChunkType, error) {
	for i, c := range b {
		if !isASCIILetter(c) {
			return ChunkType{}, fmt.Errorf("%w: byte %d is 0x%02x", ErrInvalidCharacter, i, c)
		}
	}
	return ChunkType(b), nil
}

// ParseChunkType parses a chunk type such as "IHDR" or "ruSt". Surrounding
// whitespace is ignored.
func ParseChunkType(s string) (ChunkType, error) {
	s = strings.TrimSpace(s)
	if len(s) != 4 {
		return ChunkType{}, fmt.Errorf("%w: got %q", ErrInvalidLength, s)
	}
	var b [4]byte
	copy(b[:], s)
	return ChunkTypeFromBytes(b)
}

// Bytes returns the raw type code.
func (t ChunkType) Bytes() [4]byte {
	return t
}

// IsCritical reports whether decoders must understand the chunk to display
// the image. The first byte is uppercase for critical chunks.
func (t ChunkType) IsCritical() bool {
	return t[0]&propertyBit == 0
}

// IsPublic reports whether the chunk type is part of the public registry.
func (t ChunkType) IsPublic() bool {
	return t[1]&propertyBit == 0
}

// IsReservedBitValid reports whether the third byte is uppercase, as the
// current format revision requires.
func (t ChunkType) IsReservedBitValid() bool {
	return t[2]&propertyBit == 0
}

// IsSafeToCopy reports whether editors that do not recognize the chunk may
// copy it into a modified datastream.
func (t ChunkType) IsSafeToCopy() bool {
	return t[3]&propertyBit != 0
}

// IsValid reports whether the reserved bit is clear and all bytes are ASCII.
func (t ChunkType) IsValid() bool {
	if !t.IsReservedBitValid() {
		return false
	}
	for _, c := range t {
		if c >= 0x80 {
			return false
		}
	}
	return true
}

func (t ChunkType) String() string {
	return string(t[:])
}

func isASCIILetter(c byte) bool {
	return ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z')
}
