package png

import "errors"

// Error kinds returned by this package. Every error returned wraps exactly
// one of these, so callers can classify failures with errors.Is.
var (
	// ErrInvalidCharacter indicates a chunk type byte that is not an ASCII letter.
	ErrInvalidCharacter = errors.New("chunk type contains a non-alphabetic byte")
	// ErrInvalidLength indicates a chunk type string that is not 4 bytes long.
	ErrInvalidLength = errors.New("chunk type must be exactly 4 characters")
	// ErrInvalidSignature indicates a buffer that does not start with the PNG signature.
	ErrInvalidSignature = errors.New("invalid PNG signature")
	// ErrUnexpectedEnd indicates a buffer truncated in the middle of a chunk.
	ErrUnexpectedEnd = errors.New("unexpected end of data")
	// ErrMalformed indicates a chunk that failed to parse for a reason other than truncation.
	ErrMalformed = errors.New("malformed chunk")
	// ErrInvalidEncoding indicates chunk data that is not valid UTF-8 text.
	ErrInvalidEncoding = errors.New("chunk data is not valid UTF-8")
	// ErrChunkNotFound indicates that no chunk has the requested type.
	ErrChunkNotFound = errors.New("chunk not found")
	// ErrChecksumMismatch indicates a stored CRC that differs from the computed one.
	ErrChecksumMismatch = errors.New("chunk checksum mismatch")
)
