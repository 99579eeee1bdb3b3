package png

import (
	"encoding/binary"
	"errors"
	"fmt"

	pngerrors "github.com/FocuswithJustin/pngmsg/core/errors"
)

const signature = "\x89PNG\r\n\x1a\n"

// Signature returns the 8-byte header every PNG datastream starts with.
func Signature() [8]byte {
	var sig [8]byte
	copy(sig[:], signature)
	return sig
}

// Png is a decoded datastream: the signature followed by chunks in file
// order. The zero value is not useful; use Decode or FromChunks.
type Png struct {
	header [8]byte
	chunks []*Chunk
}

// DecodeOption configures Decode.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	strictCRC bool
}

// WithStrictCRC makes Decode verify the CRC of every chunk and fail with
// ErrChecksumMismatch on the first mismatch. By default stored checksums
// are trusted.
func WithStrictCRC() DecodeOption {
	return func(c *decodeConfig) {
		c.strictCRC = true
	}
}

// FromChunks builds a datastream from chunks, in the given order. The
// chunks are not validated.
func FromChunks(chunks []*Chunk) *Png {
	owned := make([]*Chunk, len(chunks))
	copy(owned, chunks)
	return &Png{header: Signature(), chunks: owned}
}

// Decode parses a complete datastream. Chunks are read until the buffer is
// exhausted; the IEND chunk gets no special treatment. On error no partial
// result is returned and the error is a *errors.ParseError wrapping one of
// ErrInvalidSignature, ErrUnexpectedEnd, ErrMalformed or ErrChecksumMismatch.
func Decode(b []byte, opts ...DecodeOption) (*Png, error) {
	var cfg decodeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(b) < len(signature) || string(b[:len(signature)]) != signature {
		return nil, pngerrors.NewParseAt("PNG", 0, ErrInvalidSignature)
	}

	var chunks []*Chunk
	cursor := len(signature)
	for cursor < len(b) {
		rest := b[cursor:]
		if len(rest) < lengthSize {
			return nil, pngerrors.NewParseAt("PNG", int64(cursor),
				fmt.Errorf("%w: %d trailing bytes cannot hold a chunk length", ErrUnexpectedEnd, len(rest)))
		}

		length := binary.BigEndian.Uint32(rest[:lengthSize])
		total := uint64(chunkOverhead) + uint64(length)
		if total > uint64(len(rest)) {
			return nil, pngerrors.NewParseAt("PNG", int64(cursor),
				fmt.Errorf("%w: chunk of %d bytes overruns buffer by %d", ErrUnexpectedEnd, total, total-uint64(len(rest))))
		}

		c, err := ParseChunk(rest[:total])
		if err != nil {
			if !errors.Is(err, ErrMalformed) && !errors.Is(err, ErrUnexpectedEnd) {
				err = fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			return nil, pngerrors.NewParseAt("PNG", int64(cursor), err)
		}
		if cfg.strictCRC {
			if err := c.VerifyCRC(); err != nil {
				return nil, pngerrors.NewParseAt("PNG", int64(cursor), err)
			}
		}

		chunks = append(chunks, c)
		cursor += int(total)
	}

	return &Png{header: Signature(), chunks: chunks}, nil
}

// Encode returns the serialized form of p.
func Encode(p *Png) []byte {
	return p.Bytes()
}

// Header returns the signature.
func (p *Png) Header() [8]byte {
	return p.header
}

// Chunks returns the chunks in file order. The returned slice is a copy.
func (p *Png) Chunks() []*Chunk {
	out := make([]*Chunk, len(p.chunks))
	copy(out, p.chunks)
	return out
}

// Len returns the number of chunks.
func (p *Png) Len() int {
	return len(p.chunks)
}

// AppendChunk adds c after the last chunk.
func (p *Png) AppendChunk(c *Chunk) {
	p.chunks = append(p.chunks, c)
}

// ChunkByType returns the first chunk whose type equals typ, or nil.
func (p *Png) ChunkByType(typ string) *Chunk {
	if i := p.indexOf(typ); i >= 0 {
		return p.chunks[i]
	}
	return nil
}

// RemoveFirstChunk removes and returns the first chunk whose type equals
// typ. The order of the remaining chunks is preserved.
func (p *Png) RemoveFirstChunk(typ string) (*Chunk, error) {
	i := p.indexOf(typ)
	if i < 0 {
		return nil, &pngerrors.NotFoundError{Resource: "chunk", ID: typ, Err: ErrChunkNotFound}
	}
	c := p.chunks[i]
	p.chunks = append(p.chunks[:i], p.chunks[i+1:]...)
	return c, nil
}

// Size returns the length of the serialized datastream.
func (p *Png) Size() int {
	n := len(p.header)
	for _, c := range p.chunks {
		n += c.Size()
	}
	return n
}

// Bytes serializes the signature followed by every chunk in order.
func (p *Png) Bytes() []byte {
	buf := make([]byte, 0, p.Size())
	buf = append(buf, p.header[:]...)
	for _, c := range p.chunks {
		buf = c.appendTo(buf)
	}
	return buf
}

// ChecksumReport is the CRC status of one chunk.
type ChecksumReport struct {
	Index    int
	Type     ChunkType
	Stored   uint32
	Computed uint32
}

// OK reports whether the stored and computed checksums agree.
func (r ChecksumReport) OK() bool {
	return r.Stored == r.Computed
}

// Verify computes the CRC status of every chunk without failing.
func (p *Png) Verify() []ChecksumReport {
	reports := make([]ChecksumReport, len(p.chunks))
	for i, c := range p.chunks {
		reports[i] = ChecksumReport{
			Index:    i,
			Type:     c.Type(),
			Stored:   c.CRC(),
			Computed: c.ComputedCRC(),
		}
	}
	return reports
}

func (p *Png) indexOf(typ string) int {
	for i, c := range p.chunks {
		if c.chunkType.String() == typ {
			return i
		}
	}
	return -1
}
