package png

import (
	"bytes"
	"errors"
	"testing"

	pngerrors "github.com/FocuswithJustin/pngmsg/core/errors"
)

// minimalPNG returns a signature, a 13-byte IHDR and an empty IEND.
func minimalPNG() []byte {
	ihdr := []byte{0, 0, 0, 1, 0, 0, 0, 1, 8, 6, 0, 0, 0}
	sig := Signature()
	var b []byte
	b = append(b, sig[:]...)
	b = append(b, rawChunk("IHDR", ihdr, 0x1F15C489)...)
	b = append(b, rawChunk("IEND", nil, 0xAE426082)...)
	return b
}

func testChunks(t *testing.T) []*Chunk {
	t.Helper()
	var chunks []*Chunk
	for _, tc := range []struct{ typ, data string }{
		{"FrSt", "I am the first chunk"},
		{"miDl", "I am another chunk"},
		{"LASt", "I am the last chunk"},
	} {
		c, err := NewTextChunk(tc.typ, tc.data)
		if err != nil {
			t.Fatalf("NewTextChunk() error = %v", err)
		}
		chunks = append(chunks, c)
	}
	return chunks
}

func TestSignature(t *testing.T) {
	want := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	if sig := Signature(); !bytes.Equal(sig[:], want) {
		t.Errorf("Signature() = %x, want %x", sig, want)
	}
}

func TestSignature_ReturnsCopy(t *testing.T) {
	sig := Signature()
	sig[0] = 0

	if got := Signature(); got[0] != 0x89 {
		t.Errorf("Signature()[0] = %#x after caller write, want 0x89", got[0])
	}
	p, err := Decode(FromChunks(nil).Bytes())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if p.Header() != Signature() {
		t.Errorf("Header() = %x, want %x", p.Header(), Signature())
	}

	h := p.Header()
	h[0] = 0
	if _, err := Decode(p.Bytes()); err != nil {
		t.Errorf("Decode() after Header() write error = %v", err)
	}
}

func TestDecode_Minimal(t *testing.T) {
	input := minimalPNG()
	p, err := Decode(input)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	chunks := p.Chunks()
	if len(chunks) != 2 {
		t.Fatalf("len(Chunks()) = %d, want 2", len(chunks))
	}
	if chunks[0].Type().String() != "IHDR" || chunks[0].Length() != 13 {
		t.Errorf("chunk 0 = %s, want IHDR with 13 bytes", chunks[0])
	}
	if chunks[1].Type().String() != "IEND" || chunks[1].Length() != 0 {
		t.Errorf("chunk 1 = %s, want IEND with 0 bytes", chunks[1])
	}
	if p.Header() != Signature() {
		t.Errorf("Header() = %x, want %x", p.Header(), Signature())
	}
	if got := Encode(p); !bytes.Equal(got, input) {
		t.Errorf("Encode() = %x, want %x", got, input)
	}
}

func TestDecode_SignatureOnly(t *testing.T) {
	sig := Signature()
	p, err := Decode(sig[:])
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if p.Len() != 0 {
		t.Errorf("Len() = %d, want 0", p.Len())
	}
}

func TestDecode_Errors(t *testing.T) {
	good := minimalPNG()

	badSig := append([]byte(nil), good...)
	badSig[0] = 0x88

	truncatedLength := append(append([]byte(nil), good...), 0, 0)

	overrun := append([]byte(nil), good[:8]...)
	overrun = append(overrun, rawChunk("RuSt", []byte("hello"), 0)...)
	overrun[11] = 200

	badType := append([]byte(nil), good[:8]...)
	badType = append(badType, rawChunk("Ru1t", []byte("hello"), 0)...)

	tests := []struct {
		name    string
		input   []byte
		wantErr error
	}{
		{name: "empty", input: nil, wantErr: ErrInvalidSignature},
		{name: "short", input: good[:7], wantErr: ErrInvalidSignature},
		{name: "wrong signature", input: badSig, wantErr: ErrInvalidSignature},
		{name: "dangling length bytes", input: truncatedLength, wantErr: ErrUnexpectedEnd},
		{name: "declared length overruns", input: overrun, wantErr: ErrUnexpectedEnd},
		{name: "truncated crc", input: good[:len(good)-2], wantErr: ErrUnexpectedEnd},
		{name: "invalid chunk type", input: badType, wantErr: ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Decode(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Decode() error = %v, want %v", err, tt.wantErr)
			}
			if p != nil {
				t.Error("Decode() returned a partial result")
			}
			var perr *pngerrors.ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Decode() error %T is not a *ParseError", err)
			}
		})
	}
}

func TestDecode_ErrorOffset(t *testing.T) {
	input := append(minimalPNG(), 0, 0, 0)
	_, err := Decode(input)
	var perr *pngerrors.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Decode() error = %v, want *ParseError", err)
	}
	if want := int64(len(input) - 3); perr.Offset != want {
		t.Errorf("Offset = %d, want %d", perr.Offset, want)
	}
}

func TestDecode_StrictCRC(t *testing.T) {
	input := minimalPNG()
	input[len(input)-1] ^= 0xff

	if _, err := Decode(input); err != nil {
		t.Fatalf("lenient Decode() error = %v", err)
	}
	if _, err := Decode(input, WithStrictCRC()); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("strict Decode() error = %v, want ErrChecksumMismatch", err)
	}
	if _, err := Decode(minimalPNG(), WithStrictCRC()); err != nil {
		t.Errorf("strict Decode() of valid input error = %v", err)
	}
}

func TestFromChunks_RoundTrip(t *testing.T) {
	p := FromChunks(testChunks(t))
	decoded, err := Decode(p.Bytes())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := p.Chunks()
	got := decoded.Chunks()
	if len(got) != len(want) {
		t.Fatalf("len(Chunks()) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !bytes.Equal(got[i].Bytes(), want[i].Bytes()) {
			t.Errorf("chunk %d = %s, want %s", i, got[i], want[i])
		}
	}
	if decoded.Header() != p.Header() {
		t.Error("Header() changed across round trip")
	}
}

func TestPng_AppendChunk(t *testing.T) {
	p, err := Decode(minimalPNG())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	before := len(p.Bytes())

	c, err := NewTextChunk("maTt", "Hello Matt!")
	if err != nil {
		t.Fatalf("NewTextChunk() error = %v", err)
	}
	p.AppendChunk(c)

	if got := len(p.Bytes()) - before; got != 23 {
		t.Errorf("serialized size grew by %d, want 23", got)
	}
	if p.Size() != len(p.Bytes()) {
		t.Errorf("Size() = %d, want %d", p.Size(), len(p.Bytes()))
	}

	found := p.ChunkByType("maTt")
	if found == nil {
		t.Fatal("ChunkByType(maTt) = nil")
	}
	text, err := found.DataString()
	if err != nil || text != "Hello Matt!" {
		t.Errorf("DataString() = %q, %v; want %q", text, err, "Hello Matt!")
	}
	if last := p.Chunks()[p.Len()-1]; last != c {
		t.Error("appended chunk is not last")
	}
}

func TestPng_ChunkByType(t *testing.T) {
	p := FromChunks(testChunks(t))
	if c := p.ChunkByType("miDl"); c == nil || c.Type().String() != "miDl" {
		t.Errorf("ChunkByType(miDl) = %v", c)
	}
	if c := p.ChunkByType("NoPe"); c != nil {
		t.Errorf("ChunkByType(NoPe) = %v, want nil", c)
	}
}

func TestPng_DuplicateTypes(t *testing.T) {
	first, _ := NewTextChunk("TeSt", "first")
	other, _ := NewTextChunk("miDl", "middle")
	second, _ := NewTextChunk("TeSt", "second")
	p := FromChunks([]*Chunk{first, other, second})

	if got := p.ChunkByType("TeSt"); got != first {
		t.Errorf("ChunkByType(TeSt) = %v, want the first match", got)
	}

	removed, err := p.RemoveFirstChunk("TeSt")
	if err != nil {
		t.Fatalf("RemoveFirstChunk() error = %v", err)
	}
	if removed != first {
		t.Error("RemoveFirstChunk() removed the wrong chunk")
	}

	chunks := p.Chunks()
	if len(chunks) != 2 || chunks[0] != other || chunks[1] != second {
		t.Errorf("remaining chunks = %v, want [miDl TeSt]", chunks)
	}
	if got := p.ChunkByType("TeSt"); got != second {
		t.Errorf("ChunkByType(TeSt) after removal = %v, want the second chunk", got)
	}
}

func TestPng_RemoveFirstChunk_NotFound(t *testing.T) {
	p := FromChunks(testChunks(t))
	_, err := p.RemoveFirstChunk("NoPe")
	if !errors.Is(err, ErrChunkNotFound) {
		t.Fatalf("RemoveFirstChunk() error = %v, want ErrChunkNotFound", err)
	}
	var nf *pngerrors.NotFoundError
	if !errors.As(err, &nf) || nf.ID != "NoPe" {
		t.Errorf("RemoveFirstChunk() error = %v, want NotFoundError for NoPe", err)
	}
	if p.Len() != 3 {
		t.Errorf("Len() = %d, want 3", p.Len())
	}
}

func TestPng_ChunksIsCopy(t *testing.T) {
	p := FromChunks(testChunks(t))
	chunks := p.Chunks()
	chunks[0] = nil
	if p.Chunks()[0] == nil {
		t.Error("mutating the Chunks() slice changed the container")
	}
}

func TestPng_Verify(t *testing.T) {
	input := minimalPNG()
	input[8+4+4+13] ^= 0x01 // IHDR crc

	p, err := Decode(input)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	reports := p.Verify()
	if len(reports) != 2 {
		t.Fatalf("len(Verify()) = %d, want 2", len(reports))
	}
	if reports[0].OK() {
		t.Error("IHDR report OK, want mismatch")
	}
	if !reports[1].OK() {
		t.Error("IEND report mismatch, want OK")
	}
}
