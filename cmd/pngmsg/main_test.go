package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	imagepng "image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pngerrors "github.com/FocuswithJustin/pngmsg/core/errors"
	"github.com/FocuswithJustin/pngmsg/core/png"
	"github.com/FocuswithJustin/pngmsg/core/sqlite"
)

// testEnv is a scratch directory with a config that keeps backups and the
// catalog inside it.
type testEnv struct {
	dir    string
	config string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	config := filepath.Join(dir, "pngmsg.yaml")
	content := fmt.Sprintf("backup:\n  dir: %s\ncatalog:\n  path: %s\n",
		filepath.Join(dir, "backups"), filepath.Join(dir, "catalog.db"))
	if err := os.WriteFile(config, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return &testEnv{dir: dir, config: config}
}

// run executes pngmsg with args and returns its stdout.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	full := append([]string{"--config", e.config}, args...)
	err := run(context.Background(), full, &stdout)
	return stdout.String(), err
}

// mustRun is run that fails the test on error.
func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("pngmsg %s: %v", strings.Join(args, " "), err)
	}
	return out
}

// writeImage writes a small real PNG and returns its path.
func (e *testEnv) writeImage(t *testing.T, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 1, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	if err := imagepng.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	return path
}

func readFileT(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return data
}

func TestEncodeDecode(t *testing.T) {
	env := newTestEnv(t)
	file := env.writeImage(t, "cat.png")
	original := readFileT(t, file)

	env.mustRun(t, "encode", file, "ruSt", "This is a secret message!")

	encoded := readFileT(t, file)
	if len(encoded) != len(original)+12+len("This is a secret message!") {
		t.Errorf("encoded size = %d, want %d", len(encoded), len(original)+12+25)
	}

	out := env.mustRun(t, "decode", file, "ruSt")
	if out != "msg: This is a secret message!\n" {
		t.Errorf("decode output = %q", out)
	}

	list := env.mustRun(t, "backup", "list", file)
	if !strings.Contains(list, "encode") {
		t.Errorf("backup list does not show the encode backup:\n%s", list)
	}
}

func TestEncode_OutputFile(t *testing.T) {
	env := newTestEnv(t)
	file := env.writeImage(t, "cat.png")
	original := readFileT(t, file)
	output := filepath.Join(env.dir, "out.png")

	env.mustRun(t, "encode", file, "ruSt", "hidden", output)

	if !bytes.Equal(readFileT(t, file), original) {
		t.Error("input file was modified")
	}
	if out := env.mustRun(t, "decode", output, "ruSt"); out != "msg: hidden\n" {
		t.Errorf("decode output = %q", out)
	}
	if list := env.mustRun(t, "backup", "list"); !strings.Contains(list, "No backups") {
		t.Errorf("writing a new file should not create a backup:\n%s", list)
	}
}

func TestEncode_InvalidChunkType(t *testing.T) {
	tests := []struct {
		name      string
		chunkType string
		wantErr   error
	}{
		{name: "digit", chunkType: "Ru1t", wantErr: png.ErrInvalidCharacter},
		{name: "too short", chunkType: "abc", wantErr: png.ErrInvalidLength},
		{name: "too long", chunkType: "abcde", wantErr: png.ErrInvalidLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			file := env.writeImage(t, "cat.png")
			original := readFileT(t, file)

			_, err := env.run(t, "encode", file, tt.chunkType, "msg")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("encode error = %v, want %v", err, tt.wantErr)
			}
			if !bytes.Equal(readFileT(t, file), original) {
				t.Error("file was modified after a failed encode")
			}
		})
	}
}

func TestDecode_NotFound(t *testing.T) {
	env := newTestEnv(t)
	file := env.writeImage(t, "cat.png")

	_, err := env.run(t, "decode", file, "ruSt")
	if !errors.Is(err, png.ErrChunkNotFound) {
		t.Errorf("decode error = %v, want ErrChunkNotFound", err)
	}
	if !errors.Is(err, pngerrors.ErrNotFound) {
		t.Errorf("decode error = %v, want ErrNotFound", err)
	}
}

func TestDecode_NotPNGLeavesFileAlone(t *testing.T) {
	env := newTestEnv(t)
	file := filepath.Join(env.dir, "fake.png")
	content := []byte("definitely not a png file")
	if err := os.WriteFile(file, content, 0644); err != nil {
		t.Fatal(err)
	}

	for _, args := range [][]string{
		{"decode", file, "ruSt"},
		{"encode", file, "ruSt", "msg"},
		{"remove", file, "ruSt"},
	} {
		_, err := env.run(t, args...)
		if !errors.Is(err, png.ErrInvalidSignature) {
			t.Errorf("%s error = %v, want ErrInvalidSignature", args[0], err)
		}
		var perr *pngerrors.ParseError
		if errors.As(err, &perr) && perr.Path != file {
			t.Errorf("%s ParseError.Path = %q, want %q", args[0], perr.Path, file)
		}
	}
	if !bytes.Equal(readFileT(t, file), content) {
		t.Error("file was modified")
	}
}

func TestRemoveAndRestore(t *testing.T) {
	env := newTestEnv(t)
	file := env.writeImage(t, "cat.png")

	env.mustRun(t, "encode", file, "ruSt", "first")
	env.mustRun(t, "encode", file, "ruSt", "second")
	env.mustRun(t, "remove", file, "ruSt")

	// The first match is removed, so the second message remains.
	if out := env.mustRun(t, "decode", file, "ruSt"); out != "msg: second\n" {
		t.Errorf("decode after remove = %q, want second", out)
	}

	env.mustRun(t, "remove", file, "ruSt")
	if _, err := env.run(t, "decode", file, "ruSt"); !errors.Is(err, png.ErrChunkNotFound) {
		t.Errorf("decode error = %v, want ErrChunkNotFound", err)
	}
	if _, err := env.run(t, "remove", file, "ruSt"); !errors.Is(err, png.ErrChunkNotFound) {
		t.Errorf("remove error = %v, want ErrChunkNotFound", err)
	}

	out := env.mustRun(t, "backup", "restore", file)
	if !strings.Contains(out, "Restored") {
		t.Errorf("restore output = %q", out)
	}
	if out := env.mustRun(t, "decode", file, "ruSt"); out != "msg: second\n" {
		t.Errorf("decode after restore = %q, want second", out)
	}
}

func TestPrint(t *testing.T) {
	env := newTestEnv(t)
	file := env.writeImage(t, "cat.png")
	env.mustRun(t, "encode", file, "ruSt", "hello")

	out := env.mustRun(t, "print", file)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")

	size := len(readFileT(t, file))
	if lines[0] != fmt.Sprintf("File: %s, Size: %d", file, size) {
		t.Errorf("header line = %q", lines[0])
	}
	if lines[1] != "  chunk#0{ chunk_type: IHDR, data_length: 13}" {
		t.Errorf("first chunk line = %q", lines[1])
	}
	if last := lines[len(lines)-1]; last != fmt.Sprintf("  chunk#%d{ chunk_type: ruSt, data_length: 5}", len(lines)-2) {
		t.Errorf("last chunk line = %q", last)
	}
}

// corruptLastCRC flips a bit in the CRC of the final chunk.
func corruptLastCRC(t *testing.T, path string) {
	t.Helper()
	data := readFileT(t, path)
	data[len(data)-1] ^= 0x01
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestVerify(t *testing.T) {
	env := newTestEnv(t)
	file := env.writeImage(t, "cat.png")
	env.mustRun(t, "encode", file, "ruSt", "hello")

	out := env.mustRun(t, "verify", file)
	if !strings.Contains(out, "chunks ok") {
		t.Errorf("verify output = %q", out)
	}

	corruptLastCRC(t, file)
	out, err := env.run(t, "verify", file)
	if !errors.Is(err, png.ErrChecksumMismatch) {
		t.Errorf("verify error = %v, want ErrChecksumMismatch", err)
	}
	if !strings.Contains(out, "MISMATCH") {
		t.Errorf("verify output does not report the mismatch:\n%s", out)
	}

	// Lenient by default, strict on request.
	if _, err := env.run(t, "decode", file, "ruSt"); err != nil {
		t.Errorf("lenient decode error = %v", err)
	}
	if _, err := env.run(t, "--strict", "decode", file, "ruSt"); !errors.Is(err, png.ErrChecksumMismatch) {
		t.Errorf("strict decode error = %v, want ErrChecksumMismatch", err)
	}
}

func TestNoBackup(t *testing.T) {
	env := newTestEnv(t)
	file := env.writeImage(t, "cat.png")

	env.mustRun(t, "--no-backup", "encode", file, "ruSt", "hello")
	if out := env.mustRun(t, "backup", "list"); !strings.Contains(out, "No backups") {
		t.Errorf("backup list = %q, want none", out)
	}
	if _, err := env.run(t, "backup", "restore", file); !errors.Is(err, pngerrors.ErrNotFound) {
		t.Errorf("restore error = %v, want ErrNotFound", err)
	}
}

func TestManageDelete(t *testing.T) {
	env := newTestEnv(t)
	file := env.writeImage(t, "cat.png")
	original := readFileT(t, file)

	env.mustRun(t, "manage", "delete", file)
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Fatalf("file still exists after delete: %v", err)
	}

	env.mustRun(t, "backup", "restore", file)
	if !bytes.Equal(readFileT(t, file), original) {
		t.Error("restored content differs from the deleted file")
	}
}

func TestManageDownload(t *testing.T) {
	env := newTestEnv(t)
	body := readFileT(t, env.writeImage(t, "source.png"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cat.png" {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	defer srv.Close()

	output := filepath.Join(env.dir, "downloaded.png")
	out := env.mustRun(t, "manage", "download", srv.URL+"/cat.png", output)
	if !strings.Contains(out, "(png)") {
		t.Errorf("download output = %q", out)
	}
	if !bytes.Equal(readFileT(t, output), body) {
		t.Error("downloaded content differs")
	}

	if _, err := env.run(t, "manage", "download", srv.URL+"/missing.png", filepath.Join(env.dir, "x.png")); err == nil {
		t.Error("download of a missing URL succeeded")
	}
	if _, err := os.Stat(filepath.Join(env.dir, "x.png")); !os.IsNotExist(err) {
		t.Error("failed download left a file behind")
	}
}

func TestManageConvert(t *testing.T) {
	env := newTestEnv(t)
	file := env.writeImage(t, "cat.png")

	out := env.mustRun(t, "manage", "convert", "-j", file)
	jpg := filepath.Join(env.dir, "cat.jpg")
	if !strings.Contains(out, jpg) {
		t.Errorf("convert output = %q", out)
	}
	if data := readFileT(t, jpg); !bytes.HasPrefix(data, []byte{0xff, 0xd8, 0xff}) {
		t.Error("output is not a JPEG")
	}

	env.mustRun(t, "manage", "convert", "-t", file)
	if _, err := os.Stat(filepath.Join(env.dir, "cat.tiff")); err != nil {
		t.Errorf("tiff output missing: %v", err)
	}

	_, err := env.run(t, "manage", "convert", "-w", file)
	if !errors.Is(err, pngerrors.ErrUnsupported) {
		t.Errorf("webp convert error = %v, want ErrUnsupported", err)
	}
	if err != nil && !strings.HasPrefix(err.Error(), "failed to convert "+file+": ") {
		t.Errorf("webp convert error = %q, want the input path as context", err)
	}
	if _, err := env.run(t, "manage", "convert", file); !errors.Is(err, pngerrors.ErrInvalidInput) {
		t.Errorf("convert without a format error = %v, want ErrInvalidInput", err)
	}
	if _, err := env.run(t, "manage", "convert", "-j", "-t", file); err == nil {
		t.Error("convert with two formats succeeded")
	}
}

func TestCatalogScanAndQuery(t *testing.T) {
	env := newTestEnv(t)
	images := filepath.Join(env.dir, "images")
	if err := os.MkdirAll(filepath.Join(images, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	a := env.writeImage(t, "images/a.png")
	b := env.writeImage(t, "images/nested/b.png")
	if err := os.WriteFile(filepath.Join(images, "broken.png"), []byte("nope"), 0644); err != nil {
		t.Fatal(err)
	}
	env.mustRun(t, "encode", a, "ruSt", "one")
	env.mustRun(t, "encode", b, "ruSt", "two")
	corruptLastCRC(t, b)

	out := env.mustRun(t, "catalog", "scan", images)
	if !strings.Contains(out, "Scanned 2 files") || !strings.Contains(out, "1 skipped") {
		t.Errorf("scan output = %q", out)
	}

	out = env.mustRun(t, "catalog", "query", "--type", "ruSt")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("query returned %d lines, want header plus 2:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "a.png") || strings.Contains(lines[1], "bad-crc") {
		t.Errorf("row for a.png = %q", lines[1])
	}
	if !strings.Contains(lines[2], "b.png") || !strings.Contains(lines[2], "bad-crc") {
		t.Errorf("row for b.png = %q", lines[2])
	}

	if out := env.mustRun(t, "catalog", "query", "--type", "zzZz"); !strings.Contains(out, "No chunks") {
		t.Errorf("query for missing type = %q", out)
	}
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun(t, "version")
	if !strings.HasPrefix(out, "pngmsg version "+version+"\n") {
		t.Errorf("version output = %q", out)
	}
	if !strings.Contains(out, sqlite.GetInfo().Package) {
		t.Errorf("version output does not name the sqlite driver: %q", out)
	}
}

func TestInvalidGlobals(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.run(t, "--log-level", "loud", "version"); !errors.Is(err, pngerrors.ErrInvalidInput) {
		t.Errorf("bad --log-level error = %v, want ErrInvalidInput", err)
	}
	if _, err := env.run(t, "--config", filepath.Join(env.dir, "missing.yaml"), "version"); err == nil {
		t.Error("missing --config succeeded")
	}
}
