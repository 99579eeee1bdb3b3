// Package validation checks user-supplied paths and identifies image files by
// their leading bytes.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"
)

// Limits applied to user input.
const (
	// MaxFileSize is the largest file pngmsg will read into memory (256 MB).
	MaxFileSize = 256 << 20
	// MaxFilenameLength is the maximum allowed filename length.
	MaxFilenameLength = 255
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrPathTooLong      = errors.New("path too long")
	ErrFilenameTooLong  = errors.New("filename too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrTypeMismatch     = errors.New("file type mismatch")
)

// ValidatePath rejects empty or overlong paths and paths containing null
// bytes or control characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// ValidateFilename checks a single path element, such as the base name of a
// conversion output.
func ValidateFilename(filename string) error {
	if filename == "" {
		return ErrInvalidFilename
	}
	if len(filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}
	if filename == "." || filename == ".." {
		return fmt.Errorf("%w: reserved name", ErrInvalidFilename)
	}
	if strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("%w: path separator not allowed", ErrInvalidFilename)
	}
	for _, r := range filename {
		if r == 0 || unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidFilename)
		}
	}
	// Names starting with a hyphen read as flags.
	if strings.HasPrefix(filename, "-") {
		return fmt.Errorf("%w: filename cannot start with hyphen", ErrInvalidFilename)
	}
	return nil
}

// FileType is an image format identified by magic bytes or extension.
type FileType string

const (
	FileTypePNG     FileType = "png"
	FileTypeJPEG    FileType = "jpeg"
	FileTypeGIF     FileType = "gif"
	FileTypeTIFF    FileType = "tiff"
	FileTypeWebP    FileType = "webp"
	FileTypeBMP     FileType = "bmp"
	FileTypeUnknown FileType = "unknown"
)

var magicBytes = []struct {
	fileType FileType
	magic    []byte
	offset   int
}{
	{FileTypePNG, []byte("\x89PNG\r\n\x1a\n"), 0},
	{FileTypeJPEG, []byte{0xff, 0xd8, 0xff}, 0},
	{FileTypeGIF, []byte("GIF87a"), 0},
	{FileTypeGIF, []byte("GIF89a"), 0},
	{FileTypeTIFF, []byte("II*\x00"), 0},
	{FileTypeTIFF, []byte("MM\x00*"), 0},
	{FileTypeWebP, []byte("WEBP"), 8}, // after the RIFF header
	{FileTypeBMP, []byte("BM"), 0},
}

// DetectFileType identifies the image format of buf from its magic bytes.
func DetectFileType(buf []byte) FileType {
	for _, sig := range magicBytes {
		if sig.offset+len(sig.magic) <= len(buf) &&
			bytes.Equal(buf[sig.offset:sig.offset+len(sig.magic)], sig.magic) {
			if sig.fileType == FileTypeWebP && !bytes.HasPrefix(buf, []byte("RIFF")) {
				continue
			}
			return sig.fileType
		}
	}
	return FileTypeUnknown
}

// FileTypeFromExtension maps a filename extension to its image format.
func FileTypeFromExtension(filename string) FileType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return FileTypePNG
	case ".jpg", ".jpeg":
		return FileTypeJPEG
	case ".gif":
		return FileTypeGIF
	case ".tif", ".tiff":
		return FileTypeTIFF
	case ".webp":
		return FileTypeWebP
	case ".bmp":
		return FileTypeBMP
	default:
		return FileTypeUnknown
	}
}

// ValidateFileType reads the header of r and checks it against the
// extension of filename. The detected type is returned; when the content is
// unrecognised the extension's type is trusted.
func ValidateFileType(r io.Reader, filename string) (FileType, error) {
	buf := make([]byte, 32)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FileTypeUnknown, fmt.Errorf("failed to read file header: %w", err)
	}

	detected := DetectFileType(buf[:n])
	expected := FileTypeFromExtension(filename)

	switch {
	case detected == FileTypeUnknown:
		return expected, nil
	case expected == FileTypeUnknown || detected == expected:
		return detected, nil
	default:
		return FileTypeUnknown, fmt.Errorf("%w: extension suggests %s but content is %s", ErrTypeMismatch, expected, detected)
	}
}
