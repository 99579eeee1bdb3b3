// Package imageconv re-encodes images between the formats the manage
// convert command supports.
//
// Decoding understands PNG, JPEG, GIF, TIFF, WebP and BMP. Encoding covers
// PNG, JPEG and TIFF; WebP output is reported as unsupported since no
// encoder is available.
package imageconv

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	_ "image/gif"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	pngerrors "github.com/FocuswithJustin/pngmsg/core/errors"
)

// Format is a conversion target.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	TIFF Format = "tiff"
	WebP Format = "webp"
)

// JPEGQuality is the quality used for JPEG output.
const JPEGQuality = 90

// Extension returns the file extension, with dot, used for f.
func (f Format) Extension() string {
	switch f {
	case JPEG:
		return ".jpg"
	case TIFF:
		return ".tiff"
	default:
		return "." + string(f)
	}
}

// Decode decodes data in any registered format and reports the format name.
func Decode(data []byte) (image.Image, string, error) {
	img, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if err == image.ErrFormat {
			return nil, "", pngerrors.NewUnsupported("image format", "unrecognised input")
		}
		return nil, "", pngerrors.NewParse("image", "", err.Error())
	}
	return img, name, nil
}

// Encode writes img in format f.
func Encode(img image.Image, f Format) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch f {
	case PNG:
		err = png.Encode(&buf, img)
	case JPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality})
	case TIFF:
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate})
	case WebP:
		return nil, pngerrors.NewUnsupported("output format", "webp encoding is not available")
	default:
		return nil, pngerrors.NewUnsupported("output format", string(f))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", f, err)
	}
	return buf.Bytes(), nil
}

// Convert decodes data and re-encodes it as f.
func Convert(data []byte, f Format) ([]byte, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Encode(img, f)
}

// OutputPath replaces the extension of input with the one for f.
func OutputPath(input string, f Format) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + f.Extension()
}
