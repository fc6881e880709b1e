// Package formats detects image formats from magic bytes and opens the matching decoder.
package formats

import (
	"bytes"
	"io"

	"github.com/gen2brain/imdec"
	"github.com/gen2brain/imdec/codec"
	"github.com/gen2brain/imdec/internal/source"
	"github.com/gen2brain/imdec/jpeg"
)

// Format identifies an image container format.
type Format int

const (
	Unknown Format = iota
	JPEG
	PNG
	GIF
	BMP
	TIFF
	WebP
)

func (f Format) String() string {
	switch f {
	case JPEG:
		return "jpeg"
	case PNG:
		return "png"
	case GIF:
		return "gif"
	case BMP:
		return "bmp"
	case TIFF:
		return "tiff"
	case WebP:
		return "webp"
	default:
		return "unknown"
	}
}

// Detect identifies the format from the first bytes of a stream.
func Detect(data []byte) (Format, bool) {
	switch {
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8:
		return JPEG, true
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return PNG, true
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return GIF, true
	case bytes.HasPrefix(data, []byte("BM")):
		return BMP, true
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return TIFF, true
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return WebP, true
	default:
		return Unknown, false
	}
}

// Open reads r to EOF and returns a decoder for the detected format.
func Open(r io.Reader) (imdec.ImageDecoder, Format, error) {
	data, err := source.ReadAll(r)
	if err != nil {
		return nil, Unknown, &imdec.IOError{Err: err}
	}

	f, ok := Detect(data)
	if !ok {
		return nil, Unknown, &imdec.UnsupportedError{Feature: "unknown image format"}
	}

	var d imdec.ImageDecoder
	if f == JPEG {
		d, err = jpeg.NewDecoder(bytes.NewReader(data))
	} else {
		d, err = codec.NewDecoder(bytes.NewReader(data))
	}

	if err != nil {
		return nil, f, err
	}

	return d, f, nil
}

// OpenWithLimits is Open followed by SetLimits.
// The decoder is returned even when the limits are already exceeded, together with the LimitError.
func OpenWithLimits(r io.Reader, limits imdec.Limits) (imdec.ImageDecoder, Format, error) {
	d, f, err := Open(r)
	if err != nil {
		return nil, f, err
	}

	return d, f, d.SetLimits(limits)
}
