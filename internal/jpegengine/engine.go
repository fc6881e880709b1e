// Package jpegengine is the JPEG codec engine behind the jpeg decoder.
//
// It parses headers itself and delegates entropy decoding and IDCT to the
// standard library's image/jpeg, then converts the result into an
// interleaved 8-bit buffer in the requested output color space.
// The engine exposes width and height caps but no allocation cap, and it
// cannot scale while decoding.
package jpegengine

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"io"
)

// Options configures a full decode.
type Options struct {
	// OutColorSpace selects the output layout. Unknown selects the default for
	// the native space: Luma for grayscale, RGB for YCbCr and RGB.
	OutColorSpace ColorSpace
	// MaxWidth and MaxHeight cap the declared dimensions. Zero is unbounded.
	MaxWidth, MaxHeight int
}

// Decoder decodes one JPEG stream held in memory.
type Decoder struct {
	data   []byte
	opts   Options
	header Header
	parsed bool
}

// New returns a decoder over data. Nothing is parsed until DecodeHeaders or Decode is called.
func New(data []byte, opts Options) *Decoder {
	return &Decoder{data: data, opts: opts}
}

// DecodeHeaders parses the segments preceding the first scan. It is idempotent.
func (d *Decoder) DecodeHeaders() error {
	if d.parsed {
		return nil
	}

	h, err := parseHeader(d.data)
	if err != nil {
		return err
	}

	d.header = h
	d.parsed = true

	return nil
}

// Header returns the parsed header. The second result is false before DecodeHeaders succeeds.
func (d *Decoder) Header() (Header, bool) {
	return d.header, d.parsed
}

// Dimensions returns the declared width and height.
func (d *Decoder) Dimensions() (width, height int, ok bool) {
	return d.header.Width, d.header.Height, d.parsed
}

// OutputColorSpace returns the color space Decode will produce.
func (d *Decoder) OutputColorSpace() (ColorSpace, bool) {
	if !d.parsed {
		return Unknown, false
	}

	if d.opts.OutColorSpace != Unknown {
		return d.opts.OutColorSpace, true
	}

	return defaultOutput(d.header.ColorSpace), true
}

// ICCProfile returns the embedded ICC profile, or nil.
func (d *Decoder) ICCProfile() []byte {
	if !d.parsed {
		return nil
	}

	return d.header.ICC
}

// OutputSize returns the number of bytes Decode will produce.
func (d *Decoder) OutputSize() (int, error) {
	if err := d.DecodeHeaders(); err != nil {
		return 0, err
	}

	out, _ := d.OutputColorSpace()
	if !out.IsOutput() {
		return 0, errorf(KindUnsupported, "output color space %s", out)
	}

	return d.header.Width * d.header.Height * out.Components(), nil
}

// Decode decodes the image into a newly allocated buffer.
func (d *Decoder) Decode() ([]byte, error) {
	if err := d.prepare(); err != nil {
		return nil, err
	}

	size, err := d.OutputSize()
	if err != nil {
		return nil, err
	}

	img, err := d.decodeImage()
	if err != nil {
		return nil, err
	}

	dst := make([]byte, size)
	out, _ := d.OutputColorSpace()
	convert(img, out, dst)

	return dst, nil
}

// DecodeInto decodes the image into dst, which must be exactly OutputSize bytes.
func (d *Decoder) DecodeInto(dst []byte) error {
	if err := d.prepare(); err != nil {
		return err
	}

	size, err := d.OutputSize()
	if err != nil {
		return err
	}

	if len(dst) != size {
		return errorf(KindFormat, "output buffer is %d bytes, image needs %d", len(dst), size)
	}

	img, err := d.decodeImage()
	if err != nil {
		return err
	}

	out, _ := d.OutputColorSpace()
	convert(img, out, dst)

	return nil
}

// prepare parses headers and enforces the dimension caps before any pixel work.
func (d *Decoder) prepare() error {
	if err := d.DecodeHeaders(); err != nil {
		return err
	}

	if d.opts.MaxWidth > 0 && d.header.Width > d.opts.MaxWidth {
		return errorf(KindLargeDimensions, "image width %d exceeds limit %d", d.header.Width, d.opts.MaxWidth)
	}

	if d.opts.MaxHeight > 0 && d.header.Height > d.opts.MaxHeight {
		return errorf(KindLargeDimensions, "image height %d exceeds limit %d", d.header.Height, d.opts.MaxHeight)
	}

	return nil
}

// decodeImage runs the standard library decoder and checks it agrees with the parsed header.
func (d *Decoder) decodeImage() (image.Image, error) {
	img, err := jpeg.Decode(bytes.NewReader(d.data))
	if err != nil {
		return nil, fromStdlib(err)
	}

	b := img.Bounds()
	if b.Dx() != d.header.Width || b.Dy() != d.header.Height {
		return nil, errorf(KindFormat, "decoded %dx%d image, header declares %dx%d",
			b.Dx(), b.Dy(), d.header.Width, d.header.Height)
	}

	return img, nil
}

// fromStdlib maps image/jpeg errors onto engine errors.
func fromStdlib(err error) *Error {
	var fe jpeg.FormatError
	var ue jpeg.UnsupportedError

	switch {
	case errors.As(err, &fe):
		return &Error{Kind: KindFormat, Msg: string(fe)}
	case errors.As(err, &ue):
		return &Error{Kind: KindUnsupported, Msg: string(ue)}
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return errTruncated
	default:
		return &Error{Kind: KindFormat, Msg: err.Error()}
	}
}
