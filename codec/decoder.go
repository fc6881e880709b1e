// Package codec implements imdec.ImageDecoder for formats registered with the
// image package: PNG and GIF from the standard library, BMP, TIFF and WebP
// from golang.org/x/image.
//
// These engines expose no width, height or allocation caps, so the decoder
// checks the header-declared size itself before the engine is invoked.
package codec

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	_ "image/gif" // register GIF
	_ "image/png" // register PNG
	"io"
	"math"

	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WebP

	"github.com/gen2brain/imdec"
	"github.com/gen2brain/imdec/internal/source"
)

// Decoder decodes a single image in any registered non-JPEG format.
type Decoder struct {
	input     []byte
	format    string
	config    image.Config
	colorType imdec.ColorType
	limits    imdec.Limits
	consumed  bool
}

var _ imdec.ImageDecoder = (*Decoder)(nil)

// NewDecoder reads r to EOF and parses the image header.
func NewDecoder(r io.Reader) (*Decoder, error) {
	input, err := source.ReadAll(r)
	if err != nil {
		return nil, &imdec.IOError{Err: err}
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(input))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, &imdec.UnsupportedError{Feature: "unknown image format"}
		}

		return nil, &imdec.DecodingError{Format: format, Err: err}
	}

	if cfg.Width <= 0 || cfg.Height <= 0 || uint64(cfg.Width) > math.MaxUint32 || uint64(cfg.Height) > math.MaxUint32 {
		return nil, imdec.NewDecodingError(format, "invalid image dimensions %dx%d", cfg.Width, cfg.Height)
	}

	return &Decoder{
		input:     input,
		format:    format,
		config:    cfg,
		colorType: colorTypeFromModel(cfg.ColorModel),
		limits:    imdec.NoLimits(),
	}, nil
}

// Format returns the registered format name, such as "png" or "tiff".
func (d *Decoder) Format() string {
	return d.format
}

// Dimensions returns the declared width and height.
func (d *Decoder) Dimensions() (uint32, uint32) {
	return uint32(d.config.Width), uint32(d.config.Height)
}

// ColorType returns the layout ReadImage produces.
func (d *Decoder) ColorType() imdec.ColorType {
	return d.colorType
}

// SetLimits installs limits and checks the header against them.
// The limits stay installed when the check fails.
func (d *Decoder) SetLimits(limits imdec.Limits) error {
	if d.consumed {
		return imdec.ErrConsumed
	}

	d.limits = limits
	w, h := d.Dimensions()

	return limits.CheckBuffer(w, h, d.colorType)
}

// ReadImage decodes into buf, which must be exactly imdec.TotalBytes(d) long.
func (d *Decoder) ReadImage(buf []byte) error {
	if d.consumed {
		return imdec.ErrConsumed
	}
	d.consumed = true

	w, h := d.Dimensions()
	if err := imdec.CheckBufferLen(d.format, w, h, d.colorType, len(buf)); err != nil {
		return err
	}

	img, err := d.decode()
	if err != nil {
		return err
	}

	return fill(img, d.colorType, buf)
}

// IntoReader decodes the image and returns its bytes as a stream.
func (d *Decoder) IntoReader() (*imdec.Reader, error) {
	if d.consumed {
		return nil, imdec.ErrConsumed
	}
	d.consumed = true

	img, err := d.decode()
	if err != nil {
		return nil, err
	}

	w, h := d.Dimensions()
	size, _ := imdec.BufferSize(w, h, d.colorType)

	buf := make([]byte, size)
	if err := fill(img, d.colorType, buf); err != nil {
		return nil, err
	}

	return imdec.NewReader(buf), nil
}

// decode enforces the limits against the header and runs the engine.
func (d *Decoder) decode() (image.Image, error) {
	w, h := d.Dimensions()
	if err := d.limits.CheckBuffer(w, h, d.colorType); err != nil {
		return nil, err
	}

	size, ok := imdec.BufferSize(w, h, d.colorType)
	if !ok || size > math.MaxInt {
		return nil, &imdec.LimitError{Kind: imdec.LimitInsufficientMemory, Limit: math.MaxInt, Actual: size}
	}

	img, format, err := image.Decode(bytes.NewReader(d.input))
	if err != nil {
		return nil, &imdec.DecodingError{Format: d.format, Err: err}
	}

	if format != d.format {
		return nil, imdec.NewDecodingError(d.format, "stream decoded as %s", format)
	}

	if b := img.Bounds(); b.Dx() != d.config.Width || b.Dy() != d.config.Height {
		return nil, imdec.NewDecodingError(d.format, "decoded %dx%d image, header declares %dx%d",
			b.Dx(), b.Dy(), d.config.Width, d.config.Height)
	}

	return img, nil
}

// colorTypeFromModel picks the output layout for a header color model.
func colorTypeFromModel(m color.Model) imdec.ColorType {
	switch m {
	case color.GrayModel:
		return imdec.L8
	case color.Gray16Model:
		return imdec.L16
	case color.RGBA64Model, color.NRGBA64Model:
		return imdec.Rgba16
	case color.YCbCrModel, color.CMYKModel:
		return imdec.Rgb8
	default:
		return imdec.Rgba8
	}
}
