// Package jpeg implements imdec.ImageDecoder for JPEG streams.
package jpeg

import (
	"io"

	"github.com/gen2brain/imdec"
	"github.com/gen2brain/imdec/internal/jpegengine"
	"github.com/gen2brain/imdec/internal/source"
)

const formatName = "jpeg"

// Decoder decodes a single JPEG image.
//
// NewDecoder reads the whole input and parses only the header. Limits default
// to imdec.NoLimits. ReadImage and IntoReader consume the decoder.
type Decoder struct {
	input      []byte
	width      uint16
	height     uint16
	colorSpace jpegengine.ColorSpace // native space reported by the engine
	colorType  imdec.ColorType
	header     jpegengine.Header
	limits     imdec.Limits
	consumed   bool
}

var (
	_ imdec.ImageDecoder = (*Decoder)(nil)
	_ imdec.ICCProfiler  = (*Decoder)(nil)
)

// NewDecoder reads r to EOF and parses the JPEG header.
func NewDecoder(r io.Reader) (*Decoder, error) {
	input, err := source.ReadAll(r)
	if err != nil {
		return nil, &imdec.IOError{Err: err}
	}

	engine := jpegengine.New(input, jpegengine.Options{})
	if err := engine.DecodeHeaders(); err != nil {
		return nil, translate(err)
	}

	// The header is parsed, so it is available.
	h, _ := engine.Header()

	ct, err := colorTypeFrom(supportedColorSpace(h.ColorSpace))
	if err != nil {
		return nil, err
	}

	return &Decoder{
		input:      input,
		width:      uint16(h.Width),
		height:     uint16(h.Height),
		colorSpace: h.ColorSpace,
		colorType:  ct,
		header:     h,
		limits:     imdec.NoLimits(),
	}, nil
}

// Dimensions returns the width and height from the SOF segment.
// EXIF orientation is not applied.
func (d *Decoder) Dimensions() (uint32, uint32) {
	return uint32(d.width), uint32(d.height)
}

// ColorType returns the layout ReadImage produces. Native color spaces outside
// RGB, RGBA, Luma and LumaA (YCbCr, CMYK, YCCK) are converted to RGB.
func (d *Decoder) ColorType() imdec.ColorType {
	return d.colorType
}

// SetLimits installs limits and checks the header dimensions and the advertised
// size against them. The limits stay installed when the check fails, so a
// later ReadImage or IntoReader is rejected as well.
func (d *Decoder) SetLimits(limits imdec.Limits) error {
	if d.consumed {
		return imdec.ErrConsumed
	}

	d.limits = limits

	return limits.CheckBuffer(uint32(d.width), uint32(d.height), d.colorType)
}

// Limits returns the installed limits.
func (d *Decoder) Limits() imdec.Limits {
	return d.limits
}

// Scale would select a smaller decode size. The engine cannot scale during
// decoding, so Scale always returns the original dimensions.
func (d *Decoder) Scale(requestedWidth, requestedHeight uint16) (uint16, uint16, error) {
	if d.consumed {
		return 0, 0, imdec.ErrConsumed
	}

	return d.width, d.height, nil
}

// Orientation returns the EXIF orientation from the APP1 segment.
// The second result is false when the tag is absent or invalid.
func (d *Decoder) Orientation() (imdec.Orientation, bool) {
	return imdec.FromExif(uint8(d.header.Orientation))
}

// ICCProfile parses the headers again with a fresh engine instance and
// returns the embedded ICC profile, or nil. It works after the decoder is consumed.
func (d *Decoder) ICCProfile() []byte {
	engine := jpegengine.New(d.input, jpegengine.Options{})
	if err := engine.DecodeHeaders(); err != nil {
		return nil
	}

	return engine.ICCProfile()
}

// ReadImage decodes into buf, which must be exactly imdec.TotalBytes(d) long.
func (d *Decoder) ReadImage(buf []byte) error {
	if d.consumed {
		return imdec.ErrConsumed
	}
	d.consumed = true

	if err := imdec.CheckBufferLen(formatName, uint32(d.width), uint32(d.height), d.colorType, len(buf)); err != nil {
		return err
	}

	engine, err := d.newEngine()
	if err != nil {
		return err
	}

	if err := engine.DecodeInto(buf); err != nil {
		return translate(err)
	}

	return nil
}

// IntoReader decodes the image and returns its bytes as a stream.
func (d *Decoder) IntoReader() (*imdec.Reader, error) {
	if d.consumed {
		return nil, imdec.ErrConsumed
	}
	d.consumed = true

	engine, err := d.newEngine()
	if err != nil {
		return nil, err
	}

	data, err := engine.Decode()
	if err != nil {
		return nil, translate(err)
	}

	return imdec.NewReader(data), nil
}

// newEngine builds a fresh engine configured from the current limits.
// Width and height map onto the engine's caps. The engine has no allocation
// cap, so MaxAlloc is checked here against the advertised size.
func (d *Decoder) newEngine() (*jpegengine.Decoder, error) {
	size, ok := imdec.BufferSize(uint32(d.width), uint32(d.height), d.colorType)
	if !ok {
		return nil, &imdec.LimitError{Kind: imdec.LimitInsufficientMemory, Limit: d.limits.MaxAlloc, Actual: ^uint64(0)}
	}

	if err := d.limits.CheckAlloc(size); err != nil {
		return nil, err
	}

	opts := jpegengine.Options{OutColorSpace: supportedColorSpace(d.colorSpace)}
	if d.limits.MaxImageWidth != 0 {
		opts.MaxWidth = int(d.limits.MaxImageWidth)
	}

	if d.limits.MaxImageHeight != 0 {
		opts.MaxHeight = int(d.limits.MaxImageHeight)
	}

	return jpegengine.New(d.input, opts), nil
}

// supportedColorSpace maps the native space onto the spaces ColorType can describe.
// Everything else is converted to RGB during decoding.
func supportedColorSpace(cs jpegengine.ColorSpace) jpegengine.ColorSpace {
	switch cs {
	case jpegengine.RGB, jpegengine.RGBA, jpegengine.Luma, jpegengine.LumaA:
		return cs
	default:
		return jpegengine.RGB
	}
}

// colorTypeFrom maps a normalized color space to a ColorType.
// The engine output is always 8-bit.
func colorTypeFrom(cs jpegengine.ColorSpace) (imdec.ColorType, error) {
	switch cs {
	case jpegengine.RGB:
		return imdec.Rgb8, nil
	case jpegengine.RGBA:
		return imdec.Rgba8, nil
	case jpegengine.Luma:
		return imdec.L8, nil
	case jpegengine.LumaA:
		return imdec.La8, nil
	default:
		return 0, imdec.NewDecodingError(formatName, "color space %s has no matching color type", cs)
	}
}
