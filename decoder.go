package imdec

import (
	"bytes"
	"image"
	"io"
	"math"
)

// ImageDecoder is implemented by every format decoder.
//
// A decoder is used sequentially by one caller: construct it, optionally call
// SetLimits, then call exactly one of ReadImage or IntoReader. Both terminal
// calls consume the decoder; any later terminal call or SetLimits returns ErrConsumed.
type ImageDecoder interface {
	// Dimensions returns the width and height declared by the header.
	Dimensions() (uint32, uint32)
	// ColorType returns the layout of the bytes the decoder will produce.
	ColorType() ColorType
	// SetLimits installs limits and validates the known header against them.
	SetLimits(limits Limits) error
	// ReadImage decodes into buf, which must be exactly TotalBytes long.
	ReadImage(buf []byte) error
	// IntoReader decodes and returns the pixel bytes as a sequential stream.
	IntoReader() (*Reader, error)
}

// ICCProfiler is implemented by decoders that can extract an embedded ICC profile.
type ICCProfiler interface {
	// ICCProfile returns the embedded profile, or nil.
	ICCProfile() []byte
}

// TotalBytes returns the advertised size of the decoded buffer.
// It saturates at math.MaxUint64 when the product overflows.
func TotalBytes(d ImageDecoder) uint64 {
	w, h := d.Dimensions()

	size, ok := BufferSize(w, h, d.ColorType())
	if !ok {
		return math.MaxUint64
	}

	return size
}

// CheckBufferLen returns a DecodingError when n does not match the advertised
// size of a width x height image of type ct.
func CheckBufferLen(format string, width, height uint32, ct ColorType, n int) error {
	want, ok := BufferSize(width, height, ct)
	if !ok || uint64(n) != want {
		return NewDecodingError(format,
			"length of the buffer %d doesn't match the advertised dimensions of the image that imply length %d", n, want)
	}

	return nil
}

// Decode installs limits on d, checks the advertised size, allocates the
// pixel buffer and fills it. No buffer is allocated when a limit is exceeded.
func Decode(d ImageDecoder, limits Limits) (*Image, error) {
	if err := d.SetLimits(limits); err != nil {
		return nil, err
	}

	w, h := d.Dimensions()
	ct := d.ColorType()

	if err := limits.CheckBuffer(w, h, ct); err != nil {
		return nil, err
	}

	size, _ := BufferSize(w, h, ct)
	if size > math.MaxInt {
		return nil, &LimitError{Kind: LimitInsufficientMemory, Limit: math.MaxInt, Actual: size}
	}

	buf := make([]byte, size)
	if err := d.ReadImage(buf); err != nil {
		return nil, err
	}

	return &Image{Width: w, Height: h, ColorType: ct, Pix: buf}, nil
}

// Reader is a finite, non-restartable stream of decoded pixel bytes.
type Reader struct {
	r *bytes.Reader
}

// NewReader returns a Reader over data. The Reader takes ownership of data.
func NewReader(data []byte) *Reader {
	return &Reader{r: bytes.NewReader(data)}
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	return r.r.Read(p)
}

// WriteTo implements io.WriterTo, so io.Copy avoids an intermediate buffer.
func (r *Reader) WriteTo(w io.Writer) (int64, error) {
	return r.r.WriteTo(w)
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return r.r.Len()
}

// Image is a decoded pixel buffer.
type Image struct {
	Width, Height uint32
	ColorType     ColorType
	Pix           []byte
}

// Stride returns the number of bytes per row.
func (m *Image) Stride() int {
	return int(m.Width) * m.ColorType.BytesPerPixel()
}

// ToImage returns m as an image.Image. L8, L16, Rgba8 and Rgba16 share Pix;
// the other layouts are expanded into a new NRGBA or NRGBA64 image.
func (m *Image) ToImage() image.Image {
	w, h := int(m.Width), int(m.Height)
	rect := image.Rect(0, 0, w, h)

	switch m.ColorType {
	case L8:
		return &image.Gray{Pix: m.Pix, Stride: m.Stride(), Rect: rect}
	case L16:
		return &image.Gray16{Pix: m.Pix, Stride: m.Stride(), Rect: rect}
	case Rgba8:
		return &image.NRGBA{Pix: m.Pix, Stride: m.Stride(), Rect: rect}
	case Rgba16:
		return &image.NRGBA64{Pix: m.Pix, Stride: m.Stride(), Rect: rect}
	case La8, Rgb8:
		dst := image.NewNRGBA(rect)
		bpp := m.ColorType.BytesPerPixel()
		for i, j := 0, 0; i+bpp <= len(m.Pix) && j < len(dst.Pix); i, j = i+bpp, j+4 {
			if bpp == 2 {
				dst.Pix[j], dst.Pix[j+1], dst.Pix[j+2], dst.Pix[j+3] = m.Pix[i], m.Pix[i], m.Pix[i], m.Pix[i+1]
			} else {
				dst.Pix[j], dst.Pix[j+1], dst.Pix[j+2], dst.Pix[j+3] = m.Pix[i], m.Pix[i+1], m.Pix[i+2], 0xff
			}
		}

		return dst
	case La16, Rgb16:
		dst := image.NewNRGBA64(rect)
		bpp := m.ColorType.BytesPerPixel()
		for i, j := 0, 0; i+bpp <= len(m.Pix) && j < len(dst.Pix); i, j = i+bpp, j+8 {
			if bpp == 4 {
				copy(dst.Pix[j:j+2], m.Pix[i:i+2])
				copy(dst.Pix[j+2:j+4], m.Pix[i:i+2])
				copy(dst.Pix[j+4:j+6], m.Pix[i:i+2])
				copy(dst.Pix[j+6:j+8], m.Pix[i+2:i+4])
			} else {
				copy(dst.Pix[j:j+6], m.Pix[i:i+6])
				dst.Pix[j+6], dst.Pix[j+7] = 0xff, 0xff
			}
		}

		return dst
	default:
		return nil
	}
}
