package jpeg

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/gen2brain/imdec"
	"github.com/gen2brain/imdec/internal/jpegengine"
)

// Options specifies decoding parameters for Decode.
type Options struct {
	// Limits bounds the decode. The zero value is imdec.NoLimits.
	Limits imdec.Limits
	// AutoRotate applies the EXIF orientation to the decoded image.
	// Rotations by 90 or 270 degrees need a second buffer, which counts
	// against Limits.MaxAlloc.
	AutoRotate bool
}

// A reasonable upper limit for the size of JPEG headers.
// Most headers are well under this size (64KB).
const maxHeaderSize = 65536

// A pool for header-sized buffers to reduce allocations in DecodeConfig.
var headerBufferPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, maxHeaderSize)

		return &b
	},
}

// Decode reads a JPEG image from r and returns it as an image.Image.
// Grayscale images are returned as *image.Gray, everything else as *image.NRGBA.
func Decode(r io.Reader, opts ...*Options) (image.Image, error) {
	var o Options
	if len(opts) > 0 && opts[0] != nil {
		o = *opts[0]
	}

	d, err := NewDecoder(r)
	if err != nil {
		return nil, err
	}

	orientation, hasOrientation := d.Orientation()

	img, err := imdec.Decode(d, o.Limits)
	if err != nil {
		return nil, err
	}

	if o.AutoRotate && hasOrientation {
		if err := orientation.Apply(img, o.Limits); err != nil {
			return nil, err
		}
	}

	return img.ToImage(), nil
}

// DecodeConfig returns the color model and dimensions of a JPEG image without decoding the entire image data.
// The dimensions returned are as stored in the file (SOF marker), ignoring any EXIF orientation tags.
func DecodeConfig(r io.Reader) (image.Config, error) {
	// Get a buffer from the pool to avoid allocating a large slice on every call.
	bufPtr := headerBufferPool.Get().(*[]byte)
	defer headerBufferPool.Put(bufPtr)
	headerData := *bufPtr

	// Read the start of the file into the pooled buffer. We expect an
	// io.ErrUnexpectedEOF if the file is smaller than our buffer, which is normal.
	n, err := io.ReadFull(r, headerData)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		if errors.Is(err, io.EOF) {
			return image.Config{}, translate(&jpegengine.Error{Kind: jpegengine.KindNotJPEG})
		}

		return image.Config{}, &imdec.IOError{Err: err}
	}

	engine := jpegengine.New(headerData[:n], jpegengine.Options{})
	err = engine.DecodeHeaders()

	var ee *jpegengine.Error
	if errors.As(err, &ee) && ee.Kind == jpegengine.KindTruncated && n == maxHeaderSize {
		// The header is larger than the pooled buffer. Join what we already read
		// with the rest of the reader and parse again.
		var full bytes.Buffer
		full.Write(headerData[:n])
		if _, err := full.ReadFrom(r); err != nil {
			return image.Config{}, &imdec.IOError{Err: err}
		}

		engine = jpegengine.New(full.Bytes(), jpegengine.Options{})
		err = engine.DecodeHeaders()
	}

	if err != nil {
		return image.Config{}, translate(err)
	}

	h, _ := engine.Header()

	ct, err := colorTypeFrom(supportedColorSpace(h.ColorSpace))
	if err != nil {
		return image.Config{}, err
	}

	var cm color.Model
	switch ct {
	case imdec.L8:
		cm = color.GrayModel
	default:
		cm = color.NRGBAModel
	}

	return image.Config{
		ColorModel: cm,
		Width:      h.Width,
		Height:     h.Height,
	}, nil
}
