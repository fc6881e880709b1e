package imdec

import "fmt"

// ColorType is the pixel layout a decoder commits to producing.
// Samples are interleaved; 16-bit samples are stored big-endian, as in image.Gray16.
type ColorType int

const (
	L8 ColorType = iota
	La8
	Rgb8
	Rgba8
	L16
	La16
	Rgb16
	Rgba16
)

// Channels returns the number of samples per pixel.
func (ct ColorType) Channels() int {
	switch ct {
	case L8, L16:
		return 1
	case La8, La16:
		return 2
	case Rgb8, Rgb16:
		return 3
	case Rgba8, Rgba16:
		return 4
	default:
		return 0
	}
}

// BitsPerChannel returns 8 or 16.
func (ct ColorType) BitsPerChannel() int {
	switch ct {
	case L16, La16, Rgb16, Rgba16:
		return 16
	default:
		return 8
	}
}

// BytesPerPixel returns the size of one pixel in bytes.
func (ct ColorType) BytesPerPixel() int {
	return ct.Channels() * ct.BitsPerChannel() / 8
}

// HasAlpha reports whether the layout carries an alpha channel.
func (ct ColorType) HasAlpha() bool {
	switch ct {
	case La8, Rgba8, La16, Rgba16:
		return true
	default:
		return false
	}
}

// HasColor reports whether the layout carries separate color channels.
func (ct ColorType) HasColor() bool {
	return ct.Channels() >= 3
}

func (ct ColorType) String() string {
	switch ct {
	case L8:
		return "L8"
	case La8:
		return "La8"
	case Rgb8:
		return "Rgb8"
	case Rgba8:
		return "Rgba8"
	case L16:
		return "L16"
	case La16:
		return "La16"
	case Rgb16:
		return "Rgb16"
	case Rgba16:
		return "Rgba16"
	default:
		return fmt.Sprintf("ColorType(%d)", int(ct))
	}
}
