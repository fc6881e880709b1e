package jpegengine

import "fmt"

// ColorSpace is a pixel color space, either as encoded in the stream or as requested for output.
type ColorSpace int

const (
	// Unknown as an output color space selects the engine default for the native space.
	Unknown ColorSpace = iota
	Luma
	LumaA
	RGB
	RGBA
	YCbCr
	CMYK
	YCCK
)

// Components returns the number of interleaved samples per pixel.
func (cs ColorSpace) Components() int {
	switch cs {
	case Luma:
		return 1
	case LumaA:
		return 2
	case RGB, YCbCr:
		return 3
	case RGBA, CMYK, YCCK:
		return 4
	default:
		return 0
	}
}

// IsOutput reports whether the engine can produce pixels in cs.
func (cs ColorSpace) IsOutput() bool {
	switch cs {
	case Luma, LumaA, RGB, RGBA:
		return true
	default:
		return false
	}
}

func (cs ColorSpace) String() string {
	switch cs {
	case Unknown:
		return "Unknown"
	case Luma:
		return "Luma"
	case LumaA:
		return "LumaA"
	case RGB:
		return "RGB"
	case RGBA:
		return "RGBA"
	case YCbCr:
		return "YCbCr"
	case CMYK:
		return "CMYK"
	case YCCK:
		return "YCCK"
	default:
		return fmt.Sprintf("ColorSpace(%d)", int(cs))
	}
}

// defaultOutput is the space produced when Options.OutColorSpace is Unknown.
func defaultOutput(native ColorSpace) ColorSpace {
	switch native {
	case Luma:
		return Luma
	case YCbCr, RGB:
		return RGB
	default:
		return native
	}
}
