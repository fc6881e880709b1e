package jpegengine

import (
	"image"
	"image/color"
)

// clip clamps an int32 value to the valid 8-bit pixel range [0, 255].
func clip(x int32) byte {
	if x < 0 {
		return 0
	}

	if x > 255 {
		return 255
	}

	return byte(x)
}

// luma returns the Rec. 601 luminance of an 8-bit RGB triple, as color.GrayModel does.
func luma(r, g, b byte) byte {
	return byte((19595*uint32(r) + 38470*uint32(g) + 7471*uint32(b) + 1<<15) >> 16)
}

// put writes one pixel in the out color space at dst[off:].
func put(dst []byte, off int, out ColorSpace, r, g, b byte) {
	switch out {
	case Luma:
		dst[off] = luma(r, g, b)
	case LumaA:
		dst[off] = luma(r, g, b)
		dst[off+1] = 255
	case RGB:
		dst[off] = r
		dst[off+1] = g
		dst[off+2] = b
	case RGBA:
		dst[off] = r
		dst[off+1] = g
		dst[off+2] = b
		dst[off+3] = 255
	}
}

// convert writes img into dst in the out color space. out must satisfy IsOutput
// and dst must hold exactly width*height*out.Components() bytes.
func convert(img image.Image, out ColorSpace, dst []byte) {
	switch src := img.(type) {
	case *image.YCbCr:
		convertYCbCr(src, out, dst)
	case *image.Gray:
		convertGray(src, out, dst)
	case *image.RGBA:
		convertRGBA(src, out, dst)
	case *image.CMYK:
		convertCMYK(src, out, dst)
	default:
		convertGeneric(img, out, dst)
	}
}

// convertYCbCr converts YCbCr samples with fixed-point arithmetic.
// Luma output reads the Y plane directly.
func convertYCbCr(src *image.YCbCr, out ColorSpace, dst []byte) {
	b := src.Rect
	n := out.Components()
	off := 0

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			yi := src.YOffset(x, y)

			if out == Luma || out == LumaA {
				dst[off] = src.Y[yi]
				if out == LumaA {
					dst[off+1] = 255
				}

				off += n

				continue
			}

			ci := src.COffset(x, y)
			yy := int32(src.Y[yi]) << 8
			cb := int32(src.Cb[ci]) - 128
			cr := int32(src.Cr[ci]) - 128

			r := (yy + 359*cr + 128) >> 8
			g := (yy - 88*cb - 183*cr + 128) >> 8
			bb := (yy + 454*cb + 128) >> 8

			put(dst, off, out, clip(r), clip(g), clip(bb))
			off += n
		}
	}
}

func convertGray(src *image.Gray, out ColorSpace, dst []byte) {
	b := src.Rect
	w := b.Dx()
	n := out.Components()

	if out == Luma {
		for y := 0; y < b.Dy(); y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst[y*w:(y+1)*w], src.Pix[i:i+w])
		}

		return
	}

	off := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := src.PixOffset(b.Min.X, y)
		for x := 0; x < w; x++ {
			lum := src.Pix[i+x]
			if out == LumaA {
				dst[off] = lum
				dst[off+1] = 255
			} else {
				put(dst, off, out, lum, lum, lum)
			}

			off += n
		}
	}
}

func convertRGBA(src *image.RGBA, out ColorSpace, dst []byte) {
	b := src.Rect
	n := out.Components()
	off := 0

	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := src.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			p := src.Pix[i+x*4 : i+x*4+4]
			put(dst, off, out, p[0], p[1], p[2])
			off += n
		}
	}
}

func convertCMYK(src *image.CMYK, out ColorSpace, dst []byte) {
	b := src.Rect
	n := out.Components()
	off := 0

	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := src.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			p := src.Pix[i+x*4 : i+x*4+4]
			r, g, bb := color.CMYKToRGB(p[0], p[1], p[2], p[3])
			put(dst, off, out, r, g, bb)
			off += n
		}
	}
}

func convertGeneric(img image.Image, out ColorSpace, dst []byte) {
	b := img.Bounds()
	n := out.Components()
	off := 0

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			put(dst, off, out, c.R, c.G, c.B)
			off += n
		}
	}
}
