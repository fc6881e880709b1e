package codec

import (
	"image"
	"image/color"

	"github.com/gen2brain/imdec"
)

// fill writes img into buf using the ct layout. Alpha is stored non-premultiplied.
func fill(img image.Image, ct imdec.ColorType, buf []byte) error {
	b := img.Bounds()
	bpp := ct.BytesPerPixel()
	off := 0

	// Fast paths for images whose memory layout already matches.
	switch src := img.(type) {
	case *image.Gray:
		if ct == imdec.L8 {
			copyRows(src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y), b.Dx()*bpp, b.Dy(), buf)

			return nil
		}
	case *image.Gray16:
		if ct == imdec.L16 {
			copyRows(src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y), b.Dx()*bpp, b.Dy(), buf)

			return nil
		}
	case *image.NRGBA:
		if ct == imdec.Rgba8 {
			copyRows(src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y), b.Dx()*bpp, b.Dy(), buf)

			return nil
		}
	case *image.NRGBA64:
		if ct == imdec.Rgba16 {
			copyRows(src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y), b.Dx()*bpp, b.Dy(), buf)

			return nil
		}
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.At(x, y)

			switch ct {
			case imdec.L8:
				buf[off] = color.GrayModel.Convert(c).(color.Gray).Y
			case imdec.L16:
				g := color.Gray16Model.Convert(c).(color.Gray16).Y
				buf[off], buf[off+1] = byte(g>>8), byte(g)
			case imdec.Rgb8:
				n := color.NRGBAModel.Convert(c).(color.NRGBA)
				buf[off], buf[off+1], buf[off+2] = n.R, n.G, n.B
			case imdec.Rgba8:
				n := color.NRGBAModel.Convert(c).(color.NRGBA)
				buf[off], buf[off+1], buf[off+2], buf[off+3] = n.R, n.G, n.B, n.A
			case imdec.Rgba16:
				n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
				put16(buf[off:], n.R, n.G, n.B, n.A)
			default:
				return imdec.NewDecodingError("", "no conversion to %s", ct)
			}

			off += bpp
		}
	}

	return nil
}

func copyRows(pix []byte, stride, start, rowLen, rows int, dst []byte) {
	for y := 0; y < rows; y++ {
		i := start + y*stride
		copy(dst[y*rowLen:(y+1)*rowLen], pix[i:i+rowLen])
	}
}

func put16(dst []byte, vals ...uint16) {
	for i, v := range vals {
		dst[2*i], dst[2*i+1] = byte(v>>8), byte(v)
	}
}
