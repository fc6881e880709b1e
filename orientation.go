package imdec

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Orientation describes how a decoded image must be transformed to be shown
// upright. The values correspond to EXIF orientation codes 1 to 8.
type Orientation uint8

const (
	// NoTransforms leaves the image unchanged.
	NoTransforms Orientation = iota
	// Rotate90 rotates by 90 degrees clockwise.
	Rotate90
	// Rotate180 rotates by 180 degrees. Can be performed in-place.
	Rotate180
	// Rotate270 rotates by 270 degrees clockwise.
	Rotate270
	// FlipHorizontal mirrors around the vertical axis. Can be performed in-place.
	FlipHorizontal
	// FlipVertical mirrors around the horizontal axis. Can be performed in-place.
	FlipVertical
	// Rotate90FlipH rotates by 90 degrees clockwise, then flips horizontally (transpose).
	Rotate90FlipH
	// Rotate270FlipH rotates by 270 degrees clockwise, then flips horizontally (transverse).
	Rotate270FlipH
)

// FromExif converts an EXIF orientation code. Codes 0 and 9 and above report false.
func FromExif(code uint8) (Orientation, bool) {
	switch code {
	case 1:
		return NoTransforms, true
	case 2:
		return FlipHorizontal, true
	case 3:
		return Rotate180, true
	case 4:
		return FlipVertical, true
	case 5:
		return Rotate90FlipH, true
	case 6:
		return Rotate90, true
	case 7:
		return Rotate270FlipH, true
	case 8:
		return Rotate270, true
	default:
		return 0, false
	}
}

// Exif returns the EXIF orientation code of o.
func (o Orientation) Exif() uint8 {
	switch o {
	case NoTransforms:
		return 1
	case FlipHorizontal:
		return 2
	case Rotate180:
		return 3
	case FlipVertical:
		return 4
	case Rotate90FlipH:
		return 5
	case Rotate90:
		return 6
	case Rotate270FlipH:
		return 7
	case Rotate270:
		return 8
	default:
		return 0
	}
}

// AppliesInPlace reports whether o can be applied without a second buffer.
//
// The other transforms swap width and height, and applying them briefly needs
// as much additional memory as the image itself.
func (o Orientation) AppliesInPlace() bool {
	switch o {
	case NoTransforms, Rotate180, FlipHorizontal, FlipVertical:
		return true
	default:
		return false
	}
}

// SwapsDimensions reports whether o exchanges width and height.
func (o Orientation) SwapsDimensions() bool {
	switch o {
	case Rotate90, Rotate270, Rotate90FlipH, Rotate270FlipH:
		return true
	default:
		return false
	}
}

func (o Orientation) String() string {
	switch o {
	case NoTransforms:
		return "NoTransforms"
	case Rotate90:
		return "Rotate90"
	case Rotate180:
		return "Rotate180"
	case Rotate270:
		return "Rotate270"
	case FlipHorizontal:
		return "FlipHorizontal"
	case FlipVertical:
		return "FlipVertical"
	case Rotate90FlipH:
		return "Rotate90FlipH"
	case Rotate270FlipH:
		return "Rotate270FlipH"
	default:
		return fmt.Sprintf("Orientation(%d)", uint8(o))
	}
}

// Apply transforms m.
//
// In-place orientations overwrite m.Pix. The others allocate a second buffer
// of the same size; limits.MaxAlloc is checked against the peak (both buffers)
// before that allocation, and width and height are swapped afterwards.
func (o Orientation) Apply(m *Image, limits Limits) error {
	bpp := m.ColorType.BytesPerPixel()
	if err := CheckBufferLen("", m.Width, m.Height, m.ColorType, len(m.Pix)); err != nil {
		return err
	}

	w, h := int(m.Width), int(m.Height)

	switch o {
	case NoTransforms:
		return nil
	case FlipHorizontal:
		flipH(m.Pix, w, h, bpp)

		return nil
	case FlipVertical:
		flipV(m.Pix, w, h, bpp)

		return nil
	case Rotate180:
		flipH(m.Pix, w, h, bpp)
		flipV(m.Pix, w, h, bpp)

		return nil
	case Rotate90, Rotate270, Rotate90FlipH, Rotate270FlipH:
	default:
		return fmt.Errorf("invalid orientation %d", uint8(o))
	}

	if err := limits.CheckAlloc(2 * uint64(len(m.Pix))); err != nil {
		return err
	}

	src := m.Pix
	dst := make([]byte, len(src))
	srcStride := w * bpp
	dstStride := h * bpp

	// Forward mapping from source (sx, sy) to destination (dx, dy).
	for sy := 0; sy < h; sy++ {
		for sx := 0; sx < w; sx++ {
			var dx, dy int

			switch o {
			case Rotate90:
				dx, dy = h-1-sy, sx
			case Rotate270:
				dx, dy = sy, w-1-sx
			case Rotate90FlipH:
				dx, dy = sy, sx
			case Rotate270FlipH:
				dx, dy = h-1-sy, w-1-sx
			}

			s := sy*srcStride + sx*bpp
			d := dy*dstStride + dx*bpp
			copy(dst[d:d+bpp], src[s:s+bpp])
		}
	}

	m.Pix = dst
	m.Width, m.Height = m.Height, m.Width

	return nil
}

func flipH(pix []byte, w, h, bpp int) {
	stride := w * bpp
	tmp := make([]byte, bpp)

	for y := 0; y < h; y++ {
		row := pix[y*stride : (y+1)*stride]
		for l, r := 0, (w-1)*bpp; l < r; l, r = l+bpp, r-bpp {
			copy(tmp, row[l:l+bpp])
			copy(row[l:l+bpp], row[r:r+bpp])
			copy(row[r:r+bpp], tmp)
		}
	}
}

func flipV(pix []byte, w, h, bpp int) {
	stride := w * bpp

	for top, bottom := 0, h-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := pix[top*stride : (top+1)*stride]
		b := pix[bottom*stride : (bottom+1)*stride]
		for i := range a {
			a[i], b[i] = b[i], a[i]
		}
	}
}

// ApplyImage returns a transformed copy of img.
// Note that imaging rotates counter-clockwise, so clockwise rotations map to the opposite call.
func (o Orientation) ApplyImage(img image.Image) *image.NRGBA {
	switch o {
	case Rotate90:
		return imaging.Rotate270(img)
	case Rotate180:
		return imaging.Rotate180(img)
	case Rotate270:
		return imaging.Rotate90(img)
	case FlipHorizontal:
		return imaging.FlipH(img)
	case FlipVertical:
		return imaging.FlipV(img)
	case Rotate90FlipH:
		return imaging.Transpose(img)
	case Rotate270FlipH:
		return imaging.Transverse(img)
	default:
		return imaging.Clone(img)
	}
}
