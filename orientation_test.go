package imdec

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

var allOrientations = []Orientation{
	NoTransforms, Rotate90, Rotate180, Rotate270,
	FlipHorizontal, FlipVertical, Rotate90FlipH, Rotate270FlipH,
}

func TestOrientationExifRoundTrip(t *testing.T) {
	for code := uint8(1); code <= 8; code++ {
		o, ok := FromExif(code)
		require.True(t, ok, "code %d", code)
		require.Equal(t, code, o.Exif())
	}

	seen := make(map[Orientation]bool)
	for _, o := range allOrientations {
		code := o.Exif()
		back, ok := FromExif(code)
		require.True(t, ok)
		require.Equal(t, o, back)
		seen[back] = true
	}
	require.Len(t, seen, 8)
}

func TestOrientationExifMapping(t *testing.T) {
	want := map[uint8]Orientation{
		1: NoTransforms,
		2: FlipHorizontal,
		3: Rotate180,
		4: FlipVertical,
		5: Rotate90FlipH,
		6: Rotate90,
		7: Rotate270FlipH,
		8: Rotate270,
	}

	for code, o := range want {
		got, ok := FromExif(code)
		require.True(t, ok)
		require.Equal(t, o, got, "code %d", code)
	}
}

func TestOrientationInvalidCodes(t *testing.T) {
	_, ok := FromExif(0)
	require.False(t, ok)

	for code := 9; code <= 255; code++ {
		_, ok := FromExif(uint8(code))
		require.False(t, ok, "code %d", code)
	}
}

func TestOrientationAppliesInPlace(t *testing.T) {
	inPlace := map[Orientation]bool{
		NoTransforms:   true,
		Rotate180:      true,
		FlipHorizontal: true,
		FlipVertical:   true,
	}

	for _, o := range allOrientations {
		require.Equal(t, inPlace[o], o.AppliesInPlace(), o.String())
		require.Equal(t, !inPlace[o], o.SwapsDimensions(), o.String())
	}
}

// testImage returns a w x h Rgba8 image whose pixels encode their own coordinates.
func testImage(w, h int) *Image {
	m := &Image{Width: uint32(w), Height: uint32(h), ColorType: Rgba8, Pix: make([]byte, w*h*4)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3] = byte(x), byte(y), byte(x*16+y), 255
		}
	}

	return m
}

func TestOrientationApplyMatchesImaging(t *testing.T) {
	for _, o := range allOrientations {
		t.Run(o.String(), func(t *testing.T) {
			m := testImage(5, 3)
			want := o.ApplyImage(m.ToImage())

			require.NoError(t, o.Apply(m, NoLimits()))
			require.Equal(t, want.Rect.Dx(), int(m.Width))
			require.Equal(t, want.Rect.Dy(), int(m.Height))
			require.Equal(t, want.Pix, m.Pix)
		})
	}
}

func TestOrientationApplyRotate90(t *testing.T) {
	// 2x1 image: A B  ->  rotated clockwise becomes a 1x2 column A over B.
	m := &Image{Width: 2, Height: 1, ColorType: L8, Pix: []byte{'A', 'B'}}
	require.NoError(t, Rotate90.Apply(m, NoLimits()))
	require.Equal(t, uint32(1), m.Width)
	require.Equal(t, uint32(2), m.Height)
	require.Equal(t, []byte{'A', 'B'}, m.Pix)

	m = &Image{Width: 2, Height: 1, ColorType: L8, Pix: []byte{'A', 'B'}}
	require.NoError(t, Rotate270.Apply(m, NoLimits()))
	require.Equal(t, []byte{'B', 'A'}, m.Pix)
}

func TestOrientationApplyLimits(t *testing.T) {
	m := testImage(4, 4)
	size := uint64(len(m.Pix))
	limits := Limits{MaxAlloc: size}

	// In-place transforms need no second buffer.
	for _, o := range []Orientation{NoTransforms, Rotate180, FlipHorizontal, FlipVertical} {
		require.NoError(t, o.Apply(m, limits), o.String())
	}

	// The others need twice the image size at peak.
	for _, o := range []Orientation{Rotate90, Rotate270, Rotate90FlipH, Rotate270FlipH} {
		err := o.Apply(m, limits)
		require.ErrorIs(t, err, ErrLimits, o.String())
		require.True(t, IsLimitKind(err, LimitInsufficientMemory))
	}

	require.NoError(t, Rotate90.Apply(m, Limits{MaxAlloc: 2 * size}))
}

func TestOrientationApplyBadBuffer(t *testing.T) {
	m := &Image{Width: 2, Height: 2, ColorType: Rgb8, Pix: make([]byte, 11)}
	require.ErrorIs(t, FlipVertical.Apply(m, NoLimits()), ErrDecoding)
}

func TestImageToImage(t *testing.T) {
	m := &Image{Width: 2, Height: 1, ColorType: Rgb8, Pix: []byte{1, 2, 3, 4, 5, 6}}
	img, ok := m.ToImage().(*image.NRGBA)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3, 255, 4, 5, 6, 255}, img.Pix)

	m = &Image{Width: 1, Height: 1, ColorType: La16, Pix: []byte{0x12, 0x34, 0xff, 0xfe}}
	img64, ok := m.ToImage().(*image.NRGBA64)
	require.True(t, ok)
	require.Equal(t, []byte{0x12, 0x34, 0x12, 0x34, 0x12, 0x34, 0xff, 0xfe}, img64.Pix)

	m = &Image{Width: 2, Height: 2, ColorType: L8, Pix: []byte{1, 2, 3, 4}}
	gray, ok := m.ToImage().(*image.Gray)
	require.True(t, ok)
	require.Equal(t, 2, gray.Stride)
}
