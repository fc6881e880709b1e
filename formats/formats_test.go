package formats

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/gen2brain/imdec"
	"github.com/gen2brain/imdec/codec"
	imjpeg "github.com/gen2brain/imdec/jpeg"
)

func sample() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 20, 12))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}

	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}

	return img
}

func encoded(t *testing.T, f Format) []byte {
	t.Helper()

	var (
		buf bytes.Buffer
		err error
	)

	switch f {
	case JPEG:
		err = jpeg.Encode(&buf, sample(), nil)
	case PNG:
		err = png.Encode(&buf, sample())
	case GIF:
		err = gif.Encode(&buf, sample(), nil)
	case BMP:
		err = bmp.Encode(&buf, sample())
	case TIFF:
		err = tiff.Encode(&buf, sample(), nil)
	default:
		t.Fatalf("no encoder for %s", f)
	}

	require.NoError(t, err)

	return buf.Bytes()
}

func TestDetect(t *testing.T) {
	for _, f := range []Format{JPEG, PNG, GIF, BMP, TIFF} {
		got, ok := Detect(encoded(t, f))
		require.True(t, ok, f.String())
		require.Equal(t, f, got)
	}

	got, ok := Detect([]byte("RIFF\x00\x00\x00\x00WEBPVP8 "))
	require.True(t, ok)
	require.Equal(t, WebP, got)

	for _, data := range [][]byte{nil, {0xFF}, []byte("RIFF\x00\x00\x00\x00WAVE"), []byte("hello")} {
		f, ok := Detect(data)
		require.False(t, ok)
		require.Equal(t, Unknown, f)
		require.Equal(t, "unknown", f.String())
	}
}

func TestOpen(t *testing.T) {
	for _, f := range []Format{JPEG, PNG, GIF, BMP, TIFF} {
		t.Run(f.String(), func(t *testing.T) {
			d, got, err := Open(bytes.NewReader(encoded(t, f)))
			require.NoError(t, err)
			require.Equal(t, f, got)

			if f == JPEG {
				require.IsType(t, &imjpeg.Decoder{}, d)
			} else {
				require.IsType(t, &codec.Decoder{}, d)
			}

			w, h := d.Dimensions()
			require.Equal(t, uint32(20), w)
			require.Equal(t, uint32(12), h)

			img, err := imdec.Decode(d, imdec.DefaultLimits())
			require.NoError(t, err)
			require.Len(t, img.Pix, int(imdec.TotalBytes(d)))
		})
	}
}

func TestOpenErrors(t *testing.T) {
	_, f, err := Open(bytes.NewReader([]byte("plain text")))
	require.ErrorIs(t, err, imdec.ErrUnsupported)
	require.Equal(t, Unknown, f)

	// Detected by magic bytes, rejected by the engine.
	_, f, err = Open(bytes.NewReader([]byte{0xFF, 0xD8, 0x00}))
	require.ErrorIs(t, err, imdec.ErrDecoding)
	require.Equal(t, JPEG, f)
}

func TestOpenWithLimits(t *testing.T) {
	data := encoded(t, PNG)

	d, f, err := OpenWithLimits(bytes.NewReader(data), imdec.Limits{MaxImageWidth: 10})
	require.Equal(t, PNG, f)
	require.NotNil(t, d)
	require.True(t, imdec.IsLimitKind(err, imdec.LimitDimension))

	d, _, err = OpenWithLimits(bytes.NewReader(data), imdec.Limits{MaxAlloc: 20 * 12 * 4})
	require.NoError(t, err)

	out := make([]byte, imdec.TotalBytes(d))
	require.NoError(t, d.ReadImage(out))
}

func TestOpenGrayJPEG(t *testing.T) {
	var buf bytes.Buffer
	g := image.NewGray(image.Rect(0, 0, 5, 5))
	g.SetGray(2, 2, color.Gray{Y: 200})
	require.NoError(t, jpeg.Encode(&buf, g, nil))

	d, f, err := Open(&buf)
	require.NoError(t, err)
	require.Equal(t, JPEG, f)
	require.Equal(t, imdec.L8, d.ColorType())
}
