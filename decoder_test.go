package imdec

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeDecoder produces a constant pattern and records whether ReadImage ran.
type fakeDecoder struct {
	w, h     uint32
	ct       ColorType
	limits   Limits
	read     bool
	consumed bool
}

func (f *fakeDecoder) Dimensions() (uint32, uint32) { return f.w, f.h }
func (f *fakeDecoder) ColorType() ColorType         { return f.ct }

func (f *fakeDecoder) SetLimits(l Limits) error {
	if f.consumed {
		return ErrConsumed
	}
	f.limits = l

	return l.CheckDimensions(f.w, f.h)
}

func (f *fakeDecoder) ReadImage(buf []byte) error {
	if f.consumed {
		return ErrConsumed
	}
	f.consumed = true
	f.read = true

	if err := CheckBufferLen("fake", f.w, f.h, f.ct, len(buf)); err != nil {
		return err
	}

	for i := range buf {
		buf[i] = byte(i)
	}

	return nil
}

func (f *fakeDecoder) IntoReader() (*Reader, error) {
	buf := make([]byte, TotalBytes(f))
	if err := f.ReadImage(buf); err != nil {
		return nil, err
	}

	return NewReader(buf), nil
}

func TestDecode(t *testing.T) {
	d := &fakeDecoder{w: 4, h: 3, ct: Rgb8}

	img, err := Decode(d, NoLimits())
	require.NoError(t, err)
	require.Equal(t, uint32(4), img.Width)
	require.Equal(t, uint32(3), img.Height)
	require.Equal(t, Rgb8, img.ColorType)
	require.Len(t, img.Pix, 4*3*3)
	require.Equal(t, 12, img.Stride())
}

func TestDecodeRejectsBeforeRead(t *testing.T) {
	d := &fakeDecoder{w: 4, h: 3, ct: Rgb8}
	_, err := Decode(d, Limits{MaxImageWidth: 2})
	require.True(t, IsLimitKind(err, LimitDimension))
	require.False(t, d.read)

	// The fake does not check allocation in SetLimits; Decode does.
	d = &fakeDecoder{w: 4, h: 3, ct: Rgb8}
	_, err = Decode(d, Limits{MaxAlloc: 35})
	require.True(t, IsLimitKind(err, LimitInsufficientMemory))
	require.False(t, d.read)
}

func TestTotalBytes(t *testing.T) {
	require.Equal(t, uint64(256*256*3), TotalBytes(&fakeDecoder{w: 256, h: 256, ct: Rgb8}))
	require.Equal(t, ^uint64(0), TotalBytes(&fakeDecoder{w: 1 << 31, h: 1 << 31, ct: Rgba16}))
}

func TestCheckBufferLen(t *testing.T) {
	require.NoError(t, CheckBufferLen("x", 2, 2, La8, 8))

	err := CheckBufferLen("x", 2, 2, La8, 7)
	require.ErrorIs(t, err, ErrDecoding)
	require.Contains(t, err.Error(), "length of the buffer 7")
	require.Contains(t, err.Error(), "imply length 8")
}

func TestReader(t *testing.T) {
	d := &fakeDecoder{w: 2, h: 2, ct: L8}
	r, err := d.IntoReader()
	require.NoError(t, err)
	require.Equal(t, 4, r.Len())

	var out bytes.Buffer
	n, err := io.Copy(&out, r)
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
	require.Equal(t, []byte{0, 1, 2, 3}, out.Bytes())

	// The stream is finite and does not restart.
	k, err := r.Read(make([]byte, 1))
	require.Zero(t, k)
	require.ErrorIs(t, err, io.EOF)

	_, err = d.IntoReader()
	require.ErrorIs(t, err, ErrConsumed)
}
