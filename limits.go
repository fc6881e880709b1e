package imdec

import "math/bits"

// Limits bounds the resources a decoder may commit to.
//
// Each field is independent. A zero value means the axis is unbounded and is
// never checked. Limits are advisory: they carry configuration, and every
// decoder is responsible for enforcing them before it allocates pixel memory.
type Limits struct {
	// MaxImageWidth is the largest accepted image width in pixels.
	MaxImageWidth uint32
	// MaxImageHeight is the largest accepted image height in pixels.
	MaxImageHeight uint32
	// MaxAlloc is the largest accepted output allocation in bytes.
	// It is compared with the advertised size of the decoded buffer, not with
	// the peak memory used inside the codec engine.
	MaxAlloc uint64
}

// defaultMaxAlloc is the allocation bound used by DefaultLimits (512 MiB).
const defaultMaxAlloc = 512 * 1024 * 1024

// NoLimits returns Limits with every bound unset.
// Decoders start with this value so callers that never configure limits keep working.
func NoLimits() Limits {
	return Limits{}
}

// DefaultLimits returns a conservative configuration for untrusted input:
// no dimension bounds and a 512 MiB allocation bound.
func DefaultLimits() Limits {
	return Limits{MaxAlloc: defaultMaxAlloc}
}

// IsZero reports whether no bound is set.
func (l Limits) IsZero() bool {
	return l == Limits{}
}

// CheckDimensions validates declared dimensions against the width and height bounds.
func (l Limits) CheckDimensions(width, height uint32) error {
	if l.MaxImageWidth != 0 && width > l.MaxImageWidth {
		return &LimitError{Kind: LimitDimension, Axis: "width", Limit: uint64(l.MaxImageWidth), Actual: uint64(width)}
	}

	if l.MaxImageHeight != 0 && height > l.MaxImageHeight {
		return &LimitError{Kind: LimitDimension, Axis: "height", Limit: uint64(l.MaxImageHeight), Actual: uint64(height)}
	}

	return nil
}

// CheckAlloc validates an allocation of n bytes against MaxAlloc.
func (l Limits) CheckAlloc(n uint64) error {
	if l.MaxAlloc != 0 && n > l.MaxAlloc {
		return &LimitError{Kind: LimitInsufficientMemory, Limit: l.MaxAlloc, Actual: n}
	}

	return nil
}

// CheckBuffer validates both the dimensions and the advertised buffer size
// of a width x height image of the given color type.
func (l Limits) CheckBuffer(width, height uint32, ct ColorType) error {
	if err := l.CheckDimensions(width, height); err != nil {
		return err
	}

	size, ok := BufferSize(width, height, ct)
	if !ok {
		return &LimitError{Kind: LimitInsufficientMemory, Limit: l.MaxAlloc, Actual: ^uint64(0)}
	}

	return l.CheckAlloc(size)
}

// BufferSize returns width * height * ct.BytesPerPixel().
// The second result is false if the product overflows uint64.
func BufferSize(width, height uint32, ct ColorType) (uint64, bool) {
	pixels := uint64(width) * uint64(height)

	hi, size := bits.Mul64(pixels, uint64(ct.BytesPerPixel()))
	if hi != 0 {
		return 0, false
	}

	return size, true
}
