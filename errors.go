package imdec

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every typed error below reports errors.Is for exactly one of them.
var (
	ErrUnsupported = errors.New("unsupported feature")
	ErrLimits      = errors.New("limits exceeded")
	ErrDecoding    = errors.New("decoding error")
	ErrIO          = errors.New("i/o error")
	ErrConsumed    = errors.New("decoder already consumed")
)

// UnsupportedError reports a recognized feature the codec engine cannot produce.
type UnsupportedError struct {
	Format  string
	Feature string
}

func (e *UnsupportedError) Error() string {
	if e.Format == "" {
		return "unsupported feature: " + e.Feature
	}

	return e.Format + ": unsupported feature: " + e.Feature
}

// Is reports whether target is ErrUnsupported.
func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported
}

// LimitErrorKind distinguishes dimension violations from allocation violations.
type LimitErrorKind int

const (
	// LimitDimension means a declared width or height exceeds its bound.
	LimitDimension LimitErrorKind = iota
	// LimitInsufficientMemory means the advertised allocation exceeds MaxAlloc.
	LimitInsufficientMemory
)

func (k LimitErrorKind) String() string {
	switch k {
	case LimitDimension:
		return "dimension"
	case LimitInsufficientMemory:
		return "insufficient memory"
	default:
		return fmt.Sprintf("LimitErrorKind(%d)", int(k))
	}
}

// LimitError reports that a configured bound was exceeded.
type LimitError struct {
	Kind LimitErrorKind
	// Axis is "width" or "height" for dimension errors.
	Axis string
	// Limit is the configured bound. Actual is the value that exceeded it.
	Limit, Actual uint64
}

func (e *LimitError) Error() string {
	switch e.Kind {
	case LimitDimension:
		if e.Axis == "" {
			return "limits exceeded: image dimensions are too large"
		}

		return fmt.Sprintf("limits exceeded: image %s %d exceeds limit %d", e.Axis, e.Actual, e.Limit)
	case LimitInsufficientMemory:
		if e.Limit == 0 {
			return "limits exceeded: allocation size overflows"
		}

		return fmt.Sprintf("limits exceeded: allocation of %d bytes exceeds limit %d", e.Actual, e.Limit)
	default:
		return "limits exceeded"
	}
}

// Is reports whether target is ErrLimits.
func (e *LimitError) Is(target error) bool {
	return target == ErrLimits
}

// DecodingError reports malformed input or a violated buffer contract.
type DecodingError struct {
	Format string
	Err    error
}

// NewDecodingError returns a DecodingError with a formatted diagnostic.
func NewDecodingError(format, msg string, args ...any) *DecodingError {
	return &DecodingError{Format: format, Err: fmt.Errorf(msg, args...)}
}

func (e *DecodingError) Error() string {
	if e.Format == "" {
		return "decoding error: " + e.Err.Error()
	}

	return e.Format + ": decoding error: " + e.Err.Error()
}

// Is reports whether target is ErrDecoding.
func (e *DecodingError) Is(target error) bool {
	return target == ErrDecoding
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}

// IOError reports a failure reading the byte source.
type IOError struct {
	Err error
}

func (e *IOError) Error() string {
	return "i/o error: " + e.Err.Error()
}

// Is reports whether target is ErrIO.
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsLimitKind reports whether err is a LimitError of the given kind.
func IsLimitKind(err error, kind LimitErrorKind) bool {
	var le *LimitError
	if errors.As(err, &le) {
		return le.Kind == kind
	}

	return false
}
