package jpegengine

import "fmt"

// ErrorKind classifies engine failures.
type ErrorKind int

const (
	// KindNotJPEG means the input does not start with an SOI marker.
	KindNotJPEG ErrorKind = iota
	// KindFormat means the stream is malformed.
	KindFormat
	// KindTruncated means the stream ended before the image was complete.
	KindTruncated
	// KindUnsupported means the stream uses a feature the engine does not implement.
	KindUnsupported
	// KindLargeDimensions means the declared dimensions exceed the configured caps.
	KindLargeDimensions
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotJPEG:
		return "not a JPEG file"
	case KindFormat:
		return "syntax error"
	case KindTruncated:
		return "truncated data"
	case KindUnsupported:
		return "unsupported"
	case KindLargeDimensions:
		return "large dimensions"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is the only error type returned by the engine.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return "jpeg: " + e.Kind.String()
	}

	return "jpeg: " + e.Kind.String() + ": " + e.Msg
}

func errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

var (
	errNoJPEG    = &Error{Kind: KindNotJPEG}
	errSyntax    = &Error{Kind: KindFormat}
	errTruncated = &Error{Kind: KindTruncated}
)
