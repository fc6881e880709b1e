package jpeg

import (
	"errors"

	"github.com/gen2brain/imdec"
	"github.com/gen2brain/imdec/internal/jpegengine"
)

// translate maps an engine error onto the imdec error taxonomy.
// Every engine kind has exactly one target; errors that did not come from the
// engine become decoding errors.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var ee *jpegengine.Error
	if !errors.As(err, &ee) {
		return &imdec.DecodingError{Format: formatName, Err: err}
	}

	switch ee.Kind {
	case jpegengine.KindUnsupported:
		return &imdec.UnsupportedError{Format: formatName, Feature: ee.Msg}
	case jpegengine.KindLargeDimensions:
		return &imdec.LimitError{Kind: imdec.LimitDimension}
	case jpegengine.KindNotJPEG, jpegengine.KindFormat, jpegengine.KindTruncated:
		return &imdec.DecodingError{Format: formatName, Err: ee}
	default:
		return &imdec.DecodingError{Format: formatName, Err: ee}
	}
}
