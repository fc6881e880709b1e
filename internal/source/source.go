// Package source reads a byte source into an owned buffer.
package source

import (
	"fmt"
	"io"
)

// Interface to check if a reader knows its remaining length.
type readerWithLen interface {
	Len() int
}

// ReadAll reads r to EOF, pre-allocating if the size is known.
func ReadAll(r io.Reader) ([]byte, error) {
	// Readers like bytes.Reader report their remaining length, which saves
	// the repeated growth io.ReadAll would do for large inputs.
	if rl, ok := r.(readerWithLen); ok {
		size := rl.Len()
		if size > 0 {
			data := make([]byte, size)
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, fmt.Errorf("failed to read image data: %w", err)
			}

			return data, nil
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return data, nil
}
