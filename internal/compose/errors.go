package compose

import "errors"

// ErrInvalidCanvas indicates a canvas with non-positive dimensions.
var ErrInvalidCanvas = errors.New("invalid canvas dimensions")

// ErrEmptyImage indicates a source image with no pixels.
var ErrEmptyImage = errors.New("empty source image")
