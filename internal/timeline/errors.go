package timeline

import "errors"

// ErrNoImages indicates assembly was requested with segments but no images.
var ErrNoImages = errors.New("no images to assemble")
