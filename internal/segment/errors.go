package segment

import "errors"

// ErrEmpty indicates the transcription produced no segments.
var ErrEmpty = errors.New("no segments")

// ErrNonMonotonic indicates segment start times are not strictly ascending.
var ErrNonMonotonic = errors.New("non-monotonic segment timestamps")

// ErrInvalidSpan indicates a segment whose end time precedes its start time.
var ErrInvalidSpan = errors.New("segment end before start")
