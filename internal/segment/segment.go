// Package segment models the time-stamped transcript spans returned by the
// transcription service. Segments are produced once per transcription and are
// immutable afterwards; chunking, timing resolution, and assembly all consume
// the same ordered slice.
package segment

import (
	"fmt"
	"time"

	"github.com/alnah/go-slidecast/internal/format"
)

// Segment is a time-stamped span of transcribed speech.
// Start and End are offsets in seconds from the beginning of the audio.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration returns the raw span length in seconds. The on-screen duration of
// the matching clip is resolved separately and may be longer (gap absorption).
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// String returns a human-readable representation for logging.
func (s Segment) String() string {
	return fmt.Sprintf("[%s-%s] %s",
		format.Duration(time.Duration(s.Start*float64(time.Second))),
		format.Duration(time.Duration(s.End*float64(time.Second))),
		s.Text)
}

// ToChunks maps segments to plain text chunks for prompt generation.
// One string per segment, order preserved. A segment with no text yields an
// empty string; no validation happens here.
func ToChunks(segments []Segment) []string {
	chunks := make([]string, len(segments))
	for i, s := range segments {
		chunks[i] = s.Text
	}
	return chunks
}

// Validate checks that the segment sequence is usable for timing resolution.
// It rejects empty input, spans with End < Start, and non-monotonic start
// times. Silently clamping unordered input could desynchronize audio and
// image, so bad ordering is an error rather than a repair.
func Validate(segments []Segment) error {
	if len(segments) == 0 {
		return ErrEmpty
	}

	for i, s := range segments {
		if s.End < s.Start {
			return fmt.Errorf("segment %d: end %s < start %s: %w",
				i, format.Seconds(s.End), format.Seconds(s.Start), ErrInvalidSpan)
		}
		if i > 0 && s.Start <= segments[i-1].Start {
			return fmt.Errorf("segment %d starts at %s, segment %d at %s: %w",
				i, format.Seconds(s.Start), i-1, format.Seconds(segments[i-1].Start), ErrNonMonotonic)
		}
	}

	return nil
}
