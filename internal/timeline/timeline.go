// Package timeline turns time-stamped transcript segments and generated
// images into an ordered plan of still clips: each image shown from its
// segment's start until the next segment begins, with silence gaps absorbed
// so the visual track never goes blank while audio continues.
package timeline

import (
	"fmt"

	"github.com/alnah/go-slidecast/internal/format"
	"github.com/alnah/go-slidecast/internal/segment"
)

// MinClipDuration is the floor for a resolved clip duration in seconds.
// Only the final segment can resolve to a zero-length span once ordering has
// been validated; a degenerate span is stretched to this minimum instead of
// producing a zero-frame clip.
const MinClipDuration = 0.1

// Clip is a single image shown for a fixed duration within the assembled
// video. Start is the absolute offset of the owning segment; positions are
// never derived from the previous clip's end, so rounding cannot accumulate.
type Clip struct {
	ImageIndex int
	ImagePath  string
	Start      float64
	Duration   float64
}

// End returns the absolute end offset of the clip.
func (c Clip) End() float64 {
	return c.Start + c.Duration
}

// String returns a human-readable representation for logging.
func (c Clip) String() string {
	return fmt.Sprintf("clip %d: start=%ss dur=%ss",
		c.ImageIndex, format.Seconds(c.Start), format.Seconds(c.Duration))
}

// Plan is the resolved visual track: ordered clips with no gaps or overlaps.
type Plan struct {
	Clips []Clip
}

// Span returns the total duration of the visual track, equal to the final
// clip's start + duration.
func (p Plan) Span() float64 {
	if len(p.Clips) == 0 {
		return 0
	}
	return p.Clips[len(p.Clips)-1].End()
}

// ExtendTo stretches the final clip so the track covers at least
// totalSeconds. Trailing silence after the last spoken segment is absorbed
// the same way inter-segment gaps are: the last image stays on screen.
// A shorter or equal total is a no-op.
func (p *Plan) ExtendTo(totalSeconds float64) {
	if len(p.Clips) == 0 {
		return
	}
	last := &p.Clips[len(p.Clips)-1]
	if totalSeconds > last.End() {
		last.Duration = totalSeconds - last.Start
	}
}

// Resolve computes the on-screen duration for each segment.
//
// For every segment except the last, the clip runs from the segment's own
// start to the next segment's start, so any silence gap between segments is
// absorbed by the earlier clip. The final segment keeps its own end time.
// Start times are never shifted; audio-to-image sync stays anchored to
// speech onset.
//
// Input is validated first: empty or non-monotonic segment lists are
// rejected (see segment.Validate).
func Resolve(segments []segment.Segment) ([]Clip, error) {
	if err := segment.Validate(segments); err != nil {
		return nil, err
	}

	clips := make([]Clip, len(segments))
	for i, s := range segments {
		var duration float64
		if i < len(segments)-1 {
			// Strictly ascending starts guarantee a positive duration here;
			// clamping would break contiguity with the next clip.
			duration = segments[i+1].Start - s.Start
		} else {
			duration = s.End - s.Start
			if duration < MinClipDuration {
				duration = MinClipDuration
			}
		}
		clips[i] = Clip{
			ImageIndex: i,
			Start:      s.Start,
			Duration:   duration,
		}
	}

	return clips, nil
}

// Assemble resolves segment timing and binds one image to each clip.
//
// Index policy: with fewer images than segments, the last available image is
// reused for the remainder (index = min(i, len(images)-1)); extra images are
// ignored. Zero images with non-empty segments is a fatal precondition
// failure.
func Assemble(segments []segment.Segment, images []string) (Plan, error) {
	if len(images) == 0 && len(segments) > 0 {
		return Plan{}, fmt.Errorf("%d segments: %w", len(segments), ErrNoImages)
	}

	clips, err := Resolve(segments)
	if err != nil {
		return Plan{}, err
	}

	for i := range clips {
		idx := min(i, len(images)-1)
		clips[i].ImageIndex = idx
		clips[i].ImagePath = images[idx]
	}

	return Plan{Clips: clips}, nil
}
