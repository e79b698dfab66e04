// Package video assembles the resolved clip plan into a single muxed
// audio+video file. Frames are composited to a scratch directory, laid out
// with an ffmpeg concat script whose durations come from the absolute
// segment starts, and encoded together with the original audio track as
// H.264 + AAC in an MP4 container at a fixed frame rate.
package video

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-slidecast/internal/compose"
	"github.com/alnah/go-slidecast/internal/ffmpeg"
	"github.com/alnah/go-slidecast/internal/format"
	"github.com/alnah/go-slidecast/internal/timeline"
)

// Encoding constants. The container and codecs are fixed so every output
// plays anywhere without probing what the collaborators produced.
const (
	// FrameRate is the fixed output frame rate.
	FrameRate = 30

	// audioBitrate for the AAC track.
	audioBitrate = "192k"

	// encodeTimeout bounds the graceful-shutdown wait when the context is
	// canceled mid-encode.
	encodeTimeout = 10 * time.Second
)

// Artifact describes a successfully muxed output file.
type Artifact struct {
	Path     string
	Duration float64 // seconds; equals the visual track span
	Width    int
	Height   int
}

// String returns a human-readable representation for logging.
func (a Artifact) String() string {
	return fmt.Sprintf("%s (%dx%d, %ss)", a.Path, a.Width, a.Height, format.Seconds(a.Duration))
}

// frameComposer renders one source image onto the canvas.
// compose.Canvas implements this; tests inject stubs.
type frameComposer interface {
	ComposeFile(srcPath, dstPath string) error
}

// encodeFn runs an ffmpeg encode. Injectable for tests.
type encodeFn func(ctx context.Context, ffmpegPath string, args []string, timeout time.Duration) error

// tempDirCreator creates temporary directories.
type tempDirCreator interface {
	MkdirTemp(dir, pattern string) (string, error)
}

// fileRemover removes files and directories.
type fileRemover interface {
	Remove(name string) error
	RemoveAll(path string) error
}

// osTempDirCreator implements tempDirCreator using os.MkdirTemp.
type osTempDirCreator struct{}

func (osTempDirCreator) MkdirTemp(dir, pattern string) (string, error) {
	return os.MkdirTemp(dir, pattern)
}

// osFileRemover implements fileRemover using the os package.
type osFileRemover struct{}

func (osFileRemover) Remove(name string) error { return os.Remove(name) }

func (osFileRemover) RemoveAll(path string) error { return os.RemoveAll(path) }

// Muxer attaches the original audio track to the assembled visual track.
type Muxer struct {
	ffmpegPath string
	canvas     compose.Canvas
	logger     *slog.Logger

	executor *ffmpeg.Executor
	encode   encodeFn
	composer frameComposer
	tempDir  tempDirCreator
	files    fileRemover
}

// Option configures a Muxer.
type Option func(*Muxer)

// WithCanvas sets the output canvas.
func WithCanvas(c compose.Canvas) Option {
	return func(m *Muxer) { m.canvas = c }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Muxer) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithExecutor sets the ffmpeg executor used for probing (for testing).
func WithExecutor(e *ffmpeg.Executor) Option {
	return func(m *Muxer) { m.executor = e }
}

// WithEncodeFunc sets the encode function (for testing).
func WithEncodeFunc(fn encodeFn) Option {
	return func(m *Muxer) { m.encode = fn }
}

// WithComposer sets the frame composer (for testing).
func WithComposer(c frameComposer) Option {
	return func(m *Muxer) { m.composer = c }
}

// WithTempDir sets the temp directory creator (for testing).
func WithTempDir(t tempDirCreator) Option {
	return func(m *Muxer) { m.tempDir = t }
}

// WithFileRemover sets the file remover (for testing).
func WithFileRemover(f fileRemover) Option {
	return func(m *Muxer) { m.files = f }
}

// NewMuxer creates a Muxer with the given ffmpeg binary path.
func NewMuxer(ffmpegPath string, opts ...Option) (*Muxer, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}

	m := &Muxer{
		ffmpegPath: ffmpegPath,
		canvas:     compose.DefaultCanvas(),
		logger:     slog.Default(),
		executor:   ffmpeg.NewExecutor(),
		encode:     ffmpeg.RunGraceful,
		tempDir:    osTempDirCreator{},
		files:      osFileRemover{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.composer == nil {
		m.composer = m.canvas
	}
	if err := m.canvas.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Mux composites every referenced image, lays the clips out at their
// absolute start offsets, and encodes the result together with audioPath
// into outPath.
//
// The visual track is extended to cover the full audio duration so audio
// never plays over a blank frame. Encoding writes to a temporary sibling of
// outPath and renames on success; scratch frames and partial output are
// removed on every path, success or failure.
func (m *Muxer) Mux(ctx context.Context, plan timeline.Plan, audioPath, outPath string) (Artifact, error) {
	if len(plan.Clips) == 0 {
		return Artifact{}, ErrEmptyPlan
	}

	audioDuration, err := m.executor.ProbeDuration(ctx, m.ffmpegPath, audioPath)
	if err != nil {
		return Artifact{}, fmt.Errorf("probe audio: %w", err)
	}
	plan.ExtendTo(audioDuration.Seconds())

	scratch, err := m.tempDir.MkdirTemp("", "slidecast-mux-*")
	if err != nil {
		return Artifact{}, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() { _ = m.files.RemoveAll(scratch) }()

	m.logger.Info("muxing video",
		"clips", len(plan.Clips),
		"span", format.Seconds(plan.Span()),
		"audio", format.Duration(audioDuration),
		"canvas", m.canvas.String())

	frames, err := m.compositeFrames(plan, scratch)
	if err != nil {
		return Artifact{}, err
	}

	script := ConcatScript(plan, frames)
	scriptPath := filepath.Join(scratch, "clips.ffconcat")
	if err := os.WriteFile(scriptPath, []byte(script), 0o600); err != nil {
		return Artifact{}, fmt.Errorf("write concat script: %w", err)
	}

	// Encode to a sibling temp path first so a failed run never leaves a
	// partial file at outPath.
	partial := outPath + ".partial.mp4"
	defer func() { _ = m.files.Remove(partial) }()

	args := encodeArgs(scriptPath, audioPath, partial)
	if err := m.encode(ctx, m.ffmpegPath, args, encodeTimeout); err != nil {
		return Artifact{}, fmt.Errorf("%w: %w", ErrEncodeFailed, err)
	}

	if err := os.Rename(partial, outPath); err != nil {
		return Artifact{}, fmt.Errorf("finalize output: %w", err)
	}

	artifact := Artifact{
		Path:     outPath,
		Duration: plan.Span(),
		Width:    m.canvas.Width,
		Height:   m.canvas.Height,
	}
	m.logger.Info("video assembled", "output", artifact.String())
	return artifact, nil
}

// compositeFrames renders each distinct image referenced by the plan onto
// the canvas once, returning a source-path -> frame-path map. Clips that
// reuse an image (index clamping) share the composited frame.
func (m *Muxer) compositeFrames(plan timeline.Plan, scratch string) (map[string]string, error) {
	frames := make(map[string]string)
	for _, clip := range plan.Clips {
		if _, done := frames[clip.ImagePath]; done {
			continue
		}
		framePath := filepath.Join(scratch, fmt.Sprintf("frame_%03d.png", len(frames)))
		if err := m.composer.ComposeFile(clip.ImagePath, framePath); err != nil {
			return nil, fmt.Errorf("clip %d: %w", clip.ImageIndex, err)
		}
		frames[clip.ImagePath] = framePath
	}
	return frames, nil
}

// ConcatScript builds an ffconcat demuxer script for the plan. Each clip
// contributes its composited frame with its resolved duration; the final
// frame is listed once more, as the demuxer ignores the duration of the
// last entry otherwise.
//
// The demuxer positions entries cumulatively, so a first segment starting
// after t=0 (leading silence or music before speech) needs an explicit
// entry covering that offset. The first frame is held for it, keeping every
// later transition at its absolute segment start.
func ConcatScript(plan timeline.Plan, frames map[string]string) string {
	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	if len(plan.Clips) == 0 {
		return b.String()
	}
	if lead := plan.Clips[0].Start; lead > 0 {
		fmt.Fprintf(&b, "file '%s'\n", frames[plan.Clips[0].ImagePath])
		fmt.Fprintf(&b, "duration %s\n", format.Seconds(lead))
	}
	for _, clip := range plan.Clips {
		fmt.Fprintf(&b, "file '%s'\n", frames[clip.ImagePath])
		fmt.Fprintf(&b, "duration %s\n", format.Seconds(clip.Duration))
	}
	fmt.Fprintf(&b, "file '%s'\n", frames[plan.Clips[len(plan.Clips)-1].ImagePath])
	return b.String()
}

// encodeArgs builds the ffmpeg invocation: still-image concat as the video
// track, the original audio as the audio track, encoded at the fixed frame
// rate. The video stream already covers the audio span, so no -shortest.
func encodeArgs(scriptPath, audioPath, outPath string) []string {
	return []string{
		"-y",
		"-f", "concat", "-safe", "0", "-i", scriptPath,
		"-i", audioPath,
		"-map", "0:v:0", "-map", "1:a:0",
		"-c:v", "libx264", "-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(FrameRate),
		"-c:a", "aac", "-b:a", audioBitrate,
		"-movflags", "+faststart",
		outPath,
	}
}
