// Package pipeline runs the narration-to-video stages in order:
// transcribe, translate, generate prompts, generate images, assemble video.
//
// Stage advancement goes through the session store, so a run on a session
// that already completed some stages skips them and picks up at the first
// incomplete one. A collaborator failure leaves every earlier artifact in
// place; the caller retries the same session and only the failed stage
// (and those after it) run again.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/alnah/go-slidecast/internal/imagegen"
	"github.com/alnah/go-slidecast/internal/segment"
	"github.com/alnah/go-slidecast/internal/session"
	"github.com/alnah/go-slidecast/internal/timeline"
	"github.com/alnah/go-slidecast/internal/transcribe"
	"github.com/alnah/go-slidecast/internal/translate"
	"github.com/alnah/go-slidecast/internal/video"
)

// Translator turns text into its English rendering.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// PromptGenerator derives one image prompt per text chunk.
type PromptGenerator interface {
	Generate(ctx context.Context, chunks []string) ([]string, error)
}

// Muxer assembles a clip plan and an audio file into a video.
type Muxer interface {
	Mux(ctx context.Context, plan timeline.Plan, audioPath, outPath string) (video.Artifact, error)
}

// Runner orchestrates the pipeline stages for one session at a time.
type Runner struct {
	store       *session.Store
	transcriber transcribe.Transcriber
	translator  Translator
	prompter    PromptGenerator
	images      imagegen.Generator
	muxer       Muxer
	logger      *slog.Logger
	maxParallel int
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the structured logger for stage progress.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithMaxParallel caps concurrent image generation calls.
func WithMaxParallel(n int) Option {
	return func(r *Runner) { r.maxParallel = n }
}

// NewRunner creates a Runner over the given store and collaborators.
func NewRunner(
	store *session.Store,
	transcriber transcribe.Transcriber,
	translator Translator,
	prompter PromptGenerator,
	images imagegen.Generator,
	muxer Muxer,
	opts ...Option,
) *Runner {
	r := &Runner{
		store:       store,
		transcriber: transcriber,
		translator:  translator,
		prompter:    prompter,
		images:      images,
		muxer:       muxer,
		logger:      slog.Default(),
		maxParallel: imagegen.MaxRecommendedParallel,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run advances the session through every remaining stage and returns the
// assembled video. Completed stages are skipped, so Run can be called again
// on the same session after a failure.
func (r *Runner) Run(ctx context.Context, sessionID, outPath string) (video.Artifact, error) {
	st, err := r.store.Get(sessionID)
	if err != nil {
		return video.Artifact{}, err
	}

	steps := []struct {
		stage session.Stage
		run   func(context.Context, *session.State) error
	}{
		{session.StageTranscribed, r.runTranscribe},
		{session.StageTranslated, r.runTranslate},
		{session.StagePromptsGenerated, r.runPrompts},
		{session.StageImagesGenerated, r.runImages},
		{session.StageVideoAssembled, func(ctx context.Context, s *session.State) error {
			return r.runAssemble(ctx, s, outPath)
		}},
	}

	for _, step := range steps {
		if st.Stage >= step.stage {
			r.logger.Debug("stage already complete",
				"session", st.ID, "stage", step.stage.String())
			continue
		}
		r.logger.Info("running stage", "session", st.ID, "stage", step.stage.String())
		err := r.store.Advance(st.ID, step.stage, func(s *session.State) error {
			return step.run(ctx, s)
		})
		if err != nil {
			return video.Artifact{}, fmt.Errorf("stage %s: %w", step.stage, err)
		}
	}

	return video.Artifact{
		Path:     st.VideoPath,
		Duration: st.VideoDuration,
		Width:    st.VideoWidth,
		Height:   st.VideoHeight,
	}, nil
}

func (r *Runner) runTranscribe(ctx context.Context, s *session.State) error {
	transcript, err := r.transcriber.Transcribe(ctx, s.AudioPath, transcribe.Options{})
	if err != nil {
		return err
	}
	if err := segment.Validate(transcript.Segments); err != nil {
		return err
	}
	s.Transcript = transcript
	r.logger.Info("transcribed audio",
		"session", s.ID,
		"language", transcript.Language,
		"segments", len(transcript.Segments))
	return nil
}

// runTranslate stores the English rendering of the transcript. The service
// echoes a marker when the text is already English; in that case the
// transcript text itself is kept. Prompts are generated from the transcript
// chunks either way, so the translation is display data.
func (r *Runner) runTranslate(ctx context.Context, s *session.State) error {
	out, err := r.translator.Translate(ctx, s.Transcript.Text)
	if err != nil {
		return err
	}
	if translate.IsAlreadyEnglish(out) {
		s.Translation = s.Transcript.Text
	} else {
		s.Translation = out
	}
	return nil
}

func (r *Runner) runPrompts(ctx context.Context, s *session.State) error {
	chunks := segment.ToChunks(s.Transcript.Segments)
	prompts, err := r.prompter.Generate(ctx, chunks)
	if err != nil {
		return err
	}
	s.Prompts = prompts
	r.logger.Info("generated prompts", "session", s.ID, "count", len(prompts))
	return nil
}

func (r *Runner) runImages(ctx context.Context, s *session.State) error {
	images, err := imagegen.GenerateAll(ctx, s.Prompts, r.images, s.ImagesDir(), r.maxParallel)
	if err != nil {
		return err
	}
	s.Images = images
	r.logger.Info("generated images", "session", s.ID, "count", len(images))
	return nil
}

func (r *Runner) runAssemble(ctx context.Context, s *session.State, outPath string) error {
	plan, err := timeline.Assemble(s.Transcript.Segments, imagegen.Paths(s.Images))
	if err != nil {
		return err
	}
	if outPath == "" {
		outPath = filepath.Join(s.WorkDir, "slidecast.mp4")
	}
	artifact, err := r.muxer.Mux(ctx, plan, s.AudioPath, outPath)
	if err != nil {
		return err
	}
	s.VideoPath = artifact.Path
	s.VideoDuration = artifact.Duration
	s.VideoWidth = artifact.Width
	s.VideoHeight = artifact.Height
	r.logger.Info("assembled video",
		"session", s.ID,
		"path", artifact.Path,
		"duration", artifact.Duration)
	return nil
}
