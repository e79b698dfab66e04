package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"

	"github.com/alnah/go-slidecast/internal/compose"
	"github.com/alnah/go-slidecast/internal/config"
	"github.com/alnah/go-slidecast/internal/imagegen"
	"github.com/alnah/go-slidecast/internal/pipeline"
	"github.com/alnah/go-slidecast/internal/segment"
	"github.com/alnah/go-slidecast/internal/timeline"
	"github.com/alnah/go-slidecast/internal/transcribe"
	"github.com/alnah/go-slidecast/internal/video"
)

// ---------------------------------------------------------------------------
// Mock factories and collaborators shared across CLI command tests.
// ---------------------------------------------------------------------------

type mockFFmpegResolver struct {
	path string
	err  error
}

func (m *mockFFmpegResolver) Resolve() (string, error) {
	return m.path, m.err
}

type mockConfigLoader struct {
	cfg config.Config
	err error
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	return m.cfg, m.err
}

type stubTranscriber struct {
	transcript transcribe.Transcript
	err        error
	calls      int
}

func (s *stubTranscriber) Transcribe(context.Context, string, transcribe.Options) (transcribe.Transcript, error) {
	s.calls++
	return s.transcript, s.err
}

type stubTranscriberFactory struct {
	transcriber *stubTranscriber
	apiKey      string
}

func (f *stubTranscriberFactory) NewTranscriber(apiKey string) transcribe.Transcriber {
	f.apiKey = apiKey
	return f.transcriber
}

type stubTranslator struct{ output string }

func (s *stubTranslator) Translate(context.Context, string) (string, error) {
	return s.output, nil
}

type stubTranslatorFactory struct{ translator *stubTranslator }

func (f *stubTranslatorFactory) NewTranslator(string) pipeline.Translator {
	return f.translator
}

type stubPrompter struct{}

func (stubPrompter) Generate(_ context.Context, chunks []string) ([]string, error) {
	prompts := make([]string, len(chunks))
	for i, c := range chunks {
		prompts[i] = "illustration of " + c
	}
	return prompts, nil
}

type stubPrompterFactory struct{}

func (stubPrompterFactory) NewPrompter(string) pipeline.PromptGenerator {
	return stubPrompter{}
}

type stubImageGen struct{}

func (stubImageGen) Generate(_ context.Context, prompt string) ([]byte, error) {
	return []byte("png:" + prompt), nil
}

type stubImageGenFactory struct{}

func (stubImageGenFactory) NewImageGenerator(string) imagegen.Generator {
	return stubImageGen{}
}

type stubMuxer struct {
	plan      timeline.Plan
	audioPath string
	outPath   string
	err       error
	calls     int
}

func (s *stubMuxer) Mux(_ context.Context, plan timeline.Plan, audioPath, outPath string) (video.Artifact, error) {
	s.calls++
	s.plan = plan
	s.audioPath = audioPath
	s.outPath = outPath
	if s.err != nil {
		return video.Artifact{}, s.err
	}
	return video.Artifact{Path: outPath, Duration: plan.Span()}, nil
}

type stubMuxerFactory struct {
	muxer      *stubMuxer
	ffmpegPath string
	canvas     compose.Canvas
}

func (f *stubMuxerFactory) NewMuxer(ffmpegPath string, canvas compose.Canvas, _ *slog.Logger) (pipeline.Muxer, error) {
	f.ffmpegPath = ffmpegPath
	f.canvas = canvas
	return f.muxer, nil
}

// testEnvFixture bundles an Env with its mocks and captured output.
type testEnvFixture struct {
	env         *Env
	stdout      *bytes.Buffer
	stderr      *bytes.Buffer
	envVars     map[string]string
	transcriber *stubTranscriber
	muxer       *stubMuxer
	muxFactory  *stubMuxerFactory
}

func testSegments() []segment.Segment {
	return []segment.Segment{
		{Start: 0, End: 2, Text: "a red balloon rises."},
		{Start: 2, End: 5, Text: "it drifts over the sea."},
	}
}

// newTestEnv builds an Env where every collaborator is mocked and all
// credentials are present.
func newTestEnv() *testEnvFixture {
	f := &testEnvFixture{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		envVars: map[string]string{
			EnvGroqAPIKey: "gsk_test",
			EnvHFToken:    "hf_test",
		},
		transcriber: &stubTranscriber{
			transcript: transcribe.Transcript{
				Text:     "a red balloon rises. it drifts over the sea.",
				Language: "en",
				Duration: 5,
				Segments: testSegments(),
			},
		},
		muxer: &stubMuxer{},
	}
	f.muxFactory = &stubMuxerFactory{muxer: f.muxer}

	f.env = NewEnv(
		WithStdout(f.stdout),
		WithStderr(f.stderr),
		WithGetenv(func(key string) string { return f.envVars[key] }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithFFmpegResolver(&mockFFmpegResolver{path: "/usr/bin/ffmpeg"}),
		WithConfigLoader(&mockConfigLoader{cfg: config.Config{
			Canvas:      compose.DefaultCanvas(),
			MaxParallel: 2,
		}}),
		WithTranscriberFactory(&stubTranscriberFactory{transcriber: f.transcriber}),
		WithTranslatorFactory(&stubTranslatorFactory{translator: &stubTranslator{output: "Already in English"}}),
		WithPrompterFactory(stubPrompterFactory{}),
		WithImageGenFactory(stubImageGenFactory{}),
		WithMuxerFactory(f.muxFactory),
	)
	return f
}
