package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/alnah/go-slidecast/internal/compose"
	"github.com/alnah/go-slidecast/internal/config"
	"github.com/alnah/go-slidecast/internal/ffmpeg"
	"github.com/alnah/go-slidecast/internal/imagegen"
	"github.com/alnah/go-slidecast/internal/pipeline"
	"github.com/alnah/go-slidecast/internal/prompt"
	"github.com/alnah/go-slidecast/internal/transcribe"
	"github.com/alnah/go-slidecast/internal/translate"
	"github.com/alnah/go-slidecast/internal/video"
)

// Environment variable names for API credentials.
const (
	EnvGroqAPIKey = "GROQ_API_KEY"
	EnvHFToken    = "HF_TOKEN"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
type Env struct {
	// I/O and environment
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	Logger *slog.Logger

	// Factories for domain objects
	FFmpegResolver     FFmpegResolver
	ConfigLoader       ConfigLoader
	TranscriberFactory TranscriberFactory
	TranslatorFactory  TranslatorFactory
	PrompterFactory    PrompterFactory
	ImageGenFactory    ImageGenFactory
	MuxerFactory       MuxerFactory
}

// FFmpegResolver resolves the path to the FFmpeg binary.
type FFmpegResolver interface {
	Resolve() (string, error)
}

// ConfigLoader loads and provides access to configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// TranscriberFactory creates transcribers for audio-to-text conversion.
type TranscriberFactory interface {
	NewTranscriber(apiKey string) transcribe.Transcriber
}

// TranslatorFactory creates text translators.
type TranslatorFactory interface {
	NewTranslator(token string) pipeline.Translator
}

// PrompterFactory creates image-prompt generators.
type PrompterFactory interface {
	NewPrompter(token string) pipeline.PromptGenerator
}

// ImageGenFactory creates text-to-image generators.
type ImageGenFactory interface {
	NewImageGenerator(token string) imagegen.Generator
}

// MuxerFactory creates video muxers.
type MuxerFactory interface {
	NewMuxer(ffmpegPath string, canvas compose.Canvas, logger *slog.Logger) (pipeline.Muxer, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) { e.Stdout = w }
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) { e.Stderr = w }
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) { e.Getenv = fn }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EnvOption {
	return func(e *Env) { e.Logger = logger }
}

// WithFFmpegResolver sets the FFmpeg resolver.
func WithFFmpegResolver(r FFmpegResolver) EnvOption {
	return func(e *Env) { e.FFmpegResolver = r }
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) { e.ConfigLoader = l }
}

// WithTranscriberFactory sets the transcriber factory.
func WithTranscriberFactory(f TranscriberFactory) EnvOption {
	return func(e *Env) { e.TranscriberFactory = f }
}

// WithTranslatorFactory sets the translator factory.
func WithTranslatorFactory(f TranslatorFactory) EnvOption {
	return func(e *Env) { e.TranslatorFactory = f }
}

// WithPrompterFactory sets the prompt generator factory.
func WithPrompterFactory(f PrompterFactory) EnvOption {
	return func(e *Env) { e.PrompterFactory = f }
}

// WithImageGenFactory sets the image generator factory.
func WithImageGenFactory(f ImageGenFactory) EnvOption {
	return func(e *Env) { e.ImageGenFactory = f }
}

// WithMuxerFactory sets the muxer factory.
func WithMuxerFactory(f MuxerFactory) EnvOption {
	return func(e *Env) { e.MuxerFactory = f }
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:             os.Stdout,
		Stderr:             os.Stderr,
		Getenv:             os.Getenv,
		Logger:             slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
		FFmpegResolver:     &defaultFFmpegResolver{},
		ConfigLoader:       &defaultConfigLoader{},
		TranscriberFactory: &defaultTranscriberFactory{},
		TranslatorFactory:  &defaultTranslatorFactory{},
		PrompterFactory:    &defaultPrompterFactory{},
		ImageGenFactory:    &defaultImageGenFactory{},
		MuxerFactory:       &defaultMuxerFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

type defaultFFmpegResolver struct{}

func (defaultFFmpegResolver) Resolve() (string, error) {
	return ffmpeg.Resolve()
}

type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

type defaultTranscriberFactory struct{}

func (defaultTranscriberFactory) NewTranscriber(apiKey string) transcribe.Transcriber {
	return transcribe.NewGroqTranscriber(transcribe.NewGroqClient(apiKey))
}

type defaultTranslatorFactory struct{}

func (defaultTranslatorFactory) NewTranslator(token string) pipeline.Translator {
	return translate.NewHTTPTranslator(token)
}

type defaultPrompterFactory struct{}

func (defaultPrompterFactory) NewPrompter(token string) pipeline.PromptGenerator {
	return prompt.NewHTTPGenerator(token)
}

type defaultImageGenFactory struct{}

func (defaultImageGenFactory) NewImageGenerator(token string) imagegen.Generator {
	return imagegen.NewHTTPGenerator(token)
}

type defaultMuxerFactory struct{}

func (defaultMuxerFactory) NewMuxer(ffmpegPath string, canvas compose.Canvas, logger *slog.Logger) (pipeline.Muxer, error) {
	return video.NewMuxer(ffmpegPath, video.WithCanvas(canvas), video.WithLogger(logger))
}

// Compile-time interface verification.
var (
	_ FFmpegResolver     = (*defaultFFmpegResolver)(nil)
	_ ConfigLoader       = (*defaultConfigLoader)(nil)
	_ TranscriberFactory = (*defaultTranscriberFactory)(nil)
	_ TranslatorFactory  = (*defaultTranslatorFactory)(nil)
	_ PrompterFactory    = (*defaultPrompterFactory)(nil)
	_ ImageGenFactory    = (*defaultImageGenFactory)(nil)
	_ MuxerFactory       = (*defaultMuxerFactory)(nil)
)
