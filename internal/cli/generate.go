package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/go-slidecast/internal/config"
	"github.com/alnah/go-slidecast/internal/format"
	"github.com/alnah/go-slidecast/internal/imagegen"
	"github.com/alnah/go-slidecast/internal/pipeline"
	"github.com/alnah/go-slidecast/internal/session"
	"github.com/alnah/go-slidecast/internal/transcribe"
)

// maxParallelLimit caps the --parallel flag.
const maxParallelLimit = 10

// supportedFormatsList returns a sorted, comma-separated list for error messages.
func supportedFormatsList() string {
	formats := make([]string, 0, len(transcribe.SupportedFormats))
	for ext := range transcribe.SupportedFormats {
		formats = append(formats, strings.TrimPrefix(ext, "."))
	}
	slices.Sort(formats)
	return strings.Join(formats, ", ")
}

// clampParallel constrains parallel request count to [1, maxParallelLimit].
func clampParallel(n int) int {
	if n < 1 {
		return 1
	}
	if n > maxParallelLimit {
		return maxParallelLimit
	}
	return n
}

// deriveOutputPath converts an audio file path to a video output path.
// Example: "narration.mp3" -> "narration.mp4"
func deriveOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + ".mp4"
}

// validateAudioInput checks that the input file exists and has a supported
// audio extension.
func validateAudioInput(inputPath string) error {
	if _, err := os.Stat(inputPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, inputPath)
		}
		return fmt.Errorf("cannot access input file: %w", err)
	}

	if !transcribe.IsSupportedFormat(inputPath) {
		ext := strings.ToLower(filepath.Ext(inputPath))
		return fmt.Errorf("unsupported format %q (supported: %s): %w",
			ext, supportedFormatsList(), transcribe.ErrUnsupportedFormat)
	}
	return nil
}

// verboseLogger returns env.Logger, or an Info-level logger on env.Stderr
// when verbose output was requested.
func verboseLogger(env *Env, verbose bool) *slog.Logger {
	if !verbose {
		return env.Logger
	}
	return slog.New(slog.NewTextHandler(env.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// GenerateCmd creates the generate command.
// The env parameter provides injectable dependencies for testing.
func GenerateCmd(env *Env) *cobra.Command {
	var (
		output   string
		parallel int
		keepWork bool
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "generate <audio-file>",
		Short: "Turn an audio narration into a slideshow video",
		Long: `Turn an audio narration into a slideshow video.

The audio is transcribed into time-stamped segments, each segment's text is
turned into an image prompt, one image is generated per segment, and the
images are assembled into a video that switches in lock-step with the speech,
muxed with the original audio track.

Supported formats: ` + supportedFormatsList(),
		Example: `  slidecast generate narration.mp3
  slidecast generate narration.mp3 -o story.mp4
  slidecast generate lecture.wav -p 2 --verbose`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, env, args[0], output, parallel, keepWork, verbose)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output video path (default: <input>.mp4)")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 0, "Max concurrent image requests (1-10, default from config)")
	cmd.Flags().BoolVar(&keepWork, "keep-workdir", false, "Keep the session scratch directory")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline progress")

	return cmd
}

// runGenerate executes the full narration-to-video pipeline.
// Validation order: file exists -> format -> output -> API keys -> ffmpeg
func runGenerate(cmd *cobra.Command, env *Env, inputPath, output string, parallel int, keepWork, verbose bool) error {
	ctx := cmd.Context()

	if err := validateAudioInput(inputPath); err != nil {
		return err
	}

	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
	}

	defaultOutput := deriveOutputPath(filepath.Base(inputPath))
	output = config.ResolveOutputPath(output, cfg.OutputDir, defaultOutput)

	groqKey := env.Getenv(EnvGroqAPIKey)
	if groqKey == "" {
		return fmt.Errorf("%w (set it with: export %s=gsk_...)", ErrGroqKeyMissing, EnvGroqAPIKey)
	}
	hfToken := env.Getenv(EnvHFToken)
	if hfToken == "" {
		return fmt.Errorf("%w (set it with: export %s=hf_...)", ErrHFTokenMissing, EnvHFToken)
	}

	if parallel == 0 {
		parallel = cfg.MaxParallel
	}
	if parallel == 0 {
		parallel = imagegen.MaxRecommendedParallel
	}
	parallel = clampParallel(parallel)

	ffmpegPath, err := env.FFmpegResolver.Resolve()
	if err != nil {
		return err
	}

	logger := verboseLogger(env, verbose)
	muxer, err := env.MuxerFactory.NewMuxer(ffmpegPath, cfg.Canvas, logger)
	if err != nil {
		return err
	}

	store := session.NewStore("")
	s, err := store.Create(inputPath)
	if err != nil {
		return err
	}
	if !keepWork {
		defer func() {
			if cleanupErr := store.Remove(s.ID); cleanupErr != nil {
				fmt.Fprintf(env.Stderr, "Warning: failed to cleanup session: %v\n", cleanupErr)
			}
		}()
	}

	runner := pipeline.NewRunner(
		store,
		env.TranscriberFactory.NewTranscriber(groqKey),
		env.TranslatorFactory.NewTranslator(hfToken),
		env.PrompterFactory.NewPrompter(hfToken),
		env.ImageGenFactory.NewImageGenerator(hfToken),
		muxer,
		pipeline.WithLogger(logger),
		pipeline.WithMaxParallel(parallel),
	)

	fmt.Fprintln(env.Stderr, "Generating slideshow video...")
	artifact, err := runner.Run(ctx, s.ID, output)
	if err != nil {
		if keepWork {
			fmt.Fprintf(env.Stderr, "Session kept at %s (stage: %s)\n", s.WorkDir, s.Stage)
		}
		return err
	}

	fmt.Fprintf(env.Stderr, "Video written to %s (%s)\n",
		artifact.Path, format.Duration(time.Duration(artifact.Duration*float64(time.Second))))
	return nil
}
