package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/go-slidecast/internal/config"
	"github.com/alnah/go-slidecast/internal/format"
	"github.com/alnah/go-slidecast/internal/segment"
	"github.com/alnah/go-slidecast/internal/timeline"
)

// imageExtensions lists file extensions picked up from an images directory.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// RenderCmd creates the render command.
// The env parameter provides injectable dependencies for testing.
func RenderCmd(env *Env) *cobra.Command {
	var (
		output  string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "render <audio-file> <segments.json> <images-dir>",
		Short: "Assemble a video from segments and images",
		Long: `Assemble a slideshow video from time-stamped segments and pre-made images.

Segments come from a JSON file as produced by "transcribe --json". Images are
read from the directory in lexical order and matched to segments by position;
if there are fewer images than segments, the last image is reused.

No network services are called; only FFmpeg is required.`,
		Example: `  slidecast render narration.mp3 segments.json images/
  slidecast render narration.mp3 segments.json images/ -o story.mp4`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, env, args[0], args[1], args[2], output, verbose)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output video path (default: <audio>.mp4)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log assembly progress")

	return cmd
}

func runRender(cmd *cobra.Command, env *Env, audioPath, segmentsPath, imagesDir, output string, verbose bool) error {
	ctx := cmd.Context()

	if _, err := os.Stat(audioPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, audioPath)
		}
		return fmt.Errorf("cannot access audio file: %w", err)
	}

	segments, err := readSegments(segmentsPath)
	if err != nil {
		return err
	}

	images, err := listImages(imagesDir)
	if err != nil {
		return err
	}

	plan, err := timeline.Assemble(segments, images)
	if err != nil {
		return err
	}

	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
	}

	defaultOutput := deriveOutputPath(filepath.Base(audioPath))
	output = config.ResolveOutputPath(output, cfg.OutputDir, defaultOutput)

	ffmpegPath, err := env.FFmpegResolver.Resolve()
	if err != nil {
		return err
	}

	muxer, err := env.MuxerFactory.NewMuxer(ffmpegPath, cfg.Canvas, verboseLogger(env, verbose))
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Assembling %d clips from %d images...\n", len(plan.Clips), len(images))
	artifact, err := muxer.Mux(ctx, plan, audioPath, output)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Video written to %s (%s)\n",
		artifact.Path, format.Duration(time.Duration(artifact.Duration*float64(time.Second))))
	return nil
}

// readSegments loads a JSON segment list from a file.
func readSegments(path string) ([]segment.Segment, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided input path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("cannot read segments file: %w", err)
	}

	var segments []segment.Segment
	if err := json.Unmarshal(data, &segments); err != nil {
		return nil, fmt.Errorf("invalid segments file %s: %w", path, err)
	}
	return segments, nil
}

// listImages returns image paths from a directory in lexical order.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, dir)
		}
		return nil, fmt.Errorf("cannot read images directory: %w", err)
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			images = append(images, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(images)

	if len(images) == 0 {
		return nil, fmt.Errorf("%w in %s (want png or jpg)", ErrNoImagesFound, dir)
	}
	return images, nil
}
