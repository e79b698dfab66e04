package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/go-slidecast/internal/format"
	"github.com/alnah/go-slidecast/internal/transcribe"
)

// TranscribeCmd creates the transcribe command.
// The env parameter provides injectable dependencies for testing.
func TranscribeCmd(env *Env) *cobra.Command {
	var (
		language string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe an audio file to text",
		Long: `Transcribe an audio file to time-stamped text segments.

Prints the plain transcript to stdout, or with --json the full segment list
(start, end, text) suitable as input to the render command.

Supported formats: ` + supportedFormatsList(),
		Example: `  slidecast transcribe narration.mp3
  slidecast transcribe narration.mp3 --json > segments.json
  slidecast transcribe interview.wav -l fr`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd, env, args[0], language, asJSON)
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "Audio language hint (ISO 639-1 code, e.g., en, fr)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print segments as JSON")

	return cmd
}

func runTranscribe(cmd *cobra.Command, env *Env, inputPath, language string, asJSON bool) error {
	ctx := cmd.Context()

	if err := validateAudioInput(inputPath); err != nil {
		return err
	}

	groqKey := env.Getenv(EnvGroqAPIKey)
	if groqKey == "" {
		return fmt.Errorf("%w (set it with: export %s=gsk_...)", ErrGroqKeyMissing, EnvGroqAPIKey)
	}

	transcriber := env.TranscriberFactory.NewTranscriber(groqKey)

	fmt.Fprintln(env.Stderr, "Transcribing...")
	transcript, err := transcriber.Transcribe(ctx, inputPath, transcribe.Options{Language: language})
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(transcript.Segments)
	}

	fmt.Fprintf(env.Stderr, "Language: %s, duration: %s, %d segments\n",
		transcript.Language, format.Duration(time.Duration(transcript.Duration*float64(time.Second))),
		len(transcript.Segments))
	fmt.Fprintln(env.Stdout, transcript.Text)
	return nil
}
