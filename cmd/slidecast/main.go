package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/go-slidecast/internal/apierr"
	"github.com/alnah/go-slidecast/internal/cli"
	"github.com/alnah/go-slidecast/internal/compose"
	"github.com/alnah/go-slidecast/internal/ffmpeg"
	"github.com/alnah/go-slidecast/internal/segment"
	"github.com/alnah/go-slidecast/internal/session"
	"github.com/alnah/go-slidecast/internal/timeline"
	"github.com/alnah/go-slidecast/internal/transcribe"
	"github.com/alnah/go-slidecast/internal/video"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitAPI        = 5
	ExitEncode     = 6
	ExitInterrupt  = 130
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// Context with signal cancellation.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Create the CLI environment with production defaults.
	env := cli.DefaultEnv()

	// Root command.
	rootCmd := &cobra.Command{
		Use:     "slidecast",
		Short:   "Turn audio narrations into captioned slideshow videos",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Subcommands.
	rootCmd.AddCommand(cli.GenerateCmd(env))
	rootCmd.AddCommand(cli.TranscribeCmd(env))
	rootCmd.AddCommand(cli.RenderCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	// Check for context cancellation (interrupt).
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	// Usage errors: Cobra flag/arg parsing errors.
	if isCobraUsageError(err) {
		return ExitUsage
	}

	// Setup errors.
	if errors.Is(err, ffmpeg.ErrNotFound) || errors.Is(err, cli.ErrGroqKeyMissing) ||
		errors.Is(err, cli.ErrHFTokenMissing) {
		return ExitSetup
	}

	// Validation errors.
	if errors.Is(err, cli.ErrFileNotFound) || errors.Is(err, cli.ErrNoImagesFound) ||
		errors.Is(err, transcribe.ErrUnsupportedFormat) || errors.Is(err, segment.ErrEmpty) ||
		errors.Is(err, segment.ErrInvalidSpan) || errors.Is(err, segment.ErrNonMonotonic) ||
		errors.Is(err, timeline.ErrNoImages) || errors.Is(err, compose.ErrInvalidCanvas) ||
		errors.Is(err, session.ErrStageOrder) {
		return ExitValidation
	}

	// External service errors.
	if errors.Is(err, apierr.ErrRateLimit) || errors.Is(err, apierr.ErrQuotaExceeded) ||
		errors.Is(err, apierr.ErrTimeout) || errors.Is(err, apierr.ErrAuthFailed) ||
		errors.Is(err, apierr.ErrBadRequest) || errors.Is(err, apierr.ErrBadResponse) {
		return ExitAPI
	}

	// Encoding errors.
	if errors.Is(err, video.ErrEncodeFailed) || errors.Is(err, ffmpeg.ErrProbeFailed) ||
		errors.Is(err, ffmpeg.ErrTimeout) || errors.Is(err, compose.ErrEmptyImage) {
		return ExitEncode
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",
	"unknown flag",
	"unknown shorthand",
	"flag needs an argument",
	"invalid argument",
	"if any flags in the group",
	"accepts ",
	"requires at least",
	"requires at most",
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
