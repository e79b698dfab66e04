// Package ffmpeg locates and runs the ffmpeg binary used for probing audio
// and encoding the final video. ffmpeg is treated as an external tool: it is
// resolved once at startup, and all media work goes through its CLI.
package ffmpeg

import (
	"fmt"
	"os"
	"os/exec"
)

// EnvFFmpegPath overrides binary resolution, for non-standard installs.
const EnvFFmpegPath = "SLIDECAST_FFMPEG"

// Resolve returns the path to the ffmpeg binary.
// Resolution order: SLIDECAST_FFMPEG environment variable, then PATH lookup.
func Resolve() (string, error) {
	if p := os.Getenv(EnvFFmpegPath); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%s=%q: %w", EnvFFmpegPath, p, ErrNotFound)
		}
		return p, nil
	}

	p, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("install ffmpeg or set %s: %w", EnvFFmpegPath, ErrNotFound)
	}
	return p, nil
}
