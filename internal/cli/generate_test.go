package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-slidecast/internal/transcribe"
)

// writeAudioFile creates a placeholder audio file for input validation.
func writeAudioFile(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte("audio"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return p
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	f := newTestEnv()
	audio := writeAudioFile(t, "narration.mp3")
	outPath := filepath.Join(t.TempDir(), "out.mp4")

	cmd := GenerateCmd(f.env)
	cmd.SetArgs([]string{audio, "-o", outPath})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("generate error = %v", err)
	}

	if f.muxer.calls != 1 {
		t.Fatalf("muxer called %d times, want 1", f.muxer.calls)
	}
	if f.muxer.outPath != outPath {
		t.Errorf("mux output = %q, want %q", f.muxer.outPath, outPath)
	}
	if f.muxer.audioPath != audio {
		t.Errorf("mux audio = %q, want %q", f.muxer.audioPath, audio)
	}
	if len(f.muxer.plan.Clips) != 2 {
		t.Errorf("plan has %d clips, want 2", len(f.muxer.plan.Clips))
	}
	if f.muxFactory.ffmpegPath != "/usr/bin/ffmpeg" {
		t.Errorf("muxer ffmpeg path = %q", f.muxFactory.ffmpegPath)
	}
	if !strings.Contains(f.stderr.String(), "Video written to") {
		t.Errorf("stderr missing completion message: %q", f.stderr.String())
	}
}

func TestGenerateDefaultOutput(t *testing.T) {
	t.Parallel()

	f := newTestEnv()
	audio := writeAudioFile(t, "story.mp3")

	cmd := GenerateCmd(f.env)
	cmd.SetArgs([]string{audio})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("generate error = %v", err)
	}

	if f.muxer.outPath != "story.mp4" {
		t.Errorf("mux output = %q, want %q", f.muxer.outPath, "story.mp4")
	}
}

func TestGenerateMissingFile(t *testing.T) {
	t.Parallel()

	f := newTestEnv()
	cmd := GenerateCmd(f.env)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing.mp3")})

	err := cmd.ExecuteContext(context.Background())
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("generate error = %v, want ErrFileNotFound", err)
	}
}

func TestGenerateUnsupportedFormat(t *testing.T) {
	t.Parallel()

	f := newTestEnv()
	audio := writeAudioFile(t, "notes.txt")

	cmd := GenerateCmd(f.env)
	cmd.SetArgs([]string{audio})

	err := cmd.ExecuteContext(context.Background())
	if !errors.Is(err, transcribe.ErrUnsupportedFormat) {
		t.Errorf("generate error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestGenerateMissingCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		unset   string
		wantErr error
	}{
		{"no groq key", EnvGroqAPIKey, ErrGroqKeyMissing},
		{"no hf token", EnvHFToken, ErrHFTokenMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newTestEnv()
			delete(f.envVars, tt.unset)
			audio := writeAudioFile(t, "narration.mp3")

			cmd := GenerateCmd(f.env)
			cmd.SetArgs([]string{audio})

			err := cmd.ExecuteContext(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("generate error = %v, want %v", err, tt.wantErr)
			}
			if f.muxer.calls != 0 {
				t.Errorf("muxer called despite missing credential")
			}
		})
	}
}

func TestGenerateFFmpegResolveFails(t *testing.T) {
	t.Parallel()

	f := newTestEnv()
	resolveErr := errors.New("ffmpeg not found in PATH")
	f.env.FFmpegResolver = &mockFFmpegResolver{err: resolveErr}
	audio := writeAudioFile(t, "narration.mp3")

	cmd := GenerateCmd(f.env)
	cmd.SetArgs([]string{audio})

	if err := cmd.ExecuteContext(context.Background()); !errors.Is(err, resolveErr) {
		t.Errorf("generate error = %v, want resolver error", err)
	}
}

func TestGenerateWrongArgCount(t *testing.T) {
	t.Parallel()

	f := newTestEnv()
	cmd := GenerateCmd(f.env)
	cmd.SetArgs([]string{})
	cmd.SetOut(f.stdout)
	cmd.SetErr(f.stderr)

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Error("generate with no args error = nil, want usage error")
	}
}

func TestDeriveOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"narration.mp3", "narration.mp4"},
		{"dir/story.wav", "dir/story.mp4"},
		{"noext", "noext.mp4"},
	}

	for _, tt := range tests {
		if got := deriveOutputPath(tt.input); got != tt.want {
			t.Errorf("deriveOutputPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestClampParallel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int
		want int
	}{
		{0, 1},
		{-3, 1},
		{1, 1},
		{4, 4},
		{10, 10},
		{99, 10},
	}

	for _, tt := range tests {
		if got := clampParallel(tt.in); got != tt.want {
			t.Errorf("clampParallel(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSupportedFormatsList(t *testing.T) {
	t.Parallel()

	got := supportedFormatsList()
	if got != "aac, flac, m4a, mp3, ogg, wav" {
		t.Errorf("supportedFormatsList() = %q", got)
	}
}
