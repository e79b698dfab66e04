package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/alnah/go-slidecast/internal/config"
)

// Config command tests use t.Setenv for XDG_CONFIG_HOME isolation, so they
// are not parallel.

func TestConfigSetAndGet(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	f := newTestEnv()
	outDir := t.TempDir()

	cmd := ConfigCmd(f.env)
	cmd.SetArgs([]string{"set", config.KeyOutputDir, outDir})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("config set error = %v", err)
	}

	cmd = ConfigCmd(f.env)
	cmd.SetArgs([]string{"get", config.KeyOutputDir})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("config get error = %v", err)
	}

	if got := strings.TrimSpace(f.stdout.String()); got != outDir {
		t.Errorf("config get output = %q, want %q", got, outDir)
	}
}

func TestConfigSetUnknownKey(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	f := newTestEnv()
	cmd := ConfigCmd(f.env)
	cmd.SetArgs([]string{"set", "bogus", "value"})

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Error("config set error = nil, want unknown key error")
	}
}

func TestConfigSetInvalidNumeric(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric width", config.KeyCanvasWidth, "wide"},
		{"zero height", config.KeyCanvasHeight, "0"},
		{"negative parallel", config.KeyMaxParallel, "-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestEnv()
			cmd := ConfigCmd(f.env)
			cmd.SetArgs([]string{"set", tt.key, tt.value})

			if err := cmd.ExecuteContext(context.Background()); err == nil {
				t.Error("config set error = nil, want validation error")
			}
		})
	}
}

func TestConfigGetEnvFallback(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	f := newTestEnv()
	f.envVars[config.EnvOutputDir] = "/env/videos"

	cmd := ConfigCmd(f.env)
	cmd.SetArgs([]string{"get", config.KeyOutputDir})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("config get error = %v", err)
	}

	if got := strings.TrimSpace(f.stdout.String()); got != "/env/videos" {
		t.Errorf("config get output = %q, want env fallback", got)
	}
}

func TestConfigList(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	f := newTestEnv()
	if err := config.Save(config.KeyCanvasWidth, "1920"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	f.envVars[config.EnvMaxParallel] = "2"

	cmd := ConfigCmd(f.env)
	cmd.SetArgs([]string{"list"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("config list error = %v", err)
	}

	out := f.stdout.String()
	if !strings.Contains(out, "canvas-width = 1920") {
		t.Errorf("list output missing file value: %q", out)
	}
	if !strings.Contains(out, "max-parallel = 2 (from env)") {
		t.Errorf("list output missing env value: %q", out)
	}
}
