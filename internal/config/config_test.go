package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alnah/go-slidecast/internal/compose"
)

// Notes:
// - White-box testing (package config) to test internal parseFile function.
// - Uses t.TempDir() + t.Setenv("XDG_CONFIG_HOME") for I/O isolation.
// - Tests using t.Setenv are NOT parallel (incompatible with t.Parallel).
// - Pure functions (ResolveOutputPath, ExpandPath) use t.Parallel().

// writeConfigFile creates a config file in the given directory.
func writeConfigFile(t *testing.T, dir, content string) {
	t.Helper()
	configDir := filepath.Join(dir, "slidecast")
	if err := os.MkdirAll(configDir, 0750); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	configPath := filepath.Join(configDir, "config")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvOutputDir, "")
	t.Setenv(EnvMaxParallel, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.OutputDir != "" {
		t.Errorf("OutputDir = %q, want empty", cfg.OutputDir)
	}
	if cfg.Canvas != compose.DefaultCanvas() {
		t.Errorf("Canvas = %v, want default", cfg.Canvas)
	}
	if cfg.MaxParallel != 4 {
		t.Errorf("MaxParallel = %d, want 4", cfg.MaxParallel)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	writeConfigFile(t, dir, `
# slidecast config
output-dir = /videos
canvas-width = 1920
canvas-height = 1080
max-parallel = 2
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.OutputDir != "/videos" {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, "/videos")
	}
	if want := (compose.Canvas{Width: 1920, Height: 1080}); cfg.Canvas != want {
		t.Errorf("Canvas = %v, want %v", cfg.Canvas, want)
	}
	if cfg.MaxParallel != 2 {
		t.Errorf("MaxParallel = %d, want 2", cfg.MaxParallel)
	}
}

func TestLoadEnvFallback(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvOutputDir, "/env/videos")
	t.Setenv(EnvMaxParallel, "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.OutputDir != "/env/videos" {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, "/env/videos")
	}
	if cfg.MaxParallel != 8 {
		t.Errorf("MaxParallel = %d, want 8", cfg.MaxParallel)
	}
}

func TestLoadFilePrecedenceOverEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(EnvOutputDir, "/env/videos")
	writeConfigFile(t, dir, "output-dir=/file/videos\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutputDir != "/file/videos" {
		t.Errorf("OutputDir = %q, want config file to win over env", cfg.OutputDir)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"non-numeric width", "canvas-width = wide\n"},
		{"zero height", "canvas-height = 0\n"},
		{"negative parallel", "max-parallel = -1\n"},
		{"bad syntax", "canvas-width\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Setenv("XDG_CONFIG_HOME", dir)
			writeConfigFile(t, dir, tt.content)

			if _, err := Load(); err == nil {
				t.Error("Load() error = nil, want parse failure")
			}
		})
	}
}

func TestSaveAndGet(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if err := Save(KeyOutputDir, "/videos"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := Save(KeyCanvasWidth, "1920"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Get(KeyOutputDir)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "/videos" {
		t.Errorf("Get(%q) = %q, want %q", KeyOutputDir, got, "/videos")
	}

	// Saving one key preserves the other.
	if err := Save(KeyOutputDir, "/other"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err = Get(KeyCanvasWidth)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "1920" {
		t.Errorf("Get(%q) = %q after unrelated Save, want %q", KeyCanvasWidth, got, "1920")
	}
}

func TestGetMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	got, err := Get(KeyOutputDir)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "" {
		t.Errorf("Get() = %q, want empty for missing file", got)
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	writeConfigFile(t, dir, "output-dir=/videos\nmax-parallel=2\n")

	data, err := List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(data) != 2 || data[KeyOutputDir] != "/videos" || data[KeyMaxParallel] != "2" {
		t.Errorf("List() = %v", data)
	}
}

func TestResolveOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		output      string
		outputDir   string
		defaultName string
		want        string
	}{
		{"absolute path ignores outputDir", "/abs/out.mp4", "/videos", "slidecast.mp4", "/abs/out.mp4"},
		{"relative path joined with outputDir", "out.mp4", "/videos", "slidecast.mp4", "/videos/out.mp4"},
		{"relative path without outputDir", "out.mp4", "", "slidecast.mp4", "out.mp4"},
		{"default name in outputDir", "", "/videos", "slidecast.mp4", "/videos/slidecast.mp4"},
		{"default name in cwd", "", "", "slidecast.mp4", "slidecast.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ResolveOutputPath(tt.output, tt.outputDir, tt.defaultName)
			if got != tt.want {
				t.Errorf("ResolveOutputPath(%q, %q, %q) = %q, want %q",
					tt.output, tt.outputDir, tt.defaultName, got, tt.want)
			}
		})
	}
}

func TestValidOutputDir(t *testing.T) {
	t.Parallel()

	t.Run("existing directory", func(t *testing.T) {
		t.Parallel()
		if err := ValidOutputDir(t.TempDir()); err != nil {
			t.Errorf("ValidOutputDir() error = %v", err)
		}
	})

	t.Run("creates missing directory", func(t *testing.T) {
		t.Parallel()
		d := filepath.Join(t.TempDir(), "new", "nested")
		if err := ValidOutputDir(d); err != nil {
			t.Errorf("ValidOutputDir() error = %v", err)
		}
		if info, err := os.Stat(d); err != nil || !info.IsDir() {
			t.Errorf("directory not created: %v", err)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()
		if err := ValidOutputDir(""); err == nil {
			t.Error("ValidOutputDir(\"\") error = nil, want error")
		}
	})

	t.Run("path is a file", func(t *testing.T) {
		t.Parallel()
		f := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(f, []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		if err := ValidOutputDir(f); err == nil {
			t.Error("ValidOutputDir(file) error = nil, want error")
		}
	})
}

func TestIsValidKey(t *testing.T) {
	t.Parallel()

	for _, k := range Keys {
		if !IsValidKey(k) {
			t.Errorf("IsValidKey(%q) = false, want true", k)
		}
	}
	if IsValidKey("nope") {
		t.Error("IsValidKey(\"nope\") = true, want false")
	}
}
