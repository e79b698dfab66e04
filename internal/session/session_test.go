package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCreate(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())

	s, err := store.Create("narration.mp3")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if s.ID == "" {
		t.Error("Create() returned empty session id")
	}
	if s.AudioPath != "narration.mp3" {
		t.Errorf("AudioPath = %q, want %q", s.AudioPath, "narration.mp3")
	}
	if s.Stage != StageUploaded {
		t.Errorf("Stage = %v, want %v", s.Stage, StageUploaded)
	}
	if _, err := os.Stat(s.ImagesDir()); err != nil {
		t.Errorf("images dir not created: %v", err)
	}

	got, err := store.Get(s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != s {
		t.Error("Get() returned a different state")
	}
}

func TestCreateUniqueWorkDirs(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())

	a, err := store.Create("a.mp3")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	b, err := store.Create("b.mp3")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if a.WorkDir == b.WorkDir {
		t.Errorf("sessions share work dir %q", a.WorkDir)
	}
}

func TestGetUnknown(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())

	if _, err := store.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestAdvance(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	s, err := store.Create("narration.mp3")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err = store.Advance(s.ID, StageTranscribed, func(st *State) error {
		st.Transcript.Text = "hello"
		return nil
	})
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}

	if s.Stage != StageTranscribed {
		t.Errorf("Stage = %v, want %v", s.Stage, StageTranscribed)
	}
	if s.Transcript.Text != "hello" {
		t.Errorf("Transcript.Text = %q, want %q", s.Transcript.Text, "hello")
	}
}

func TestAdvanceIdempotent(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	s, err := store.Create("narration.mp3")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	advance := func() error {
		return store.Advance(s.ID, StageTranscribed, func(st *State) error {
			st.Transcript.Text += "x"
			return nil
		})
	}
	if err := advance(); err != nil {
		t.Fatalf("first Advance() error = %v", err)
	}
	if err := advance(); err != nil {
		t.Fatalf("second Advance() error = %v", err)
	}

	if s.Transcript.Text != "x" {
		t.Errorf("apply ran again on a completed stage: Transcript.Text = %q", s.Transcript.Text)
	}
}

func TestAdvanceSkippedStage(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	s, err := store.Create("narration.mp3")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err = store.Advance(s.ID, StageTranslated, func(*State) error { return nil })
	if !errors.Is(err, ErrStageOrder) {
		t.Errorf("Advance() error = %v, want ErrStageOrder", err)
	}
	if s.Stage != StageUploaded {
		t.Errorf("Stage = %v after failed advance, want %v", s.Stage, StageUploaded)
	}
}

func TestAdvanceApplyFailureKeepsStage(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	s, err := store.Create("narration.mp3")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	boom := errors.New("boom")
	err = store.Advance(s.ID, StageTranscribed, func(*State) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("Advance() error = %v, want boom", err)
	}
	if s.Stage != StageUploaded {
		t.Errorf("Stage = %v after apply failure, want %v", s.Stage, StageUploaded)
	}

	// The stage is retryable after the failure.
	err = store.Advance(s.ID, StageTranscribed, func(*State) error { return nil })
	if err != nil {
		t.Fatalf("retry Advance() error = %v", err)
	}
	if s.Stage != StageTranscribed {
		t.Errorf("Stage = %v after retry, want %v", s.Stage, StageTranscribed)
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	s, err := store.Create("narration.mp3")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	marker := filepath.Join(s.WorkDir, "marker")
	if err := os.WriteFile(marker, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := store.Remove(s.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(s.WorkDir); !os.IsNotExist(err) {
		t.Errorf("work dir still exists after Remove()")
	}
	if _, err := store.Get(s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Remove() error = %v, want ErrNotFound", err)
	}
}

func TestStageString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		stage Stage
		want  string
	}{
		{StageUploaded, "uploaded"},
		{StageTranscribed, "transcribed"},
		{StageTranslated, "translated"},
		{StagePromptsGenerated, "prompts-generated"},
		{StageImagesGenerated, "images-generated"},
		{StageVideoAssembled, "video-assembled"},
		{Stage(42), "stage(42)"},
	}

	for _, tt := range tests {
		if got := tt.stage.String(); got != tt.want {
			t.Errorf("Stage(%d).String() = %q, want %q", int(tt.stage), got, tt.want)
		}
	}
}
