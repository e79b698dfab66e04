// Package session tracks per-narration pipeline progress. Each session owns
// a uuid-scoped scratch directory (so concurrent sessions never collide on
// temp files) and a state record with an explicit stage: every artifact the
// pipeline computes is kept, so a failed stage can be retried without
// redoing the stages before it.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/alnah/go-slidecast/internal/imagegen"
	"github.com/alnah/go-slidecast/internal/transcribe"
)

// Stage is the pipeline progress marker. Stages advance strictly in order
// and never regress.
type Stage int

const (
	StageUploaded Stage = iota
	StageTranscribed
	StageTranslated
	StagePromptsGenerated
	StageImagesGenerated
	StageVideoAssembled
)

// stageNames indexed by Stage.
var stageNames = [...]string{
	"uploaded",
	"transcribed",
	"translated",
	"prompts-generated",
	"images-generated",
	"video-assembled",
}

// String returns the stage name for logging.
func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// State is the per-session pipeline record. Fields are populated as stages
// complete; a field is meaningful only once Stage has passed the stage that
// produces it.
type State struct {
	ID        string
	AudioPath string
	WorkDir   string
	Stage     Stage

	Transcript    transcribe.Transcript
	Translation   string
	Prompts       []string
	Images        []imagegen.Image
	VideoPath     string
	VideoDuration float64
	VideoWidth    int
	VideoHeight   int
}

// ImagesDir returns the session directory for generated images.
func (s *State) ImagesDir() string {
	return filepath.Join(s.WorkDir, "images")
}

// Store is a session-keyed in-memory state store. Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	baseDir  string
	sessions map[string]*State
}

// NewStore creates a Store whose session scratch directories live under
// baseDir. Empty baseDir uses the OS temp directory.
func NewStore(baseDir string) *Store {
	if baseDir == "" {
		baseDir = filepath.Join(os.TempDir(), "slidecast")
	}
	return &Store{
		baseDir:  baseDir,
		sessions: make(map[string]*State),
	}
}

// Create starts a new session for an uploaded audio file: a fresh uuid, a
// session-unique scratch directory, and stage Uploaded.
func (st *Store) Create(audioPath string) (*State, error) {
	id := uuid.NewString()
	workDir := filepath.Join(st.baseDir, id)
	if err := os.MkdirAll(filepath.Join(workDir, "images"), 0o750); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	s := &State{
		ID:        id,
		AudioPath: audioPath,
		WorkDir:   workDir,
		Stage:     StageUploaded,
	}

	st.mu.Lock()
	st.sessions[id] = s
	st.mu.Unlock()

	return s, nil
}

// Get returns the session with the given id.
func (st *Store) Get(id string) (*State, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return s, nil
}

// Advance moves a session to the given stage by running apply under the
// store lock.
//
// Advancing is idempotent: a session already at or past the target stage is
// left untouched and apply is not run. Skipping a stage is an error; the
// pipeline resumes from the first incomplete stage instead of jumping
// ahead.
func (st *Store) Advance(id string, to Stage, apply func(*State) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}

	if s.Stage >= to {
		return nil // already done
	}
	if s.Stage != to-1 {
		return fmt.Errorf("session %s is %s, cannot advance to %s: %w",
			id, s.Stage, to, ErrStageOrder)
	}

	if err := apply(s); err != nil {
		return err
	}
	s.Stage = to
	return nil
}

// Remove drops a session and deletes its scratch directory.
func (st *Store) Remove(id string) error {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return os.RemoveAll(s.WorkDir)
}
