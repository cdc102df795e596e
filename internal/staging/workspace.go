package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"icecale/internal/services"
)

const (
	// SessionPrefix marks directories owned by icecale inside work_dir.
	SessionPrefix = "session-"

	rawFramesDirName      = "frames_raw"
	upscaledFramesDirName = "frames_upscaled"
	audioFileName         = "audio.mka"
	lockFileName          = ".lock"
	defaultOutputName     = "output.mp4"
)

// Workspace is the directory layout of one pipeline run.
type Workspace struct {
	SessionID         string
	Root              string
	RawFramesDir      string
	UpscaledFramesDir string
	AudioFile         string
	OutputFile        string

	lock *flock.Flock
}

// NewSessionID returns a fresh random session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// NewWorkspace computes the layout for sessionID under baseDir without touching
// the filesystem. outputName is the file name the assembled video is written
// under before publishing; its extension selects the container.
func NewWorkspace(baseDir, sessionID, outputName string) *Workspace {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	outputName = filepath.Base(strings.TrimSpace(outputName))
	if outputName == "" || outputName == "." || outputName == string(filepath.Separator) {
		outputName = defaultOutputName
	}
	root := filepath.Join(baseDir, SessionPrefix+sessionID)
	return &Workspace{
		SessionID:         sessionID,
		Root:              root,
		RawFramesDir:      filepath.Join(root, rawFramesDirName),
		UpscaledFramesDir: filepath.Join(root, upscaledFramesDirName),
		AudioFile:         filepath.Join(root, audioFileName),
		OutputFile:        filepath.Join(root, outputName),
	}
}

// EnsureDirectory creates path and any missing parents. It succeeds when the
// directory already exists.
func EnsureDirectory(path string) error {
	if strings.TrimSpace(path) == "" {
		return services.Wrap(services.ErrWorkspace, "workspace", "ensure directory", "empty path", nil)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return services.Wrap(services.ErrWorkspace, "workspace", "ensure directory",
			fmt.Sprintf("failed to create directory %s", path), err)
	}
	return nil
}

// Create makes the session root and takes the session lock.
func (w *Workspace) Create() error {
	if err := EnsureDirectory(w.Root); err != nil {
		return err
	}
	lock := flock.New(filepath.Join(w.Root, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrWorkspace, "workspace", "lock session", w.Root, err)
	}
	if !ok {
		return services.Wrap(services.ErrWorkspace, "workspace", "lock session",
			fmt.Sprintf("session %s is in use by another process", w.SessionID), nil)
	}
	w.lock = lock
	return nil
}

// Locked reports whether this workspace currently holds its session lock.
func (w *Workspace) Locked() bool {
	return w.lock != nil && w.lock.Locked()
}

// Release drops the session lock. It is safe to call more than once.
func (w *Workspace) Release() error {
	if w.lock == nil {
		return nil
	}
	err := w.lock.Unlock()
	w.lock = nil
	if err != nil {
		return services.Wrap(services.ErrWorkspace, "workspace", "unlock session", w.Root, err)
	}
	return nil
}

// Remove releases the lock and deletes the whole session tree.
func (w *Workspace) Remove() error {
	if err := w.Release(); err != nil {
		return err
	}
	if err := os.RemoveAll(w.Root); err != nil {
		return services.Wrap(services.ErrWorkspace, "workspace", "remove session", w.Root, err)
	}
	return nil
}
