package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"icecale/internal/services"
)

// Frame is one image of an extracted sequence.
type Frame struct {
	// Index is the 1-based position in name order.
	Index int
	Name  string
	Path  string
}

// ListFrames returns the regular files in dir ordered by name. Frame names
// are zero-padded, so name order is frame order.
func ListFrames(dir string) ([]Frame, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrUpscale, "upscale", "list frames", fmt.Sprintf("read %s", dir), err)
	}
	// os.ReadDir returns entries sorted by filename.
	frames := make([]Frame, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		frames = append(frames, Frame{
			Index: len(frames) + 1,
			Name:  entry.Name(),
			Path:  filepath.Join(dir, entry.Name()),
		})
	}
	return frames, nil
}
