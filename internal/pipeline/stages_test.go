package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"icecale/internal/services"
)

func TestExtractAudio(t *testing.T) {
	tests := []struct {
		name      string
		media     *fakeMedia
		wantAudio bool
		wantFile  bool
	}{
		{name: "audio present", media: &fakeMedia{audioBytes: 64}, wantAudio: true, wantFile: true},
		{name: "non-zero exit", media: &fakeMedia{audioExit: 1, audioBytes: 16}},
		{name: "empty output", media: &fakeMedia{}, wantFile: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "audio.mka")
			hasAudio, _, err := ExtractAudio(context.Background(), tt.media, "in.mp4", out)
			if err != nil {
				t.Fatalf("ExtractAudio: %v", err)
			}
			if hasAudio != tt.wantAudio {
				t.Fatalf("hasAudio = %v, want %v", hasAudio, tt.wantAudio)
			}
			_, statErr := os.Stat(out)
			if (statErr == nil) != tt.wantFile {
				t.Fatalf("audio file present = %v, want %v", statErr == nil, tt.wantFile)
			}
		})
	}
}

func TestExtractAudioStartFailure(t *testing.T) {
	startErr := services.Wrap(services.ErrEnvironment, "extract audio", "", "ffmpeg not runnable", errors.New("exec: not found"))
	_, _, err := ExtractAudio(context.Background(), &fakeMedia{audioErr: startErr}, "in.mp4", filepath.Join(t.TempDir(), "a.mka"))
	if !errors.Is(err, services.ErrEnvironment) {
		t.Fatalf("expected ErrEnvironment, got %v", err)
	}
}

func TestExtractFramesCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "frames")
	if err := ExtractFrames(context.Background(), &fakeMedia{frames: 2}, "in.mp4", dir); err != nil {
		t.Fatalf("ExtractFrames: %v", err)
	}
	frames, err := ListFrames(dir)
	if err != nil || len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d (%v)", len(frames), err)
	}
}
