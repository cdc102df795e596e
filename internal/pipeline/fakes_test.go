package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"icecale/internal/media/ffprobe"
	"icecale/internal/services/ffmpeg"
	"icecale/internal/stage"
	"icecale/internal/toolexec"
)

type fakeProber struct {
	meta ffprobe.Metadata
	err  error
}

func (f fakeProber) Probe(context.Context, string) (ffprobe.Metadata, error) {
	return f.meta, f.err
}

type fakeMedia struct {
	frames       int
	audioExit    int
	audioBytes   int
	audioErr     error
	framesErr    error
	assembleErr  error
	assembleReqs []ffmpeg.AssembleRequest
}

func (f *fakeMedia) ExtractAudio(_ context.Context, _, output string) (toolexec.Result, error) {
	if f.audioErr != nil {
		return toolexec.Result{ExitCode: -1}, f.audioErr
	}
	if err := os.WriteFile(output, make([]byte, f.audioBytes), 0o644); err != nil {
		return toolexec.Result{}, err
	}
	return toolexec.Result{ExitCode: f.audioExit, Output: "Output file does not contain any stream"}, nil
}

func (f *fakeMedia) ExtractFrames(_ context.Context, _, dir string) error {
	if f.framesErr != nil {
		return f.framesErr
	}
	for i := 1; i <= f.frames; i++ {
		name := filepath.Join(dir, fmt.Sprintf("frame_%08d.png", i))
		if err := os.WriteFile(name, []byte("raw"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeMedia) Assemble(_ context.Context, req ffmpeg.AssembleRequest) error {
	f.assembleReqs = append(f.assembleReqs, req)
	if f.assembleErr != nil {
		return f.assembleErr
	}
	return os.WriteFile(req.OutputPath, []byte("video"), 0o644)
}

type fakeUpscaler struct {
	mu     sync.Mutex
	calls  []string
	failOn map[string]bool
}

func (f *fakeUpscaler) UpscaleFrame(_ context.Context, input, output string) error {
	name := filepath.Base(input)
	f.mu.Lock()
	f.calls = append(f.calls, name)
	fail := f.failOn[name]
	f.mu.Unlock()
	if fail {
		return fmt.Errorf("Real-ESRGAN failed on frame %s", input)
	}
	return os.WriteFile(output, []byte("upscaled"), 0o644)
}

func (f *fakeUpscaler) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type memoryRecorder struct {
	started  int
	statuses []stage.Status
}

func (m *memoryRecorder) Start(context.Context, *stage.Job) error {
	m.started++
	return nil
}

func (m *memoryRecorder) Update(_ context.Context, job *stage.Job) error {
	m.statuses = append(m.statuses, job.Status)
	return nil
}

func writeFrames(t testing.TB, dir string, n int) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for i := 1; i <= n; i++ {
		name := filepath.Join(dir, fmt.Sprintf("frame_%08d.png", i))
		if err := os.WriteFile(name, []byte("raw"), 0o644); err != nil {
			t.Fatalf("write frame: %v", err)
		}
	}
}
