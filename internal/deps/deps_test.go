package deps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"icecale/internal/services"
	"icecale/internal/toolexec"
)

var okScript = []byte("#!/bin/sh\nexit 0\n")

func writeStub(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, okScript, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
}

func TestResolveToolPrefersProjectLocalCandidates(t *testing.T) {
	base := t.TempDir()
	pathDir := t.TempDir()
	writeStub(t, filepath.Join(pathDir, executableName(Upscaler)))
	local := filepath.Join(base, "third_party", Upscaler, executableName(Upscaler))
	writeStub(t, local)
	t.Setenv("PATH", pathDir)

	got, err := ResolveTool("", base, Upscaler)
	if err != nil {
		t.Fatalf("ResolveTool: %v", err)
	}
	if got != local {
		t.Fatalf("expected %q, got %q", local, got)
	}
}

func TestResolveToolCandidateOrder(t *testing.T) {
	base := t.TempDir()
	beside := filepath.Join(base, executableName(FFmpeg))
	inBin := filepath.Join(base, "bin", executableName(FFmpeg))
	writeStub(t, inBin)
	writeStub(t, beside)
	t.Setenv("PATH", "")

	got, err := ResolveTool(FFmpeg, base, FFmpeg)
	if err != nil {
		t.Fatalf("ResolveTool: %v", err)
	}
	if got != beside {
		t.Fatalf("expected binary beside executable %q, got %q", beside, got)
	}
}

func TestResolveToolFallsBackToPath(t *testing.T) {
	pathDir := t.TempDir()
	onPath := filepath.Join(pathDir, executableName(FFprobe))
	writeStub(t, onPath)
	t.Setenv("PATH", pathDir)

	got, err := ResolveTool("", t.TempDir(), FFprobe)
	if err != nil {
		t.Fatalf("ResolveTool: %v", err)
	}
	if got != onPath {
		t.Fatalf("expected PATH result %q, got %q", onPath, got)
	}
}

func TestResolveToolIgnoresNonExecutableCandidates(t *testing.T) {
	base := t.TempDir()
	if err := os.WriteFile(filepath.Join(base, FFmpeg), []byte("data"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("PATH", "")

	_, err := ResolveTool("", base, FFmpeg)
	if !errors.Is(err, services.ErrEnvironment) {
		t.Fatalf("expected environment failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "third_party") {
		t.Fatalf("expected searched locations in error, got %v", err)
	}
}

func TestResolveToolExplicitPath(t *testing.T) {
	explicit := filepath.Join(t.TempDir(), "custom-ffmpeg")
	writeStub(t, explicit)

	got, err := ResolveTool(explicit, "", FFmpeg)
	if err != nil || got != explicit {
		t.Fatalf("expected explicit path, got %q err=%v", got, err)
	}
	if _, err := ResolveTool(explicit+"-missing", "", FFmpeg); !errors.Is(err, services.ErrEnvironment) {
		t.Fatalf("expected environment failure for missing explicit path, got %v", err)
	}
}

type scriptedExecutor struct {
	result toolexec.Result
	err    error
	args   []string
}

func (s *scriptedExecutor) Run(_ context.Context, _ string, args []string) (toolexec.Result, error) {
	s.args = args
	return s.result, s.err
}

func TestVerifyTool(t *testing.T) {
	exec := &scriptedExecutor{result: toolexec.Result{Output: "ffmpeg version 7.1"}}
	if _, err := VerifyTool(context.Background(), exec, "/opt/ffmpeg", "-version"); err != nil {
		t.Fatalf("VerifyTool: %v", err)
	}
	if len(exec.args) != 1 || exec.args[0] != "-version" {
		t.Fatalf("unexpected args %v", exec.args)
	}

	exec = &scriptedExecutor{result: toolexec.Result{ExitCode: 127, Output: "vulkan loader missing"}}
	_, err := VerifyTool(context.Background(), exec, "/opt/realesrgan-ncnn-vulkan", "-h")
	if !errors.Is(err, services.ErrEnvironment) {
		t.Fatalf("expected environment failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "vulkan loader missing") {
		t.Fatalf("expected output in error, got %v", err)
	}

	exec = &scriptedExecutor{err: errors.New("exec: not found")}
	if _, err := VerifyTool(context.Background(), exec, "ffprobe", "-version"); !errors.Is(err, services.ErrEnvironment) {
		t.Fatalf("expected environment failure for start error, got %v", err)
	}
}
