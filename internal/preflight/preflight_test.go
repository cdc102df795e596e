package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"icecale/internal/config"
	"icecale/internal/services"
	"icecale/internal/toolexec"
)

// toolExecutor answers by binary base name.
type toolExecutor map[string]toolexec.Result

func (e toolExecutor) Run(_ context.Context, binary string, _ []string) (toolexec.Result, error) {
	result, ok := e[filepath.Base(binary)]
	if !ok {
		return toolexec.Result{}, errors.New("exec: not found")
	}
	return result, nil
}

func stubTools(t *testing.T, names ...string) string {
	t.Helper()
	base := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(base, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			t.Fatalf("write stub: %v", err)
		}
	}
	t.Setenv("PATH", "")
	return base
}

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("space", dir, 0); !result.Passed || !strings.Contains(result.Detail, "GiB free") {
		t.Fatalf("expected informational pass, got %+v", result)
	}
	if result := CheckFreeSpace("space", filepath.Join(dir, "not", "yet"), 0); !result.Passed {
		t.Fatalf("expected missing path to be checked through its parent, got %+v", result)
	}
	if result := CheckFreeSpace("space", dir, 1<<30); result.Passed {
		t.Fatalf("expected failure for an impossible minimum, got %+v", result)
	}
}

func TestCheckGPU(t *testing.T) {
	exec := toolExecutor{"nvidia-smi": {Output: "NVIDIA GeForce RTX 4090\nNVIDIA GeForce RTX 3060\n"}}
	result := CheckGPU(context.Background(), exec, "nvidia-smi")
	if !result.Passed || result.Detail != "NVIDIA GeForce RTX 4090" {
		t.Fatalf("unexpected GPU result %+v", result)
	}

	for name, exec := range map[string]toolExecutor{
		"missing binary": {},
		"non-zero exit":  {"nvidia-smi": {ExitCode: 9, Output: "NVIDIA-SMI has failed"}},
		"empty output":   {"nvidia-smi": {Output: "\n"}},
	} {
		if result := CheckGPU(context.Background(), exec, ""); result.Passed {
			t.Errorf("%s: expected failure, got %+v", name, result)
		}
	}
}

func TestCheckToolReportsVersion(t *testing.T) {
	base := stubTools(t, "ffmpeg")
	exec := toolExecutor{"ffmpeg": {Output: "ffmpeg version 7.1 Copyright (c)\nbuilt with gcc"}}
	result, path := CheckTool(context.Background(), exec, base, ToolSpec{Label: "FFmpeg", Name: "ffmpeg", VerifyFlag: "-version"})
	if !result.Passed {
		t.Fatalf("expected pass, got %+v", result)
	}
	if path != filepath.Join(base, "ffmpeg") || !strings.Contains(result.Detail, "ffmpeg version 7.1") {
		t.Fatalf("unexpected result %+v path %q", result, path)
	}
}

func TestCheckToolVerifyFailureKeepsPath(t *testing.T) {
	base := stubTools(t, "realesrgan-ncnn-vulkan")
	exec := toolExecutor{"realesrgan-ncnn-vulkan": {ExitCode: 1, Output: "error while loading shared libraries"}}
	result, path := CheckTool(context.Background(), exec, base, ToolSpec{Label: "Real-ESRGAN", Name: "realesrgan-ncnn-vulkan", VerifyFlag: "-h"})
	if result.Passed || path == "" {
		t.Fatalf("expected failure with resolved path, got %+v %q", result, path)
	}
	if !strings.Contains(result.Detail, "shared libraries") {
		t.Fatalf("expected tool output in detail, got %q", result.Detail)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	report := RunAll(context.Background(), nil, Options{})
	if report.Results != nil || report.Err() != nil {
		t.Fatal("expected empty report for nil config")
	}
}

func TestRunAllResolvesTools(t *testing.T) {
	base := stubTools(t, "ffmpeg", "ffprobe", "realesrgan-ncnn-vulkan")
	exec := toolExecutor{
		"ffmpeg":                 {Output: "ffmpeg version 7.1"},
		"ffprobe":                {Output: "ffprobe version 7.1"},
		"realesrgan-ncnn-vulkan": {Output: "Usage: realesrgan-ncnn-vulkan -i infile -o outfile"},
		"nvidia-smi":             {Output: "NVIDIA RTX A4000"},
	}
	cfg := config.Default()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Preflight.MinFreeGiB = 0

	report := RunAll(context.Background(), &cfg, Options{Executor: exec, BaseDir: base})
	if err := report.Err(); err != nil {
		t.Fatalf("expected all checks to pass: %v", err)
	}
	if len(report.Results) != 6 {
		t.Fatalf("expected GPU, 3 tools, directory, and space results, got %d", len(report.Results))
	}
	if report.Tools.Upscaler != filepath.Join(base, "realesrgan-ncnn-vulkan") {
		t.Fatalf("unexpected upscaler path %q", report.Tools.Upscaler)
	}
}

func TestRunAllSkipGPUAndFailures(t *testing.T) {
	base := stubTools(t, "ffmpeg", "ffprobe")
	exec := toolExecutor{
		"ffmpeg":  {Output: "ffmpeg version 7.1"},
		"ffprobe": {Output: "ffprobe version 7.1"},
	}
	cfg := config.Default()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Preflight.MinFreeGiB = 0

	report := RunAll(context.Background(), &cfg, Options{Executor: exec, BaseDir: base, SkipGPU: true})
	for _, result := range report.Results {
		if result.Name == "NVIDIA GPU" {
			t.Fatal("GPU check must be skipped")
		}
	}
	err := report.Err()
	if !errors.Is(err, services.ErrEnvironment) {
		t.Fatalf("expected environment failure for missing upscaler, got %v", err)
	}
	if !strings.Contains(err.Error(), "Real-ESRGAN") {
		t.Fatalf("expected failing check named in error: %v", err)
	}
	if len(report.Failures()) != 1 {
		t.Fatalf("expected exactly one failure, got %+v", report.Failures())
	}
}
