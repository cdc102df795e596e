package toolexec_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"icecale/internal/toolexec"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tool")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestRunCapturesCombinedOutput(t *testing.T) {
	tool := writeScript(t, "echo out\necho err 1>&2\nexit 0\n")
	result, err := toolexec.NewExecutor().Run(context.Background(), tool, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.Success() {
		t.Fatalf("expected success, got %d", result.ExitCode)
	}
	if !strings.Contains(result.Output, "out") || !strings.Contains(result.Output, "err") {
		t.Fatalf("expected both streams captured, got %q", result.Output)
	}
	if result.FirstLine() != "out" {
		t.Fatalf("unexpected first line %q", result.FirstLine())
	}
}

func TestRunReportsNonZeroExitWithoutError(t *testing.T) {
	tool := writeScript(t, "echo 'Output file #0 does not contain any stream'\nexit 3\n")
	result, err := toolexec.NewExecutor().Run(context.Background(), tool, nil)
	if err != nil {
		t.Fatalf("non-zero exit should not be an executor error: %v", err)
	}
	if result.ExitCode != 3 {
		t.Fatalf("expected exit 3, got %d", result.ExitCode)
	}
	if !strings.Contains(result.Output, "does not contain any stream") {
		t.Fatalf("expected output retained, got %q", result.Output)
	}
}

func TestRunPassesArgumentsVerbatim(t *testing.T) {
	tool := writeScript(t, "for a in \"$@\"; do echo \"[$a]\"; done\n")
	args := []string{"-i", "my video; rm -rf $HOME.mp4", "it's"}
	result, err := toolexec.NewExecutor().Run(context.Background(), tool, args)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	want := "[-i]\n[my video; rm -rf $HOME.mp4]\n[it's]\n"
	if result.Output != want {
		t.Fatalf("args were altered: got %q want %q", result.Output, want)
	}
}

func TestRunMissingBinaryIsError(t *testing.T) {
	_, err := toolexec.NewExecutor().Run(context.Background(), filepath.Join(t.TempDir(), "absent"), nil)
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestCommandLineQuotesSpecialArguments(t *testing.T) {
	got := toolexec.CommandLine("ffmpeg", []string{"-i", "a b.mp4", "-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2"})
	want := "ffmpeg -i 'a b.mp4' -vf 'scale=trunc(iw/2)*2:trunc(ih/2)*2'"
	if got != want {
		t.Fatalf("CommandLine = %q, want %q", got, want)
	}
}
