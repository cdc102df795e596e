package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"icecale/internal/config"
	"icecale/internal/media/ffprobe"
	"icecale/internal/stage"
	"icecale/internal/staging"
)

func TestNarratorStageLines(t *testing.T) {
	cfg := config.Default()
	var buf bytes.Buffer
	n := newNarrator(&buf, &cfg, false)

	job := stage.NewJob("id", "in.mp4", "out.mp4", staging.NewWorkspace(t.TempDir(), "id", "out.mp4"))
	job.Metadata = ffprobe.Metadata{Width: 640, Height: 360, FPSText: "30000/1001", FPS: 30000.0 / 1001.0, TotalFrames: 300}

	n.OnStageStart("probe", job)
	n.OnStageDone("probe", job, time.Second)
	n.OnStageStart("extract audio", job)
	n.OnStageDone("extract audio", job, time.Second)
	n.OnStageStart("upscale", job)
	n.OnStageStart("assemble", job)

	out := buf.String()
	for _, want := range []string{
		"Probing input video...",
		"Resolution: 640x360, FPS: 30000/1001, Frames: 300",
		"No audio track was extracted (audio will be omitted in the final render).",
		"Upscaling with Real-ESRGAN (x4, capped to 1440p output)...",
		"Assembling final video with resolution capped at 1440p...",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestNarratorSamplesProgressWithoutTerminal(t *testing.T) {
	cfg := config.Default()
	var buf bytes.Buffer
	n := newNarrator(&buf, &cfg, false)

	for i := 1; i <= 100; i++ {
		n.progress(i, 100)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 11 {
		t.Fatalf("expected one line per 10%% bucket plus the first frame, got %d:\n%s", len(lines), buf.String())
	}
	if lines[len(lines)-1] != "Upscaling 100/100 (100.0%)" {
		t.Fatalf("unexpected final line %q", lines[len(lines)-1])
	}
}
