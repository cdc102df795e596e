package ffmpeg

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"icecale/internal/services"
	"icecale/internal/toolexec"
)

type recordingExecutor struct {
	calls  [][]string
	result toolexec.Result
	err    error
}

func (r *recordingExecutor) Run(_ context.Context, binary string, args []string) (toolexec.Result, error) {
	r.calls = append(r.calls, append([]string{binary}, args...))
	return r.result, r.err
}

func newClient(t *testing.T, exec toolexec.Executor, opts ...Option) *Client {
	t.Helper()
	client, err := New("ffmpeg", append([]Option{WithExecutor(exec)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestScaleFilterText(t *testing.T) {
	want := "scale='min(2560,iw)':'min(1440,ih)':force_original_aspect_ratio=decrease,scale=trunc(iw/2)*2:trunc(ih/2)*2"
	if got := ScaleFilter(2560, 1440); got != want {
		t.Fatalf("ScaleFilter = %q, want %q", got, want)
	}
}

func TestFitDimensions(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"height bound", 3000, 2000, 2160, 1440},
		{"width bound then even", 3000, 1000, 2560, 852},
		{"4x of 720p stays within 1440p", 5120, 2880, 2560, 1440},
		{"small input never upscaled", 640, 360, 640, 360},
		{"odd input truncated to even", 641, 361, 640, 360},
		{"portrait", 1440, 2560, 810, 1440},
		{"degenerate", 0, 100, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := FitDimensions(tt.w, tt.h, 2560, 1440)
			if w != tt.wantW || h != tt.wantH {
				t.Fatalf("FitDimensions(%d, %d) = %dx%d, want %dx%d", tt.w, tt.h, w, h, tt.wantW, tt.wantH)
			}
			if w%2 != 0 || h%2 != 0 {
				t.Fatalf("expected even output, got %dx%d", w, h)
			}
		})
	}
}

func TestExtractAudioNonZeroExitIsNotAnError(t *testing.T) {
	exec := &recordingExecutor{result: toolexec.Result{ExitCode: 1, Output: "Output file #0 does not contain any stream"}}
	client := newClient(t, exec)

	result, err := client.ExtractAudio(context.Background(), "/in.mp4", "/ws/audio.mka")
	if err != nil {
		t.Fatalf("ExtractAudio: %v", err)
	}
	if result.Success() {
		t.Fatal("expected non-zero result to be returned")
	}
	want := []string{"ffmpeg", "-y", "-i", "/in.mp4", "-vn", "-acodec", "copy", "/ws/audio.mka"}
	if !reflect.DeepEqual(exec.calls[0], want) {
		t.Fatalf("unexpected argv %v", exec.calls[0])
	}
}

func TestExtractAudioStartFailureIsEnvironment(t *testing.T) {
	client := newClient(t, &recordingExecutor{err: errors.New("exec: \"ffmpeg\": not found")})
	if _, err := client.ExtractAudio(context.Background(), "in", "out"); !errors.Is(err, services.ErrEnvironment) {
		t.Fatalf("expected environment failure, got %v", err)
	}
}

func TestExtractFrames(t *testing.T) {
	exec := &recordingExecutor{}
	client := newClient(t, exec)
	if err := client.ExtractFrames(context.Background(), "/in.mp4", "/ws/frames_raw"); err != nil {
		t.Fatalf("ExtractFrames: %v", err)
	}
	want := []string{"ffmpeg", "-y", "-i", "/in.mp4", "-vsync", "0", "/ws/frames_raw/frame_%08d.png"}
	if !reflect.DeepEqual(exec.calls[0], want) {
		t.Fatalf("unexpected argv %v", exec.calls[0])
	}

	exec.result = toolexec.Result{ExitCode: 1, Output: "Invalid data found when processing input"}
	err := client.ExtractFrames(context.Background(), "/in.mp4", "/ws/frames_raw")
	if !errors.Is(err, services.ErrExtraction) {
		t.Fatalf("expected extraction failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected tool output in error: %v", err)
	}
}

func TestAssembleArgsWithAudio(t *testing.T) {
	client := newClient(t, &recordingExecutor{})
	got := client.AssembleArgs(AssembleRequest{
		FramesDir:  "/ws/frames_upscaled",
		AudioFile:  "/ws/audio.mka",
		OutputPath: "/ws/out.mp4",
		FrameRate:  "30000/1001",
		HasAudio:   true,
	})
	want := []string{
		"-y", "-framerate", "30000/1001",
		"-i", "/ws/frames_upscaled/frame_%08d.png",
		"-i", "/ws/audio.mka", "-map", "0:v:0", "-map", "1:a:0",
		"-vf", ScaleFilter(2560, 1440),
		"-c:v", "h264_nvenc", "-preset", "p3", "-pix_fmt", "yuv420p",
		"-c:a", "copy",
		"/ws/out.mp4",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("AssembleArgs =\n%v\nwant\n%v", got, want)
	}
}

func TestAssembleArgsVideoOnlyDefaultsRate(t *testing.T) {
	client := newClient(t, &recordingExecutor{})
	got := strings.Join(client.AssembleArgs(AssembleRequest{
		FramesDir:  "/ws/frames_upscaled",
		AudioFile:  "/ws/audio.mka",
		OutputPath: "/ws/out.mp4",
	}), " ")
	if !strings.Contains(got, "-framerate 30 ") {
		t.Fatalf("expected default frame rate, got %s", got)
	}
	if strings.Contains(got, "audio.mka") || strings.Contains(got, "-c:a") || strings.Contains(got, "1:a:0") {
		t.Fatalf("expected video-only mapping, got %s", got)
	}
	if !strings.Contains(got, "-map 0:v:0") {
		t.Fatalf("expected explicit video map, got %s", got)
	}
}

func TestAssembleHonoursEncodeSettings(t *testing.T) {
	client := newClient(t, &recordingExecutor{}, WithEncodeSettings(EncodeSettings{
		MaxWidth:   1920,
		MaxHeight:  1080,
		VideoCodec: "libx264",
	}))
	got := strings.Join(client.AssembleArgs(AssembleRequest{FramesDir: "f", OutputPath: "o.mp4"}), " ")
	if !strings.Contains(got, "min(1920,iw)") || !strings.Contains(got, "-c:v libx264") {
		t.Fatalf("expected overridden settings, got %s", got)
	}
	if !strings.Contains(got, "-preset p3") {
		t.Fatalf("expected unset fields to keep defaults, got %s", got)
	}
	if enc := client.Encode(); enc.VideoCodec != "libx264" || enc.Preset != "p3" {
		t.Fatalf("Encode() = %+v", enc)
	}
}

func TestAssembleFailure(t *testing.T) {
	exec := &recordingExecutor{result: toolexec.Result{ExitCode: 1, Output: "No NVENC capable devices found"}}
	client := newClient(t, exec)
	err := client.Assemble(context.Background(), AssembleRequest{FramesDir: "f", OutputPath: "o.mp4"})
	if !errors.Is(err, services.ErrAssembly) {
		t.Fatalf("expected assembly failure, got %v", err)
	}
	var failure *services.ToolFailure
	if !errors.As(err, &failure) || failure.ExitCode != 1 {
		t.Fatalf("expected tool failure detail, got %v", err)
	}
	if !strings.HasPrefix(failure.Command, "ffmpeg -y -framerate 30 ") || !strings.HasSuffix(failure.Command, " o.mp4") {
		t.Fatalf("unexpected command line %q", failure.Command)
	}
	if err := client.Assemble(context.Background(), AssembleRequest{}); !errors.Is(err, services.ErrAssembly) {
		t.Fatalf("expected assembly failure for empty output, got %v", err)
	}
}
