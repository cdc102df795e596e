package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"icecale/internal/fileutil"
	"icecale/internal/logging"
	"icecale/internal/media/ffprobe"
	"icecale/internal/services"
	"icecale/internal/services/ffmpeg"
	"icecale/internal/services/realesrgan"
	"icecale/internal/stage"
	"icecale/internal/staging"
	"icecale/internal/toolexec"
)

// Prober reads video stream metadata.
type Prober interface {
	Probe(ctx context.Context, input string) (ffprobe.Metadata, error)
}

// MediaTool extracts from and assembles video files.
type MediaTool interface {
	ExtractAudio(ctx context.Context, input, output string) (toolexec.Result, error)
	ExtractFrames(ctx context.Context, input, dir string) error
	Assemble(ctx context.Context, req ffmpeg.AssembleRequest) error
}

// ExtractAudio copies the audio stream of input into output and reports
// whether usable audio was produced. A failing extraction means the source
// has no audio track; it is not an error. Only a tool that cannot be run
// fails.
func ExtractAudio(ctx context.Context, media MediaTool, input, output string) (bool, toolexec.Result, error) {
	result, err := media.ExtractAudio(ctx, input, output)
	if err != nil {
		return false, result, err
	}
	if !result.Success() {
		_ = os.Remove(output)
		return false, result, nil
	}
	return fileutil.NonEmptyFile(output), result, nil
}

// ExtractFrames ensures dir and writes every frame of input into it.
func ExtractFrames(ctx context.Context, media MediaTool, input, dir string) error {
	if err := staging.EnsureDirectory(dir); err != nil {
		return err
	}
	return media.ExtractFrames(ctx, input, dir)
}

type loggerHolder struct {
	logger *slog.Logger
}

func (h *loggerHolder) SetLogger(logger *slog.Logger) {
	h.logger = logger
}

func (h *loggerHolder) log() *slog.Logger {
	if h.logger == nil {
		return logging.NewNop()
	}
	return h.logger
}

type probeStage struct {
	loggerHolder
	prober Prober
}

func (s *probeStage) Prepare(context.Context, *stage.Job) error { return nil }

func (s *probeStage) Execute(ctx context.Context, job *stage.Job) error {
	meta, err := s.prober.Probe(ctx, job.InputPath)
	if err != nil {
		return err
	}
	job.Metadata = meta
	s.log().Info("probed input video",
		logging.String(logging.FieldEventType, "probe_complete"),
		logging.String("resolution", fmt.Sprintf("%dx%d", meta.Width, meta.Height)),
		logging.String("fps", meta.FrameRateLabel()),
		logging.Int64("frames", meta.TotalFrames),
		logging.Float64("duration_seconds", meta.DurationSeconds),
	)
	return nil
}

func (s *probeStage) HealthCheck(context.Context) stage.Health {
	if s.prober == nil {
		return stage.Unhealthy("probe", "prober not configured")
	}
	return stage.Healthy("probe")
}

type audioStage struct {
	loggerHolder
	media MediaTool
}

func (s *audioStage) Prepare(_ context.Context, job *stage.Job) error {
	return staging.EnsureDirectory(job.Workspace.Root)
}

func (s *audioStage) Execute(ctx context.Context, job *stage.Job) error {
	hasAudio, result, err := ExtractAudio(ctx, s.media, job.InputPath, job.Workspace.AudioFile)
	if err != nil {
		return err
	}
	job.HasAudio = hasAudio
	if hasAudio {
		s.log().Info("audio extracted",
			logging.String(logging.FieldEventType, "audio_extracted"),
			logging.String("path", job.Workspace.AudioFile),
		)
		return nil
	}
	s.log().Info("no audio track was extracted; audio will be omitted in the final render",
		logging.String(logging.FieldEventType, "audio_absent"),
		logging.Int("exit_code", result.ExitCode),
	)
	s.log().Debug("audio extraction output", logging.String("output", result.Output))
	return nil
}

func (s *audioStage) HealthCheck(context.Context) stage.Health {
	if s.media == nil {
		return stage.Unhealthy("extract audio", "ffmpeg not configured")
	}
	return stage.Healthy("extract audio")
}

type framesStage struct {
	loggerHolder
	media MediaTool
}

func (s *framesStage) Prepare(_ context.Context, job *stage.Job) error {
	return staging.EnsureDirectory(job.Workspace.RawFramesDir)
}

func (s *framesStage) Execute(ctx context.Context, job *stage.Job) error {
	if err := ExtractFrames(ctx, s.media, job.InputPath, job.Workspace.RawFramesDir); err != nil {
		return err
	}
	frames, err := ListFrames(job.Workspace.RawFramesDir)
	if err != nil {
		return services.Wrap(services.ErrExtraction, "extract frames", "count frames", "", err)
	}
	job.ExtractedCount = len(frames)
	s.log().Info("frames extracted",
		logging.String(logging.FieldEventType, "frames_extracted"),
		logging.Int("frames", len(frames)),
		logging.Int64("probed_frames", job.Metadata.TotalFrames),
	)
	return nil
}

func (s *framesStage) HealthCheck(context.Context) stage.Health {
	if s.media == nil {
		return stage.Unhealthy("extract frames", "ffmpeg not configured")
	}
	return stage.Healthy("extract frames")
}

type upscaleStage struct {
	loggerHolder
	upscaler realesrgan.Upscaler
	workers  int
	progress ProgressFunc
	onUpdate func(context.Context, *stage.Job)
}

func (s *upscaleStage) Prepare(_ context.Context, job *stage.Job) error {
	return staging.EnsureDirectory(job.Workspace.UpscaledFramesDir)
}

func (s *upscaleStage) Execute(ctx context.Context, job *stage.Job) error {
	sampler := logging.NewProgressSampler(5)
	count, err := UpscaleFrames(ctx, UpscaleOptions{
		InputDir:      job.Workspace.RawFramesDir,
		OutputDir:     job.Workspace.UpscaledFramesDir,
		ExpectedTotal: job.Metadata.TotalFrames,
		Workers:       s.workers,
		Upscaler:      s.upscaler,
		Progress: func(completed, total int) {
			job.UpscaledCount = completed
			percent := float64(completed) / float64(total) * 100
			job.SetProgress(percent, fmt.Sprintf("%d/%d frames", completed, total))
			if s.progress != nil {
				s.progress(completed, total)
			}
			if sampler.ShouldLog(percent, "upscale") {
				s.log().Info("upscale progress",
					logging.String(logging.FieldEventType, "upscale_progress"),
					logging.Int("completed", completed),
					logging.Int("total", total),
					logging.Float64("percent", percent),
				)
				if s.onUpdate != nil {
					s.onUpdate(ctx, job)
				}
			}
		},
	})
	job.UpscaledCount = count
	return err
}

func (s *upscaleStage) HealthCheck(context.Context) stage.Health {
	if s.upscaler == nil {
		return stage.Unhealthy("upscale", "upscaler not configured")
	}
	return stage.Healthy("upscale")
}

type assembleStage struct {
	loggerHolder
	media   MediaTool
	scale   int
	maxW    int
	maxH    int
	publish func(src, dst string) error
}

func (s *assembleStage) Prepare(_ context.Context, job *stage.Job) error {
	if job.UpscaledCount == 0 {
		return services.Wrap(services.ErrAssembly, "assemble", "", "no upscaled frames to assemble", nil)
	}
	return nil
}

func (s *assembleStage) Execute(ctx context.Context, job *stage.Job) error {
	ws := job.Workspace
	err := s.media.Assemble(ctx, ffmpeg.AssembleRequest{
		FramesDir:  ws.UpscaledFramesDir,
		AudioFile:  ws.AudioFile,
		OutputPath: ws.OutputFile,
		FrameRate:  job.Metadata.FPSText,
		HasAudio:   job.HasAudio,
	})
	if err != nil {
		return err
	}
	if err := s.publish(ws.OutputFile, job.OutputPath); err != nil {
		return services.Wrap(services.ErrAssembly, "assemble", "publish output", job.OutputPath, err)
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "assembly_complete"),
		logging.String("output", job.OutputPath),
		logging.Bool("audio", job.HasAudio),
	}
	if job.Metadata.Width > 0 && job.Metadata.Height > 0 {
		scale := max(s.scale, 1)
		w, h := ffmpeg.FitDimensions(job.Metadata.Width*scale, job.Metadata.Height*scale, s.maxW, s.maxH)
		attrs = append(attrs, logging.String("resolution", fmt.Sprintf("%dx%d", w, h)))
	}
	s.log().Info("video assembled", logging.Args(attrs...)...)
	return nil
}

func (s *assembleStage) HealthCheck(context.Context) stage.Health {
	if s.media == nil {
		return stage.Unhealthy("assemble", "ffmpeg not configured")
	}
	return stage.Healthy("assemble")
}
