package pipeline

import (
	"log/slog"

	"icecale/internal/config"
	"icecale/internal/logging"
	"icecale/internal/media/ffprobe"
	"icecale/internal/preflight"
	"icecale/internal/services/ffmpeg"
	"icecale/internal/services/realesrgan"
	"icecale/internal/toolexec"
)

// FromConfig builds a pipeline that runs the resolved tools with the
// settings in cfg.
func FromConfig(cfg *config.Config, tools preflight.Tools, logger *slog.Logger, recorder Recorder, observer Observer, progress ProgressFunc) (*Pipeline, error) {
	exec := toolexec.NewExecutor()

	media, err := ffmpeg.New(tools.FFmpeg,
		ffmpeg.WithExecutor(exec),
		ffmpeg.WithEncodeSettings(ffmpeg.EncodeSettings{
			MaxWidth:         cfg.Assembly.MaxWidth,
			MaxHeight:        cfg.Assembly.MaxHeight,
			VideoCodec:       cfg.Assembly.VideoCodec,
			Preset:           cfg.Assembly.Preset,
			PixelFormat:      cfg.Assembly.PixelFormat,
			DefaultFrameRate: cfg.Assembly.DefaultFrameRate,
		}),
	)
	if err != nil {
		return nil, err
	}

	upscaler, err := realesrgan.New(tools.Upscaler,
		realesrgan.WithExecutor(exec),
		realesrgan.WithSettings(realesrgan.Settings{
			Model:  cfg.Upscale.Model,
			Scale:  cfg.Upscale.Scale,
			Device: cfg.Upscale.Device,
		}),
	)
	if err != nil {
		return nil, err
	}

	logging.NewComponentLogger(logger, "pipeline").Debug("encoder settings",
		logging.String("encode", media.Encode().String()),
		logging.String("upscale_model", upscaler.Settings().Model),
	)

	opts := Options{
		WorkDir:       cfg.Paths.WorkDir,
		Workers:       cfg.Upscale.Workers,
		KeepArtifacts: cfg.Workspace.KeepArtifacts,
		UpscaleScale:  cfg.Upscale.Scale,
		MaxWidth:      cfg.Assembly.MaxWidth,
		MaxHeight:     cfg.Assembly.MaxHeight,
		Logger:        logger,
		Recorder:      recorder,
		Progress:      progress,
		Observer:      observer,
	}
	return New(ffprobe.Prober{Binary: tools.FFprobe, Executor: exec}, media, upscaler, opts), nil
}
