package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"icecale/internal/fileutil"
	"icecale/internal/logging"
	"icecale/internal/services"
	"icecale/internal/services/realesrgan"
	"icecale/internal/stage"
	"icecale/internal/stageexec"
	"icecale/internal/staging"
)

// Recorder persists job state. history.Store satisfies it.
type Recorder interface {
	Start(context.Context, *stage.Job) error
	Update(context.Context, *stage.Job) error
}

// Observer receives stage boundaries from Run. The CLI prints its console
// narrative from these events; the pipeline itself writes nothing to stdout.
type Observer interface {
	OnStageStart(name string, job *stage.Job)
	OnStageDone(name string, job *stage.Job, elapsed time.Duration)
}

// Options configures a Pipeline.
type Options struct {
	WorkDir       string
	Workers       int
	KeepArtifacts bool
	// UpscaleScale and the caps are used only for the reported output size.
	UpscaleScale int
	MaxWidth     int
	MaxHeight    int
	Logger       *slog.Logger
	Recorder     Recorder
	Progress     ProgressFunc
	Observer     Observer
}

// Request names one input/output pair.
type Request struct {
	Input     string
	Output    string
	SessionID string
}

// Pipeline runs the ordered stage list for one request at a time.
type Pipeline struct {
	prober   Prober
	media    MediaTool
	upscaler realesrgan.Upscaler
	opts     Options
	logger   *slog.Logger
	publish  func(src, dst string) error
}

// New constructs a pipeline over the given tool adapters.
func New(prober Prober, media MediaTool, upscaler realesrgan.Upscaler, opts Options) *Pipeline {
	if opts.WorkDir == "" {
		opts.WorkDir = filepath.Join(os.TempDir(), "icecale-work")
	}
	return &Pipeline{
		prober:   prober,
		media:    media,
		upscaler: upscaler,
		opts:     opts,
		logger:   logging.NewComponentLogger(opts.Logger, "pipeline"),
		publish:  fileutil.Publish,
	}
}

type step struct {
	name       string
	handler    stage.Handler
	processing stage.Status
	done       stage.Status
}

func (p *Pipeline) steps() []step {
	return []step{
		{"probe", &probeStage{prober: p.prober}, stage.StatusProbing, stage.StatusProbed},
		{"extract audio", &audioStage{media: p.media}, stage.StatusExtractingAudio, stage.StatusAudioExtracted},
		{"extract frames", &framesStage{media: p.media}, stage.StatusExtractingFrames, stage.StatusFramesExtracted},
		{"upscale", &upscaleStage{
			upscaler: p.upscaler,
			workers:  p.opts.Workers,
			progress: p.opts.Progress,
			onUpdate: p.record,
		}, stage.StatusUpscaling, stage.StatusUpscaled},
		{"assemble", &assembleStage{
			media:   p.media,
			scale:   p.opts.UpscaleScale,
			maxW:    p.opts.MaxWidth,
			maxH:    p.opts.MaxHeight,
			publish: p.publish,
		}, stage.StatusAssembling, stage.StatusCompleted},
	}
}

// HealthCheck reports whether every stage has its tool adapter.
func (p *Pipeline) HealthCheck(ctx context.Context) []stage.Health {
	steps := p.steps()
	health := make([]stage.Health, 0, len(steps))
	for _, s := range steps {
		health = append(health, s.handler.HealthCheck(ctx))
	}
	return health
}

// Run executes every stage for req. The returned job reflects how far the
// run got even when an error is returned. On success the session workspace
// is removed unless KeepArtifacts is set; on failure it is always kept.
func (p *Pipeline) Run(ctx context.Context, req Request) (*stage.Job, error) {
	input, output, err := resolvePaths(req)
	if err != nil {
		return nil, err
	}

	ws := staging.NewWorkspace(p.opts.WorkDir, req.SessionID, filepath.Base(output))
	if err := ws.Create(); err != nil {
		return nil, err
	}
	defer func() { _ = ws.Release() }()

	ctx = services.WithSessionID(ctx, ws.SessionID)
	logger := logging.WithContext(ctx, p.logger)
	job := stage.NewJob(ws.SessionID, input, output, ws)
	if p.opts.Recorder != nil {
		if err := p.opts.Recorder.Start(ctx, job); err != nil {
			logging.WarnWithContext(logger, "failed to record run start", "history_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "run history will be incomplete"),
			)
		}
	}

	logger.Info("pipeline started",
		logging.String(logging.FieldEventType, "pipeline_start"),
		logging.String("input", input),
		logging.String("output", output),
		logging.String("workspace", ws.Root),
	)

	for _, s := range p.steps() {
		if p.opts.Observer != nil {
			p.opts.Observer.OnStageStart(s.name, job)
		}
		started := time.Now()
		err := stageexec.Run(ctx, stageexec.Options{
			Logger:     logger,
			Recorder:   p.opts.Recorder,
			Handler:    s.handler,
			StageName:  s.name,
			Processing: s.processing,
			Done:       s.done,
			Job:        job,
		})
		if err != nil {
			logger.Info("workspace kept for inspection",
				logging.String(logging.FieldEventType, "workspace_kept"),
				logging.String("workspace", ws.Root),
			)
			return job, err
		}
		if p.opts.Observer != nil {
			p.opts.Observer.OnStageDone(s.name, job, time.Since(started))
		}
	}

	job.Complete()
	p.record(ctx, job)
	logger.Info("pipeline completed",
		logging.String(logging.FieldEventType, "pipeline_complete"),
		logging.String("output", output),
		logging.Duration("elapsed", job.Elapsed()),
	)

	if !p.opts.KeepArtifacts {
		if err := ws.Remove(); err != nil {
			logging.WarnWithContext(logger, "failed to remove session workspace", "workspace_cleanup_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove it with icecale workspace clean"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
		}
	}
	return job, nil
}

func (p *Pipeline) record(ctx context.Context, job *stage.Job) {
	if p.opts.Recorder == nil {
		return
	}
	if err := p.opts.Recorder.Update(ctx, job); err != nil {
		p.logger.Debug("history update failed", logging.Error(err))
	}
}

func resolvePaths(req Request) (string, string, error) {
	input, err := filepath.Abs(req.Input)
	if err != nil || req.Input == "" {
		return "", "", services.Wrap(services.ErrConfiguration, "", "", "input path required", err)
	}
	output, err := filepath.Abs(req.Output)
	if err != nil || req.Output == "" {
		return "", "", services.Wrap(services.ErrConfiguration, "", "", "output path required", err)
	}
	info, err := os.Stat(input)
	if err != nil || !info.Mode().IsRegular() {
		return "", "", services.Wrap(services.ErrEnvironment, "", "", fmt.Sprintf("Input file does not exist: %s", input), nil)
	}
	if input == output {
		return "", "", services.Wrap(services.ErrConfiguration, "", "", "output path must differ from input path", nil)
	}
	return input, output, nil
}
