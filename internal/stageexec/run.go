package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"icecale/internal/logging"
	"icecale/internal/services"
	"icecale/internal/stage"
)

// Handler is the stage contract used by the execution helper.
type Handler interface {
	Prepare(context.Context, *stage.Job) error
	Execute(context.Context, *stage.Job) error
}

// Recorder persists job state at stage boundaries. history.Store satisfies it.
type Recorder interface {
	Update(context.Context, *stage.Job) error
}

// Options controls stage execution and persistence behavior.
type Options struct {
	Logger     *slog.Logger
	Recorder   Recorder
	Handler    Handler
	StageName  string
	Processing stage.Status
	Done       stage.Status
	Job        *stage.Job
}

// Run executes one stage: it marks the job as processing, runs Prepare and
// Execute, records the outcome, and logs start, completion, or failure.
func Run(ctx context.Context, opts Options) error {
	if opts.Handler == nil {
		return fmt.Errorf("stage handler unavailable: %s", opts.StageName)
	}
	if opts.Job == nil {
		return fmt.Errorf("job is required")
	}

	stageCtx := services.WithStage(ctx, opts.StageName)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)
	if aware, ok := opts.Handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	stageLogger.Debug(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(opts.Processing)),
		logging.String("input", strings.TrimSpace(opts.Job.InputPath)),
	)
	started := time.Now()

	opts.Job.Begin(opts.Processing)
	record(stageCtx, stageLogger, opts.Recorder, opts.Job)

	if err := opts.Handler.Prepare(stageCtx, opts.Job); err != nil {
		return handleFailure(stageCtx, stageLogger, opts.Recorder, opts.Job, err)
	}
	if err := opts.Handler.Execute(stageCtx, opts.Job); err != nil {
		return handleFailure(stageCtx, stageLogger, opts.Recorder, opts.Job, err)
	}

	if opts.Job.Status == opts.Processing || opts.Job.Status == "" {
		opts.Job.Status = opts.Done
	}
	opts.Job.ProgressPercent = 100
	opts.Job.ProgressMessage = fmt.Sprintf("%s finished", opts.Job.ProgressStage)
	record(stageCtx, stageLogger, opts.Recorder, opts.Job)

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(opts.Job.Status)),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)
	return nil
}

// record persists job state. History is best-effort: a failing database
// never fails the run.
func record(ctx context.Context, logger *slog.Logger, recorder Recorder, job *stage.Job) {
	if recorder == nil {
		return
	}
	if err := recorder.Update(ctx, job); err != nil {
		logging.WarnWithContext(logger, "failed to record run history", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check state_dir permissions or delete history.db"),
			logging.String(logging.FieldImpact, "run history will be incomplete"),
		)
	}
}

func handleFailure(ctx context.Context, logger *slog.Logger, recorder Recorder, job *stage.Job, stageErr error) error {
	kind := "failure"
	if marker := services.Classify(stageErr); marker != nil {
		kind = marker.Error()
	} else if errors.Is(stageErr, context.Canceled) {
		kind = "cancelled"
	}
	job.SetFailed(kind, firstLine(stageErr.Error()))

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("error_kind", kind),
		logging.String(logging.FieldErrorHint, hintFor(stageErr)),
		logging.Error(stageErr),
	}
	var failure *services.ToolFailure
	if errors.As(stageErr, &failure) && failure.Command != "" {
		attrs = append(attrs, logging.String("command", failure.Command))
	}
	logger.Error("stage failed", logging.Args(attrs...)...)
	record(ctx, logger, recorder, job)
	return stageErr
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrProbe):
		return "verify the input is a readable video file"
	case errors.Is(err, services.ErrWorkspace):
		return "check work_dir permissions and free space"
	case errors.Is(err, services.ErrExtraction):
		return "inspect the ffmpeg output above; the input may be corrupt"
	case errors.Is(err, services.ErrUpscale):
		return "verify the Vulkan driver and model files for realesrgan-ncnn-vulkan"
	case errors.Is(err, services.ErrAssembly):
		return "verify the encoder is available (ffmpeg -encoders) and the GPU supports it"
	case errors.Is(err, services.ErrEnvironment):
		return "run icecale check to diagnose the environment"
	case errors.Is(err, context.Canceled):
		return "run was interrupted"
	default:
		return "check logs for details"
	}
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if line, _, ok := strings.Cut(text, "\n"); ok {
		return strings.TrimSpace(line)
	}
	return text
}
