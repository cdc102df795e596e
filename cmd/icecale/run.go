package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"icecale/internal/config"
	"icecale/internal/history"
	"icecale/internal/logging"
	"icecale/internal/pipeline"
	"icecale/internal/preflight"
	"icecale/internal/staging"
	"icecale/internal/toolexec"
)

type runOptions struct {
	workers       int
	workersSet    bool
	keepArtifacts bool
	keepSet       bool
	skipGPU       bool
}

func (o runOptions) apply(cfg *config.Config) error {
	if o.workersSet {
		cfg.Upscale.Workers = o.workers
	}
	if o.keepSet {
		cfg.Workspace.KeepArtifacts = o.keepArtifacts
	}
	return cfg.Validate()
}

func runPipeline(cmd *cobra.Command, ctx *commandContext, input, output string, opts runOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := opts.apply(cfg); err != nil {
		return err
	}

	sessionID := staging.NewSessionID()
	logger, err := ctx.logger(sessionID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Verifying environment...")
	report := preflight.RunAll(cmd.Context(), cfg, preflight.Options{
		Executor: toolexec.NewExecutor(),
		SkipGPU:  opts.skipGPU,
	})
	printGPU(out, report)
	if err := report.Err(); err != nil {
		return err
	}

	var recorder pipeline.Recorder
	store, err := history.Open(cfg.HistoryDBPath())
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check state_dir permissions"),
			logging.String(logging.FieldImpact, "this run will not appear in icecale history"),
		)
	} else {
		defer store.Close()
		recorder = store
		markAbandoned(cmd.Context(), store, cfg, logger)
	}

	narrator := newNarrator(out, cfg, isTerminal(out))
	p, err := pipeline.FromConfig(cfg, report.Tools, logger, recorder, narrator, narrator.progress)
	if err != nil {
		return err
	}

	job, err := p.Run(cmd.Context(), pipeline.Request{
		Input:     input,
		Output:    output,
		SessionID: sessionID,
	})
	narrator.finish()
	if err != nil {
		if job != nil && job.Workspace != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Session workspace kept at %s\n", job.Workspace.Root)
		}
		return err
	}

	fmt.Fprintf(out, "Upscaled video saved to: %s\n", job.OutputPath)
	return nil
}

// markAbandoned closes out runs that never reached a terminal status, such as
// a process killed mid-upscale, once they are older than the stale window.
func markAbandoned(ctx context.Context, store *history.Store, cfg *config.Config, logger *slog.Logger) {
	cutoff := time.Now().Add(-time.Duration(cfg.Workspace.StaleAfterHours) * time.Hour)
	count, err := store.MarkAbandoned(ctx, cutoff)
	if err != nil {
		logger.Debug("mark abandoned runs failed", logging.Error(err))
		return
	}
	if count > 0 {
		logger.Info("marked abandoned runs as failed",
			logging.String(logging.FieldEventType, "history_abandoned"),
			logging.Int64("runs", count),
		)
	}
}

func printGPU(out io.Writer, report preflight.Report) {
	for _, result := range report.Results {
		if result.Name == preflight.GPUCheckName && result.Passed {
			fmt.Fprintf(out, "Detected NVIDIA GPU: %s\n", result.Detail)
		}
	}
}
