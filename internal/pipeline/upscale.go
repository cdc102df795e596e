package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"icecale/internal/services"
	"icecale/internal/services/realesrgan"
	"icecale/internal/staging"
)

// ProgressFunc observes batch progress. completed strictly increases across
// calls; total is fixed for the batch.
type ProgressFunc func(completed, total int)

// UpscaleOptions configures UpscaleFrames.
type UpscaleOptions struct {
	InputDir  string
	OutputDir string
	// ExpectedTotal is the probed frame count. When it is not positive the
	// number of enumerated frames is used as the progress denominator.
	ExpectedTotal int64
	// Workers above 1 upscale frames concurrently.
	Workers  int
	Upscaler realesrgan.Upscaler
	Progress ProgressFunc
}

// UpscaleFrames upscales every frame of InputDir into the identically named
// file of OutputDir and returns the number of frames written.
//
// The batch is fail-fast: the first failing frame stops the batch and its
// error, which names the frame, is returned. With several workers the error
// reported is the lowest-indexed frame that failed.
func UpscaleFrames(ctx context.Context, opts UpscaleOptions) (int, error) {
	if opts.Upscaler == nil {
		return 0, services.Wrap(services.ErrUpscale, "upscale", "", "no upscaler configured", nil)
	}
	if err := staging.EnsureDirectory(opts.OutputDir); err != nil {
		return 0, err
	}
	frames, err := ListFrames(opts.InputDir)
	if err != nil {
		return 0, err
	}
	if len(frames) == 0 {
		return 0, services.Wrap(services.ErrUpscale, "upscale", "", "no frames found to upscale", nil)
	}

	total := len(frames)
	if opts.ExpectedTotal > 0 {
		total = int(opts.ExpectedTotal)
	}
	progress := opts.Progress
	if progress == nil {
		progress = func(int, int) {}
	}

	if opts.Workers <= 1 {
		return upscaleSequential(ctx, opts, frames, total, progress)
	}
	return upscaleConcurrent(ctx, opts, frames, total, progress)
}

func upscaleSequential(ctx context.Context, opts UpscaleOptions, frames []Frame, total int, progress ProgressFunc) (int, error) {
	completed := 0
	for _, frame := range frames {
		if err := ctx.Err(); err != nil {
			return completed, services.Wrap(services.ErrUpscale, "upscale", "", "batch interrupted", err)
		}
		if err := opts.Upscaler.UpscaleFrame(ctx, frame.Path, filepath.Join(opts.OutputDir, frame.Name)); err != nil {
			return completed, err
		}
		completed++
		progress(completed, total)
	}
	return completed, nil
}

type frameFailure struct {
	index int
	err   error
}

func upscaleConcurrent(ctx context.Context, opts UpscaleOptions, frames []Frame, total int, progress ProgressFunc) (int, error) {
	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu        sync.Mutex
		completed int
		failure   *frameFailure
		wg        sync.WaitGroup
	)
	work := make(chan Frame)

	workers := min(opts.Workers, len(frames))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for frame := range work {
				err := opts.Upscaler.UpscaleFrame(batchCtx, frame.Path, filepath.Join(opts.OutputDir, frame.Name))

				mu.Lock()
				switch {
				case err == nil:
					completed++
					progress(completed, total)
				case errors.Is(err, context.Canceled) && batchCtx.Err() != nil:
					// stopped by another frame's failure or by the caller
				default:
					if failure == nil || frame.Index < failure.index {
						failure = &frameFailure{index: frame.Index, err: err}
					}
					cancel()
				}
				mu.Unlock()
			}
		}()
	}

dispatch:
	for _, frame := range frames {
		select {
		case work <- frame:
		case <-batchCtx.Done():
			break dispatch
		}
	}
	close(work)
	wg.Wait()

	if failure != nil {
		return completed, failure.err
	}
	if err := ctx.Err(); err != nil {
		return completed, services.Wrap(services.ErrUpscale, "upscale", "", "batch interrupted", err)
	}
	return completed, nil
}
