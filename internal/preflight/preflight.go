package preflight

import (
	"context"
	"fmt"
	"strings"

	"icecale/internal/config"
	"icecale/internal/deps"
	"icecale/internal/services"
	"icecale/internal/toolexec"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Optional bool
}

// Tools holds the resolved executable paths the pipeline runs.
type Tools struct {
	FFmpeg   string
	FFprobe  string
	Upscaler string
}

// Options adjusts RunAll.
type Options struct {
	Executor toolexec.Executor
	// BaseDir anchors project-local tool discovery. Empty means the
	// directory of the running executable.
	BaseDir string
	SkipGPU bool
}

// Report is the combined outcome of RunAll.
type Report struct {
	Results []Result
	Tools   Tools
}

// RunAll executes every applicable preflight check for cfg in order: GPU,
// tool discovery and verification, then work directory access and space.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) Report {
	if cfg == nil {
		return Report{}
	}
	baseDir := opts.BaseDir
	if baseDir == "" {
		baseDir = deps.ExecutableDir()
	}

	var report Report
	if cfg.Preflight.RequireGPU && !opts.SkipGPU {
		report.Results = append(report.Results, CheckGPU(ctx, opts.Executor, cfg.Tools.NvidiaSMI))
	}

	specs := []struct {
		spec ToolSpec
		dst  *string
	}{
		{ToolSpec{Label: "FFmpeg", Name: deps.FFmpeg, Configured: cfg.Tools.FFmpeg, VerifyFlag: "-version"}, &report.Tools.FFmpeg},
		{ToolSpec{Label: "FFprobe", Name: deps.FFprobe, Configured: cfg.Tools.FFprobe, VerifyFlag: "-version"}, &report.Tools.FFprobe},
		{ToolSpec{Label: "Real-ESRGAN", Name: deps.Upscaler, Configured: cfg.Tools.Upscaler, VerifyFlag: "-h"}, &report.Tools.Upscaler},
	}
	for _, entry := range specs {
		result, path := CheckTool(ctx, opts.Executor, baseDir, entry.spec)
		*entry.dst = path
		report.Results = append(report.Results, result)
	}

	report.Results = append(report.Results,
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckFreeSpace("Free space", cfg.Paths.WorkDir, cfg.Preflight.MinFreeGiB),
	)
	return report
}

// Failures returns the required checks that did not pass.
func (r Report) Failures() []Result {
	var failed []Result
	for _, result := range r.Results {
		if !result.Passed && !result.Optional {
			failed = append(failed, result)
		}
	}
	return failed
}

// Err returns ErrEnvironment describing every failed required check, or nil.
func (r Report) Err() error {
	failed := r.Failures()
	if len(failed) == 0 {
		return nil
	}
	lines := make([]string, 0, len(failed))
	for _, result := range failed {
		lines = append(lines, fmt.Sprintf("%s: %s", result.Name, result.Detail))
	}
	return services.Wrap(services.ErrEnvironment, "environment", "", strings.Join(lines, "; "), nil)
}
