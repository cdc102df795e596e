package main

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"icecale/internal/config"
	"icecale/internal/logging"
	"icecale/internal/stage"
)

// narrator prints the per-stage console lines and upscale progress. On a
// terminal progress is a redrawn bar; otherwise one line per 10% bucket.
type narrator struct {
	out      io.Writer
	scale    int
	maxH     int
	terminal bool
	bar      *progressbar.ProgressBar
	sampler  *logging.ProgressSampler
}

func newNarrator(out io.Writer, cfg *config.Config, terminal bool) *narrator {
	return &narrator{
		out:      out,
		scale:    cfg.Upscale.Scale,
		maxH:     cfg.Assembly.MaxHeight,
		terminal: terminal,
		sampler:  logging.NewProgressSampler(10),
	}
}

func (n *narrator) OnStageStart(name string, _ *stage.Job) {
	switch name {
	case "probe":
		fmt.Fprintln(n.out, "Probing input video...")
	case "extract audio":
		fmt.Fprintln(n.out, "Extracting audio (if present)...")
	case "extract frames":
		fmt.Fprintln(n.out, "Extracting frames...")
	case "upscale":
		fmt.Fprintf(n.out, "Upscaling with Real-ESRGAN (x%d, capped to %dp output)...\n", n.scale, n.maxH)
	case "assemble":
		fmt.Fprintf(n.out, "Assembling final video with resolution capped at %dp...\n", n.maxH)
	}
}

func (n *narrator) OnStageDone(name string, job *stage.Job, elapsed time.Duration) {
	switch name {
	case "probe":
		meta := job.Metadata
		fmt.Fprintf(n.out, "Resolution: %dx%d, FPS: %s, Frames: %d\n",
			meta.Width, meta.Height, meta.FrameRateLabel(), meta.TotalFrames)
	case "extract audio":
		if job.HasAudio {
			fmt.Fprintf(n.out, "Audio extracted to %s\n", job.Workspace.AudioFile)
		} else {
			fmt.Fprintln(n.out, "No audio track was extracted (audio will be omitted in the final render).")
		}
	case "extract frames":
		fmt.Fprintf(n.out, "Extracted %d frames\n", job.ExtractedCount)
	case "upscale":
		n.finish()
		fmt.Fprintf(n.out, "Upscaled %d frames in %s\n", job.UpscaledCount, elapsed.Round(time.Second))
	}
}

// progress is the pipeline ProgressFunc. Calls are serialized by the caller.
func (n *narrator) progress(completed, total int) {
	if n.terminal {
		if n.bar == nil {
			n.bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(n.out),
				progressbar.OptionSetDescription("Upscaling"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "█",
					SaucerHead:    "█",
					SaucerPadding: "░",
					BarStart:      "▐",
					BarEnd:        "▌",
				}),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("frames"),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetRenderBlankState(true),
			)
		}
		_ = n.bar.Set(completed)
		return
	}
	percent := float64(completed) / float64(total) * 100
	if n.sampler.ShouldLog(percent, "upscale") {
		fmt.Fprintf(n.out, "Upscaling %d/%d (%.1f%%)\n", completed, total, percent)
	}
}

func (n *narrator) finish() {
	n.sampler.Reset()
	if n.bar == nil {
		return
	}
	_ = n.bar.Finish()
	fmt.Fprintln(n.out)
	n.bar = nil
}
