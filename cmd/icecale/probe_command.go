package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"icecale/internal/deps"
	"icecale/internal/media/ffprobe"
	"icecale/internal/services/ffmpeg"
	"icecale/internal/toolexec"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <input>",
		Short: "Show video metadata and the planned output resolution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			binary, err := deps.ResolveTool(cfg.Tools.FFprobe, deps.ExecutableDir(), deps.FFprobe)
			if err != nil {
				return err
			}
			meta, err := ffprobe.Prober{Binary: binary, Executor: toolexec.NewExecutor()}.Probe(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			scale := cfg.Upscale.Scale
			upW, upH := meta.Width*scale, meta.Height*scale
			outW, outH := ffmpeg.FitDimensions(upW, upH, cfg.Assembly.MaxWidth, cfg.Assembly.MaxHeight)

			fmt.Fprint(cmd.OutOrStdout(), renderFields([][2]string{
				{"Input", args[0]},
				{"Resolution", fmt.Sprintf("%dx%d", meta.Width, meta.Height)},
				{"Frame rate", fmt.Sprintf("%s (%s)", meta.FrameRateLabel(), meta.FPSText)},
				{"Duration", fmt.Sprintf("%.3fs", meta.DurationSeconds)},
				{"Frames", fmt.Sprintf("%d", meta.TotalFrames)},
				{"Upscaled", fmt.Sprintf("%dx%d (x%d)", upW, upH, scale)},
				{"Output", fmt.Sprintf("%dx%d", outW, outH)},
			}))
			return nil
		},
	}
}
