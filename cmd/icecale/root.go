package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string
	var opts runOptions

	ctx := newCommandContext(&configFlag, &logLevelFlag)

	rootCmd := &cobra.Command{
		Use:   "icecale <input> <output>",
		Short: "Upscale a video with Real-ESRGAN and re-encode it capped at 1440p",
		Long: `Upscale a video frame by frame with Real-ESRGAN.

The input is probed with ffprobe, its audio stream is copied aside, every frame
is extracted and upscaled, and the frames are re-encoded with ffmpeg at the
source frame rate, scaled down to fit 2560x1440. Intermediate files live in a
per-run session directory under paths.work_dir.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.workersSet = cmd.Flags().Changed("workers")
			opts.keepSet = cmd.Flags().Changed("keep-artifacts")
			return runPipeline(cmd, ctx, args[0], args[1], opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override logging.level (debug, info, warn, error)")
	rootCmd.Flags().IntVar(&opts.workers, "workers", 1, "Frames upscaled concurrently (overrides upscale.workers)")
	rootCmd.Flags().BoolVar(&opts.keepArtifacts, "keep-artifacts", true, "Keep the session workspace after a successful run")
	rootCmd.Flags().BoolVar(&opts.skipGPU, "skip-gpu-check", false, "Skip the nvidia-smi GPU check")

	rootCmd.AddCommand(newProbeCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newWorkspaceCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
