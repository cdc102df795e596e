package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"icecale/internal/preflight"
	"icecale/internal/toolexec"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var skipGPU bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the GPU, external tools, and work directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := preflight.RunAll(cmd.Context(), cfg, preflight.Options{
				Executor: toolexec.NewExecutor(),
				SkipGPU:  skipGPU,
			})

			out := cmd.OutOrStdout()
			colorize := isTerminal(out)
			rows := make([][]string, 0, len(report.Results))
			for _, result := range report.Results {
				rows = append(rows, []string{result.Name, statusCell(result.Passed, result.Optional, colorize), result.Detail})
			}
			fmt.Fprint(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
			if ctx.configPath != "" {
				fmt.Fprintf(out, "Config: %s\n", ctx.configPath)
			}
			return report.Err()
		},
	}

	cmd.Flags().BoolVar(&skipGPU, "skip-gpu-check", false, "Skip the nvidia-smi GPU check")
	return cmd
}
