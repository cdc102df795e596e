package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"icecale/internal/history"
	"icecale/internal/stage"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, historyRow(run))
				}
				fmt.Fprint(out, renderTable(
					[]string{"ID", "Status", "Input", "Frames", "Started", "Duration", "Error"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")

	historyCmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one run in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %s not found", args[0])
				}
				fmt.Fprint(cmd.OutOrStdout(), renderFields(historyFields(run)))
				return nil
			})
		},
	})

	historyCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d runs\n", removed)
				return nil
			})
		},
	})

	return historyCmd
}

func withHistory(ctx *commandContext, fn func(*history.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg.HistoryDBPath())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func historyRow(run *history.Run) []string {
	id := run.ID
	if len(id) > 8 {
		id = id[:8]
	}
	frames := fmt.Sprintf("%d/%d", run.UpscaledFrames, run.ExtractedFrames)
	return []string{
		id,
		stage.Label(run.Status),
		filepath.Base(run.InputPath),
		frames,
		humanize.Time(run.CreatedAt),
		run.Duration().Round(time.Second).String(),
		run.ErrorMessage,
	}
}

func historyFields(run *history.Run) [][2]string {
	fields := [][2]string{
		{"ID", run.ID},
		{"Status", stage.Label(run.Status)},
		{"Input", run.InputPath},
		{"Output", run.OutputPath},
		{"Session", run.SessionDir},
		{"Resolution", fmt.Sprintf("%dx%d", run.Width, run.Height)},
		{"Frame rate", run.FrameRate},
		{"Audio", yesNo(run.HasAudio)},
		{"Frames", fmt.Sprintf("%d probed, %d extracted, %d upscaled", run.TotalFrames, run.ExtractedFrames, run.UpscaledFrames)},
		{"Progress", fmt.Sprintf("%s %.1f%%", run.ProgressStage, run.ProgressPercent)},
		{"Started", run.CreatedAt.Local().Format(time.RFC3339)},
		{"Duration", run.Duration().Round(time.Second).String()},
	}
	if run.ErrorMessage != "" {
		fields = append(fields, [2]string{"Error", fmt.Sprintf("%s: %s", run.ErrorKind, run.ErrorMessage)})
	}
	return fields
}
