package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"icecale/internal/logging"
	"icecale/internal/staging"
)

func newWorkspaceCommand(ctx *commandContext) *cobra.Command {
	workspaceCmd := &cobra.Command{
		Use:   "workspace",
		Short: "Manage session workspaces",
	}

	workspaceCmd.AddCommand(newWorkspaceListCommand(ctx))
	workspaceCmd.AddCommand(newWorkspaceCleanCommand(ctx))

	return workspaceCmd
}

func newWorkspaceListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List session workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sessions, err := staging.ListSessions(cfg.Paths.WorkDir)
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No session workspaces found")
				return nil
			}
			fmt.Fprintf(out, "Work directory: %s\n\n", cfg.Paths.WorkDir)

			var totalSize int64
			rows := make([][]string, 0, len(sessions))
			for _, session := range sessions {
				totalSize += session.Size
				rows = append(rows, []string{
					session.Name,
					humanize.Time(session.ModTime),
					humanize.IBytes(uint64(max(session.Size, 0))),
					fmt.Sprintf("%d", session.Frames),
					yesNo(session.Active),
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"Session", "Modified", "Size", "Upscaled", "Active"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "\nTotal: %d sessions, %s\n", len(sessions), humanize.IBytes(uint64(max(totalSize, 0))))
			return nil
		},
	}
}

func newWorkspaceCleanCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	var cleanAll bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale session workspaces",
		Long: `Remove session workspaces that are no longer in use.

By default only sessions older than workspace.stale_after_hours are removed.
Sessions whose lock is held by a running icecale process are always kept.

Use --all to remove every inactive session regardless of age.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			maxAge := time.Duration(cfg.Workspace.StaleAfterHours) * time.Hour
			if cmd.Flags().Changed("older-than") {
				maxAge = olderThan
			}
			if cleanAll {
				maxAge = 0
			}

			result := staging.CleanStale(cmd.Context(), cfg.Paths.WorkDir, maxAge, logging.NewNop())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed %d sessions", len(result.Removed))
			if len(result.Skipped) > 0 {
				fmt.Fprintf(out, " (%d active sessions kept)", len(result.Skipped))
			}
			fmt.Fprintln(out)
			for _, cleanupErr := range result.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %v\n", cleanupErr.Path, cleanupErr.Error)
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("failed to remove %d sessions", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Only remove sessions older than this (default workspace.stale_after_hours)")
	cmd.Flags().BoolVar(&cleanAll, "all", false, "Remove every inactive session")
	return cmd
}
