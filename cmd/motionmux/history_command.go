package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"motionmux/internal/config"
	"motionmux/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit        int
		failuresOnly bool
		asJSON       bool
	)
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show journaled migration runs",
		Long: `Without arguments, list recent runs. With a run id (or a unique prefix),
list the items that run processed.

The journal is only written when history.enabled = true.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				return showRun(cmd, store, args[0], failuresOnly, asJSON)
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				if runs == nil {
					runs = []history.Run{}
				}
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					run.StartedAt.Local().Format("2006-01-02 15:04"),
					run.Status,
					strconv.Itoa(run.MotionPhotosCreated),
					strconv.Itoa(run.FilesCopied),
					strconv.Itoa(run.Skipped),
					strconv.Itoa(run.Failures),
					filepath.Base(run.OutputDir),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Status", "Created", "Copied", "Skipped", "Failed", "Output"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list (0 = all)")
	cmd.Flags().BoolVar(&failuresOnly, "failures", false, "Only show failed items of a run")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")

	cmd.AddCommand(newHistoryClearCommand(ctx))
	return cmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every journaled run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			n, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs\n", n)
			return nil
		},
	}
}

func openHistory(cfg *config.Config) (*history.Store, error) {
	if !cfg.History.Enabled {
		return nil, errors.New("run history is disabled (set history.enabled = true in the config)")
	}
	return history.Open(cfg.HistoryPath())
}

func showRun(cmd *cobra.Command, store *history.Store, id string, failuresOnly, asJSON bool) error {
	run, err := store.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", id)
	}
	items, err := store.ListItems(cmd.Context(), run.ID)
	if err != nil {
		return err
	}
	if failuresOnly {
		kept := items[:0]
		for _, item := range items {
			if item.FailureKind != "" {
				kept = append(kept, item)
			}
		}
		items = kept
	}
	if asJSON {
		if items == nil {
			items = []history.Item{}
		}
		return writeJSON(cmd, map[string]any{"run": run, "items": items})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s (%s)\n", run.ID, run.Status)
	fmt.Fprintf(out, "  Input:    %s\n", run.InputDir)
	fmt.Fprintf(out, "  Output:   %s\n", run.OutputDir)
	fmt.Fprintf(out, "  Started:  %s\n", run.StartedAt.Local().Format(time.DateTime))
	if d := run.Duration(); d > 0 {
		fmt.Fprintf(out, "  Duration: %s\n", d.Round(time.Millisecond))
	}
	fmt.Fprintf(out, "  Overwrite: %s\n\n", yesNo(run.Overwrite))
	if len(items) == 0 {
		fmt.Fprintln(out, "No items")
		return nil
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item.Kind, filepath.Base(item.Source), item.Outcome, item.Error})
	}
	fmt.Fprintln(out, renderTable([]string{"Kind", "Source", "Outcome", "Error"}, rows, nil))
	return nil
}
