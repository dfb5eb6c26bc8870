package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"motionmux/internal/config"
	"motionmux/internal/convert"
	"motionmux/internal/deps"
	"motionmux/internal/history"
	"motionmux/internal/logging"
	"motionmux/internal/preflight"
	"motionmux/internal/staging"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var targets preflight.Targets
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show tools, directories and recent activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			var lines []string
			lines = append(lines, renderSectionHeader("Configuration", colorize)...)
			lines = append(lines, configLines(ctx, cfg, colorize)...)

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			statuses := preflight.CheckSystemDeps(cfg)
			lines = append(lines, dependencyLines(statuses, colorize)...)
			lines = append(lines, resultLine(preflight.CheckHEICConversion(statuses), statusWarn, colorize))
			lines = append(lines, backendLines(cfg, colorize)...)

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Directories", colorize)...)
			for _, r := range preflight.RunAll(cfg, targets) {
				lines = append(lines, resultLine(r, statusError, colorize))
			}
			lines = append(lines, stagingLine(cfg, colorize))

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("History", colorize)...)
			lines = append(lines, historyLine(cmd.Context(), cfg, colorize))

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&targets.InputDir, "input", "i", "", "Also check an input directory")
	cmd.Flags().StringVarP(&targets.OutputDir, "output", "o", "", "Also check an output directory")
	return cmd
}

func configLines(ctx *commandContext, cfg *config.Config, colorize bool) []string {
	var lines []string
	if ctx.configFile {
		lines = append(lines, renderStatusLine("Config", statusOK, ctx.configPath, colorize))
	} else {
		lines = append(lines, renderStatusLine("Config", statusInfo, "defaults (no file found)", colorize))
	}
	lines = append(lines, renderStatusLine("Metadata writer", statusInfo, cfg.Mux.MetadataWriter, colorize))
	lines = append(lines, renderStatusLine("Overwrite", statusInfo, yesNo(cfg.Migrate.Overwrite), colorize))
	return lines
}

func resultLine(r preflight.Result, failKind statusKind, colorize bool) string {
	if r.Passed {
		return renderStatusLine(r.Name, statusOK, r.Detail, colorize)
	}
	return renderStatusLine(r.Name, failKind, r.Detail, colorize)
}

func backendLines(cfg *config.Config, colorize bool) []string {
	chain, err := convert.FromConfig(cfg, logging.NewNop(), convert.Options{})
	if err != nil {
		return []string{renderStatusLine("Backends", statusError, err.Error(), colorize)}
	}
	names := make([]string, 0, len(chain.Backends()))
	for _, b := range chain.Backends() {
		name := b.Name()
		if !b.Available() {
			name += " (unavailable)"
		}
		names = append(names, name)
	}
	return []string{renderStatusLine("Backends", statusInfo, strings.Join(names, " -> "), colorize)}
}

func stagingLine(cfg *config.Config, colorize bool) string {
	dirs, err := staging.ListDirectories(cfg.StagingRoot())
	if err != nil {
		return renderStatusLine("Leftover staging", statusWarn, err.Error(), colorize)
	}
	idle := 0
	for _, d := range dirs {
		if !d.Live {
			idle++
		}
	}
	if idle == 0 {
		return renderStatusLine("Leftover staging", statusOK, "none", colorize)
	}
	return renderStatusLine("Leftover staging", statusWarn,
		fmt.Sprintf("%d run directories (motionmux staging clean)", idle), colorize)
}

func historyLine(ctx context.Context, cfg *config.Config, colorize bool) string {
	if !cfg.History.Enabled {
		return renderStatusLine("Journal", statusInfo, "Disabled", colorize)
	}
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return renderStatusLine("Journal", statusError, err.Error(), colorize)
	}
	defer store.Close()
	run, err := store.Latest(ctx)
	if errors.Is(err, history.ErrNoRuns) {
		return renderStatusLine("Journal", statusOK, "no runs recorded", colorize)
	}
	if err != nil {
		return renderStatusLine("Journal", statusError, err.Error(), colorize)
	}
	kind := statusOK
	if run.Status != history.StatusCompleted {
		kind = statusWarn
	}
	return renderStatusLine("Last run", kind, fmt.Sprintf("%s %s (%d created, %d copied, %d failed)",
		shortID(run.ID), run.Status, run.MotionPhotosCreated, run.FilesCopied, run.Failures), colorize)
}

func missingDependencyNames(statuses []deps.Status) []string {
	var names []string
	for _, s := range deps.MissingRequired(statuses) {
		names = append(names, s.Name)
	}
	return names
}
