package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"motionmux/internal/config"
	"motionmux/internal/convert"
	"motionmux/internal/history"
	"motionmux/internal/logging"
	"motionmux/internal/migrate"
	"motionmux/internal/motionphoto"
	"motionmux/internal/pairing"
	"motionmux/internal/preflight"
	"motionmux/internal/scan"
	"motionmux/internal/services"
)

type migrateOptions struct {
	input          string
	output         string
	recurse        bool
	dryRun         bool
	yes            bool
	noOverwrite    bool
	legacyExitCode bool
}

func bindMigrateFlags(cmd *cobra.Command, opts *migrateOptions) {
	flags := cmd.Flags()
	flags.StringVarP(&opts.input, "input", "i", "", "Input directory to scan")
	flags.StringVarP(&opts.output, "output", "o", "", "Output directory for migrated files")
	flags.BoolVarP(&opts.recurse, "recurse", "r", false, "Recurse into subdirectories")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Only analyze and print the summary")
	flags.BoolVarP(&opts.yes, "yes", "y", false, "Proceed without prompting")
	flags.BoolVar(&opts.noOverwrite, "no-overwrite", false, "Do not overwrite existing Motion Photos")
	flags.BoolVar(&opts.legacyExitCode, "legacy-exit-code", false, "Exit 0 even when some pairs failed")
}

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	var opts migrateOptions
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Mux every image + clip pair and copy the rest",
		Long: `Scan --input, print a summary and, after confirmation, write one Motion
Photo per pair into --output. Unpaired images, unpaired clips and other files
are copied unchanged; an existing destination file is never replaced by a copy.

--dry-run always stops after the summary, even together with --yes.

Exit status is 0 on success, 1 on a fatal error and 2 when the batch finished
but at least one pair or copy failed (use --legacy-exit-code to always exit 0
after a completed batch).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, ctx, opts)
		},
	}
	bindMigrateFlags(cmd, &opts)
	return cmd
}

func runMigrate(cmd *cobra.Command, ctx *commandContext, opts migrateOptions) error {
	if strings.TrimSpace(opts.input) == "" || strings.TrimSpace(opts.output) == "" {
		return errors.New("both --input and --output are required")
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	recurse := opts.recurse || cfg.Migrate.Recurse
	entries, err := scan.Directory(opts.input, recurse)
	if err != nil {
		return err
	}
	classification := pairing.Classify(entries)
	out := cmd.OutOrStdout()
	printSummary(out, pairing.Summarize(entries, classification))

	if opts.dryRun {
		return nil
	}

	if !opts.yes {
		proceed, err := runMenu(cmd.InOrStdin(), out, classification)
		if err != nil {
			return err
		}
		if !proceed {
			return nil
		}
	}

	if failed := preflight.Failed(preflight.RunAll(cfg, preflight.Targets{InputDir: opts.input, OutputDir: opts.output})); len(failed) > 0 {
		for _, f := range failed {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", f.Name, f.Detail)
		}
		return services.Wrap(services.ErrConfiguration, "migrate", "preflight", fmt.Sprintf("%d check(s) failed", len(failed)), nil)
	}

	migrator, closeFn, err := buildMigrator(cfg, logger, out)
	if err != nil {
		return err
	}
	defer closeFn()

	req := migrate.FromClassification(classification, opts.output, cfg.Migrate.Overwrite && !opts.noOverwrite)
	if abs, err := filepath.Abs(opts.input); err == nil {
		req.InputDir = abs
	}

	result, runErr := migrator.run(cmd, req)
	if runErr != nil && !result.Interrupted {
		return runErr
	}
	printCompletion(out, result)

	switch {
	case runErr != nil:
		return withExitCode(exitInterruptCode, runErr)
	case len(result.Failures()) > 0 && !opts.legacyExitCode:
		return withExitCode(exitItemsFailed, nil)
	}
	return nil
}

type migrationRunner struct {
	migrator *migrate.Migrator
	progress *progressObserver
}

func (r *migrationRunner) run(cmd *cobra.Command, req migrate.Request) (migrate.Result, error) {
	if r.progress != nil {
		r.progress.start(req.Steps())
		defer r.progress.finish()
	}
	return r.migrator.Migrate(cmd.Context(), req)
}

// buildMigrator wires the configured conversion chain, muxer, lock directory,
// journal and progress bar. The returned func releases the journal.
func buildMigrator(cfg *config.Config, logger *slog.Logger, out io.Writer) (*migrationRunner, func(), error) {
	chain, err := convert.FromConfig(cfg, logger, convert.Options{})
	if err != nil {
		return nil, nil, err
	}
	muxer := motionphoto.NewMuxer(logger, motionphoto.Options{
		MetadataWriter:          cfg.Mux.MetadataWriter,
		ExiftoolBinary:          cfg.Mux.ExiftoolBinary,
		PresentationTimestampUs: cfg.Mux.PresentationTimestampUs,
	})
	if muxer.Writer() == motionphoto.WriterExiftool && !muxer.ExiftoolAvailable() {
		return nil, nil, services.Wrap(services.ErrExternalTool, "migrate", "check exiftool",
			fmt.Sprintf("%q not found; install exiftool or set mux.metadata_writer = \"native\"", cfg.Mux.ExiftoolBinary), nil)
	}

	opts := []migrate.Option{migrate.WithStagingRoot(cfg.StagingRoot())}
	if cfg.Migrate.Lock {
		opts = append(opts, migrate.WithLockDir(cfg.LockDir()))
	}

	closeFn := func() {}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.HistoryPath())
		if err != nil {
			logging.WarnWithContext(logger, "run journal unavailable", "history_open_failed",
				logging.String("path", cfg.HistoryPath()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete the journal or set history.enabled = false"),
				logging.String(logging.FieldImpact, "this run is not recorded"),
			)
		} else {
			opts = append(opts, migrate.WithRecorder(store))
			closeFn = func() { _ = store.Close() }
		}
	}

	runner := &migrationRunner{}
	if shouldColorize(out) {
		runner.progress = newProgressObserver(out)
		opts = append(opts, migrate.WithObserver(runner.progress))
	}
	runner.migrator = migrate.New(logger, chain, muxer, opts...)
	return runner, closeFn, nil
}
