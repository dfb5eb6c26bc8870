package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"motionmux/internal/fileutil"
	"motionmux/internal/logging"
	"motionmux/internal/pairing"
	"motionmux/internal/services"
	"motionmux/internal/staging"
)

// Migrator drives one batch: pairs are converted and muxed, everything else
// is copied verbatim.
type Migrator struct {
	logger      *slog.Logger
	converter   Converter
	muxer       Muxer
	stagingRoot string
	lockDir     string
	recorder    Recorder
	observer    Observer
	runID       string
	now         func() time.Time
}

// Option customizes a Migrator.
type Option func(*Migrator)

// WithStagingRoot sets where per-run staging directories are created.
func WithStagingRoot(dir string) Option {
	return func(m *Migrator) { m.stagingRoot = dir }
}

// WithLockDir enables the per-output-directory lock, stored under dir.
func WithLockDir(dir string) Option {
	return func(m *Migrator) { m.lockDir = dir }
}

// WithRecorder attaches a run journal.
func WithRecorder(r Recorder) Option {
	return func(m *Migrator) { m.recorder = r }
}

// WithObserver attaches a progress observer.
func WithObserver(o Observer) Option {
	return func(m *Migrator) { m.observer = o }
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(m *Migrator) { m.runID = id }
}

// New constructs a Migrator.
func New(logger *slog.Logger, converter Converter, muxer Muxer, opts ...Option) *Migrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Migrator{
		logger:    logging.NewComponentLogger(logger, "migrate"),
		converter: converter,
		muxer:     muxer,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Migrate processes req sequentially. Per-item failures are recorded in the
// result and never stop the batch. The returned error is non-nil only when
// the batch could not start or ctx was cancelled; in the latter case the
// partial result is still returned.
func (m *Migrator) Migrate(ctx context.Context, req Request) (Result, error) {
	if m.converter == nil || m.muxer == nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "migrate", "", "converter and muxer are required", nil)
	}
	if req.OutputDir == "" {
		return Result{}, services.Wrap(services.ErrInvalidInput, "migrate", "", "output directory is required", nil)
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrInvalidInput, "migrate", "create output directory", req.OutputDir, err)
	}

	if m.lockDir != "" {
		lock, err := lockOutput(m.lockDir, req.OutputDir)
		if err != nil {
			return Result{}, err
		}
		defer lock.release()
	}

	runID := m.runID
	if runID == "" {
		runID = staging.NewRunID()
	}
	area, err := staging.Acquire(m.stagingRoot, runID)
	if err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "migrate", "acquire staging", "", err)
	}

	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, m.logger)
	defer func() {
		if err := area.Release(); err != nil {
			logging.WarnWithContext(logger, "staging cleanup failed", "staging_cleanup_failed",
				logging.String("path", area.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove it manually or run motionmux staging clean"),
				logging.String(logging.FieldImpact, "temporary files remain on disk"),
			)
		}
	}()

	started := m.now()
	result := Result{RunID: runID}
	m.recordStart(ctx, logger, RunInfo{
		RunID:     runID,
		InputDir:  req.InputDir,
		OutputDir: req.OutputDir,
		Overwrite: req.Overwrite,
		Pairs:     len(req.Pairs),
		Copies:    len(req.ImagesOnly) + len(req.VideosOnly) + len(req.Others),
		StartedAt: started,
	})
	logger.Info("migration started",
		logging.String(logging.FieldEventType, "migration_started"),
		logging.String("output_dir", req.OutputDir),
		logging.Int("pairs", len(req.Pairs)),
		logging.Int("steps", req.Steps()),
		logging.Bool("overwrite", req.Overwrite),
	)

	var runErr error
	pairCtx := services.WithStage(ctx, "pair")
	for _, pair := range req.Pairs {
		if ctx.Err() != nil {
			runErr = ctx.Err()
			break
		}
		m.finish(ctx, logger, &result, m.processPair(pairCtx, area.Path, req, pair))
	}

	if runErr == nil {
		copyCtx := services.WithStage(ctx, "copy")
		groups := []struct {
			kind  Kind
			files []pairing.FileRef
		}{
			{KindImage, req.ImagesOnly},
			{KindVideo, req.VideosOnly},
			{KindOther, req.Others},
		}
	copyLoop:
		for _, group := range groups {
			for _, file := range group.files {
				if ctx.Err() != nil {
					runErr = ctx.Err()
					break copyLoop
				}
				m.finish(ctx, logger, &result, m.copyFile(copyCtx, req.OutputDir, group.kind, file))
			}
		}
	}

	if runErr != nil {
		result.Interrupted = true
		logging.WarnWithContext(logger, "migration interrupted", "migration_interrupted",
			logging.Int("processed", len(result.Items)),
			logging.Int("remaining", req.Steps()-len(result.Items)),
			logging.String(logging.FieldErrorHint, "re-run with --no-overwrite to resume"),
			logging.String(logging.FieldImpact, "remaining items were not processed"),
		)
	}
	result.Duration = m.now().Sub(started)

	if m.recorder != nil {
		// The journal must see the final state even when ctx is cancelled.
		if err := m.recorder.RunFinished(context.WithoutCancel(ctx), result); err != nil {
			m.warnRecorder(logger, err)
		}
	}

	logger.Info("migration finished",
		logging.String(logging.FieldEventType, "migration_finished"),
		logging.Int("motion_photos_created", result.MotionPhotosCreated),
		logging.Int("files_copied", result.FilesCopied),
		logging.Int("failures", len(result.Failures())),
		logging.Duration("duration", result.Duration),
	)
	return result, runErr
}

func (m *Migrator) processPair(ctx context.Context, stagingDir string, req Request, pair pairing.Pair) ItemResult {
	ctx = services.WithBase(ctx, pair.Base)
	logger := logging.WithContext(ctx, m.logger)
	item := ItemResult{
		Kind:   KindPair,
		Base:   pair.Base,
		Source: pair.Image.Path,
		Video:  pair.Video.Path,
		Target: filepath.Join(req.OutputDir, pair.Base+".jpg"),
	}

	if !req.Overwrite {
		exists, err := fileutil.Exists(item.Target)
		if err != nil {
			item.Outcome = OutcomeMuxFailed
			item.Err = services.Wrap(services.ErrMux, "pair", "check target", item.Target, err)
			m.logFailure(logger, item)
			return item
		}
		if exists {
			item.Outcome = OutcomeSkippedExisting
			logger.Info("skipping existing motion photo",
				logging.String(logging.FieldEventType, "pair_skipped_existing"),
				logging.String("target", item.Target),
			)
			return item
		}
	}

	staged, err := m.converter.Convert(ctx, pair.Image.Path, stagingDir)
	if err != nil {
		item.Outcome = OutcomeConversionFailed
		if !errors.Is(err, services.ErrConversion) {
			err = services.Wrap(services.ErrConversion, "pair", "convert", pair.Image.Name(), err)
		}
		item.Err = err
		m.logFailure(logger, item)
		return item
	}
	defer func() { _ = os.Remove(staged) }()

	target, err := m.muxer.Mux(ctx, staged, pair.Video.Path, req.OutputDir)
	if err != nil {
		item.Outcome = OutcomeMuxFailed
		if !errors.Is(err, services.ErrMux) {
			err = services.Wrap(services.ErrMux, "pair", "mux", pair.Base, err)
		}
		item.Err = err
		m.logFailure(logger, item)
		return item
	}
	if target != "" {
		item.Target = target
	}
	item.Outcome = OutcomeCreated
	return item
}

func (m *Migrator) copyFile(ctx context.Context, outputDir string, kind Kind, file pairing.FileRef) ItemResult {
	logger := logging.WithContext(services.WithBase(ctx, file.Base), m.logger)
	item := ItemResult{
		Kind:   kind,
		Base:   file.Base,
		Source: file.Path,
		Target: filepath.Join(outputDir, file.Name()),
	}
	copied, err := fileutil.CopyNew(file.Path, item.Target)
	switch {
	case err != nil:
		item.Outcome = OutcomeCopyFailed
		item.Err = fmt.Errorf("copy %s: %w", file.Name(), err)
		m.logFailure(logger, item)
	case !copied:
		item.Outcome = OutcomeCollision
		logger.Debug("destination exists, copy skipped",
			logging.String(logging.FieldEventType, "copy_collision"),
			logging.String("target", item.Target),
		)
	default:
		item.Outcome = OutcomeCopied
	}
	return item
}

func (m *Migrator) finish(ctx context.Context, logger *slog.Logger, result *Result, item ItemResult) {
	switch item.Outcome {
	case OutcomeCreated:
		result.MotionPhotosCreated++
	case OutcomeCopied:
		result.FilesCopied++
	}
	result.Items = append(result.Items, item)
	if m.recorder != nil {
		if err := m.recorder.ItemFinished(context.WithoutCancel(ctx), result.RunID, item); err != nil {
			m.warnRecorder(logger, err)
		}
	}
	if m.observer != nil {
		m.observer.ItemDone(item)
	}
}

func (m *Migrator) recordStart(ctx context.Context, logger *slog.Logger, info RunInfo) {
	if m.recorder == nil {
		return
	}
	if err := m.recorder.RunStarted(ctx, info); err != nil {
		m.warnRecorder(logger, err)
	}
}

func (m *Migrator) warnRecorder(logger *slog.Logger, err error) {
	logging.WarnWithContext(logger, "run journal write failed", "history_write_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the history database path and permissions"),
		logging.String(logging.FieldImpact, "run history is incomplete"),
	)
}

func (m *Migrator) logFailure(logger *slog.Logger, item ItemResult) {
	hint := "check logs for details"
	switch item.Outcome {
	case OutcomeConversionFailed:
		hint = "install sips, ImageMagick or ffmpeg, or adjust conversion.backends"
	case OutcomeMuxFailed:
		hint = "check the output directory and the video file"
	case OutcomeCopyFailed:
		hint = "check permissions and free space in the output directory"
	}
	logging.ErrorWithContext(logger, "item failed", string(item.Outcome),
		logging.String("source", item.Source),
		logging.String("failure", services.FailureKind(item.Err)),
		logging.Error(item.Err),
		logging.String(logging.FieldErrorHint, hint),
	)
}
