package history

import (
	"context"
	"errors"
	"fmt"

	"motionmux/internal/migrate"
	"motionmux/internal/services"
)

// Run statuses stored in the journal.
const (
	StatusRunning              = "running"
	StatusCompleted            = "completed"
	StatusCompletedWithFailure = "completed_with_failures"
	StatusInterrupted          = "interrupted"
)

var _ migrate.Recorder = (*Store)(nil)

// RunStarted inserts the run row.
func (s *Store) RunStarted(ctx context.Context, info migrate.RunInfo) error {
	if info.RunID == "" {
		return errors.New("run id is required")
	}
	started := s.timestamp()
	if !info.StartedAt.IsZero() {
		started = formatTime(info.StartedAt)
	}
	_, err := s.exec(ctx, `INSERT INTO runs (
		id, started_at, input_dir, output_dir, overwrite, status, planned_pairs, planned_copies
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		info.RunID, started, info.InputDir, info.OutputDir, boolToInt(info.Overwrite),
		StatusRunning, info.Pairs, info.Copies,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ItemFinished appends one item outcome.
func (s *Store) ItemFinished(ctx context.Context, runID string, item migrate.ItemResult) error {
	errText := ""
	if item.Err != nil {
		errText = item.Err.Error()
	}
	_, err := s.exec(ctx, `INSERT INTO items (
		run_id, kind, base, source, video, target, outcome, error, failure_kind, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, string(item.Kind), item.Base, item.Source, item.Video, item.Target,
		string(item.Outcome), errText, services.FailureKind(item.Err), s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// RunFinished stores the final counters and status.
func (s *Store) RunFinished(ctx context.Context, result migrate.Result) error {
	failures := len(result.Failures())
	skipped := result.Count(migrate.OutcomeSkippedExisting) + result.Count(migrate.OutcomeCollision)
	res, err := s.exec(ctx, `UPDATE runs SET
		finished_at = ?, status = ?, motion_photos_created = ?, files_copied = ?, failures = ?, skipped = ?
		WHERE id = ?`,
		s.timestamp(), statusFor(result, failures), result.MotionPhotosCreated, result.FilesCopied,
		failures, skipped, result.RunID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", result.RunID)
	}
	return nil
}

func statusFor(result migrate.Result, failures int) string {
	switch {
	case result.Interrupted:
		return StatusInterrupted
	case failures > 0:
		return StatusCompletedWithFailure
	default:
		return StatusCompleted
	}
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
