package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Run is one journaled migration.
type Run struct {
	ID                  string
	StartedAt           time.Time
	FinishedAt          time.Time
	InputDir            string
	OutputDir           string
	Overwrite           bool
	Status              string
	PlannedPairs        int
	PlannedCopies       int
	MotionPhotosCreated int
	FilesCopied         int
	Failures            int
	Skipped             int
}

// Duration returns the wall time of a finished run, zero otherwise.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Item is one journaled item outcome.
type Item struct {
	ID          int64
	RunID       string
	Kind        string
	Base        string
	Source      string
	Video       string
	Target      string
	Outcome     string
	Error       string
	FailureKind string
	CreatedAt   time.Time
}

const runColumns = `id, started_at, COALESCE(finished_at, ''), input_dir, output_dir, overwrite, status,
	planned_pairs, planned_copies, motion_photos_created, files_copied, failures, skipped`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run               Run
		started, finished string
		overwrite         int
	)
	err := row.Scan(&run.ID, &started, &finished, &run.InputDir, &run.OutputDir, &overwrite, &run.Status,
		&run.PlannedPairs, &run.PlannedCopies, &run.MotionPhotosCreated, &run.FilesCopied, &run.Failures, &run.Skipped)
	if err != nil {
		return Run{}, err
	}
	run.StartedAt = parseTime(started)
	run.FinishedAt = parseTime(finished)
	run.Overwrite = overwrite != 0
	return run, nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns the run with id, or nil when absent. A unique id prefix is
// accepted so short ids from the listing can be used.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ? OR id LIKE ? ORDER BY id LIMIT 2", id, id+"%")
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.ID == id {
			return &run, nil
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
	}
}

// ListItems returns the items of a run in processing order.
func (s *Store) ListItems(ctx context.Context, runID string) ([]Item, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT id, run_id, kind, base, source, video, target, outcome, error, failure_kind, created_at
		FROM items WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			item    Item
			created string
		)
		if err := rows.Scan(&item.ID, &item.RunID, &item.Kind, &item.Base, &item.Source, &item.Video,
			&item.Target, &item.Outcome, &item.Error, &item.FailureKind, &created); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.CreatedAt = parseTime(created)
		items = append(items, item)
	}
	return items, rows.Err()
}

// Clear deletes every run and item and returns how many runs were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	if _, err := s.exec(ctx, "DELETE FROM items"); err != nil {
		return 0, fmt.Errorf("clear items: %w", err)
	}
	res, err := s.exec(ctx, "DELETE FROM runs")
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// ErrNoRuns is returned by Latest on an empty journal.
var ErrNoRuns = errors.New("no runs recorded")

// Latest returns the most recent run.
func (s *Store) Latest(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), "SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, id LIMIT 1")
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoRuns
	}
	if err != nil {
		return Run{}, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}
