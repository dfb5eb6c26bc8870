package history_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"motionmux/internal/history"
	"motionmux/internal/migrate"
	"motionmux/internal/services"
)

func openStore(t *testing.T) (*history.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func recordRun(t *testing.T, store *history.Store, id string, started time.Time, result migrate.Result) {
	t.Helper()
	ctx := context.Background()
	if err := store.RunStarted(ctx, migrate.RunInfo{
		RunID:     id,
		InputDir:  "/in",
		OutputDir: "/out",
		Overwrite: true,
		Pairs:     2,
		Copies:    1,
		StartedAt: started,
	}); err != nil {
		t.Fatalf("RunStarted: %v", err)
	}
	result.RunID = id
	for _, item := range result.Items {
		if err := store.ItemFinished(ctx, id, item); err != nil {
			t.Fatalf("ItemFinished: %v", err)
		}
	}
	if err := store.RunFinished(ctx, result); err != nil {
		t.Fatalf("RunFinished: %v", err)
	}
}

func TestJournalRoundTrip(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()
	failure := services.Wrap(services.ErrMux, "pair", "mux", "B", errors.New("disk full"))
	result := migrate.Result{
		MotionPhotosCreated: 1,
		FilesCopied:         0,
		Items: []migrate.ItemResult{
			{Kind: migrate.KindPair, Base: "A", Source: "/in/A.heic", Video: "/in/A.mov", Target: "/out/A.jpg", Outcome: migrate.OutcomeCreated},
			{Kind: migrate.KindPair, Base: "B", Source: "/in/B.heic", Video: "/in/B.mov", Target: "/out/B.jpg", Outcome: migrate.OutcomeMuxFailed, Err: failure},
			{Kind: migrate.KindOther, Base: "notes", Source: "/in/notes.txt", Target: "/out/notes.txt", Outcome: migrate.OutcomeCollision},
		},
	}
	recordRun(t, store, "run-1", time.Now(), result)

	run, err := store.GetRun(ctx, "run-1")
	if err != nil || run == nil {
		t.Fatalf("GetRun: %v %v", run, err)
	}
	if run.Status != history.StatusCompletedWithFailure {
		t.Fatalf("status = %q", run.Status)
	}
	if run.MotionPhotosCreated != 1 || run.Failures != 1 || run.Skipped != 1 || run.PlannedPairs != 2 {
		t.Fatalf("unexpected counters: %+v", run)
	}
	if run.FinishedAt.IsZero() || !run.Overwrite {
		t.Fatalf("unexpected run fields: %+v", run)
	}

	items, err := store.ListItems(ctx, "run-1")
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}
	if items[1].Outcome != "mux_failed" || items[1].FailureKind != "mux" || items[1].Error == "" {
		t.Fatalf("failure not journaled: %+v", items[1])
	}
	if items[0].Video != "/in/A.mov" {
		t.Fatalf("video path = %q", items[0].Video)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store, _ := openStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	recordRun(t, store, "older", base, migrate.Result{})
	recordRun(t, store, "newer", base.Add(time.Hour), migrate.Result{Interrupted: true})

	runs, err := store.ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "newer" || runs[1].ID != "older" {
		t.Fatalf("unexpected order: %+v", runs)
	}
	if runs[0].Status != history.StatusInterrupted || runs[1].Status != history.StatusCompleted {
		t.Fatalf("unexpected statuses: %q %q", runs[0].Status, runs[1].Status)
	}

	limited, err := store.ListRuns(context.Background(), 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("limited = %v %v", limited, err)
	}

	latest, err := store.Latest(context.Background())
	if err != nil || latest.ID != "newer" {
		t.Fatalf("Latest = %+v %v", latest, err)
	}
}

func TestGetRunByPrefix(t *testing.T) {
	store, _ := openStore(t)
	recordRun(t, store, "abc123", time.Now(), migrate.Result{})
	recordRun(t, store, "abd456", time.Now(), migrate.Result{})

	run, err := store.GetRun(context.Background(), "abc")
	if err != nil || run == nil || run.ID != "abc123" {
		t.Fatalf("GetRun prefix = %+v %v", run, err)
	}
	if _, err := store.GetRun(context.Background(), "ab"); err == nil {
		t.Fatal("expected ambiguous prefix error")
	}
	missing, err := store.GetRun(context.Background(), "zzz")
	if err != nil || missing != nil {
		t.Fatalf("missing run = %+v %v", missing, err)
	}
}

func TestClearRemovesItems(t *testing.T) {
	store, _ := openStore(t)
	recordRun(t, store, "r1", time.Now(), migrate.Result{Items: []migrate.ItemResult{
		{Kind: migrate.KindImage, Source: "/in/x.png", Outcome: migrate.OutcomeCopied},
	}})
	n, err := store.Clear(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("Clear = %d %v", n, err)
	}
	items, err := store.ListItems(context.Background(), "r1")
	if err != nil || len(items) != 0 {
		t.Fatalf("items survived clear: %v %v", items, err)
	}
	if _, err := store.Latest(context.Background()); !errors.Is(err, history.ErrNoRuns) {
		t.Fatalf("expected ErrNoRuns, got %v", err)
	}
}

func TestRunFinishedUnknownRun(t *testing.T) {
	store, _ := openStore(t)
	if err := store.RunFinished(context.Background(), migrate.Result{RunID: "ghost"}); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	store, path := openStore(t)
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := history.Open(path); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestReopenKeepsRuns(t *testing.T) {
	store, path := openStore(t)
	recordRun(t, store, "persist", time.Now(), migrate.Result{})
	_ = store.Close()

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	runs, err := reopened.ListRuns(context.Background(), 0)
	if err != nil || len(runs) != 1 || runs[0].ID != "persist" {
		t.Fatalf("runs after reopen = %+v %v", runs, err)
	}
}
