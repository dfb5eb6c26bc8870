package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const dirPrefix = "run-"

// Area is a staging directory owned by one migration run. A lock file beside
// the directory marks it live so concurrent cleanup leaves it alone.
type Area struct {
	RunID string
	Path  string
	lock  *flock.Flock
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Acquire creates root/run-<runID> and locks it for the caller. An empty
// runID gets a fresh identifier.
func Acquire(root, runID string) (*Area, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		root = os.TempDir()
	}
	if runID == "" {
		runID = NewRunID()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create staging root: %w", err)
	}

	lock := flock.New(lockPath(root, dirPrefix+runID))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock staging area: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("staging area for run %s is already in use", runID)
	}

	path := filepath.Join(root, dirPrefix+runID)
	if err := os.MkdirAll(path, 0o700); err != nil {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
		return nil, fmt.Errorf("create staging area: %w", err)
	}
	return &Area{RunID: runID, Path: path, lock: lock}, nil
}

// Release removes the staging directory and its lock. It is safe to call
// more than once.
func (a *Area) Release() error {
	if a == nil || a.lock == nil {
		return nil
	}
	err := os.RemoveAll(a.Path)
	_ = a.lock.Unlock()
	_ = os.Remove(a.lock.Path())
	a.lock = nil
	if err != nil {
		return fmt.Errorf("remove staging area: %w", err)
	}
	return nil
}

func lockPath(root, name string) string {
	return filepath.Join(root, "."+name+".lock")
}

// isLive reports whether another process holds the lock for a staging dir.
func isLive(root, name string) bool {
	path := lockPath(root, name)
	if _, err := os.Stat(path); err != nil {
		return false
	}
	probe := flock.New(path)
	locked, err := probe.TryLock()
	if err != nil {
		return true
	}
	if locked {
		_ = probe.Unlock()
		return false
	}
	return true
}
