package migrate

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another run holds the output directory.
var ErrLocked = errors.New("output directory is in use by another motionmux run")

// outputLock guards one output directory across processes.
type outputLock struct {
	lock *flock.Flock
}

func lockOutput(lockDir, outputDir string) (*outputLock, error) {
	abs, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output directory: %w", err)
	}
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	sum := sha256.Sum256([]byte(abs))
	lock := flock.New(filepath.Join(lockDir, "output-"+hex.EncodeToString(sum[:8])+".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock output directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, abs)
	}
	return &outputLock{lock: lock}, nil
}

func (l *outputLock) release() {
	if l == nil || l.lock == nil {
		return
	}
	_ = l.lock.Unlock()
}
