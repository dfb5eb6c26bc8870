package convert

import (
	"context"
	"errors"
	"os/exec"
)

// ErrNotApplicable is returned by a backend that does not handle the source
// format. The chain moves on without recording a failure.
var ErrNotApplicable = errors.New("backend not applicable")

// Backend turns one still image into a JPEG at dst.
type Backend interface {
	Name() string
	// Available reports whether the backend can run in this environment.
	Available() bool
	Convert(ctx context.Context, src, dst string) error
}

// LookPathFunc resolves an executable name, matching exec.LookPath.
type LookPathFunc func(file string) (string, error)

func binaryAvailable(lookPath LookPathFunc, binary string) bool {
	if binary == "" {
		return false
	}
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	_, err := lookPath(binary)
	return err == nil
}
