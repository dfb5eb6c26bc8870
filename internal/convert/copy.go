package convert

import (
	"context"
	"strings"

	"motionmux/internal/fileutil"
)

type copyBackend struct{}

// NewCopyBackend returns the byte-preserving backend for sources that are
// already JPEG.
func NewCopyBackend() Backend { return copyBackend{} }

func (copyBackend) Name() string    { return "copy" }
func (copyBackend) Available() bool { return true }

func (copyBackend) Convert(_ context.Context, src, dst string) error {
	if !IsJPEG(src) {
		return ErrNotApplicable
	}
	return fileutil.CopyFileVerified(src, dst)
}

// IsJPEG reports whether path carries a JPEG extension.
func IsJPEG(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg")
}
