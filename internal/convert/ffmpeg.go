package convert

import (
	"context"

	"motionmux/internal/services"
)

type ffmpegBackend struct {
	binary   string
	lookPath LookPathFunc
	run      services.CommandRunner
}

// NewFFmpegBackend returns the single-frame transcode backend.
func NewFFmpegBackend(binary string, lookPath LookPathFunc, runner services.CommandRunner) Backend {
	if binary == "" {
		binary = "ffmpeg"
	}
	if runner == nil {
		runner = services.RunCommand
	}
	return &ffmpegBackend{binary: binary, lookPath: lookPath, run: runner}
}

func (b *ffmpegBackend) Name() string { return "ffmpeg" }

func (b *ffmpegBackend) Available() bool {
	return binaryAvailable(b.lookPath, b.binary)
}

func (b *ffmpegBackend) Convert(ctx context.Context, src, dst string) error {
	args := []string{"-hide_banner", "-loglevel", "error", "-y", "-i", src, "-frames:v", "1", "-q:v", "2", dst}
	return b.run(ctx, b.binary, args...)
}
