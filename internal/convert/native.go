package convert

import (
	"context"
	"runtime"
	"strconv"

	"motionmux/internal/services"
)

// nativeBackend shells out to the platform image tool: sips on macOS,
// ImageMagick elsewhere.
type nativeBackend struct {
	goos     string
	sips     string
	magick   string
	quality  int
	lookPath LookPathFunc
	run      services.CommandRunner
}

// NativeOptions configures the platform image tool backend.
type NativeOptions struct {
	SipsBinary   string
	MagickBinary string
	Quality      int
	GOOS         string
	LookPath     LookPathFunc
	Runner       services.CommandRunner
}

// NewNativeBackend constructs the platform image tool backend.
func NewNativeBackend(opts NativeOptions) Backend {
	b := &nativeBackend{
		goos:     opts.GOOS,
		sips:     opts.SipsBinary,
		magick:   opts.MagickBinary,
		quality:  opts.Quality,
		lookPath: opts.LookPath,
		run:      opts.Runner,
	}
	if b.goos == "" {
		b.goos = runtime.GOOS
	}
	if b.sips == "" {
		b.sips = "sips"
	}
	if b.magick == "" {
		b.magick = "magick"
	}
	if b.run == nil {
		b.run = services.RunCommand
	}
	return b
}

func (b *nativeBackend) Name() string { return "native" }

func (b *nativeBackend) binary() string {
	if b.goos == "darwin" {
		return b.sips
	}
	return b.magick
}

func (b *nativeBackend) Available() bool {
	return binaryAvailable(b.lookPath, b.binary())
}

func (b *nativeBackend) Convert(ctx context.Context, src, dst string) error {
	return b.run(ctx, b.binary(), b.args(src, dst)...)
}

func (b *nativeBackend) args(src, dst string) []string {
	if b.goos == "darwin" {
		args := []string{"-s", "format", "jpeg"}
		if b.quality > 0 {
			args = append(args, "-s", "formatOptions", strconv.Itoa(b.quality))
		}
		return append(args, src, "--out", dst)
	}
	args := []string{src}
	if b.quality > 0 {
		args = append(args, "-quality", strconv.Itoa(b.quality))
	}
	return append(args, "jpeg:"+dst)
}
