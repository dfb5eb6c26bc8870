package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"motionmux/internal/config"
	"motionmux/internal/logging"
	"motionmux/internal/pairing"
	"motionmux/internal/services"
)

// Attempt records one backend failure.
type Attempt struct {
	Backend string
	Err     error
}

// ConversionFailure is returned when no backend produced a JPEG. It matches
// services.ErrConversion and every attempt error under errors.Is.
type ConversionFailure struct {
	Source   string
	Attempts []Attempt
}

func (f *ConversionFailure) Error() string {
	if len(f.Attempts) == 0 {
		return fmt.Sprintf("convert %s to jpeg: no backend available", f.Source)
	}
	parts := make([]string, 0, len(f.Attempts))
	for _, a := range f.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Backend, a.Err))
	}
	return fmt.Sprintf("convert %s to jpeg: %s", f.Source, strings.Join(parts, "; "))
}

func (f *ConversionFailure) Unwrap() []error {
	errs := make([]error, 0, len(f.Attempts)+1)
	errs = append(errs, services.ErrConversion)
	for _, a := range f.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// Chain tries backends in order until one produces a JPEG.
type Chain struct {
	backends []Backend
	timeout  time.Duration
	logger   *slog.Logger
}

// NewChain constructs a chain over the given backends.
func NewChain(logger *slog.Logger, timeout time.Duration, backends ...Backend) *Chain {
	return &Chain{
		backends: backends,
		timeout:  timeout,
		logger:   logging.NewComponentLogger(logger, "convert"),
	}
}

// Options injects process plumbing into FromConfig.
type Options struct {
	LookPath LookPathFunc
	Runner   services.CommandRunner
	GOOS     string
}

// FromConfig builds the chain described by the [conversion] section.
func FromConfig(cfg *config.Config, logger *slog.Logger, opts Options) (*Chain, error) {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	conv := cfg.Conversion
	backends := make([]Backend, 0, len(conv.Backends))
	for _, name := range conv.Backends {
		switch name {
		case config.BackendCopy:
			backends = append(backends, NewCopyBackend())
		case config.BackendNative:
			backends = append(backends, NewNativeBackend(NativeOptions{
				SipsBinary:   conv.SipsBinary,
				MagickBinary: conv.MagickBinary,
				Quality:      conv.JPEGQuality,
				GOOS:         opts.GOOS,
				LookPath:     opts.LookPath,
				Runner:       opts.Runner,
			}))
		case config.BackendImage:
			backends = append(backends, NewImageBackend(conv.JPEGQuality, conv.MaxDimension))
		case config.BackendFFmpeg:
			backends = append(backends, NewFFmpegBackend(conv.FFmpegBinary, opts.LookPath, opts.Runner))
		default:
			return nil, services.Wrap(services.ErrConfiguration, "convert", "build chain", fmt.Sprintf("unknown backend %q", name), nil)
		}
	}
	return NewChain(logger, cfg.ConversionTimeout(), backends...), nil
}

// Backends returns the configured backends in attempt order.
func (c *Chain) Backends() []Backend {
	out := make([]Backend, len(c.backends))
	copy(out, c.backends)
	return out
}

// TargetPath returns where Convert places the JPEG for src inside destDir.
func TargetPath(src, destDir string) string {
	stem, _ := pairing.SplitName(filepath.Base(src))
	return filepath.Join(destDir, stem+".jpg")
}

// Convert writes a JPEG rendition of src into destDir and returns its path.
// Unavailable and non-applicable backends are skipped. When every backend
// fails the error is a *ConversionFailure.
func (c *Chain) Convert(ctx context.Context, src, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create conversion directory: %w", err)
	}
	dst := TargetPath(src, destDir)
	logger := logging.WithContext(ctx, c.logger)

	failure := &ConversionFailure{Source: src}
	for _, backend := range c.backends {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if !backend.Available() {
			logger.Debug("conversion backend unavailable", logging.String("backend", backend.Name()))
			continue
		}

		err := c.attempt(ctx, backend, src, dst)
		if err == nil {
			logger.Debug("image converted",
				logging.String(logging.FieldEventType, "image_converted"),
				logging.String("backend", backend.Name()),
				logging.String("source", src),
			)
			return dst, nil
		}
		_ = os.Remove(dst)
		if errors.Is(err, ErrNotApplicable) {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		logger.Info("conversion backend failed; trying next",
			logging.String("backend", backend.Name()),
			logging.String("source", src),
			logging.Error(err),
		)
		failure.Attempts = append(failure.Attempts, Attempt{Backend: backend.Name(), Err: err})
	}
	return "", failure
}

func (c *Chain) attempt(ctx context.Context, backend Backend, src, dst string) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if err := backend.Convert(ctx, src, dst); err != nil {
		return err
	}
	info, err := os.Stat(dst)
	if err != nil {
		return fmt.Errorf("%s produced no output: %w", backend.Name(), err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s produced an empty file", backend.Name())
	}
	return nil
}
