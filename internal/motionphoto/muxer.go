package motionphoto

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"motionmux/internal/logging"
	"motionmux/internal/services"
)

// Writer names accepted in Options.MetadataWriter.
const (
	WriterNative   = "native"
	WriterExiftool = "exiftool"
)

// DefaultPresentationTimestampUs places the still 1.5s into the clip, matching
// Apple Live Photos.
const DefaultPresentationTimestampUs = 1500000

// Options configures metadata writing.
type Options struct {
	MetadataWriter          string
	ExiftoolBinary          string
	PresentationTimestampUs int64
}

// Muxer combines a JPEG photo and a MOV/MP4 clip into a Motion Photo.
type Muxer struct {
	logger   *slog.Logger
	opts     Options
	run      services.CommandRunner
	lookPath func(string) (string, error)
}

// NewMuxer constructs a Motion Photo muxer.
func NewMuxer(logger *slog.Logger, opts Options) *Muxer {
	if opts.MetadataWriter == "" {
		opts.MetadataWriter = WriterNative
	}
	if opts.ExiftoolBinary == "" {
		opts.ExiftoolBinary = "exiftool"
	}
	if opts.PresentationTimestampUs == 0 {
		opts.PresentationTimestampUs = DefaultPresentationTimestampUs
	}
	return &Muxer{
		logger:   logging.NewComponentLogger(logger, "muxer"),
		opts:     opts,
		run:      services.RunCommand,
		lookPath: exec.LookPath,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (m *Muxer) WithCommandRunner(r services.CommandRunner) {
	if m != nil && r != nil {
		m.run = r
	}
}

// Writer returns the configured metadata writer.
func (m *Muxer) Writer() string {
	return m.opts.MetadataWriter
}

// ExiftoolAvailable reports whether the exiftool binary resolves on PATH.
func (m *Muxer) ExiftoolAvailable() bool {
	_, err := m.lookPath(m.opts.ExiftoolBinary)
	return err == nil
}

// Validate checks that photo is an existing JPEG and video an existing MOV or
// MP4, by extension. Failures wrap services.ErrInvalidInput.
func Validate(photo, video string) error {
	if _, err := os.Stat(photo); err != nil {
		return services.Wrap(services.ErrInvalidInput, "mux", "validate", fmt.Sprintf("photo does not exist: %s", photo), err)
	}
	if _, err := os.Stat(video); err != nil {
		return services.Wrap(services.ErrInvalidInput, "mux", "validate", fmt.Sprintf("video does not exist: %s", video), err)
	}
	switch strings.ToLower(filepath.Ext(photo)) {
	case ".jpg", ".jpeg":
	default:
		return services.Wrap(services.ErrInvalidInput, "mux", "validate", fmt.Sprintf("photo isn't a JPEG: %s", photo), nil)
	}
	switch strings.ToLower(filepath.Ext(video)) {
	case ".mov", ".mp4":
	default:
		return services.Wrap(services.ErrInvalidInput, "mux", "validate", fmt.Sprintf("video isn't a MOV or MP4: %s", video), nil)
	}
	return nil
}

// OutputPath returns where Mux writes the Motion Photo for photo.
func OutputPath(photo, outputDir string) string {
	return filepath.Join(outputDir, filepath.Base(photo))
}

// Mux writes outputDir/<photo name>: the photo with GCamera MicroVideo XMP
// followed by the video bytes. The file appears atomically. Errors wrap
// services.ErrMux.
func (m *Muxer) Mux(ctx context.Context, photo, video, outputDir string) (string, error) {
	if m == nil {
		return "", services.Wrap(services.ErrMux, "mux", "", "muxer not initialized", nil)
	}
	if err := Validate(photo, video); err != nil {
		return "", services.Wrap(services.ErrMux, "mux", "validate", "", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrMux, "mux", "create output directory", outputDir, err)
	}

	target := OutputPath(photo, outputDir)
	tmpPath := filepath.Join(outputDir, ".mux-"+filepath.Base(photo)+".tmp")
	logger := logging.WithContext(ctx, m.logger)

	videoSize, err := m.writeMerged(ctx, photo, video, tmpPath, logger)
	if err != nil {
		_ = os.Remove(tmpPath)
		return "", services.Wrap(services.ErrMux, "mux", "merge", filepath.Base(photo), err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return "", services.Wrap(services.ErrMux, "mux", "finalize", target, err)
	}

	logger.Info("motion photo written",
		logging.String(logging.FieldEventType, "motion_photo_written"),
		logging.String("output", target),
		logging.Int64("video_offset", videoSize),
		logging.String("writer", m.opts.MetadataWriter),
	)
	return target, nil
}

func (m *Muxer) writeMerged(ctx context.Context, photo, video, tmpPath string, logger *slog.Logger) (int64, error) {
	photoData, err := os.ReadFile(photo)
	if err != nil {
		return 0, fmt.Errorf("read photo: %w", err)
	}
	info, err := os.Stat(video)
	if err != nil {
		return 0, fmt.Errorf("stat video: %w", err)
	}
	videoSize := info.Size()
	meta := Metadata{Offset: videoSize, PresentationTimestampUs: m.opts.PresentationTimestampUs}

	if m.opts.MetadataWriter != WriterExiftool {
		withXMP, dropped, err := injectXMP(photoData, meta)
		if err != nil {
			return 0, err
		}
		if dropped {
			logging.WarnWithContext(logger, "existing XMP metadata could not be merged", "xmp_replaced",
				logging.String("photo", photo),
				logging.String(logging.FieldImpact, "prior XMP tags in the photo are not carried over"),
				logging.String(logging.FieldErrorHint, "use mux.metadata_writer = \"exiftool\" to merge tags instead"),
			)
		}
		photoData = withXMP
	}

	if err := appendVideo(tmpPath, photoData, video); err != nil {
		return 0, err
	}

	if m.opts.MetadataWriter == WriterExiftool {
		args := []string{
			"-overwrite_original",
			"-XMP-GCamera:MicroVideo=1",
			"-XMP-GCamera:MicroVideoVersion=1",
			"-XMP-GCamera:MicroVideoOffset=" + strconv.FormatInt(meta.Offset, 10),
			"-XMP-GCamera:MicroVideoPresentationTimestampUs=" + strconv.FormatInt(meta.PresentationTimestampUs, 10),
			tmpPath,
		}
		logger.Debug("writing xmp via exiftool", logging.String("binary", m.opts.ExiftoolBinary))
		if err := m.run(ctx, m.opts.ExiftoolBinary, args...); err != nil {
			return 0, services.Wrap(services.ErrExternalTool, "mux", "exiftool", "", err)
		}
	}
	return videoSize, nil
}

func appendVideo(path string, photoData []byte, video string) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	in, err := os.Open(video)
	if err != nil {
		_ = out.Close()
		return fmt.Errorf("open video: %w", err)
	}
	defer in.Close()

	if _, err := out.Write(photoData); err != nil {
		_ = out.Close()
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Info describes an existing Motion Photo.
type Info struct {
	Path     string
	Size     int64
	Metadata Metadata
}

// VideoStart returns the byte offset where the embedded clip begins.
func (i Info) VideoStart() int64 {
	return i.Size - i.Metadata.Offset
}

// ErrNotMotionPhoto is returned by Inspect for files without micro video XMP.
var ErrNotMotionPhoto = errors.New("not a motion photo")

// Inspect reads the micro video description from path. Only the JPEG head is
// searched; the embedded clip is never parsed.
func Inspect(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return Info{}, err
	}
	head := make([]byte, 128*1024)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Info{}, err
	}
	meta, ok := ParseMetadata(head[:n])
	if !ok {
		return Info{}, fmt.Errorf("%s: %w", path, ErrNotMotionPhoto)
	}
	if meta.Offset > stat.Size() {
		return Info{}, fmt.Errorf("%s: micro video offset %d exceeds file size %d: %w", path, meta.Offset, stat.Size(), fs.ErrInvalid)
	}
	return Info{Path: path, Size: stat.Size(), Metadata: meta}, nil
}
