package convert_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"motionmux/internal/config"
	"motionmux/internal/convert"
	"motionmux/internal/logging"
	"motionmux/internal/services"
)

type fakeBackend struct {
	name      string
	available bool
	err       error
	calls     int
	write     bool
}

func (f *fakeBackend) Name() string    { return f.name }
func (f *fakeBackend) Available() bool { return f.available }

func (f *fakeBackend) Convert(_ context.Context, _ string, dst string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if f.write {
		return os.WriteFile(dst, []byte("jpeg-bytes"), 0o644)
	}
	return nil
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 128})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
}

func TestChainFallsThroughInOrder(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "IMG_1.HEIC")
	if err := os.WriteFile(src, []byte("heic"), 0o644); err != nil {
		t.Fatal(err)
	}

	unavailable := &fakeBackend{name: "native", available: false, write: true}
	failing := &fakeBackend{name: "image", available: true, err: errors.New("decode failed")}
	silent := &fakeBackend{name: "quiet", available: true}
	working := &fakeBackend{name: "ffmpeg", available: true, write: true}
	chain := convert.NewChain(logging.NewNop(), 0, convert.NewCopyBackend(), unavailable, failing, silent, working)

	out, err := chain.Convert(context.Background(), src, filepath.Join(dir, "stage"))
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if out != filepath.Join(dir, "stage", "IMG_1.jpg") {
		t.Fatalf("unexpected output path: %s", out)
	}
	if unavailable.calls != 0 {
		t.Fatal("expected unavailable backend to be skipped")
	}
	if failing.calls != 1 || silent.calls != 1 || working.calls != 1 {
		t.Fatalf("unexpected call counts: %d %d %d", failing.calls, silent.calls, working.calls)
	}
}

func TestChainAllFailIsConversionFailure(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "IMG_2.png")
	if err := os.WriteFile(src, []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	toolErr := errors.New("ffmpeg exploded")
	chain := convert.NewChain(nil, 0,
		convert.NewCopyBackend(),
		convert.NewImageBackend(90, 0),
		&fakeBackend{name: "ffmpeg", available: true, err: toolErr},
	)

	_, err := chain.Convert(context.Background(), src, dir)
	if err == nil {
		t.Fatal("expected conversion failure")
	}
	if !errors.Is(err, services.ErrConversion) {
		t.Fatalf("expected ErrConversion marker, got %v", err)
	}
	if !errors.Is(err, toolErr) {
		t.Fatalf("expected backend error to be wrapped, got %v", err)
	}
	var failure *convert.ConversionFailure
	if !errors.As(err, &failure) {
		t.Fatalf("expected *ConversionFailure, got %T", err)
	}
	if len(failure.Attempts) != 2 || failure.Attempts[0].Backend != "image" || failure.Attempts[1].Backend != "ffmpeg" {
		t.Fatalf("unexpected attempts: %+v", failure.Attempts)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "IMG_2.jpg")); !os.IsNotExist(statErr) {
		t.Fatalf("expected no leftover output, got %v", statErr)
	}
}

func TestChainNoBackendsAvailable(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.heic")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	chain := convert.NewChain(nil, 0, &fakeBackend{name: "native"})
	_, err := chain.Convert(context.Background(), src, dir)
	if !errors.Is(err, services.ErrConversion) {
		t.Fatalf("expected conversion failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "no backend available") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestChainRejectsEmptyOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.heic")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	empty := &fakeBackend{name: "empty", available: true}
	chain := convert.NewChain(nil, 0, empty)
	if _, err := chain.Convert(context.Background(), src, dir); !errors.Is(err, services.ErrConversion) {
		t.Fatalf("expected conversion failure for missing output, got %v", err)
	}
}

func TestChainStopsOnCancelledContext(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.jpg")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	backend := &fakeBackend{name: "x", available: true, write: true}
	_, err := convert.NewChain(nil, 0, backend).Convert(ctx, src, dir)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if backend.calls != 0 {
		t.Fatal("expected no backend calls after cancellation")
	}
}

func TestCopyBackendPreservesBytes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "IMG_1.JPEG")
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3, 0xFF, 0xD9}
	if err := os.WriteFile(src, payload, 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := convert.NewChain(nil, 0, convert.NewCopyBackend()).Convert(context.Background(), src, filepath.Join(dir, "out"))
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("expected byte-identical copy")
	}
	if filepath.Base(out) != "IMG_1.jpg" {
		t.Fatalf("unexpected output name %s", out)
	}
}

func TestImageBackendConvertsAndDownscalesPNG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "wide.png")
	writePNG(t, src, 400, 200)

	out, err := convert.NewChain(nil, 0, convert.NewImageBackend(90, 100)).Convert(context.Background(), src, dir)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	if err != nil {
		t.Fatalf("output is not a jpeg: %v", err)
	}
	if cfg.Width != 100 || cfg.Height != 50 {
		t.Fatalf("expected 100x50 after downscale, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestNativeBackendArgs(t *testing.T) {
	var gotName string
	var gotArgs []string
	runner := func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	}
	lookPath := func(file string) (string, error) { return "/usr/bin/" + file, nil }

	darwin := convert.NewNativeBackend(convert.NativeOptions{GOOS: "darwin", Quality: 90, LookPath: lookPath, Runner: runner})
	if !darwin.Available() {
		t.Fatal("expected sips to be available")
	}
	if err := darwin.Convert(context.Background(), "/in/a.heic", "/out/a.jpg"); err != nil {
		t.Fatal(err)
	}
	if gotName != "sips" || strings.Join(gotArgs, " ") != "-s format jpeg -s formatOptions 90 /in/a.heic --out /out/a.jpg" {
		t.Fatalf("unexpected sips invocation: %s %v", gotName, gotArgs)
	}

	linux := convert.NewNativeBackend(convert.NativeOptions{GOOS: "linux", MagickBinary: "convert", LookPath: lookPath, Runner: runner})
	if err := linux.Convert(context.Background(), "/in/a.heic", "/out/a.jpg"); err != nil {
		t.Fatal(err)
	}
	if gotName != "convert" || strings.Join(gotArgs, " ") != "/in/a.heic jpeg:/out/a.jpg" {
		t.Fatalf("unexpected magick invocation: %s %v", gotName, gotArgs)
	}

	missing := convert.NewNativeBackend(convert.NativeOptions{GOOS: "linux", LookPath: func(string) (string, error) { return "", errors.New("not found") }})
	if missing.Available() {
		t.Fatal("expected backend to be unavailable when binary is missing")
	}
}

func TestFFmpegBackendUsesStubExecutable(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffmpeg")
	// The stub copies its input (argument 6) to the final argument.
	script := "#!/bin/sh\nfor last; do :; done\ncp \"$6\" \"$last\"\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(dir, "clip.heic")
	if err := os.WriteFile(src, []byte("frame"), 0o644); err != nil {
		t.Fatal(err)
	}

	backend := convert.NewFFmpegBackend(stub, nil, nil)
	if !backend.Available() {
		t.Fatal("expected stub ffmpeg to be available")
	}
	out, err := convert.NewChain(nil, 0, backend).Convert(context.Background(), src, filepath.Join(dir, "stage"))
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	got, _ := os.ReadFile(out)
	if string(got) != "frame" {
		t.Fatalf("unexpected output contents %q", got)
	}
}

func TestFromConfigRespectsOrder(t *testing.T) {
	cfg := config.Default()
	cfg.Conversion.Backends = []string{"ffmpeg", "copy"}
	chain, err := convert.FromConfig(&cfg, nil, convert.Options{})
	if err != nil {
		t.Fatalf("FromConfig returned error: %v", err)
	}
	backends := chain.Backends()
	if len(backends) != 2 || backends[0].Name() != "ffmpeg" || backends[1].Name() != "copy" {
		t.Fatalf("unexpected backend order: %v", backends)
	}

	cfg.Conversion.Backends = []string{"gimp"}
	if _, err := convert.FromConfig(&cfg, nil, convert.Options{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestTargetPathNormalizesStem(t *testing.T) {
	got := convert.TargetPath("/in/Café.HEIC", "/stage")
	if got != "/stage/Café.jpg" {
		t.Fatalf("unexpected target %q", got)
	}
}
