package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigInitValidateShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config exists without --overwrite")
	}

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[conversion]")
	requireContains(t, out, env.stagingDir)
}

func TestConfigValidateRejectsBadFile(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("[mux]\nmetadata_writer = \"pyexiv2\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, env.configPath); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestScanListAndJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeInput(t, "A.heic", []byte("a"))
	env.writeInput(t, "A.jpg", []byte("a"))
	env.writeInput(t, "A.mov", []byte("a"))
	env.writeInput(t, "sub/B.mp4", []byte("b"))

	out, _, err := runCLI(t, []string{"scan", env.inputDir, "--list"}, env.configPath)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	requireContains(t, out, "Total files: 3")
	requireContains(t, out, "Ambiguous basenames (multiple candidates): 1")
	requireContains(t, out, "A: A.heic")

	out, _, err = runCLI(t, []string{"scan", "-i", env.inputDir, "-r", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("scan --json: %v", err)
	}
	requireContains(t, out, `"total_files": 4`)
	requireContains(t, out, `"videos_only"`)
	requireContains(t, out, "B.mp4")
}

func TestMuxCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	photo := env.writeInput(t, "shot.jpg", jpegBytes(t))
	video := env.writeInput(t, "shot.mp4", clipBytes())

	out, _, err := runCLI(t, []string{"mux", "--photo", photo, "--video", video, "--output", env.outputDir}, env.configPath)
	if err != nil {
		t.Fatalf("mux: %v", err)
	}
	requireContains(t, out, filepath.Join(env.outputDir, "shot.jpg"))

	bad := env.writeInput(t, "shot.png", []byte("png"))
	if _, _, err := runCLI(t, []string{"mux", "--photo", bad, "--video", video, "--output", env.outputDir}, env.configPath); err == nil {
		t.Fatal("expected error for non-JPEG photo")
	}
	if _, _, err := runCLI(t, []string{"mux", "--photo", photo}, env.configPath); err == nil {
		t.Fatal("expected error without --video")
	}
}

func TestStagingListAndClean(t *testing.T) {
	env := setupCLITestEnv(t)
	leftover := filepath.Join(env.stagingDir, "run-0f3c2a11-dead-beef")
	if err := os.MkdirAll(leftover, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(leftover, "IMG_1.jpg"), []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(leftover, old, old); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"staging", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("staging list: %v", err)
	}
	requireContains(t, out, "0f3c2a11")
	requireContains(t, out, "idle")

	out, _, err = runCLI(t, []string{"staging", "clean"}, env.configPath)
	if err != nil {
		t.Fatalf("staging clean: %v", err)
	}
	requireContains(t, out, "Removed 1 staging directories")
	if _, err := os.Stat(leftover); !os.IsNotExist(err) {
		t.Fatalf("leftover not removed: %v", err)
	}

	out, _, err = runCLI(t, []string{"staging", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("staging list: %v", err)
	}
	requireContains(t, out, "No staging directories found")
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t, withHistory())
	out, _, err := runCLI(t, []string{"status", "--input", env.inputDir}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "Input directory:")
	requireContains(t, out, "Backends:")
	requireContains(t, out, "copy -> image")
	requireContains(t, out, "no runs recorded")
}

func TestRootWithoutArgsPrintsHelp(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, nil, env.configPath)
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	requireContains(t, out, "migrate")
	requireContains(t, out, "staging")
}

func TestExitCode(t *testing.T) {
	var buf bytes.Buffer
	if code := exitCode(nil, &buf); code != 0 {
		t.Fatalf("nil error code = %d", code)
	}
	if code := exitCode(withExitCode(exitItemsFailed, nil), &buf); code != exitItemsFailed || buf.Len() != 0 {
		t.Fatalf("items failed code = %d, output %q", code, buf.String())
	}
	if code := exitCode(withExitCode(exitInterruptCode, context.Canceled), &buf); code != exitInterruptCode || buf.Len() != 0 {
		t.Fatalf("interrupt code = %d, output %q", code, buf.String())
	}
	if code := exitCode(errors.New("boom"), &buf); code != exitFatal || !strings.Contains(buf.String(), "boom") {
		t.Fatalf("fatal code = %d, output %q", code, buf.String())
	}
}
