package deps

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Path != present {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected status for empty command: %#v", results[2])
	}
}

func TestCheckBinariesWithCustomResolver(t *testing.T) {
	lookPath := func(name string) (string, error) {
		if name == "exiftool" {
			return "/opt/bin/exiftool", nil
		}
		return "", errors.New("not found")
	}
	results := CheckBinariesWith(lookPath, []Requirement{
		{Name: "exiftool", Command: "exiftool"},
		{Name: "sips", Command: "sips", Optional: true},
		{Name: "ffmpeg", Command: "ffmpeg"},
	})
	if results[0].Path != "/opt/bin/exiftool" {
		t.Fatalf("path = %q", results[0].Path)
	}
	missing := MissingRequired(results)
	if len(missing) != 1 || missing[0].Name != "ffmpeg" {
		t.Fatalf("missing = %+v", missing)
	}
}
