package main

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	stateDir   string
	stagingDir string
	inputDir   string
	outputDir  string
}

type envOption func(*envSettings)

type envSettings struct {
	history  bool
	backends []string
}

func withHistory() envOption {
	return func(s *envSettings) { s.history = true }
}

func setupCLITestEnv(t *testing.T, opts ...envOption) *cliTestEnv {
	t.Helper()
	settings := envSettings{backends: []string{"copy", "image"}}
	for _, opt := range opts {
		opt(&settings)
	}

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("MOTIONMUX_LOG_LEVEL", "")
	t.Setenv("MOTIONMUX_STAGING_DIR", "")

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "motionmux.toml"),
		stateDir:   filepath.Join(base, "state"),
		stagingDir: filepath.Join(base, "staging"),
		inputDir:   filepath.Join(base, "input"),
		outputDir:  filepath.Join(base, "output"),
	}
	if err := os.MkdirAll(env.inputDir, 0o755); err != nil {
		t.Fatalf("mkdir input: %v", err)
	}

	quoted := make([]string, 0, len(settings.backends))
	for _, b := range settings.backends {
		quoted = append(quoted, fmt.Sprintf("%q", b))
	}
	content := fmt.Sprintf(`[paths]
staging_dir = %q
state_dir = %q

[logging]
level = "error"

[conversion]
backends = [%s]

[history]
enabled = %t
`, env.stagingDir, env.stateDir, strings.Join(quoted, ", "), settings.history)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, args, configPath, "")
}

func runCLIWithInput(t *testing.T, args []string, configPath, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (e *cliTestEnv) writeInput(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(e.inputDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 6, 6)), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func clipBytes() []byte {
	return append([]byte("\x00\x00\x00\x14ftypqt  "), bytes.Repeat([]byte{0x5A}, 256)...)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}
