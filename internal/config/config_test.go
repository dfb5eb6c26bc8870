package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"motionmux/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("MOTIONMUX_STAGING_DIR", "")
	t.Setenv("MOTIONMUX_LOG_LEVEL", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "motionmux", "config.toml") {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "motionmux")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.StagingDir != "" {
		t.Fatalf("expected empty staging dir, got %q", cfg.Paths.StagingDir)
	}
	if cfg.StagingRoot() != filepath.Join(os.TempDir(), "motionmux") {
		t.Fatalf("unexpected staging root: %q", cfg.StagingRoot())
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("expected warn level by default, got %q", cfg.Logging.Level)
	}
	if strings.Join(cfg.Conversion.Backends, ",") != "copy,native,image,ffmpeg" {
		t.Fatalf("unexpected backends: %v", cfg.Conversion.Backends)
	}
	if cfg.Conversion.JPEGQuality != 95 {
		t.Fatalf("unexpected jpeg quality: %d", cfg.Conversion.JPEGQuality)
	}
	if cfg.Mux.PresentationTimestampUs != 1500000 {
		t.Fatalf("unexpected presentation timestamp: %d", cfg.Mux.PresentationTimestampUs)
	}
	if !cfg.Migrate.Overwrite || cfg.Migrate.Recurse || !cfg.Migrate.Lock {
		t.Fatalf("unexpected migrate defaults: %+v", cfg.Migrate)
	}
	if cfg.History.Enabled {
		t.Fatal("expected history disabled by default")
	}
	if cfg.HistoryPath() != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	if info, err := os.Stat(wantState); err != nil || !info.IsDir() {
		t.Fatalf("expected state dir to exist: %v", err)
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("MOTIONMUX_STAGING_DIR", "")
	t.Setenv("MOTIONMUX_LOG_LEVEL", "")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
staging_dir = "~/stage"

[logging]
format = "JSON"
level = "Debug"

[conversion]
backends = ["image", " FFMPEG ", "image"]
jpeg_quality = 80
max_dimension = 2048

[mux]
metadata_writer = "exiftool"
exiftool_binary = "/opt/bin/exiftool"

[migrate]
overwrite = false
recurse = true
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config to be found at %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.StagingDir != filepath.Join(tempHome, "stage") {
		t.Fatalf("unexpected staging dir: %q", cfg.Paths.StagingDir)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging values, got %+v", cfg.Logging)
	}
	if strings.Join(cfg.Conversion.Backends, ",") != "image,ffmpeg" {
		t.Fatalf("expected deduplicated backends, got %v", cfg.Conversion.Backends)
	}
	if cfg.Conversion.MaxDimension != 2048 || cfg.Conversion.JPEGQuality != 80 {
		t.Fatalf("unexpected conversion values: %+v", cfg.Conversion)
	}
	if cfg.Mux.MetadataWriter != config.MetadataWriterExiftool || cfg.Mux.ExiftoolBinary != "/opt/bin/exiftool" {
		t.Fatalf("unexpected mux values: %+v", cfg.Mux)
	}
	if cfg.Migrate.Overwrite || !cfg.Migrate.Recurse {
		t.Fatalf("unexpected migrate values: %+v", cfg.Migrate)
	}
}

func TestEnvironmentFallbacks(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	staging := t.TempDir()
	t.Setenv("MOTIONMUX_STAGING_DIR", staging)
	t.Setenv("MOTIONMUX_LOG_LEVEL", "INFO")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.StagingDir != staging {
		t.Fatalf("expected staging dir from env, got %q", cfg.Paths.StagingDir)
	}
	if cfg.StagingRoot() != staging {
		t.Fatalf("expected staging root from env, got %q", cfg.StagingRoot())
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected level from env, got %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"backend", func(c *config.Config) { c.Conversion.Backends = []string{"gimp"} }, "conversion.backends"},
		{"quality", func(c *config.Config) { c.Conversion.JPEGQuality = 101 }, "jpeg_quality"},
		{"dimension", func(c *config.Config) { c.Conversion.MaxDimension = -1 }, "max_dimension"},
		{"writer", func(c *config.Config) { c.Mux.MetadataWriter = "pyexiv2" }, "metadata_writer"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[mux]\nwriter = \"native\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to fail parsing")
	}
}

func TestSampleConfigIsValid(t *testing.T) {
	var cfg config.Config
	if err := toml.Unmarshal([]byte(config.SampleConfig()), &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}

	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	loaded, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample failed: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	defaults := config.Default()
	if loaded.Conversion.JPEGQuality != defaults.Conversion.JPEGQuality {
		t.Fatalf("sample diverges from defaults: %d", loaded.Conversion.JPEGQuality)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := config.Default()
	text, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !strings.Contains(text, "jpeg_quality = 95") {
		t.Fatalf("expected jpeg_quality in encoded config, got:\n%s", text)
	}
}

func TestEnsureDirectoriesSkipsUnusedStateDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(t.TempDir(), "state")
	cfg.Migrate.Lock = false
	cfg.History.Enabled = false

	if cfg.UsesStateDir() {
		t.Fatal("expected state dir to be unused without lock or history")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	if _, err := os.Stat(cfg.Paths.StateDir); !os.IsNotExist(err) {
		t.Fatalf("expected state dir not to be created, stat err = %v", err)
	}

	cfg.Migrate.Lock = true
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	if info, err := os.Stat(cfg.Paths.StateDir); err != nil || !info.IsDir() {
		t.Fatalf("expected state dir with locking enabled: %v", err)
	}
}
