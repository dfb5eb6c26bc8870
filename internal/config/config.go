package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directories used outside the output tree.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	StateDir   string `toml:"state_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Conversion controls the JPEG conversion fallback chain.
type Conversion struct {
	Backends       []string `toml:"backends"`
	JPEGQuality    int      `toml:"jpeg_quality"`
	MaxDimension   int      `toml:"max_dimension"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	FFmpegBinary   string   `toml:"ffmpeg_binary"`
	SipsBinary     string   `toml:"sips_binary"`
	MagickBinary   string   `toml:"magick_binary"`
}

// Mux controls how Motion Photo metadata is written.
type Mux struct {
	MetadataWriter          string `toml:"metadata_writer"`
	ExiftoolBinary          string `toml:"exiftool_binary"`
	PresentationTimestampUs int64  `toml:"presentation_timestamp_us"`
}

// Migrate holds defaults for the migrate command flags.
type Migrate struct {
	Overwrite bool `toml:"overwrite"`
	Recurse   bool `toml:"recurse"`
	Lock      bool `toml:"lock"`
}

// History controls the optional SQLite run journal.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Config encapsulates all configuration values for motionmux.
//
// Configuration sections by subsystem:
//   - Paths: staging and state directories
//   - Logging: log format, level, and optional file
//   - Conversion: backend order and image encoding knobs
//   - Mux: Motion Photo metadata writer
//   - Migrate: defaults for overwrite/recurse/locking
//   - History: run journal location
type Config struct {
	Paths      Paths      `toml:"paths"`
	Logging    Logging    `toml:"logging"`
	Conversion Conversion `toml:"conversion"`
	Mux        Mux        `toml:"mux"`
	Migrate    Migrate    `toml:"migrate"`
	History    History    `toml:"history"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("motionmux.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// UsesStateDir reports whether anything is written under the state
// directory: output locks or the run journal.
func (c *Config) UsesStateDir() bool {
	return c.Migrate.Lock || c.History.Enabled
}

// EnsureDirectories creates the state directory (locks, journal) when it is
// used. The staging root is created lazily by the staging package.
func (c *Config) EnsureDirectories() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" || !c.UsesStateDir() {
		return nil
	}
	if err := os.MkdirAll(c.Paths.StateDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.StateDir, err)
	}
	return nil
}

// StagingRoot returns the directory under which run staging directories are created.
func (c *Config) StagingRoot() string {
	if strings.TrimSpace(c.Paths.StagingDir) != "" {
		return c.Paths.StagingDir
	}
	return filepath.Join(os.TempDir(), "motionmux")
}

// LockDir returns the directory holding per-output advisory locks.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.StateDir, "locks")
}

// HistoryPath returns the run journal database path.
func (c *Config) HistoryPath() string {
	if strings.TrimSpace(c.History.Path) != "" {
		return c.History.Path
	}
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// ConversionTimeout returns the per-invocation timeout for external converters.
func (c *Config) ConversionTimeout() time.Duration {
	if c.Conversion.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Conversion.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration text.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() (string, error) {
	var b strings.Builder
	enc := toml.NewEncoder(&b)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return b.String(), nil
}
