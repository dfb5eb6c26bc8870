package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeConversion()
	c.normalizeMux()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		if value, ok := os.LookupEnv("MOTIONMUX_STAGING_DIR"); ok {
			c.Paths.StagingDir = strings.TrimSpace(value)
		}
	}
	var err error
	if c.Paths.StagingDir, err = expandPath(strings.TrimSpace(c.Paths.StagingDir)); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("MOTIONMUX_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if file := strings.TrimSpace(c.Logging.File); file != "" {
		if expanded, err := expandPath(file); err == nil {
			c.Logging.File = expanded
		}
	}
}

func (c *Config) normalizeConversion() {
	backends := make([]string, 0, len(c.Conversion.Backends))
	seen := make(map[string]struct{}, len(c.Conversion.Backends))
	for _, name := range c.Conversion.Backends {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		backends = append(backends, name)
	}
	if len(backends) == 0 {
		backends = DefaultBackends()
	}
	c.Conversion.Backends = backends

	if c.Conversion.JPEGQuality == 0 {
		c.Conversion.JPEGQuality = defaultJPEGQuality
	}
	c.Conversion.FFmpegBinary = binaryOrDefault(c.Conversion.FFmpegBinary, defaultFFmpegBinary)
	c.Conversion.SipsBinary = binaryOrDefault(c.Conversion.SipsBinary, defaultSipsBinary)
	c.Conversion.MagickBinary = binaryOrDefault(c.Conversion.MagickBinary, defaultMagickBinary)
}

func (c *Config) normalizeMux() {
	c.Mux.MetadataWriter = strings.ToLower(strings.TrimSpace(c.Mux.MetadataWriter))
	if c.Mux.MetadataWriter == "" {
		c.Mux.MetadataWriter = defaultMetadataWriter
	}
	c.Mux.ExiftoolBinary = binaryOrDefault(c.Mux.ExiftoolBinary, defaultExiftoolBinary)
	if c.Mux.PresentationTimestampUs == 0 {
		c.Mux.PresentationTimestampUs = defaultPresentationTimestampUs
	}
}

func (c *Config) normalizeHistory() error {
	path := strings.TrimSpace(c.History.Path)
	if path == "" {
		c.History.Path = ""
		return nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	c.History.Path = expanded
	return nil
}

func binaryOrDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
