package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateConversion(); err != nil {
		return err
	}
	if err := c.validateMux(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q (want debug, info, warn, or error)", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateConversion() error {
	for _, name := range c.Conversion.Backends {
		switch name {
		case BackendCopy, BackendNative, BackendImage, BackendFFmpeg:
		default:
			return fmt.Errorf("conversion.backends: unknown backend %q", name)
		}
	}
	if c.Conversion.JPEGQuality < 1 || c.Conversion.JPEGQuality > 100 {
		return errors.New("conversion.jpeg_quality must be between 1 and 100")
	}
	if c.Conversion.MaxDimension < 0 {
		return errors.New("conversion.max_dimension must be >= 0")
	}
	if c.Conversion.TimeoutSeconds < 0 {
		return errors.New("conversion.timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateMux() error {
	switch c.Mux.MetadataWriter {
	case MetadataWriterNative, MetadataWriterExiftool:
	default:
		return fmt.Errorf("mux.metadata_writer: unsupported value %q (want native or exiftool)", c.Mux.MetadataWriter)
	}
	if c.Mux.PresentationTimestampUs < 0 {
		return errors.New("mux.presentation_timestamp_us must be >= 0")
	}
	return nil
}
