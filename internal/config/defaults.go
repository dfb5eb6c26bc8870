package config

const (
	defaultConfigPath              = "~/.config/motionmux/config.toml"
	defaultStateDir                = "~/.local/share/motionmux"
	defaultLogFormat               = "console"
	defaultLogLevel                = "warn"
	defaultJPEGQuality             = 95
	defaultConversionTimeout       = 120
	defaultFFmpegBinary            = "ffmpeg"
	defaultSipsBinary              = "sips"
	defaultMagickBinary            = "magick"
	defaultExiftoolBinary          = "exiftool"
	defaultMetadataWriter          = MetadataWriterNative
	defaultPresentationTimestampUs = 1500000
)

// Metadata writer identifiers accepted by mux.metadata_writer.
const (
	MetadataWriterNative   = "native"
	MetadataWriterExiftool = "exiftool"
)

// Conversion backend identifiers accepted by conversion.backends.
const (
	BackendCopy   = "copy"
	BackendNative = "native"
	BackendImage  = "image"
	BackendFFmpeg = "ffmpeg"
)

// DefaultBackends lists the conversion fallback order.
func DefaultBackends() []string {
	return []string{BackendCopy, BackendNative, BackendImage, BackendFFmpeg}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Conversion: Conversion{
			Backends:       DefaultBackends(),
			JPEGQuality:    defaultJPEGQuality,
			TimeoutSeconds: defaultConversionTimeout,
			FFmpegBinary:   defaultFFmpegBinary,
			SipsBinary:     defaultSipsBinary,
			MagickBinary:   defaultMagickBinary,
		},
		Mux: Mux{
			MetadataWriter:          defaultMetadataWriter,
			ExiftoolBinary:          defaultExiftoolBinary,
			PresentationTimestampUs: defaultPresentationTimestampUs,
		},
		Migrate: Migrate{
			Overwrite: true,
			Lock:      true,
		},
	}
}
