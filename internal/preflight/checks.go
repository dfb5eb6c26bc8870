package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sys/unix"

	"motionmux/internal/config"
	"motionmux/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckReadableDirectory verifies that the directory exists and can be listed.
func CheckReadableDirectory(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "read ok")
}

// CheckCreatableDirectory passes for a writable directory, or for a missing
// one whose nearest existing ancestor is writable.
func CheckCreatableDirectory(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if _, err := os.Stat(path); err == nil || !os.IsNotExist(err) {
		return CheckDirectoryAccess(name, path)
	}
	parent := filepath.Dir(path)
	for {
		if _, err := os.Stat(parent); err == nil {
			break
		}
		next := filepath.Dir(parent)
		if next == parent {
			break
		}
		parent = next
	}
	check := CheckDirectoryAccess(name, parent)
	if !check.Passed {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s)", path, parent)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// Requirements lists the external tools the configuration may call. Tools
// that only serve as conversion fallbacks are optional; exiftool is required
// when it writes the metadata.
func Requirements(cfg *config.Config, goos string) []deps.Requirement {
	if cfg == nil {
		return nil
	}
	if goos == "" {
		goos = runtime.GOOS
	}
	var reqs []deps.Requirement
	for _, backend := range cfg.Conversion.Backends {
		switch backend {
		case config.BackendNative:
			if goos == "darwin" {
				reqs = append(reqs, deps.Requirement{
					Name:        "sips",
					Command:     cfg.Conversion.SipsBinary,
					Description: "Converts HEIC/PNG to JPEG (macOS)",
					Optional:    true,
				})
			}
			reqs = append(reqs, deps.Requirement{
				Name:        "ImageMagick",
				Command:     cfg.Conversion.MagickBinary,
				Description: "Converts HEIC/PNG to JPEG",
				Optional:    true,
			})
		case config.BackendFFmpeg:
			reqs = append(reqs, deps.Requirement{
				Name:        "FFmpeg",
				Command:     cfg.Conversion.FFmpegBinary,
				Description: "Last-resort image conversion",
				Optional:    true,
			})
		}
	}
	reqs = append(reqs, deps.Requirement{
		Name:        "exiftool",
		Command:     cfg.Mux.ExiftoolBinary,
		Description: "Writes Motion Photo XMP when mux.metadata_writer = \"exiftool\"",
		Optional:    cfg.Mux.MetadataWriter != config.MetadataWriterExiftool,
	})
	return reqs
}

// CheckSystemDeps evaluates Requirements against PATH.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(Requirements(cfg, ""))
}

// CheckHEICConversion reports whether any configured backend can decode HEIC.
// JPEG and PNG sources never need an external tool.
func CheckHEICConversion(statuses []deps.Status) Result {
	const name = "HEIC conversion"
	for _, s := range statuses {
		if s.Available && s.Name != "exiftool" {
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("via %s", s.Name)}
		}
	}
	return Result{Name: name, Detail: "no converter installed; HEIC pairs will fail (install ImageMagick or ffmpeg)"}
}
