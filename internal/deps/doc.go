// Package deps resolves the external executables motionmux can call (sips,
// ImageMagick, ffmpeg, exiftool) and reports which are installed.
package deps
