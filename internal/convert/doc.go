// Package convert renders still images as JPEG through an ordered chain of
// backends: a byte copy for JPEG sources, the platform image tool (sips or
// ImageMagick), the Go image library, and ffmpeg. Each backend is probed for
// availability before use; the first one to produce a non-empty file wins.
package convert
