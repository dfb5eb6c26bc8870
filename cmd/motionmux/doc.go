// Package main hosts the motionmux CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, builds the logger, and
// hands scanning, conversion, muxing and journaling to the internal packages.
// Commands here only parse flags, prompt, and render results.
package main
