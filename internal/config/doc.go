// Package config loads, normalizes, and validates motionmux configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MOTIONMUX_STAGING_DIR and MOTIONMUX_LOG_LEVEL. Every setting the CLI and the
// migration pipeline need is discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical backend names, and clear validation errors.
package config
