// Package services defines shared utilities consumed by the migration pipeline
// and its external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and pair basenames for
//     logging.
//   - Structured error markers plus the Wrap helper so per-item failures
//     (conversion, mux) can be told apart from fatal ones (invalid input,
//     configuration).
//   - A small command runner abstraction that makes external tool execution
//     testable.
package services
