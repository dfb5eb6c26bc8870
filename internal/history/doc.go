// Package history keeps an optional SQLite journal of migration runs and the
// outcome of every item they touched. The journal lives in the state
// directory, never in the output directory, and is only written when
// history.enabled is set.
package history
