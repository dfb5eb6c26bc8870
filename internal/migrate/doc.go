// Package migrate runs a migration batch: every pair is converted to JPEG in a
// per-run staging directory and muxed into OutputDir/<base>.jpg, then unpaired
// and other files are copied without ever replacing an existing destination.
//
// Processing is sequential. A failing pair is logged and recorded, and the
// batch moves on; outputs already written are never rolled back, so a re-run
// with Overwrite disabled picks up where the previous one stopped.
package migrate
