package preflight

import (
	"motionmux/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Targets names the directories of a migration.
type Targets struct {
	InputDir  string
	OutputDir string
}

// RunAll executes the filesystem checks for a migration. Empty targets are
// skipped so `status` can run without --input/--output. The state directory
// is only checked when locking or the journal needs it.
func RunAll(cfg *config.Config, targets Targets) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	if targets.InputDir != "" {
		results = append(results, CheckReadableDirectory("Input directory", targets.InputDir))
	}
	if targets.OutputDir != "" {
		results = append(results, CheckCreatableDirectory("Output directory", targets.OutputDir))
	}
	results = append(results, CheckCreatableDirectory("Staging directory", cfg.StagingRoot()))
	if cfg.UsesStateDir() {
		results = append(results, CheckCreatableDirectory("State directory", cfg.Paths.StateDir))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
