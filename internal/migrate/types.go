package migrate

import (
	"context"
	"time"

	"motionmux/internal/pairing"
)

// Converter renders an image as JPEG inside destDir and returns its path.
type Converter interface {
	Convert(ctx context.Context, src, destDir string) (string, error)
}

// Muxer combines a JPEG and a clip into outputDir/<photo name>.
type Muxer interface {
	Mux(ctx context.Context, photo, video, outputDir string) (string, error)
}

// Request is one migration batch.
type Request struct {
	Pairs      []pairing.Pair
	ImagesOnly []pairing.FileRef
	VideosOnly []pairing.FileRef
	Others     []pairing.FileRef
	OutputDir  string
	Overwrite  bool
	// InputDir is informational; it is only passed to the Recorder.
	InputDir string
}

// FromClassification builds a request for c.
func FromClassification(c pairing.Classification, outputDir string, overwrite bool) Request {
	return Request{
		Pairs:      c.Pairs,
		ImagesOnly: c.ImagesOnly,
		VideosOnly: c.VideosOnly,
		Others:     c.Others,
		OutputDir:  outputDir,
		Overwrite:  overwrite,
	}
}

// Steps returns the number of items the batch will visit.
func (r Request) Steps() int {
	return len(r.Pairs) + len(r.ImagesOnly) + len(r.VideosOnly) + len(r.Others)
}

// Kind names the source category of an item.
type Kind string

const (
	KindPair  Kind = "pair"
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindOther Kind = "other"
)

// Outcome is what happened to one item.
type Outcome string

const (
	OutcomeCreated          Outcome = "created"
	OutcomeCopied           Outcome = "copied"
	OutcomeSkippedExisting  Outcome = "skipped_existing"
	OutcomeCollision        Outcome = "collision"
	OutcomeConversionFailed Outcome = "conversion_failed"
	OutcomeMuxFailed        Outcome = "mux_failed"
	OutcomeCopyFailed       Outcome = "copy_failed"
)

// Failed reports whether the outcome counts as a failure.
func (o Outcome) Failed() bool {
	switch o {
	case OutcomeConversionFailed, OutcomeMuxFailed, OutcomeCopyFailed:
		return true
	default:
		return false
	}
}

// ItemResult records one processed pair or copied file.
type ItemResult struct {
	Kind    Kind
	Base    string
	Source  string
	Video   string
	Target  string
	Outcome Outcome
	Err     error
}

// Result aggregates a batch.
type Result struct {
	RunID               string
	MotionPhotosCreated int
	FilesCopied         int
	Items               []ItemResult
	Interrupted         bool
	Duration            time.Duration
}

// Count returns how many items ended with outcome.
func (r Result) Count(outcome Outcome) int {
	n := 0
	for _, item := range r.Items {
		if item.Outcome == outcome {
			n++
		}
	}
	return n
}

// Failures returns the items that failed.
func (r Result) Failures() []ItemResult {
	var out []ItemResult
	for _, item := range r.Items {
		if item.Outcome.Failed() {
			out = append(out, item)
		}
	}
	return out
}

// RunInfo describes a batch as it starts.
type RunInfo struct {
	RunID     string
	InputDir  string
	OutputDir string
	Overwrite bool
	Pairs     int
	Copies    int
	StartedAt time.Time
}

// Recorder persists batch progress. Errors are logged and never abort a run.
type Recorder interface {
	RunStarted(ctx context.Context, info RunInfo) error
	ItemFinished(ctx context.Context, runID string, item ItemResult) error
	RunFinished(ctx context.Context, result Result) error
}

// Observer is told about every finished item, typically to drive a progress bar.
type Observer interface {
	ItemDone(item ItemResult)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(item ItemResult)

func (f ObserverFunc) ItemDone(item ItemResult) { f(item) }
