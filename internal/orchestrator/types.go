package orchestrator

import (
	"context"
	"errors"
	"time"
)

// Processing methods understood by the toolchain. The orchestrator forwards
// the method without checking it against this list.
const (
	MethodAuto   = "auto"
	MethodLayout = "layout"
	MethodVision = "vision"
)

// ErrDatasetCountMismatch is returned when the builder does not return exactly
// one dataset per document.
var ErrDatasetCountMismatch = errors.New("dataset builder returned wrong number of datasets")

// Document identifies one input PDF.
type Document struct {
	// Path is the file path as found during enumeration.
	Path string
	// ID is the filename without its extension.
	ID string
}

// Dataset is the per-document handle produced by a DatasetBuilder. Its
// contents are only meaningful to the Parser that consumes it.
type Dataset any

// DatasetBuilder turns document paths into dataset handles. The result must
// hold one handle per path, in the same order.
type DatasetBuilder interface {
	BuildDatasets(ctx context.Context, paths []string, workers int, lang string) ([]Dataset, error)
}

// Parser writes structured output for a batch of datasets into outputDir.
// ids[i] names the artifacts produced for datasets[i].
type Parser interface {
	Parse(ctx context.Context, outputDir string, ids []string, datasets []Dataset, method string) error
}

// HintSetter publishes the batch-size hint to the inference layer.
type HintSetter func(batchSize int) error

// Options are the run parameters of one batch.
type Options struct {
	InputDir  string
	OutputDir string
	Method    string
	Lang      string
	Workers   int
	BatchSize int
}

// Result describes a finished run.
type Result struct {
	RunID     string
	Documents []Document
	// Empty is set when no PDFs were found and no collaborator was called.
	Empty    bool
	Duration time.Duration
	Options  Options
}
