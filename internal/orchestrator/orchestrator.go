package orchestrator

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/pdfbatch/internal/logging"
)

// Default run parameters.
const (
	DefaultInputDir  = "/app/MinerU/data/input"
	DefaultOutputDir = "/app/MinerU/data/output"
	DefaultMethod    = MethodAuto
	DefaultLang      = ""
	DefaultWorkers   = 4
	DefaultBatchSize = 200
)

// Run stages, reported in the error log entry.
const (
	stagePrepareOutput = "prepare_output"
	stageDiscover      = "discover"
	stageHint          = "batch_size_hint"
	stageBuild         = "build_datasets"
	stageParse         = "parse"
)

const outputDirPerm = 0o755

// DefaultOptions returns the options used when the caller sets nothing.
func DefaultOptions() Options {
	return Options{
		InputDir:  DefaultInputDir,
		OutputDir: DefaultOutputDir,
		Method:    DefaultMethod,
		Lang:      DefaultLang,
		Workers:   DefaultWorkers,
		BatchSize: DefaultBatchSize,
	}
}

// withDefaults fills zero-valued fields. Lang has no non-empty default.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.InputDir == "" {
		o.InputDir = d.InputDir
	}
	if o.OutputDir == "" {
		o.OutputDir = d.OutputDir
	}
	if o.Method == "" {
		o.Method = d.Method
	}
	if o.Workers == 0 {
		o.Workers = d.Workers
	}
	if o.BatchSize == 0 {
		o.BatchSize = d.BatchSize
	}
	return o
}

// Orchestrator drives one batch through a DatasetBuilder and a Parser.
type Orchestrator struct {
	builder DatasetBuilder
	parser  Parser
	setHint HintSetter
	logger  zerolog.Logger
}

// New creates an Orchestrator. setHint publishes the batch-size hint before
// the builder runs and may be nil when nothing consumes it.
func New(builder DatasetBuilder, parser Parser, setHint HintSetter, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		builder: builder,
		parser:  parser,
		setHint: setHint,
		logger:  logger,
	}
}

// ProcessPDFs processes every *.pdf directly inside opts.InputDir.
//
// When no PDFs are found it logs a warning and returns a Result with Empty
// set and a nil error. Any other failure is logged and returned unchanged.
func (o *Orchestrator) ProcessPDFs(ctx context.Context, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	return o.execute(ctx, opts, func() ([]Document, error) {
		return Discover(opts.InputDir)
	})
}

// ProcessDocuments processes an already enumerated document list with the
// same contract as ProcessPDFs.
func (o *Orchestrator) ProcessDocuments(ctx context.Context, opts Options, docs []Document) (*Result, error) {
	opts = opts.withDefaults()
	return o.execute(ctx, opts, func() ([]Document, error) {
		return docs, nil
	})
}

func (o *Orchestrator) execute(
	ctx context.Context,
	opts Options,
	source func() ([]Document, error),
) (result *Result, err error) {
	start := time.Now()
	runID := logging.GetOrGenerateRunID(ctx)
	ctx = logging.ContextWithRunID(ctx, runID)
	// Collaborators get the run-scoped logger without this component's tag.
	runLog := o.logger.With().Str("run_id", runID).Logger()
	ctx = runLog.WithContext(ctx)
	log := logging.ComponentLogger(runLog, "orchestrator")

	stage := stagePrepareOutput
	defer func() {
		if err != nil {
			log.Error().
				Err(err).
				Str("stage", stage).
				Str("error_type", fmt.Sprintf("%T", err)).
				Dur("elapsed", time.Since(start)).
				Msgf("error during batch processing: %v", err)
		}
	}()

	log.Info().Str("input_dir", opts.InputDir).Msgf("starting batch processing from %s", opts.InputDir)

	if err = os.MkdirAll(opts.OutputDir, outputDirPerm); err != nil {
		return nil, err
	}

	stage = stageDiscover
	docs, err := source()
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		log.Warn().Str("input_dir", opts.InputDir).Msgf("no PDF files found in %s", opts.InputDir)
		return &Result{RunID: runID, Empty: true, Duration: time.Since(start), Options: opts}, nil
	}
	log.Info().Int("documents", len(docs)).Msgf("found %d PDF files to process", len(docs))

	stage = stageHint
	if o.setHint != nil {
		if err = o.setHint(opts.BatchSize); err != nil {
			return nil, err
		}
	}

	stage = stageBuild
	log.Info().Int("workers", opts.Workers).Msgf("building dataset with %d workers", opts.Workers)
	datasets, err := o.builder.BuildDatasets(ctx, Paths(docs), opts.Workers, opts.Lang)
	if err != nil {
		return nil, err
	}
	if len(datasets) != len(docs) {
		err = fmt.Errorf("%w: %d documents, %d datasets", ErrDatasetCountMismatch, len(docs), len(datasets))
		return nil, err
	}

	stage = stageParse
	log.Info().Str("method", opts.Method).Msg("starting document processing")
	if err = o.parser.Parse(ctx, opts.OutputDir, IDs(docs), datasets, opts.Method); err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	log.Info().
		Int("documents", len(docs)).
		Dur("elapsed", elapsed).
		Msg("batch processing completed successfully")

	return &Result{
		RunID:     runID,
		Documents: docs,
		Duration:  elapsed,
		Options:   opts,
	}, nil
}
