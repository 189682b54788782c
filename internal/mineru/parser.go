package mineru

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/pdfbatch/internal/batch"
	"github.com/rshade/pdfbatch/internal/logging"
	"github.com/rshade/pdfbatch/internal/orchestrator"
)

// DefaultParseTimeout bounds a single magic-pdf invocation.
const DefaultParseTimeout = 30 * time.Minute

const parserComponent = "mineru.parser"

// ErrInvalidID indicates an identifier that cannot be used as a file name.
var ErrInvalidID = errors.New("invalid document identifier")

// ParserConfig configures how magic-pdf is invoked.
type ParserConfig struct {
	// Binary is the magic-pdf executable name or path.
	Binary string
	// Timeout bounds each document; zero means DefaultParseTimeout.
	Timeout time.Duration
	// BatchSize is passed to the child process as the batch-size hint.
	BatchSize int
	// ExtraArgs are appended to every invocation.
	ExtraArgs []string
	// StagingRoot is where per-run staging directories are created.
	// Empty means os.TempDir().
	StagingRoot string
}

// Parser runs magic-pdf once per dataset.
type Parser struct {
	cfg    ParserConfig
	runner CommandRunner
	logger zerolog.Logger
}

// NewParser creates a Parser. A nil runner uses ExecRunner.
func NewParser(cfg ParserConfig, runner CommandRunner, logger zerolog.Logger) *Parser {
	if runner == nil {
		runner = ExecRunner{}
	}
	if cfg.Binary == "" {
		cfg.Binary = "magic-pdf"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultParseTimeout
	}
	return &Parser{
		cfg:    cfg,
		runner: runner,
		logger: logger,
	}
}

type parseJob struct {
	id string
	ds *Dataset
}

// Parse stages datasets[i] as "<ids[i]>.pdf" and runs magic-pdf on it, so the
// artifacts under outputDir are named after ids[i]. Documents are processed
// one at a time and the first failure aborts the batch.
func (p *Parser) Parse(
	ctx context.Context,
	outputDir string,
	ids []string,
	datasets []orchestrator.Dataset,
	method string,
) error {
	if len(ids) != len(datasets) {
		return fmt.Errorf("%w: %d ids, %d datasets", ErrLengthMismatch, len(ids), len(datasets))
	}

	jobs := make([]parseJob, len(ids))
	for i, raw := range datasets {
		ds, ok := raw.(*Dataset)
		if !ok || ds == nil {
			return fmt.Errorf("%w: position %d has %T", ErrUnknownDataset, i, raw)
		}
		if ids[i] == "" || filepath.Base(ids[i]) != ids[i] {
			return fmt.Errorf("%w: %q", ErrInvalidID, ids[i])
		}
		jobs[i] = parseJob{id: ids[i], ds: ds}
	}
	if len(jobs) == 0 {
		return nil
	}

	staging, err := os.MkdirTemp(p.cfg.StagingRoot, "pdfbatch-staging-")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(staging) }()

	log := logging.ComponentLogger(logging.ContextLogger(ctx, p.logger), parserComponent)
	proc := batch.NewProcessorWithDefaults[parseJob]().
		WithProgressCallback(func(snap batch.ProgressSnapshot) {
			log.Info().
				Int("parsed", snap.ProcessedItems).
				Int("total", snap.TotalItems).
				Float64("percent", snap.PercentComplete).
				Dur("eta", snap.EstimatedRemaining).
				Msg("document parsed")
		})

	err = proc.Process(ctx, jobs, func(ctx context.Context, chunk []parseJob, _ int) error {
		for _, job := range chunk {
			if runErr := p.parseOne(ctx, log, staging, outputDir, job, method); runErr != nil {
				return runErr
			}
		}
		return nil
	})
	if err != nil {
		// Unwrap the chunk wrapper so callers see the per-document error.
		var perDoc *documentError
		if errors.As(err, &perDoc) {
			return perDoc.err
		}
		return err
	}
	return nil
}

// documentError carries a per-document failure through the batch processor.
type documentError struct{ err error }

func (e *documentError) Error() string { return e.err.Error() }
func (e *documentError) Unwrap() error { return e.err }

func (p *Parser) parseOne(
	ctx context.Context,
	log zerolog.Logger,
	staging, outputDir string,
	job parseJob,
	method string,
) error {
	staged := filepath.Join(staging, job.id+".pdf")
	if err := os.WriteFile(staged, job.ds.Data, 0o600); err != nil {
		return &documentError{fmt.Errorf("staging %s: %w", job.id, err)}
	}
	defer func() { _ = os.Remove(staged) }()

	args := []string{"-p", staged, "-o", outputDir, "-m", method}
	if job.ds.Lang != "" {
		args = append(args, "-l", job.ds.Lang)
	}
	args = append(args, p.cfg.ExtraArgs...)

	runCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	log.Debug().
		Str("document", job.id).
		Str("source", job.ds.Path).
		Str("sha256", job.ds.SHA256).
		Strs("args", args).
		Msg("running magic-pdf")

	_, stderr, err := p.runner.Run(runCtx, batchSizeEnv(p.cfg.BatchSize), p.cfg.Binary, args...)
	if err != nil {
		if ctx.Err() != nil {
			return &documentError{ctx.Err()}
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return &documentError{fmt.Errorf("%w: %s after %s", ErrParseTimeout, job.id, p.cfg.Timeout)}
		}
		log.Debug().Str("document", job.id).Err(err).Msg("magic-pdf exited with error")
		return &documentError{ParseError(job.id, string(stderr))}
	}
	return nil
}
