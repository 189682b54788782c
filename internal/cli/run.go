package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/pdfbatch/internal/mineru"
	"github.com/rshade/pdfbatch/internal/orchestrator"
	"github.com/rshade/pdfbatch/internal/report"
)

// options maps the resolved config onto orchestrator options.
func (a *app) options() orchestrator.Options {
	b := a.cfg.Batch
	return orchestrator.Options{
		InputDir:  b.InputDir,
		OutputDir: b.OutputDir,
		Method:    b.Method,
		Lang:      b.Lang,
		Workers:   b.Workers,
		BatchSize: b.BatchSize,
	}
}

// newOrchestrator wires the MinerU collaborators, running the version gate
// first when it is enabled.
func (a *app) newOrchestrator(ctx context.Context) (*orchestrator.Orchestrator, error) {
	mc := a.cfg.MinerU
	binary := mc.Binary

	if mc.CheckVersion {
		path, err := a.deps.FindBinary(binary)
		if err != nil {
			return nil, err
		}
		v, err := mineru.CheckVersion(ctx, a.deps.Runner, path, mc.MinVersion)
		if err != nil {
			return nil, err
		}
		binary = path
		if v != nil {
			logger.Info().Str("binary", path).Str("version", v.String()).Msg("magic-pdf version accepted")
		}
	}

	parser := mineru.NewParser(mineru.ParserConfig{
		Binary:    binary,
		Timeout:   mc.ParseTimeout,
		BatchSize: a.cfg.Batch.BatchSize,
		ExtraArgs: mc.ExtraArgs,
	}, a.deps.Runner, a.baseLogger())

	base := a.baseLogger()
	return orchestrator.New(mineru.NewBuilder(base), parser, mineru.SetBatchSizeHint, base), nil
}

// runBatch processes the input directory once and prints the summary.
func (a *app) runBatch(cmd *cobra.Command, orch *orchestrator.Orchestrator) error {
	res, err := orch.ProcessPDFs(cmd.Context(), a.options())
	if err != nil {
		return err
	}
	if err = report.Render(cmd.OutOrStdout(), report.FromResult(res)); err != nil {
		return fmt.Errorf("rendering summary: %w", err)
	}
	return nil
}
