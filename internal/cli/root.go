package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/pdfbatch/internal/config"
	"github.com/rshade/pdfbatch/internal/logging"
	"github.com/rshade/pdfbatch/internal/mineru"
)

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// Deps are the process-level collaborators the commands use. Tests replace
// them to avoid running the real toolchain.
type Deps struct {
	// Runner executes magic-pdf.
	Runner mineru.CommandRunner
	// FindBinary resolves the magic-pdf executable for the version gate.
	FindBinary func(name string) (string, error)
}

// app holds the state shared by the commands of one invocation.
type app struct {
	deps      Deps
	flags     rootFlags
	cfg       *config.Config
	logResult *logging.LogPathResult
}

// NewRootCmd creates the root Cobra command for the pdfbatch CLI.
// Running it without a subcommand processes one batch.
func NewRootCmd(ver string) *cobra.Command {
	return NewRootCmdWithDeps(ver, Deps{})
}

// NewRootCmdWithDeps creates the root command with explicit collaborators.
// Zero fields fall back to the real implementations.
func NewRootCmdWithDeps(ver string, deps Deps) *cobra.Command {
	cmd, _ := newRootCmd(ver, deps)
	return cmd
}

func newRootCmd(ver string, deps Deps) (*cobra.Command, *app) {
	if deps.Runner == nil {
		deps.Runner = mineru.ExecRunner{}
	}
	if deps.FindBinary == nil {
		deps.FindBinary = mineru.FindBinary
	}
	a := &app{deps: deps}

	cmd := &cobra.Command{
		Use:          "pdfbatch",
		Short:        "Batch PDF extraction driver for MinerU",
		Long:         "pdfbatch: convert every PDF in a directory to structured output with the MinerU toolchain",
		Version:      ver,
		Example:      rootCmdExample,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loadConfig(cmd); err != nil {
				return err
			}
			result := setupLogging(cmd, a.cfg)
			a.logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, a.logResult)
		},
		RunE: a.closeLogOnError(func(cmd *cobra.Command, _ []string) error {
			orch, err := a.newOrchestrator(cmd.Context())
			if err != nil {
				return err
			}
			return a.runBatch(cmd, orch)
		}),
	}

	a.flags.register(cmd.PersistentFlags())
	cmd.AddCommand(newWatchCmd(a), newConfigCmd(a), newVersionCmd())

	return cmd, a
}

// baseLogger returns the configured logger without a component tag, for
// handing to components that add their own.
func (a *app) baseLogger() zerolog.Logger {
	if a.logResult == nil {
		return zerolog.Nop()
	}
	return a.logResult.Logger
}

// closeLogOnError closes the log file when run fails, since cobra skips
// PersistentPostRunE after a RunE error.
func (a *app) closeLogOnError(
	run func(*cobra.Command, []string) error,
) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		if err != nil {
			_ = a.logResult.Close()
		}
		return err
	}
}

const rootCmdExample = `  # Process /app/MinerU/data/input with the defaults
  pdfbatch

  # Process a local directory with layout analysis and English OCR
  pdfbatch --input ./pdfs --output ./out --method layout --lang en

  # Increase parallelism and the inference batch size
  pdfbatch --workers 8 --batch-size 500

  # Keep processing PDFs as they are dropped into the input directory
  pdfbatch watch --initial

  # Show the effective configuration
  pdfbatch config show`
