package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/pdfbatch/internal/logging"
	"github.com/rshade/pdfbatch/internal/orchestrator"
	"github.com/rshade/pdfbatch/internal/report"
	"github.com/rshade/pdfbatch/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var initial bool
	var debounce string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Process PDFs as they appear in the input directory",
		Long: `Watch the input directory and process newly created PDFs in batches.
Files arriving close together are grouped; a batch starts once no new file has
appeared for the debounce period. Stop with Ctrl+C.`,
		Example: `  # Process what is already there, then keep watching
  pdfbatch watch --initial

  # Group arrivals over a 10 second quiet period
  pdfbatch watch --debounce 10s`,
		Args: cobra.NoArgs,
		RunE: a.closeLogOnError(func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("debounce") {
				d, err := parseDebounce(debounce)
				if err != nil {
					return err
				}
				a.cfg.Watch.Debounce = d
			}

			ctx := cmd.Context()
			orch, err := a.newOrchestrator(ctx)
			if err != nil {
				return err
			}
			opts := a.options()

			if initial {
				if err = a.runBatch(cmd, orch); err != nil {
					return err
				}
			}

			w := watch.New(opts.InputDir, a.cfg.Watch.Debounce, a.baseLogger())
			return w.Run(ctx, func(ctx context.Context, docs []orchestrator.Document) error {
				ctx = logging.ContextWithRunID(ctx, logging.NewRunID())
				res, perr := orch.ProcessDocuments(ctx, opts, docs)
				if perr != nil {
					return perr
				}
				return report.Render(cmd.OutOrStdout(), report.FromResult(res))
			})
		}),
	}

	cmd.Flags().BoolVar(&initial, "initial", false, "process existing PDFs before watching")
	cmd.Flags().StringVar(&debounce, "debounce", "", "quiet period before a batch starts (e.g. 2s)")

	return cmd
}

func parseDebounce(s string) (d time.Duration, err error) {
	d, err = time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid --debounce %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid --debounce %q: must be positive", s)
	}
	return d, nil
}
