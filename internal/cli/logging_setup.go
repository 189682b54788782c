package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/pdfbatch/internal/config"
	"github.com/rshade/pdfbatch/internal/logging"
)

// loadConfig resolves the effective configuration: defaults, the config
// file, PDFBATCH_* variables and finally explicitly set flags.
func (a *app) loadConfig(cmd *cobra.Command) error {
	path := a.flags.configPath
	required := cmd.Flags().Changed("config")
	if path == "" {
		if p, err := config.DefaultConfigPath(); err == nil {
			path = p
		}
	}

	cfg, err := config.Load(path, required)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.flags.apply(cmd.Flags(), cfg)
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg
	return nil
}

// setupLogging builds the logger from the resolved config and CLI flags and
// stores it, with a fresh run ID, in the command context.
func setupLogging(cmd *cobra.Command, cfg *config.Config) logging.LogPathResult {
	loggingCfg := cfg.Logging.ToLoggingConfig()
	loggingCfg.Console = cmd.OutOrStdout()

	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		loggingCfg.Level = "debug"
		loggingCfg.Format = logging.FormatConsole
		loggingCfg.File = ""
	}

	result := logging.NewLoggerWithPath(loggingCfg)
	logger = logging.ComponentLogger(result.Logger, "cli")

	if result.UsingFile {
		logging.PrintLogPathMessage(cmd.ErrOrStderr(), result.FilePath)
	} else if result.FallbackUsed {
		logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
	}

	ctx := cmd.Context()
	runID := logging.GetOrGenerateRunID(ctx)
	ctx = logging.ContextWithRunID(ctx, runID)
	// The context carries the untagged logger; each component adds its own tag.
	ctx = result.Logger.With().Str("run_id", runID).Logger().WithContext(ctx)
	cmd.SetContext(ctx)

	logger.Debug().Str("command", cmd.Name()).Str("run_id", runID).Msg("command started")

	return result
}

// cleanupLogging closes the log file handle.
func cleanupLogging(_ *cobra.Command, logResult *logging.LogPathResult) error {
	if logResult != nil {
		return logResult.Close()
	}
	return nil
}
