package cli

import (
	"github.com/spf13/pflag"

	"github.com/rshade/pdfbatch/internal/config"
)

// rootFlags are the persistent flags shared by every command.
type rootFlags struct {
	configPath   string
	inputDir     string
	outputDir    string
	method       string
	lang         string
	workers      int
	batchSize    int
	logFile      string
	debug        bool
	checkVersion bool
}

func (f *rootFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "config file (default $PDFBATCH_HOME/config.yaml)")
	fs.StringVarP(&f.inputDir, "input", "i", config.DefaultInputDir, "directory containing the PDFs to process")
	fs.StringVarP(&f.outputDir, "output", "o", config.DefaultOutputDir, "directory receiving the structured output")
	fs.StringVarP(&f.method, "method", "m", config.DefaultMethod, "processing method (auto, layout, vision)")
	fs.StringVarP(&f.lang, "lang", "l", "", "document language hint; empty lets the toolchain decide")
	fs.IntVarP(&f.workers, "workers", "w", config.DefaultWorkers, "parallel workers used while loading documents")
	fs.IntVar(&f.batchSize, "batch-size", config.DefaultBatchSize, "minimum inference batch size")
	fs.StringVar(&f.logFile, "log-file", config.DefaultLogFile, "log file path; empty disables file logging")
	fs.BoolVar(&f.debug, "debug", false, "enable debug logging to the console only")
	fs.BoolVar(&f.checkVersion, "check-version", false, "verify the installed magic-pdf version before processing")
}

// apply copies explicitly set flags onto cfg. Flags left at their default
// do not override the config file or environment.
func (f *rootFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("input") {
		cfg.Batch.InputDir = f.inputDir
	}
	if fs.Changed("output") {
		cfg.Batch.OutputDir = f.outputDir
	}
	if fs.Changed("method") {
		cfg.Batch.Method = f.method
	}
	if fs.Changed("lang") {
		cfg.Batch.Lang = f.lang
	}
	if fs.Changed("workers") {
		cfg.Batch.Workers = f.workers
	}
	if fs.Changed("batch-size") {
		cfg.Batch.BatchSize = f.batchSize
	}
	if fs.Changed("log-file") {
		cfg.Logging.File = f.logFile
	}
	if fs.Changed("check-version") {
		cfg.MinerU.CheckVersion = f.checkVersion
	}
}
