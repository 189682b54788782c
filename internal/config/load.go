package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvHome         = "PDFBATCH_HOME"
	EnvInputDir     = "PDFBATCH_INPUT_DIR"
	EnvOutputDir    = "PDFBATCH_OUTPUT_DIR"
	EnvMethod       = "PDFBATCH_METHOD"
	EnvLang         = "PDFBATCH_LANG"
	EnvWorkers      = "PDFBATCH_WORKERS"
	EnvBatchSize    = "PDFBATCH_BATCH_SIZE"
	EnvLogLevel     = "PDFBATCH_LOG_LEVEL"
	EnvLogFile      = "PDFBATCH_LOG_FILE"
	EnvMinerUBinary = "PDFBATCH_MINERU_BINARY"
)

// Top-level YAML keys.
const (
	keyBatch   = "batch"
	keyMinerU  = "mineru"
	keyLogging = "logging"
	keyWatch   = "watch"
)

// Load builds a Config from defaults, the YAML file at path and the process
// environment. A missing file is only an error when required is true.
func Load(path string, required bool) (*Config, error) {
	cfg := New()
	if path != "" {
		if err := MergeYAML(cfg, path); err != nil {
			if required || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MergeYAML overlays the YAML file at path onto target. Fields absent from
// the file keep their current value; unknown top-level keys are ignored.
func MergeYAML(target *Config, path string) error {
	if target == nil {
		return errors.New("nil target *Config in MergeYAML")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	var overlay map[string]yaml.Node
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing config YAML from %s: %w", path, err)
	}

	for key, node := range overlay {
		var decodeErr error
		switch key {
		case keyBatch:
			decodeErr = node.Decode(&target.Batch)
		case keyMinerU:
			decodeErr = node.Decode(&target.MinerU)
		case keyLogging:
			decodeErr = node.Decode(&target.Logging)
		case keyWatch:
			decodeErr = node.Decode(&target.Watch)
		default:
			continue
		}
		if decodeErr != nil {
			return fmt.Errorf("applying config section %q: %w", key, decodeErr)
		}
	}
	return nil
}

// ApplyEnv overrides fields from PDFBATCH_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		EnvInputDir:     &c.Batch.InputDir,
		EnvOutputDir:    &c.Batch.OutputDir,
		EnvMethod:       &c.Batch.Method,
		EnvLang:         &c.Batch.Lang,
		EnvLogLevel:     &c.Logging.Level,
		EnvLogFile:      &c.Logging.File,
		EnvMinerUBinary: &c.MinerU.Binary,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		EnvWorkers:   &c.Batch.Workers,
		EnvBatchSize: &c.Batch.BatchSize,
	}
	for name, dst := range ints {
		v, ok := lookup(name)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing %s=%q: %w", name, v, err)
		}
		*dst = n
	}
	return nil
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
