package mineru

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/rshade/pdfbatch/internal/batch"
	"github.com/rshade/pdfbatch/internal/logging"
	"github.com/rshade/pdfbatch/internal/orchestrator"
)

// pdfMagic is the PDF header. Readers accept it anywhere in the first
// headerWindow bytes.
var pdfMagic = []byte("%PDF-")

const headerWindow = 1024

// Dataset is the handle the Builder produces for one document.
type Dataset struct {
	Path   string
	Data   []byte
	SHA256 string
	Lang   string
}

// Size returns the document size in bytes.
func (d *Dataset) Size() int {
	return len(d.Data)
}

const builderComponent = "mineru.builder"

// Builder loads PDFs into Dataset handles.
type Builder struct {
	logger   zerolog.Logger
	readFile func(string) ([]byte, error)
}

// NewBuilder creates a Builder that reads from the local filesystem.
func NewBuilder(logger zerolog.Logger) *Builder {
	return &Builder{
		logger:   logger,
		readFile: os.ReadFile,
	}
}

// BuildDatasets reads every path with up to workers files in flight and
// returns one *Dataset per path in input order. The first failure aborts
// the build.
func (b *Builder) BuildDatasets(
	ctx context.Context,
	paths []string,
	workers int,
	lang string,
) ([]orchestrator.Dataset, error) {
	out := make([]orchestrator.Dataset, len(paths))
	if len(paths) == 0 {
		return out, nil
	}

	proc, err := batch.NewProcessor[string](batch.ChunkSizeFor(len(paths), workers))
	if err != nil {
		return nil, err
	}
	log := logging.ComponentLogger(logging.ContextLogger(ctx, b.logger), builderComponent)
	proc.WithProgressCallback(func(snap batch.ProgressSnapshot) {
		log.Debug().
			Int("loaded", snap.ProcessedItems).
			Int("total", snap.TotalItems).
			Float64("percent", snap.PercentComplete).
			Msg("dataset build progress")
	})

	err = proc.ProcessConcurrent(ctx, paths, func(ctx context.Context, chunk []string, offset int) error {
		for i, path := range chunk {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			ds, loadErr := b.load(path, lang)
			if loadErr != nil {
				return loadErr
			}
			out[offset+i] = ds
		}
		return nil
	}, workers)
	if err != nil {
		return nil, err
	}

	log.Debug().Int("documents", len(out)).Int("workers", workers).Msg("datasets built")
	return out, nil
}

func (b *Builder) load(path, lang string) (*Dataset, error) {
	data, err := b.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !hasPDFHeader(data) {
		return nil, fmt.Errorf("%w: %s", ErrNotPDF, path)
	}
	sum := sha256.Sum256(data)
	return &Dataset{
		Path:   path,
		Data:   data,
		SHA256: hex.EncodeToString(sum[:]),
		Lang:   lang,
	}, nil
}

func hasPDFHeader(data []byte) bool {
	return bytes.Contains(data[:min(len(data), headerWindow)], pdfMagic)
}
