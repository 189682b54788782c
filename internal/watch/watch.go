// Package watch feeds PDFs that appear in the input directory to a batch
// handler, grouping arrivals that happen close together into one batch.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/rshade/pdfbatch/internal/logging"
	"github.com/rshade/pdfbatch/internal/orchestrator"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 2 * time.Second

// ErrWatcherClosed is returned when fsnotify closes its channels unexpectedly.
var ErrWatcherClosed = errors.New("file watcher closed")

// Handler processes one group of newly arrived documents.
type Handler func(ctx context.Context, docs []orchestrator.Document) error

// Watcher watches a single directory, non-recursively.
type Watcher struct {
	dir      string
	debounce time.Duration
	logger   zerolog.Logger
}

// New creates a Watcher for dir. A non-positive debounce uses DefaultDebounce.
func New(dir string, debounce time.Duration, logger zerolog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		logger:   logging.ComponentLogger(logger, "watch"),
	}
}

// Run blocks until ctx is done. PDFs created or written in the directory are
// collected; once no new event arrives for the debounce period they are
// passed to handler in name order. Handler errors are logged and watching
// continues.
func (w *Watcher) Run(ctx context.Context, handler Handler) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err = fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.logger.Info().Str("dir", w.dir).Dur("debounce", w.debounce).Msg("watching for new PDF files")

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Int("pending", len(pending)).Msg("watch stopped")
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return ErrWatcherClosed
			}
			if !orchestrator.IsPDFName(filepath.Base(event.Name)) {
				continue
			}
			switch {
			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				pending[event.Name] = struct{}{}
				timer.Reset(w.debounce)
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				delete(pending, event.Name)
			}

		case werr, ok := <-fw.Errors:
			if !ok {
				return ErrWatcherClosed
			}
			w.logger.Warn().Err(werr).Msg("file watcher error")

		case <-timer.C:
			docs := drain(pending)
			if len(docs) == 0 {
				continue
			}
			w.logger.Info().Int("documents", len(docs)).Msg("new PDF files detected")
			if herr := handler(ctx, docs); herr != nil {
				w.logger.Error().Err(herr).Int("documents", len(docs)).Msg("batch for new files failed")
			}
		}
	}
}

// drain empties pending and returns the paths that still exist as regular
// files, sorted by path.
func drain(pending map[string]struct{}) []orchestrator.Document {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		delete(pending, p)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	docs := make([]orchestrator.Document, len(paths))
	for i, p := range paths {
		docs[i] = orchestrator.NewDocument(p)
	}
	return docs
}
