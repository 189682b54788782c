package batch

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultChunkSize is the chunk size used by NewProcessorWithDefaults.
const DefaultChunkSize = 1

// Common batch processing errors.
var (
	ErrInvalidChunkSize = errors.New("chunk size must be at least 1")
	ErrNilCallback      = errors.New("chunk callback cannot be nil")
)

// ChunkCallback processes one chunk. offset is the index of chunk[0] in the
// original item slice.
type ChunkCallback[T any] func(ctx context.Context, chunk []T, offset int) error

// ProgressCallback is invoked after each chunk completes.
type ProgressCallback func(snap ProgressSnapshot)

// Processor runs a ChunkCallback over fixed-size chunks of an item slice.
type Processor[T any] struct {
	chunkSize  int
	onProgress ProgressCallback
}

// NewProcessor creates a processor that splits items into chunks of chunkSize.
func NewProcessor[T any](chunkSize int) (*Processor[T], error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidChunkSize, chunkSize)
	}
	return &Processor[T]{chunkSize: chunkSize}, nil
}

// NewProcessorWithDefaults creates a processor that handles one item per chunk.
func NewProcessorWithDefaults[T any]() *Processor[T] {
	return &Processor[T]{chunkSize: DefaultChunkSize}
}

// ChunkSizeFor returns the chunk size that spreads total items over at most
// workers chunks. It never returns less than 1.
func ChunkSizeFor(total, workers int) int {
	if workers < 1 {
		workers = 1
	}
	size := (total + workers - 1) / workers
	if size < 1 {
		return 1
	}
	return size
}

// WithProgressCallback sets a progress callback for the processor.
func (p *Processor[T]) WithProgressCallback(callback ProgressCallback) *Processor[T] {
	p.onProgress = callback
	return p
}

// ChunkSize returns the configured chunk size.
func (p *Processor[T]) ChunkSize() int {
	return p.chunkSize
}

// Process runs callback over each chunk in order and stops on the first error.
// An empty item slice is a no-op.
func (p *Processor[T]) Process(ctx context.Context, items []T, callback ChunkCallback[T]) error {
	if callback == nil {
		return ErrNilCallback
	}
	if len(items) == 0 {
		return nil
	}

	bounds := p.Chunks(len(items))
	progress := NewProgress(len(items), len(bounds))

	for i, b := range bounds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := callback(ctx, items[b[0]:b[1]], b[0]); err != nil {
			return fmt.Errorf("chunk %d failed: %w", i, err)
		}
		p.report(progress, b[1]-b[0])
	}
	return nil
}

// ProcessConcurrent runs callback over the chunks with at most maxConcurrency
// running at once. The first error cancels the context passed to the
// remaining callbacks and is returned once all started callbacks return.
func (p *Processor[T]) ProcessConcurrent(
	ctx context.Context,
	items []T,
	callback ChunkCallback[T],
	maxConcurrency int,
) error {
	if callback == nil {
		return ErrNilCallback
	}
	if len(items) == 0 {
		return nil
	}
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	bounds := p.Chunks(len(items))
	progress := NewProgress(len(items), len(bounds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)

	for i, b := range bounds {
		if gctx.Err() != nil {
			break
		}
		chunk := items[b[0]:b[1]]
		offset := b[0]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := callback(gctx, chunk, offset); err != nil {
				return fmt.Errorf("chunk %d failed: %w", i, err)
			}
			p.report(progress, len(chunk))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Chunks returns the [start, end) boundaries of every chunk for total items.
func (p *Processor[T]) Chunks(total int) [][2]int {
	if total <= 0 {
		return nil
	}
	n := (total + p.chunkSize - 1) / p.chunkSize
	out := make([][2]int, n)
	for i := range n {
		start := i * p.chunkSize
		out[i] = [2]int{start, min(start+p.chunkSize, total)}
	}
	return out
}

func (p *Processor[T]) report(progress *Progress, items int) {
	snap := progress.AddProcessed(items)
	if p.onProgress != nil {
		p.onProgress(snap)
	}
}
