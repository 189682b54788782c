package batch

import (
	"sync"
	"time"
)

const percentMultiplier = 100

// Progress tracks completed items and chunks. It is safe for concurrent use.
type Progress struct {
	mu sync.Mutex

	totalItems      int
	totalChunks     int
	processedItems  int
	processedChunks int
	start           time.Time
}

// NewProgress creates a progress tracker started now.
func NewProgress(totalItems, totalChunks int) *Progress {
	return &Progress{
		totalItems:  totalItems,
		totalChunks: totalChunks,
		start:       time.Now(),
	}
}

// AddProcessed records one finished chunk of n items and returns the
// resulting snapshot.
func (p *Progress) AddProcessed(n int) ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processedItems += n
	p.processedChunks++
	return p.snapshotLocked()
}

// Snapshot returns a copy of the current state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Progress) snapshotLocked() ProgressSnapshot {
	elapsed := time.Since(p.start)
	snap := ProgressSnapshot{
		TotalItems:      p.totalItems,
		ProcessedItems:  p.processedItems,
		TotalChunks:     p.totalChunks,
		ProcessedChunks: p.processedChunks,
		Elapsed:         elapsed,
	}
	if p.totalItems > 0 {
		snap.PercentComplete = float64(p.processedItems) / float64(p.totalItems) * percentMultiplier
	}
	if p.processedItems > 0 {
		perItem := elapsed / time.Duration(p.processedItems)
		snap.EstimatedRemaining = perItem * time.Duration(p.totalItems-p.processedItems)
	}
	return snap
}

// ProgressSnapshot is an immutable view of a Progress.
type ProgressSnapshot struct {
	TotalItems         int
	ProcessedItems     int
	TotalChunks        int
	ProcessedChunks    int
	PercentComplete    float64
	Elapsed            time.Duration
	EstimatedRemaining time.Duration
}

// Done reports whether every item has been processed.
func (s ProgressSnapshot) Done() bool {
	return s.ProcessedItems >= s.TotalItems
}
