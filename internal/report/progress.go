// Package report renders growth runs as PNG plots and interactive HTML charts.
package report

import (
	"sync"

	"github.com/banshee-data/arbor/internal/skeleton"
)

// ProgressRecorder collects per-iteration samples from a growth run. It is
// safe to read while the run is still feeding it.
type ProgressRecorder struct {
	mu      sync.Mutex
	samples []skeleton.IterationSample
}

// NewProgressRecorder returns an empty recorder.
func NewProgressRecorder() *ProgressRecorder {
	return &ProgressRecorder{}
}

// OnIteration implements skeleton.Observer.
func (r *ProgressRecorder) OnIteration(s skeleton.IterationSample) {
	r.mu.Lock()
	r.samples = append(r.samples, s)
	r.mu.Unlock()
}

// Samples returns a copy of the samples recorded so far.
func (r *ProgressRecorder) Samples() []skeleton.IterationSample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]skeleton.IterationSample(nil), r.samples...)
}

// ModeCounts tallies iterations by growth mode.
func (r *ProgressRecorder) ModeCounts() map[skeleton.GrowthMode]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[skeleton.GrowthMode]int)
	for _, s := range r.samples {
		counts[s.Mode]++
	}
	return counts
}
