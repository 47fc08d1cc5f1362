package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker writes periodic progress lines while records are loaded.
type ProgressTracker struct {
	writer         io.Writer
	total          int
	done           int
	entries        int
	failed         int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgressTracker creates a new progress tracker.
// writer: where to write progress output (typically os.Stderr)
// total: number of records in the run
// reportInterval: report every N finished records
func NewProgressTracker(writer io.Writer, total, reportInterval int) *ProgressTracker {
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		total:          total,
		reportInterval: reportInterval,
	}
}

// Start resets the counters and starts the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.done = 0
	p.entries = 0
	p.failed = 0
	p.lastReported = 0
}

// RecordDone counts one finished record with the entries it wrote.
func (p *ProgressTracker) RecordDone(entries int, failed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.done = min(p.done+1, p.total)
	p.entries += entries
	if failed {
		p.failed++
	}

	if p.done-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.done
	}
}

// Finish prints the final line. Records never reached (after a fail-fast
// stop or cancellation) are not counted as done.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.report()
	fmt.Fprintln(p.writer)
}

// Elapsed returns the time elapsed since Start was called.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}

	return time.Since(p.startTime)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	elapsed := time.Since(p.startTime)
	rate := float64(p.done) / elapsed.Seconds()

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.done) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rLoaded %d/%d records (%.1f%%), %d entries, %d failed - %.1f records/s",
		p.done, p.total, percentage, p.entries, p.failed, rate)
}
