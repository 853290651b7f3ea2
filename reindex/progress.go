package reindex

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports scheduling progress to a writer every
// reportInterval items. Safe for concurrent use; calls before Start are
// ignored.
type ProgressTracker struct {
	out      io.Writer
	total    int
	interval int

	mu        sync.Mutex
	started   bool
	startTime time.Time
	done      int
	reported  int
}

// NewProgressTracker creates a tracker for total items, writing a progress
// line to writer (typically os.Stderr) every reportInterval items.
func NewProgressTracker(writer io.Writer, total, reportInterval int) *ProgressTracker {
	return &ProgressTracker{
		out:      writer,
		total:    total,
		interval: reportInterval,
	}
}

// Start begins tracking and resets any previous progress.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.started = true
	p.startTime = time.Now()
	p.done = 0
	p.reported = 0
}

// Update sets the absolute progress, capped at the total.
func (p *ProgressTracker) Update(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setLocked(current)
}

// Increment advances progress by delta, capped at the total.
func (p *ProgressTracker) Increment(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setLocked(p.done + delta)
}

// Finish forces progress to the total, prints the final line, and ends it
// with a newline.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.done = p.total
	p.emit()
	fmt.Fprintln(p.out)
}

// Elapsed returns the time since Start, or zero if not started.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}
	return time.Since(p.startTime)
}

func (p *ProgressTracker) setLocked(n int) {
	if !p.started {
		return
	}
	if n > p.total {
		n = p.total
	}
	p.done = n
	if p.done-p.reported >= p.interval {
		p.emit()
		p.reported = p.done
	}
}

// emit writes one progress line. Caller holds the lock.
func (p *ProgressTracker) emit() {
	elapsed := time.Since(p.startTime)
	rate := float64(p.done) / elapsed.Seconds()

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.done) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.out, "\rProgress: %d/%d (%.1f%%) - %.1f documents/s",
		p.done, p.total, percentage, rate)
}
