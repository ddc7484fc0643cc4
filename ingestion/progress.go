package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// progressTracker reports write progress on a single rewritten line,
// every reportInterval items.
type progressTracker struct {
	writer         io.Writer
	total          int
	current        int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	printed        bool
	mu             sync.Mutex
}

func newProgressTracker(writer io.Writer, total, reportInterval int) *progressTracker {
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &progressTracker{
		writer:         writer,
		total:          total,
		reportInterval: reportInterval,
	}
}

// start begins tracking. Updates before start are dropped.
func (p *progressTracker) start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.current = 0
	p.lastReported = 0
}

// increment advances progress by delta, reporting when a report
// interval has been crossed.
func (p *progressTracker) increment(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.current += delta
	if p.current > p.total {
		p.current = p.total
	}

	if p.current-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.current
	}
}

// finish forces a final report and terminates the progress line.
func (p *progressTracker) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.current = p.total
	p.report()
	fmt.Fprintln(p.writer)
}

// abandon terminates the progress line without claiming completion.
// A no-op when nothing was printed yet.
func (p *progressTracker) abandon() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started || !p.printed {
		return
	}
	fmt.Fprintln(p.writer)
}

// elapsed returns the time since start.
func (p *progressTracker) elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}
	return time.Since(p.startTime)
}

// report prints the current progress. Caller holds the lock.
func (p *progressTracker) report() {
	elapsed := time.Since(p.startTime)
	rate := float64(p.current) / elapsed.Seconds()

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rProgress: %d/%d (%.1f%%) - %.1f chunks/s",
		p.current, p.total, percentage, rate)
	p.printed = true
}
