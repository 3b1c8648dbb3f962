package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/poiesic/resumatch/core"
	"github.com/poiesic/resumatch/ranking"
)

// progressMonitor prints a running count of finished résumés.
type progressMonitor struct {
	writer    io.Writer
	total     int
	done      int
	failed    int
	startTime time.Time
	mu        sync.Mutex
}

var _ ranking.Monitor = (*progressMonitor)(nil)

func newProgressMonitor(w io.Writer) *progressMonitor {
	return &progressMonitor{writer: w}
}

func (p *progressMonitor) BatchStarted(_ string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.done = 0
	p.failed = 0
	p.startTime = time.Now()
}

func (p *progressMonitor) DocumentStarted(_ string) {}

func (p *progressMonitor) DocumentFinished(_ string, _ *core.MatchResult, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if err != nil {
		p.failed++
	}
	p.report()
}

func (p *progressMonitor) BatchFinished(_ *core.BatchRankingResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.total > 0 {
		fmt.Fprintln(p.writer)
	}
}

// report prints the current progress. Must be called with lock held.
func (p *progressMonitor) report() {
	rate := 0.0
	if elapsed := time.Since(p.startTime).Seconds(); elapsed > 0 {
		rate = float64(p.done) / elapsed
	}

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.done) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rProgress: %d/%d (%.1f%%) - %.1f résumés/s", p.done, p.total, percentage, rate)
	if p.failed > 0 {
		fmt.Fprintf(p.writer, ", %d failed", p.failed)
	}
}
