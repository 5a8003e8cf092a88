package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/stintio/stint/internal/correlator"
	"github.com/stintio/stint/internal/model"
)

// Stats holds a point-in-time snapshot of run metrics.
type Stats struct {
	Uptime        string               `json:"uptime"`
	TotalRows     int64                `json:"total_rows"`
	RowsPerSec    float64              `json:"rows_per_sec"`
	FlagCounts    map[model.Flag]int64 `json:"flag_counts"`
	DroppedRows   int64                `json:"dropped_rows"`
	OpenJobs      int                  `json:"open_jobs"`
	OldestOpenPID string               `json:"oldest_open_pid,omitempty"`
	OldestOpenAge string               `json:"oldest_open_age,omitempty"`
}

// Aggregator subscribes to the Hub and computes time-windowed metrics over
// the flagged rows of a live run.
type Aggregator struct {
	mu         sync.RWMutex
	startTime  time.Time
	totalRows  int64
	flagCounts map[model.Flag]int64
	window     []time.Time // row arrival times for the rate calculation (last 5 seconds)
	dropped    func() int64
	open       func() []correlator.OpenEntry
	rows       <-chan model.ReportRow
}

// New creates an Aggregator that reads from the given Hub subscriber channel.
// droppedFn and openFn provide live values from the Hub and the correlator.
func New(rows <-chan model.ReportRow, droppedFn func() int64, openFn func() []correlator.OpenEntry) *Aggregator {
	return &Aggregator{
		startTime:  time.Now(),
		flagCounts: make(map[model.Flag]int64),
		dropped:    droppedFn,
		open:       openFn,
		rows:       rows,
	}
}

// Snapshot returns the current metrics.
func (a *Aggregator) Snapshot() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	counts := make(map[model.Flag]int64)
	for k, v := range a.flagCounts {
		counts[k] = v
	}

	// Rate over the sliding window.
	cutoff := time.Now().Add(-5 * time.Second)
	var recent int
	for _, t := range a.window {
		if t.After(cutoff) {
			recent++
		}
	}

	stats := Stats{
		Uptime:      time.Since(a.startTime).Truncate(time.Second).String(),
		TotalRows:   a.totalRows,
		RowsPerSec:  float64(recent) / 5.0,
		FlagCounts:  counts,
		DroppedRows: a.dropped(),
	}

	// The job waiting longest for its END is the one an operator will ask
	// about first; surface it by pid and age.
	open := a.open()
	stats.OpenJobs = len(open)
	if oldest, ok := oldestEntry(open); ok {
		stats.OldestOpenPID = oldest.PID
		stats.OldestOpenAge = time.Since(oldest.StartedAt).Truncate(time.Second).String()
	}

	return stats
}

// oldestEntry picks the open job with the earliest start time.
func oldestEntry(open []correlator.OpenEntry) (correlator.OpenEntry, bool) {
	if len(open) == 0 {
		return correlator.OpenEntry{}, false
	}
	oldest := open[0]
	for _, e := range open[1:] {
		if e.StartedAt.Before(oldest.StartedAt) {
			oldest = e
		}
	}
	return oldest, true
}

// Start begins consuming rows and updating metrics. Blocks until the context
// is cancelled or the subscriber channel is closed.
func (a *Aggregator) Start(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case row, ok := <-a.rows:
			if !ok {
				return
			}
			a.record(row)
		case <-ticker.C:
			a.prune()
		}
	}
}

// record adds a row to the metrics.
func (a *Aggregator) record(row model.ReportRow) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalRows++
	a.flagCounts[row.Flag]++
	a.window = append(a.window, time.Now())
}

// prune removes timestamps older than 5 seconds from the sliding window.
func (a *Aggregator) prune() {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := time.Now().Add(-5 * time.Second)
	i := 0
	for _, t := range a.window {
		if t.After(cutoff) {
			a.window[i] = t
			i++
		}
	}
	a.window = a.window[:i]
}
