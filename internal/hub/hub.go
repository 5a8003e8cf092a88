package hub

import (
	"sync"

	"github.com/stintio/stint/internal/model"
)

const subscriberBuffer = 256

// Hub fans flagged report rows out to all subscribers. It implements
// report.RowWriter so a live correlator can treat it as just another sink.
// Slow subscribers have rows dropped rather than stalling the run.
type Hub struct {
	mu          sync.RWMutex
	subscribers []chan model.ReportRow
	rows        []model.ReportRow // every row seen so far, in END order
	dropped     int64
	closed      bool
}

// New creates an empty Hub.
func New() *Hub {
	return &Hub{}
}

// Subscribe returns a buffered channel that will receive every future row.
// Multiple consumers can subscribe; each gets a copy of every row.
func (h *Hub) Subscribe() <-chan model.ReportRow {
	ch := make(chan model.ReportRow, subscriberBuffer)
	h.mu.Lock()
	h.subscribers = append(h.subscribers, ch)
	h.mu.Unlock()
	return ch
}

// WriteRow records the row and broadcasts it to all subscribers without
// blocking. Always returns nil: a slow dashboard client must never abort
// the correlator run.
func (h *Hub) WriteRow(row model.ReportRow) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.rows = append(h.rows, row)

	for _, ch := range h.subscribers {
		select {
		case ch <- row:
		default:
			h.dropped++
		}
	}
	return nil
}

// Rows returns a copy of all rows broadcast so far.
func (h *Hub) Rows() []model.ReportRow {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]model.ReportRow, len(h.rows))
	copy(out, h.rows)
	return out
}

// Dropped returns the total number of rows dropped due to slow consumers.
func (h *Hub) Dropped() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Close closes all subscriber channels. Further writes are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for _, ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = nil
}
