package correlator

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/stintio/stint/internal/model"
	"github.com/stintio/stint/internal/parser"
	"github.com/stintio/stint/internal/report"
)

// maxLineSize bounds how long a single input line may be. Longer lines are
// skipped with a diagnostic, like any other malformed line.
const maxLineSize = 1024 * 1024

// OpenEntry is a snapshot of one unterminated job.
type OpenEntry struct {
	PID       string    `json:"pid"`
	Job       string    `json:"job"`
	StartedAt time.Time `json:"started_at"`
}

// Summary describes one correlator run.
type Summary struct {
	LinesRead    int                `json:"lines_read"`
	Parsed       int                `json:"parsed"`
	Skipped      int                `json:"skipped"`
	Flagged      map[model.Flag]int `json:"flagged"`
	Unterminated []OpenEntry        `json:"unterminated"`
}

// Correlator pairs START/END events by pid, computes elapsed durations and
// writes threshold-crossing rows to the report sink. It owns the open-job
// table for the duration of one run; malformed input is logged and skipped,
// only I/O failures are fatal.
type Correlator struct {
	thresholds model.Thresholds
	parser     parser.Parser
	sink       report.RowWriter
	log        *slog.Logger

	open      map[string]model.OpenJob
	openOrder []string // pids in first-START order, for stable enumeration

	linesRead int
	parsed    int
	skipped   int
	flagged   map[model.Flag]int
}

// New creates a Correlator. The logger is the diagnostic side channel; it is
// injected rather than pulled from a global so runs stay independent.
func New(thresholds model.Thresholds, p parser.Parser, sink report.RowWriter, log *slog.Logger) *Correlator {
	return &Correlator{
		thresholds: thresholds,
		parser:     p,
		sink:       sink,
		log:        log,
		open:       make(map[string]model.OpenJob),
		flagged:    make(map[model.Flag]int),
	}
}

// Run consumes the reader line by line in a single pass, then reports any
// jobs left open. Read and sink errors abort the run; everything else is
// recoverable.
func (c *Correlator) Run(r io.Reader, source string) (Summary, error) {
	reader := bufio.NewReaderSize(r, 64*1024)

	lineno := 0
	for {
		line, tooLong, err := readLine(reader)
		if err == io.EOF {
			break
		}
		if err != nil {
			return c.summary(), fmt.Errorf("read %s: %w", source, err)
		}
		lineno++

		if tooLong {
			c.linesRead++
			c.skipped++
			c.log.Warn("skipping line", "line", lineno,
				"reason", fmt.Sprintf("line exceeds %d bytes", maxLineSize))
			continue
		}
		if err := c.FeedLine(line, lineno, source); err != nil {
			return c.summary(), err
		}
	}

	return c.Finish(), nil
}

// readLine returns the next line, accumulating up to maxLineSize bytes.
// A longer line is drained to its newline and reported as tooLong rather
// than aborting the run. Returns io.EOF only with no pending data.
func readLine(r *bufio.Reader) (line string, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			return "", false, err
		}
		if !tooLong {
			if len(buf)+len(chunk) > maxLineSize {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

// FeedLine parses one raw line and feeds the result. Parse failures are
// logged and swallowed; a returned error is always a sink failure.
func (c *Correlator) FeedLine(raw string, lineno int, source string) error {
	c.linesRead++

	ev, err := c.parser.Parse(raw, lineno, source)
	if err != nil {
		c.skipped++
		if errors.Is(err, parser.ErrBlankLine) {
			c.log.Debug("empty line skipped", "line", lineno)
			return nil
		}
		var pe *parser.ParseError
		if errors.As(err, &pe) {
			c.log.Warn("skipping line", "line", pe.Line, "reason", pe.Reason, "raw", pe.Raw)
			return nil
		}
		c.log.Warn("skipping line", "line", lineno, "reason", err.Error())
		return nil
	}

	c.parsed++
	return c.Feed(ev)
}

// Feed applies a parsed event to the open-job table. A returned error is a
// sink write failure and should abort the run.
func (c *Correlator) Feed(ev model.JobEvent) error {
	switch ev.Kind {
	case model.EventStart:
		c.handleStart(ev)
		return nil
	case model.EventEnd:
		return c.handleEnd(ev)
	default:
		// The parser only emits START and END; anything else is a bug.
		c.log.Warn("unhandled event kind", "kind", string(ev.Kind), "line", ev.Line)
		return nil
	}
}

// handleStart records or overwrites the open entry for the pid.
// Last START wins: the previous entry is lost, not reported as abandoned.
func (c *Correlator) handleStart(ev model.JobEvent) {
	if _, exists := c.open[ev.PID]; exists {
		c.log.Warn("duplicate START, overwriting previous start", "line", ev.Line, "pid", ev.PID)
	} else {
		c.openOrder = append(c.openOrder, ev.PID)
	}
	c.open[ev.PID] = model.OpenJob{Job: ev.Job, StartedAt: ev.Timestamp}
}

// handleEnd closes the pid's open entry and emits a row when the duration
// crosses a threshold. Negative durations never meet a threshold and are
// silently dropped.
func (c *Correlator) handleEnd(ev model.JobEvent) error {
	oj, exists := c.open[ev.PID]
	if !exists {
		c.log.Warn("END with no START", "line", ev.Line, "pid", ev.PID)
		return nil
	}
	delete(c.open, ev.PID)
	c.removeFromOrder(ev.PID)

	duration := ev.Timestamp.Sub(oj.StartedAt)
	flag, ok := c.thresholds.Classify(duration)
	if !ok {
		return nil
	}

	row := model.ReportRow{
		PID:         ev.PID,
		Job:         oj.Job,
		DurationSec: int64(duration.Round(time.Second) / time.Second),
		Flag:        flag,
	}
	if err := c.sink.WriteRow(row); err != nil {
		return fmt.Errorf("report sink: %w", err)
	}
	c.flagged[flag]++
	return nil
}

// Finish logs every job still open and returns the run summary. The report
// sink is not touched: unterminated jobs are observational only.
func (c *Correlator) Finish() Summary {
	for _, e := range c.Open() {
		c.log.Info("job still running, no END found",
			"pid", e.PID, "job", e.Job, "started", e.StartedAt.Format("15:04:05"))
	}
	return c.summary()
}

// Open returns the unterminated jobs in first-START order.
func (c *Correlator) Open() []OpenEntry {
	entries := make([]OpenEntry, 0, len(c.open))
	for _, pid := range c.openOrder {
		oj, ok := c.open[pid]
		if !ok {
			continue
		}
		entries = append(entries, OpenEntry{PID: pid, Job: oj.Job, StartedAt: oj.StartedAt})
	}
	return entries
}

func (c *Correlator) summary() Summary {
	flagged := make(map[model.Flag]int, len(c.flagged))
	for k, v := range c.flagged {
		flagged[k] = v
	}
	return Summary{
		LinesRead:    c.linesRead,
		Parsed:       c.parsed,
		Skipped:      c.skipped,
		Flagged:      flagged,
		Unterminated: c.Open(),
	}
}

func (c *Correlator) removeFromOrder(pid string) {
	for i, p := range c.openOrder {
		if p == pid {
			c.openOrder = append(c.openOrder[:i], c.openOrder[i+1:]...)
			return
		}
	}
}
