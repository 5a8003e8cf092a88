package parser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stintio/stint/internal/model"
)

// Parser converts a raw job log line into a structured JobEvent.
type Parser interface {
	Parse(raw string, lineno int, source string) (model.JobEvent, error)
}

// ErrBlankLine is returned for lines that are empty after trimming.
// Callers skip these silently (at most a debug-level note).
var ErrBlankLine = errors.New("blank line")

// ParseError describes a malformed line. It is recoverable by design:
// the line is skipped and processing continues.
type ParseError struct {
	Line   int    // 1-based line number
	Reason string // short description of what failed
	Raw    string // the offending line, trimmed
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d %s: %q", e.Line, e.Reason, e.Raw)
}

// timeLayout matches HH:MM:SS time-of-day values. Every component accepts
// one or two digits, so 9:5:3 and 09:05:03 both parse.
const timeLayout = "15:4:5"

// fieldCount is the exact number of comma-separated fields per line:
// timestamp, job, event, pid.
const fieldCount = 4

// CSVParser parses the comma-separated job event format
// `TIMESTAMP,JOB,EVENT,PID`. The split is positional: the first three commas
// delimit fields, any further commas belong to the pid field.
type CSVParser struct {
	refYear  int
	refMonth time.Month
	refDay   int
	loc      *time.Location
}

// NewCSVParser returns a parser that anchors parsed time-of-day values to the
// date of ref. Only time-of-day is carried by the input, so START and END of
// one run must share the same reference date; runs crossing midnight produce
// undefined durations.
func NewCSVParser(ref time.Time) *CSVParser {
	y, m, d := ref.Date()
	return &CSVParser{refYear: y, refMonth: m, refDay: d, loc: ref.Location()}
}

func (p *CSVParser) Parse(raw string, lineno int, source string) (model.JobEvent, error) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return model.JobEvent{}, ErrBlankLine
	}

	parts := strings.SplitN(line, ",", fieldCount)
	if len(parts) != fieldCount {
		return model.JobEvent{}, &ParseError{
			Line:   lineno,
			Reason: fmt.Sprintf("malformed (%d fields)", len(parts)),
			Raw:    line,
		}
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	tsStr, job, event, pid := parts[0], parts[1], parts[2], parts[3]

	tod, err := time.Parse(timeLayout, tsStr)
	if err != nil {
		return model.JobEvent{}, &ParseError{
			Line:   lineno,
			Reason: fmt.Sprintf("bad timestamp %q", tsStr),
			Raw:    line,
		}
	}
	ts := time.Date(p.refYear, p.refMonth, p.refDay,
		tod.Hour(), tod.Minute(), tod.Second(), 0, p.loc)

	kind := model.EventKind(strings.ToUpper(event))
	if kind != model.EventStart && kind != model.EventEnd {
		return model.JobEvent{}, &ParseError{
			Line:   lineno,
			Reason: fmt.Sprintf("unknown event %q", event),
			Raw:    line,
		}
	}

	return model.JobEvent{
		Timestamp: ts,
		Job:       job,
		Kind:      kind,
		PID:       pid,
		Line:      lineno,
		Source:    source,
	}, nil
}
