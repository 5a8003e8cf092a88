package model

import (
	"fmt"
	"time"
)

// EventKind is the lifecycle marker carried by a job log line.
type EventKind string

const (
	EventStart EventKind = "START"
	EventEnd   EventKind = "END"
)

// JobEvent represents a single parsed job log line.
type JobEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Job       string    `json:"job"`  // free-text job description
	Kind      EventKind `json:"kind"` // START or END
	PID       string    `json:"pid"`  // opaque correlation key, not an OS pid
	Line      int       `json:"line"` // 1-based line number in the input
	Source    string    `json:"source"`
}

// OpenJob is a START that has not yet been matched by an END.
type OpenJob struct {
	Job       string    `json:"job"`
	StartedAt time.Time `json:"started_at"`
}

// Flag classifies a completed job whose duration crossed a threshold.
type Flag string

const (
	FlagWarning Flag = "WARNING"
	FlagError   Flag = "ERROR"
)

// ReportRow is one line of the generated report.
type ReportRow struct {
	PID         string `json:"pid"`
	Job         string `json:"job"`
	DurationSec int64  `json:"duration_sec"`
	Flag        Flag   `json:"flag"`
}

// Default threshold values, in line with the report's intent of surfacing
// only jobs that ran noticeably long.
const (
	DefaultWarningThreshold = 300 * time.Second
	DefaultErrorThreshold   = 600 * time.Second
)

// Thresholds holds the two duration cutoffs for classifying completed jobs.
type Thresholds struct {
	Warning time.Duration
	Error   time.Duration
}

// DefaultThresholds returns the standard 300s/600s configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Warning: DefaultWarningThreshold,
		Error:   DefaultErrorThreshold,
	}
}

// Validate checks that the thresholds are positive and correctly ordered.
func (t Thresholds) Validate() error {
	if t.Warning <= 0 || t.Error <= 0 {
		return fmt.Errorf("thresholds must be positive (warning=%s error=%s)", t.Warning, t.Error)
	}
	if t.Warning >= t.Error {
		return fmt.Errorf("warning threshold (%s) must be below error threshold (%s)", t.Warning, t.Error)
	}
	return nil
}

// Classify maps a duration to its flag. The second return is false when the
// duration is below the warning cutoff and no row should be emitted; negative
// durations never meet a threshold.
func (t Thresholds) Classify(d time.Duration) (Flag, bool) {
	switch {
	case d >= t.Error:
		return FlagError, true
	case d >= t.Warning:
		return FlagWarning, true
	default:
		return "", false
	}
}
