package parser

import (
	"errors"
	"testing"
	"time"

	"github.com/stintio/stint/internal/model"
)

var refDate = time.Date(2026, 8, 30, 14, 30, 0, 0, time.UTC)

func TestParseStart(t *testing.T) {
	p := NewCSVParser(refDate)

	ev, err := p.Parse("09:00:00,Nightly Backup,START,101", 1, "jobs.log")
	if err != nil {
		t.Fatal(err)
	}

	if ev.Kind != model.EventStart {
		t.Errorf("expected START, got %s", ev.Kind)
	}
	if ev.Job != "Nightly Backup" {
		t.Errorf("expected job 'Nightly Backup', got %q", ev.Job)
	}
	if ev.PID != "101" {
		t.Errorf("expected pid 101, got %q", ev.PID)
	}
	if ev.Timestamp.Hour() != 9 || ev.Timestamp.Minute() != 0 {
		t.Errorf("expected 09:00, got %s", ev.Timestamp.Format("15:04:05"))
	}
	// Time-of-day is anchored to the reference date.
	if ev.Timestamp.Year() != 2026 || ev.Timestamp.Day() != 30 {
		t.Errorf("expected reference date, got %s", ev.Timestamp.Format("2006-01-02"))
	}
}

func TestParseWhitespaceTolerance(t *testing.T) {
	p := NewCSVParser(refDate)

	ev, err := p.Parse("  09:15:30 , ETL Load ,  end , job-42  ", 3, "jobs.log")
	if err != nil {
		t.Fatal(err)
	}

	if ev.Kind != model.EventEnd {
		t.Errorf("expected END from lowercase 'end', got %s", ev.Kind)
	}
	if ev.Job != "ETL Load" {
		t.Errorf("expected trimmed job, got %q", ev.Job)
	}
	if ev.PID != "job-42" {
		t.Errorf("expected trimmed pid, got %q", ev.PID)
	}
	if ev.Line != 3 {
		t.Errorf("expected line 3, got %d", ev.Line)
	}
}

func TestParsePIDAbsorbsExtraCommas(t *testing.T) {
	p := NewCSVParser(refDate)

	// The split is positional: everything after the third comma is pid.
	ev, err := p.Parse("09:00:00,Backup,START,101,extra,bits", 1, "jobs.log")
	if err != nil {
		t.Fatal(err)
	}
	if ev.PID != "101,extra,bits" {
		t.Errorf("expected pid to absorb trailing commas, got %q", ev.PID)
	}
}

func TestParseBlankLine(t *testing.T) {
	p := NewCSVParser(refDate)

	_, err := p.Parse("   \t  ", 7, "jobs.log")
	if !errors.Is(err, ErrBlankLine) {
		t.Errorf("expected ErrBlankLine, got %v", err)
	}
}

func TestParseTooFewFields(t *testing.T) {
	p := NewCSVParser(refDate)

	_, err := p.Parse("garbage,missing,fields", 5, "jobs.log")

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Line != 5 {
		t.Errorf("expected line 5 in error, got %d", pe.Line)
	}
}

func TestParseBadTimestamp(t *testing.T) {
	p := NewCSVParser(refDate)

	cases := []string{
		"25:00:00,Backup,START,101",
		"09:61:00,Backup,START,101",
		"not-a-time,Backup,START,101",
		"09:00,Backup,START,101",
	}
	for _, line := range cases {
		var pe *ParseError
		if _, err := p.Parse(line, 1, "jobs.log"); !errors.As(err, &pe) {
			t.Errorf("expected ParseError for %q, got %v", line, err)
		}
	}
}

func TestParseUnpaddedComponents(t *testing.T) {
	p := NewCSVParser(refDate)

	// Zero padding is optional for hour, minute and second alike.
	cases := []struct {
		ts      string
		h, m, s int
	}{
		{"9:05:00", 9, 5, 0},
		{"09:5:00", 9, 5, 0},
		{"09:05:3", 9, 5, 3},
		{"9:5:3", 9, 5, 3},
		{"23:59:59", 23, 59, 59},
	}
	for _, c := range cases {
		ev, err := p.Parse(c.ts+",Backup,START,101", 1, "jobs.log")
		if err != nil {
			t.Errorf("timestamp %q: %v", c.ts, err)
			continue
		}
		if ev.Timestamp.Hour() != c.h || ev.Timestamp.Minute() != c.m || ev.Timestamp.Second() != c.s {
			t.Errorf("timestamp %q: got %s", c.ts, ev.Timestamp.Format("15:04:05"))
		}
	}
}

func TestParseUnknownEvent(t *testing.T) {
	p := NewCSVParser(refDate)

	_, err := p.Parse("09:00:00,Backup,PAUSE,101", 9, "jobs.log")

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestParseEventCaseInsensitive(t *testing.T) {
	p := NewCSVParser(refDate)

	for _, raw := range []string{"Start", "start", "START", "sTaRt"} {
		ev, err := p.Parse("09:00:00,Backup,"+raw+",101", 1, "jobs.log")
		if err != nil {
			t.Fatalf("event %q: %v", raw, err)
		}
		if ev.Kind != model.EventStart {
			t.Errorf("event %q: expected START, got %s", raw, ev.Kind)
		}
	}
}
