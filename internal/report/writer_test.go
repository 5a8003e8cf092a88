package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stintio/stint/internal/model"
)

func TestCSVWriterHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewCSVWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}

	if err := w.WriteRow(model.ReportRow{PID: "101", Job: "Backup", DurationSec: 360, Flag: model.FlagWarning}); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteRow(model.ReportRow{PID: "202", Job: "ETL", DurationSec: 720, Flag: model.FlagError}); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines: %q", len(lines), buf.String())
	}
	if lines[0] != "pid,job,duration_sec,flag" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if lines[1] != "101,Backup,360,WARNING" {
		t.Errorf("unexpected row: %q", lines[1])
	}
	if lines[2] != "202,ETL,720,ERROR" {
		t.Errorf("unexpected row: %q", lines[2])
	}
}

func TestCreateMakesParentDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out", "report.csv")

	w, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteRow(model.ReportRow{PID: "1", Job: "j", DurationSec: 301, Flag: model.FlagWarning}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(raw), "pid,job,duration_sec,flag\n") {
		t.Errorf("missing header in %q", string(raw))
	}
	if !strings.Contains(string(raw), "1,j,301,WARNING") {
		t.Errorf("missing row in %q", string(raw))
	}
}

func TestDefaultPath(t *testing.T) {
	ts := time.Date(2026, 8, 30, 14, 30, 5, 0, time.UTC)
	got := DefaultPath(ts)
	want := filepath.Join("out", "report_2026-08-30-14-30-05.csv")
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

type countingSink struct{ rows int }

func (c *countingSink) WriteRow(model.ReportRow) error {
	c.rows++
	return nil
}

func TestMultiWriter(t *testing.T) {
	a := &countingSink{}
	b := &countingSink{}
	w := MultiWriter(a, b)

	if err := w.WriteRow(model.ReportRow{PID: "1"}); err != nil {
		t.Fatal(err)
	}
	if a.rows != 1 || b.rows != 1 {
		t.Errorf("expected both sinks to receive the row, got %d and %d", a.rows, b.rows)
	}
}
