package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/stintio/stint/internal/model"
)

// header is the first row of every report file.
var header = []string{"pid", "job", "duration_sec", "flag"}

// RowWriter is an append-only sink for flagged report rows.
type RowWriter interface {
	WriteRow(row model.ReportRow) error
}

// DefaultPath derives the default report location from the run timestamp,
// e.g. out/report_2026-08-30-14-30-05.csv.
func DefaultPath(now time.Time) string {
	return filepath.Join("out", "report_"+now.Format("2006-01-02-15-04-05")+".csv")
}

// CSVWriter writes report rows as comma-separated values with a fixed header.
// Rows are buffered; Close flushes and surfaces the first write error.
type CSVWriter struct {
	w    *csv.Writer
	file *os.File // nil when writing to a caller-supplied io.Writer
}

// NewCSVWriter wraps an existing writer and emits the header immediately.
func NewCSVWriter(w io.Writer) (*CSVWriter, error) {
	cw := &CSVWriter{w: csv.NewWriter(w)}
	if err := cw.w.Write(header); err != nil {
		return nil, fmt.Errorf("write report header: %w", err)
	}
	return cw, nil
}

// Create opens a report file at path, creating parent directories as needed.
func Create(path string) (*CSVWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create report directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create report file: %w", err)
	}

	cw, err := NewCSVWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	cw.file = f
	return cw, nil
}

func (c *CSVWriter) WriteRow(row model.ReportRow) error {
	record := []string{
		row.PID,
		row.Job,
		strconv.FormatInt(row.DurationSec, 10),
		string(row.Flag),
	}
	if err := c.w.Write(record); err != nil {
		return fmt.Errorf("write report row: %w", err)
	}
	return nil
}

// Flush forces buffered rows out and reports any deferred write error.
func (c *CSVWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

// Close flushes the buffer and closes the underlying file, if any.
func (c *CSVWriter) Close() error {
	flushErr := c.Flush()
	if c.file != nil {
		if err := c.file.Close(); err != nil && flushErr == nil {
			flushErr = err
		}
	}
	return flushErr
}

// multiWriter fans rows out to several sinks.
type multiWriter struct {
	sinks []RowWriter
}

// MultiWriter returns a RowWriter that duplicates each row to every sink,
// stopping at the first error.
func MultiWriter(sinks ...RowWriter) RowWriter {
	return &multiWriter{sinks: sinks}
}

func (m *multiWriter) WriteRow(row model.ReportRow) error {
	for _, s := range m.sinks {
		if err := s.WriteRow(row); err != nil {
			return err
		}
	}
	return nil
}
