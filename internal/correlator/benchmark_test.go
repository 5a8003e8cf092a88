package correlator

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stintio/stint/internal/model"
	"github.com/stintio/stint/internal/parser"
)

type nullSink struct{}

func (nullSink) WriteRow(model.ReportRow) error { return nil }

// BenchmarkCorrelatorRun measures end-to-end throughput over a log with a
// mix of paired, flagged and unterminated jobs.
func BenchmarkCorrelatorRun(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 1000; i++ {
		fmt.Fprintf(&sb, "09:%02d:%02d,Job %d,START,%d\n", i/60, i%60, i, i)
		if i%10 != 0 { // every tenth job never ends
			fmt.Fprintf(&sb, "10:%02d:%02d,Job %d,END,%d\n", i/60, i%60, i, i)
		}
	}
	input := sb.String()

	ref := time.Now()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c := New(model.DefaultThresholds(), parser.NewCSVParser(ref), nullSink{}, logger)
		if _, err := c.Run(strings.NewReader(input), "bench.log"); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkFeedLine measures the per-line hot path in isolation.
func BenchmarkFeedLine(b *testing.B) {
	ref := time.Now()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(model.DefaultThresholds(), parser.NewCSVParser(ref), nullSink{}, logger)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if i%2 == 0 {
			c.FeedLine("09:00:00,Backup,START,101", i, "bench.log")
		} else {
			c.FeedLine("09:04:00,Backup,END,101", i, "bench.log")
		}
	}
}
