package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/stintio/stint/internal/correlator"
	"github.com/stintio/stint/internal/model"
	"github.com/stintio/stint/internal/output"
	"github.com/stintio/stint/internal/parser"
	"github.com/stintio/stint/internal/report"
)

var (
	scanOutPath string
	scanQuiet   bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [paths...]",
	Short: "Scan job logs and report jobs that ran too long",
	Long: `Scan one or more job log files (or glob patterns) in a single pass,
pair START/END events by pid, and write a CSV report of every job whose
runtime crossed a threshold. Jobs that never ended are listed in the
diagnostics but kept out of the report.

Timestamps carry only a time of day, so all events of one file must belong
to the same day; logs spanning midnight produce undefined durations.

Examples:
  stint scan jobs.log
  stint scan jobs.log -o reports/today.csv
  stint scan "archive/**/*.log" --warning-threshold 120`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanOutPath, "output", "o", "", "report path (default: out/report_<timestamp>.csv)")
	scanCmd.Flags().BoolVarP(&scanQuiet, "quiet", "q", false, "suppress the terminal summary")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	th, err := thresholds()
	if err != nil {
		return err
	}

	files := expandInputs(args)
	if len(files) == 0 {
		return fmt.Errorf("no files matched: %v", args)
	}

	now := time.Now()
	if scanOutPath == "" {
		scanOutPath = report.DefaultPath(now)
	}

	csv, err := report.Create(scanOutPath)
	if err != nil {
		return err
	}

	// Collect rows alongside the CSV so the terminal tables can replay them.
	collector := &rowCollector{}
	sink := report.MultiWriter(csv, collector)

	var total correlator.Summary
	total.Flagged = make(map[model.Flag]int)

	for _, path := range files {
		logger.Info("processing started", "file", path)

		f, err := os.Open(path)
		if err != nil {
			csv.Close()
			return fmt.Errorf("open %s: %w", path, err)
		}

		// One correlator per file: pids never pair across inputs.
		c := correlator.New(th, parser.NewCSVParser(now), sink, logger)
		summary, runErr := c.Run(f, path)
		f.Close()
		if runErr != nil {
			csv.Close()
			return runErr
		}

		mergeSummary(&total, summary)
	}

	if err := csv.Close(); err != nil {
		return err
	}
	logger.Info("processing finished", "report", scanOutPath)

	if !scanQuiet {
		output.WriteRowTable(os.Stdout, collector.rows)
		output.WriteOpenTable(os.Stdout, total.Unterminated)
		output.WriteSummary(os.Stdout, total)
	}
	return nil
}

// expandInputs resolves each argument as a glob pattern, falling back to the
// literal path when nothing matches. Supports recursive ** patterns.
func expandInputs(args []string) []string {
	seen := make(map[string]bool)
	var files []string

	for _, arg := range args {
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil || len(matches) == 0 {
			matches = []string{arg}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files
}

func mergeSummary(total *correlator.Summary, s correlator.Summary) {
	total.LinesRead += s.LinesRead
	total.Parsed += s.Parsed
	total.Skipped += s.Skipped
	for k, v := range s.Flagged {
		total.Flagged[k] += v
	}
	total.Unterminated = append(total.Unterminated, s.Unterminated...)
}

// rowCollector buffers rows in memory for the end-of-run tables.
type rowCollector struct {
	rows []model.ReportRow
}

func (r *rowCollector) WriteRow(row model.ReportRow) error {
	r.rows = append(r.rows, row)
	return nil
}
