package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/stintio/stint/internal/correlator"
	"github.com/stintio/stint/internal/model"
)

// WriteSummary renders the end-of-run statistics as a table.
func WriteSummary(w io.Writer, s correlator.Summary) {
	table := tablewriter.NewWriter(w)
	table.Header("Metric", "Value")

	table.Append("Lines read", strconv.Itoa(s.LinesRead))
	table.Append("Parsed events", strconv.Itoa(s.Parsed))
	table.Append("Skipped lines", strconv.Itoa(s.Skipped))
	table.Append("Warnings", strconv.Itoa(s.Flagged[model.FlagWarning]))
	table.Append("Errors", strconv.Itoa(s.Flagged[model.FlagError]))
	table.Append("Unterminated", strconv.Itoa(len(s.Unterminated)))

	table.Render()
}

// WriteRowTable renders the flagged rows as a table in report order.
func WriteRowTable(w io.Writer, rows []model.ReportRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No jobs crossed a threshold.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("PID", "Job", "Duration (s)", "Flag")

	for _, row := range rows {
		table.Append(row.PID, row.Job, strconv.FormatInt(row.DurationSec, 10), string(row.Flag))
	}

	table.Render()
}

// WriteOpenTable renders jobs that never saw an END.
func WriteOpenTable(w io.Writer, open []correlator.OpenEntry) {
	if len(open) == 0 {
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("PID", "Job", "Started")

	for _, e := range open {
		table.Append(e.PID, e.Job, e.StartedAt.Format("15:04:05"))
	}

	table.Render()
}
