package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/stintio/stint/internal/correlator"
	"github.com/stintio/stint/internal/output"
	"github.com/stintio/stint/internal/parser"
	"github.com/stintio/stint/internal/report"
	"github.com/stintio/stint/internal/tailer"
)

var (
	followFromStart bool
	followFormat    string
	followReport    string
)

var followCmd = &cobra.Command{
	Use:   "follow <logfile>",
	Short: "Follow a growing job log and flag slow jobs live",
	Long: `Follow a job log as it is written, pair START/END events as they
arrive, and print a line for every job that crossed a threshold. By default
reading starts at the current end of the file.

Examples:
  stint follow /var/log/jobs.log
  stint follow jobs.log --from-start --format json
  stint follow jobs.log --report out/live.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runFollow,
}

func init() {
	followCmd.Flags().BoolVar(&followFromStart, "from-start", false, "replay the existing file before following")
	followCmd.Flags().StringVar(&followFormat, "format", "text", "row output format: text, json")
	followCmd.Flags().StringVar(&followReport, "report", "", "also append flagged rows to this CSV file")
	rootCmd.AddCommand(followCmd)
}

func runFollow(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	th, err := thresholds()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "stint shutting down...")
		cancel()
	}()

	var renderer output.Renderer
	switch strings.ToLower(followFormat) {
	case "json":
		renderer = output.NewJSONRenderer()
	default:
		renderer = output.NewTextRenderer()
	}

	sinks := []report.RowWriter{output.Sink(renderer)}
	if followReport != "" {
		csv, err := report.Create(followReport)
		if err != nil {
			return err
		}
		defer csv.Close()
		sinks = append(sinks, csv)
	}

	c := correlator.New(th, parser.NewCSVParser(time.Now()), report.MultiWriter(sinks...), logger)

	t := tailer.New(args[0], followFromStart, logger)
	tailErr := make(chan error, 1)
	go func() {
		tailErr <- t.Start(ctx)
	}()

	for raw := range t.Lines() {
		if err := c.FeedLine(raw.Text, raw.Line, raw.Source); err != nil {
			cancel()
			<-tailErr
			return err
		}
	}

	// Stream ended: report whatever never saw its END.
	c.Finish()
	return <-tailErr
}
