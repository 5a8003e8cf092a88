package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/stintio/stint/internal/aggregator"
	"github.com/stintio/stint/internal/correlator"
	"github.com/stintio/stint/internal/hub"
	"github.com/stintio/stint/internal/parser"
	"github.com/stintio/stint/internal/server"
	"github.com/stintio/stint/internal/tailer"
)

var (
	serveListen    string
	serveFromStart bool
)

var serveCmd = &cobra.Command{
	Use:   "serve <logfile>",
	Short: "Follow a job log and serve run state over HTTP",
	Long: `Follow a job log like 'stint follow' while exposing the run over a
small HTTP API: current statistics, the open-job table, flagged rows so
far, and a WebSocket stream of new rows.

Examples:
  stint serve /var/log/jobs.log
  stint serve jobs.log --listen :9090 --from-start`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", ":8787", "HTTP listen address")
	serveCmd.Flags().BoolVar(&serveFromStart, "from-start", false, "replay the existing file before following")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
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

	h := hub.New()
	defer h.Close()

	c := correlator.New(th, parser.NewCSVParser(time.Now()), h, logger)

	// The correlator itself is single-threaded; the HTTP handlers read the
	// open-job table concurrently, so snapshots go through this lock.
	var mu sync.Mutex
	openFn := func() []correlator.OpenEntry {
		mu.Lock()
		defer mu.Unlock()
		return c.Open()
	}

	agg := aggregator.New(h.Subscribe(), h.Dropped, openFn)
	go agg.Start(ctx)

	srv := server.New(h, agg, openFn, serveListen, logger)
	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()
	logger.Info("dashboard listening", "addr", serveListen)

	t := tailer.New(args[0], serveFromStart, logger)
	tailErr := make(chan error, 1)
	go func() {
		tailErr <- t.Start(ctx)
	}()

	for {
		select {
		case raw, ok := <-t.Lines():
			if !ok {
				mu.Lock()
				c.Finish()
				mu.Unlock()
				return <-tailErr
			}
			mu.Lock()
			err := c.FeedLine(raw.Text, raw.Line, raw.Source)
			mu.Unlock()
			if err != nil {
				return err
			}

		case err := <-srvErr:
			return fmt.Errorf("dashboard server: %w", err)
		}
	}
}
