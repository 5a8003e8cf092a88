package tailer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stintio/stint/internal/model"
)

// Tailer reads newly appended lines from a single job log and emits RawLine
// values. It survives log rotation by polling for the file to reappear.
type Tailer struct {
	path      string
	fromStart bool
	log       *slog.Logger

	out    chan model.RawLine
	file   *os.File
	reader *bufio.Reader
	lineno int
	buf    string // partial line carried across reads
}

// New creates a Tailer for path. With fromStart the whole existing file is
// replayed before following; otherwise reading begins at the current end.
func New(path string, fromStart bool, log *slog.Logger) *Tailer {
	return &Tailer{
		path:      path,
		fromStart: fromStart,
		log:       log,
		out:       make(chan model.RawLine, 512),
	}
}

// Lines returns the channel where raw log lines are sent.
func (t *Tailer) Lines() <-chan model.RawLine {
	return t.out
}

// Start opens the file and follows it until the context is cancelled.
// The lines channel is closed on return.
func (t *Tailer) Start(ctx context.Context) error {
	defer close(t.out)
	defer t.close()

	if err := t.open(); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(t.path); err != nil {
		return fmt.Errorf("watch %s: %w", t.path, err)
	}

	if t.fromStart {
		t.readNewLines(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			switch {
			case ev.Op&fsnotify.Write != 0:
				t.readNewLines(ctx)

			case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
				// Rotation: close and wait for the path to come back.
				t.close()
				if err := t.reconnect(ctx, fsw); err != nil {
					return err
				}
			}

		case werr, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			t.log.Warn("watcher error", "err", werr)
		}
	}
}

// open opens the file and positions the read offset.
func (t *Tailer) open() error {
	f, err := os.Open(t.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", t.path, err)
	}
	if !t.fromStart {
		if _, err := f.Seek(0, io.SeekEnd); err != nil {
			f.Close()
			return fmt.Errorf("seek %s: %w", t.path, err)
		}
	}
	t.file = f
	t.reader = bufio.NewReader(f)
	return nil
}

// readNewLines drains everything appended since the last read, emitting
// complete lines and buffering any trailing partial line. Sends race the
// context so a stalled consumer cannot wedge the tailer past cancellation.
func (t *Tailer) readNewLines(ctx context.Context) {
	if t.reader == nil {
		return
	}
	for {
		chunk, err := t.reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				t.log.Warn("read error", "path", t.path, "err", err)
			}
			t.buf += chunk
			return
		}
		line := t.buf + strings.TrimRight(chunk, "\n")
		t.buf = ""
		t.lineno++
		select {
		case t.out <- model.RawLine{Text: line, Line: t.lineno, Source: t.path}:
		case <-ctx.Done():
			return
		}
	}
}

// reconnect polls for the file to reappear after rotation (up to 5 retries).
// A rotated file starts fresh: replay it from the beginning.
func (t *Tailer) reconnect(ctx context.Context, fsw *fsnotify.Watcher) error {
	for i := 0; i < 5; i++ {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(1 * time.Second):
		}
		if _, err := os.Stat(t.path); err == nil {
			t.log.Info("reconnected to rotated file", "path", t.path)
			wasFromStart := t.fromStart
			t.fromStart = true
			err := t.open()
			t.fromStart = wasFromStart
			if err != nil {
				return err
			}
			if err := fsw.Add(t.path); err != nil {
				return fmt.Errorf("rewatch %s: %w", t.path, err)
			}
			t.readNewLines(ctx)
			return nil
		}
	}
	return fmt.Errorf("gave up reconnecting to %s after 5 retries", t.path)
}

func (t *Tailer) close() {
	if t.file != nil {
		t.file.Close()
		t.file = nil
		t.reader = nil
	}
}
