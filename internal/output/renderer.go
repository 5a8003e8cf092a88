package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/stintio/stint/internal/model"
	"github.com/stintio/stint/internal/report"
)

// Renderer writes flagged report rows to an output stream.
type Renderer interface {
	Render(row model.ReportRow) error
}

// ---------------------------------------------------------------------------
// Text Renderer (colorized terminal output)
// ---------------------------------------------------------------------------

var (
	styleWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))            // yellow
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true) // red bold
	stylePID     = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Faint(true) // cyan
)

// TextRenderer prints rows to the terminal with flag-based colors.
type TextRenderer struct {
	w io.Writer
}

// NewTextRenderer returns a Renderer that writes colorized text to stdout.
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{w: os.Stdout}
}

func (r *TextRenderer) Render(row model.ReportRow) error {
	tag := styleFlagTag(row.Flag)
	pid := stylePID.Render(row.PID)

	line := fmt.Sprintf("%s %s %s %ds", tag, pid, row.Job, row.DurationSec)
	_, err := fmt.Fprintln(r.w, line)
	return err
}

func styleFlagTag(flag model.Flag) string {
	padded := fmt.Sprintf("%-7s", flag)
	switch flag {
	case model.FlagError:
		return styleError.Render(padded)
	default:
		return styleWarning.Render(padded)
	}
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints each row as a single JSON object per line.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON lines to stdout.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(os.Stdout)}
}

func (r *JSONRenderer) Render(row model.ReportRow) error {
	return r.enc.Encode(row)
}

// ---------------------------------------------------------------------------
// Sink adapter
// ---------------------------------------------------------------------------

type rendererSink struct {
	r Renderer
}

// Sink adapts a Renderer to the report.RowWriter interface so live rows can
// be rendered and written to a CSV report at the same time.
func Sink(r Renderer) report.RowWriter {
	return &rendererSink{r: r}
}

func (s *rendererSink) WriteRow(row model.ReportRow) error {
	return s.r.Render(row)
}
