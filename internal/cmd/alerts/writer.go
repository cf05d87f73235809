package alerts

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/agentstation/sightline/internal/cmd/output"
)

// Writer writes alerts one at a time.
type Writer interface {
	WriteAlert(alert *Alert) error
}

// TextWriter prints one line per alert followed by its indented details.
type TextWriter struct {
	W io.Writer
	// Color wraps each headline in the ANSI color of its level.
	Color bool
	// Brief omits details.
	Brief bool
}

// WriteAlert implements Writer.
func (t *TextWriter) WriteAlert(alert *Alert) error {
	var b strings.Builder
	if t.Color {
		b.WriteString(alert.Level.Color() + alert.String() + resetColor + "\n")
	} else {
		b.WriteString(alert.String() + "\n")
	}
	if !t.Brief {
		for _, d := range alert.Details {
			b.WriteString("   " + d + "\n")
		}
	}
	_, err := io.WriteString(t.W, b.String())
	return err
}

type recordWriter struct {
	w io.Writer
	f output.Formatter
}

func (r recordWriter) WriteAlert(alert *Alert) error {
	return r.f.Format(r.w, alert)
}

// NewFormatWriter writes JSON or YAML records for those formats and text
// otherwise. Text is colored when w is a terminal and noColor is false.
func NewFormatWriter(w io.Writer, format output.Format, noColor bool) Writer {
	switch format {
	case output.FormatJSON, output.FormatYAML:
		return recordWriter{w: w, f: output.NewFormatter(format)}
	}
	return &TextWriter{W: w, Color: !noColor && terminal(w)}
}

// WriteAll writes alerts in order and stops at the first failure.
func WriteAll(w Writer, alerts []*Alert) error {
	for i, a := range alerts {
		if err := w.WriteAlert(a); err != nil {
			return fmt.Errorf("writing alert %d of %d: %w", i+1, len(alerts), err)
		}
	}
	return nil
}

func terminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
