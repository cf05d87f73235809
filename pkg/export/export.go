// Package export writes the consolidated view as a delimited table, one
// row per machine.
package export

import (
	"bufio"
	"io"
	"strings"

	"github.com/agentstation/sightline/pkg/constants"
	"github.com/agentstation/sightline/pkg/errors"
	"github.com/agentstation/sightline/pkg/inventory"
	"github.com/agentstation/sightline/pkg/reconcile"
)

// DefaultDateLayout formats dates in exported cells.
const DefaultDateLayout = "2006-01-02"

// Header columns preceding the per-source columns.
var fixedHeader = []string{"Machine Name", "Last Seen", "Last Seen Source"}

// Options control the export.
type Options struct {
	// DateLayout is a Go time layout. Defaults to DefaultDateLayout.
	DateLayout string
	// PresentLabel fills cells of sources that list the machine without a
	// date. Defaults to "Present".
	PresentLabel string
}

// Option configures an export.
type Option func(*Options)

// WithDateLayout sets the layout used for dates.
func WithDateLayout(layout string) Option {
	return func(o *Options) {
		if layout != "" {
			o.DateLayout = layout
		}
	}
}

// WithPresentLabel sets the label for present-without-date cells.
func WithPresentLabel(label string) Option {
	return func(o *Options) {
		o.PresentLabel = label
	}
}

func defaults(opts []Option) Options {
	o := Options{DateLayout: DefaultDateLayout, PresentLabel: constants.PresentNoDateLabel}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Header returns the header row for the given sources.
func Header(sources []string) []string {
	h := make([]string, 0, len(fixedHeader)+len(sources))
	h = append(h, fixedHeader...)
	return append(h, sources...)
}

// Row returns the cells of one machine.
func Row(m reconcile.Machine, sources []string, opts ...Option) []string {
	o := defaults(opts)
	row := make([]string, 0, len(fixedHeader)+len(sources))

	lastSeen := ""
	if m.Seen() {
		lastSeen = m.LastSeen.Format(o.DateLayout)
	}
	row = append(row, m.Name, lastSeen, m.LastSeenSource)

	for _, src := range sources {
		row = append(row, cell(m.Slot(src), o))
	}
	return row
}

func cell(s inventory.Slot, o Options) string {
	switch s.State {
	case inventory.SlotPresentAt:
		return s.At.Format(o.DateLayout)
	case inventory.SlotPresentNoDate:
		return o.PresentLabel
	default:
		return ""
	}
}

// WriteCSV writes the header and one row per machine. Every field is
// wrapped in double quotes and embedded quotes are doubled.
func WriteCSV(w io.Writer, view []reconcile.Machine, sources []string, opts ...Option) error {
	bw := bufio.NewWriter(w)
	if err := writeLine(bw, Header(sources)); err != nil {
		return errors.WrapIO("write", "csv", err)
	}
	for _, m := range view {
		if err := writeLine(bw, Row(m, sources, opts...)); err != nil {
			return errors.WrapIO("write", "csv", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.WrapIO("flush", "csv", err)
	}
	return nil
}

// WriteResultCSV exports a whole run.
func WriteResultCSV(w io.Writer, result *reconcile.Result, opts ...Option) error {
	return WriteCSV(w, result.Machines, result.SourceFiles, opts...)
}

func writeLine(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if _, err := w.WriteString(constants.FieldDelimiter); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(Quote(f)); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\n")
	return err
}

// Quote wraps a field in double quotes, doubling any inside it.
func Quote(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
