package output

import (
	"fmt"
	"io"

	"github.com/agentstation/sightline/internal/cmd/table"
	"github.com/agentstation/sightline/internal/filter"
	"github.com/agentstation/sightline/pkg/reconcile"
)

// ResultView is what JSON and YAML output of an analysis contains: the
// whole result plus the filtered view when a filter was applied.
type ResultView struct {
	Result *reconcile.Result `json:"result" yaml:"result"`
	View   *filter.View      `json:"view,omitempty" yaml:"view,omitempty"`
}

// FormatResult writes an analysis result. Table formats print the
// machines of view, per-file stats, comparisons and failed files; JSON
// and YAML print the result and view as data. A nil view shows every
// machine.
func FormatResult(w io.Writer, format Format, result *reconcile.Result, view *filter.View) error {
	switch format {
	case FormatJSON, FormatYAML:
		return NewFormatter(format).Format(w, ResultView{Result: result, View: view})
	}

	machines, stats := result.Machines, result.Stats
	if view != nil {
		machines, stats = view.Machines, view.Stats
	}
	wide := format == FormatWide

	tables := []table.Data{
		table.MachinesToTableData(result, machines, wide),
		table.StatsToTableData(stats),
	}
	if len(result.Comparisons) > 0 {
		tables = append(tables, table.ComparisonsToTableData(result.Comparisons))
	}
	if wide || result.HasErrors() {
		tables = append(tables, table.FilesToTableData(result.Files))
	}

	if err := NewFormatter(FormatTable).Format(w, tables); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, summaryLine(result, machines))
	return err
}

func summaryLine(result *reconcile.Result, machines []reconcile.Machine) string {
	line := result.Summary()
	if len(machines) != len(result.Machines) {
		line += fmt.Sprintf(" (showing %d of %d)", len(machines), len(result.Machines))
	}
	return line
}

// FormatAny formats data for output, converting it with toTable for the
// table formats.
func FormatAny(w io.Writer, format Format, data any, toTable func() table.Data) error {
	switch format {
	case FormatJSON, FormatYAML:
		return NewFormatter(format).Format(w, data)
	}
	if toTable == nil {
		return NewFormatter(format).Format(w, data)
	}
	return NewFormatter(format).Format(w, toTable())
}
