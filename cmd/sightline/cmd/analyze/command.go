// Package analyze provides the analyze command.
package analyze

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/sightline"
	"github.com/agentstation/sightline/cmd/application"
	"github.com/agentstation/sightline/internal/cmd/alerts"
	"github.com/agentstation/sightline/internal/cmd/emoji"
	"github.com/agentstation/sightline/internal/cmd/output"
	"github.com/agentstation/sightline/internal/filter"
	"github.com/agentstation/sightline/internal/watch"
	"github.com/agentstation/sightline/pkg/constants"
	"github.com/agentstation/sightline/pkg/errors"
	"github.com/agentstation/sightline/pkg/export"
	"github.com/agentstation/sightline/pkg/inventory"
	"github.com/agentstation/sightline/pkg/reconcile"
)

// Flags holds the analyze command flags.
type Flags struct {
	Maps        []string
	NameColumn  string
	DateColumn  string
	DateFormat  string
	NoGuess     bool
	Remember    bool
	Filter      string
	PatternType string
	IgnoreCase  bool
	Export      string
	Watch       bool
}

// NewCommand creates the analyze command.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "analyze FILE...",
		Aliases: []string{"run"},
		GroupID: "core",
		Short:   "Reconcile inventory exports and report disappeared machines",
		Long: `Analyze merges inventory export files into one view of every machine
with its newest sighting per file.

Each file needs a mapping naming its machine-name column and, optionally,
its last-seen date column and date format. Mappings come from --map, from
the mapping store (remembered for the exact file content), or from the
--name-column/--date-column defaults. Files without any mapping are
skipped. A missing date format is guessed from the column's values.

Filter terms:
  disappeared      machines past the disappearance threshold
  stale:FILE       machines whose sighting in FILE is stale
  missing:FILE     machines absent from FILE
  nodate:FILE      machines listed in FILE without a date
  present:FILE     machines recently seen in FILE
  anything else    a name pattern (regex, glob or substring)`,
		Example: `  # Map both files explicitly and remember the mappings
  sightline analyze ad.csv av.csv \
    --map "ad.csv=Name,LastLogon" \
    --map "av.csv=Computer,Seen,yyyy-MM-dd" --remember

  # Re-run with remembered mappings, only disappeared lab machines
  sightline analyze ad.csv av.csv --filter "disappeared lab-*"

  # Export the view and keep re-running as files change
  sightline analyze ad.csv av.csv --export view.csv --watch`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, flags, args)
		},
	}

	cmd.Flags().StringArrayVarP(&flags.Maps, "map", "m", nil, "mapping FILE=NAME_COLUMN[,DATE_COLUMN[,DATE_FORMAT]] (repeatable)")
	cmd.Flags().StringVar(&flags.NameColumn, "name-column", "", "default machine-name column for files without a mapping")
	cmd.Flags().StringVar(&flags.DateColumn, "date-column", "", "default date column for files without a mapping")
	cmd.Flags().StringVar(&flags.DateFormat, "date-format", "", "default date format for files without a mapping")
	cmd.Flags().BoolVar(&flags.NoGuess, "no-guess", false, "do not guess missing date formats")
	cmd.Flags().BoolVar(&flags.Remember, "remember", false, "store --map mappings for the current file contents")
	cmd.Flags().StringVarP(&flags.Filter, "filter", "f", "", "filter expression")
	cmd.Flags().StringVar(&flags.PatternType, "pattern-type", "auto", "name pattern type: auto, glob, regex, substring")
	cmd.Flags().BoolVarP(&flags.IgnoreCase, "ignore-case", "i", false, "match name patterns case-insensitively")
	cmd.Flags().StringVarP(&flags.Export, "export", "e", "", "write the filtered view as CSV to this file")
	cmd.Flags().BoolVarP(&flags.Watch, "watch", "w", false, "re-run when an input file changes")

	return cmd
}

func run(cmd *cobra.Command, app application.Application, flags *Flags, paths []string) error {
	ctx := cmd.Context()
	logger := app.Logger()

	format, err := output.ParseFormat(app.OutputFormat())
	if err != nil {
		return err
	}
	f, err := buildFilter(flags)
	if err != nil {
		return err
	}
	mappings, err := ParseMaps(flags.Maps)
	if err != nil {
		return err
	}

	opts := []sightline.Option{sightline.WithFormatGuessing(!flags.NoGuess)}
	for file, m := range mappings {
		opts = append(opts, sightline.WithMapping(file, m))
	}
	if flags.NameColumn != "" {
		opts = append(opts, sightline.WithDefaultMapping(inventory.Mapping{
			NameColumn: flags.NameColumn,
			DateColumn: flags.DateColumn,
			DateFormat: flags.DateFormat,
		}))
	}

	sl, err := app.Sightline(opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sl.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("Failed to close")
		}
	}()
	sl.OnSourceFailed(func(runID string, report reconcile.FileReport) {
		logger.Warn().
			Str("run_id", runID).
			Str("source_file", report.SourceFile).
			Str("error", report.Error).
			Msg("Source failed")
	})

	r := &runner{
		sl:       sl,
		paths:    paths,
		mappings: mappings,
		remember: flags.Remember,
		filter:   f,
		format:   format,
		export:   flags.Export,
		out:      cmd.OutOrStdout(),
		alerts:   alerts.NewFormatWriter(cmd.ErrOrStderr(), format, app.NoColor()),
	}
	if err := r.once(ctx); err != nil {
		return err
	}
	if !flags.Watch {
		return nil
	}
	return r.watch(ctx, cmd.ErrOrStderr())
}

type runner struct {
	sl       sightline.Sightline
	paths    []string
	mappings map[string]inventory.Mapping
	remember bool
	filter   *filter.Filter
	format   output.Format
	export   string
	out      io.Writer
	alerts   alerts.Writer
}

// once reads the inputs and runs one analysis.
func (r *runner) once(ctx context.Context) error {
	inputs, err := sightline.ReadInputs(r.paths...)
	if err != nil {
		return err
	}

	if r.remember {
		for _, in := range inputs {
			m, ok := r.mappings[in.FileName]
			if !ok {
				continue
			}
			if err := r.sl.Remember(ctx, in, m); err != nil {
				return err
			}
		}
	}

	sources, err := r.sl.Prepare(ctx, inputs...)
	if err != nil {
		return err
	}
	var skipped []string
	for _, src := range sources {
		if !src.Configured() {
			skipped = append(skipped, src.FileName)
		}
	}
	result, err := r.sl.Analyze(ctx, sources)
	if err != nil {
		return err
	}

	view, err := r.filter.ApplyView(result)
	if err != nil {
		return err
	}
	var shown *filter.View
	if !r.filter.Empty() {
		shown = view
	}
	if err := output.FormatResult(r.out, r.format, result, shown); err != nil {
		return err
	}

	if r.export != "" {
		if err := writeExport(r.export, view.Machines, result.SourceFiles); err != nil {
			return err
		}
	}
	return alerts.WriteAll(r.alerts, alerts.FromRun(result, skipped))
}

// watch re-runs the analysis whenever an input changes until ctx ends.
func (r *runner) watch(ctx context.Context, status io.Writer) error {
	w, err := watch.New(r.paths, func(ctx context.Context, changed []string) {
		fmt.Fprintf(status, "\n%s %s changed, re-running\n", emoji.Watch, strings.Join(changed, ", "))
		if err := r.once(ctx); err != nil {
			fmt.Fprintf(status, "%s %v\n", emoji.Error, err)
		}
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(status, "%s Watching %d files, press Ctrl+C to stop\n", emoji.Info, len(r.paths))
	w.Start(ctx)
	defer w.Stop()
	w.Wait()
	return nil
}

func buildFilter(flags *Flags) (*filter.Filter, error) {
	patternType, err := filter.ParsePatternType(flags.PatternType)
	if err != nil {
		return nil, err
	}
	return filter.Parse(flags.Filter, filter.Options{
		PatternType:     patternType,
		CaseInsensitive: flags.IgnoreCase,
	})
}

func writeExport(path string, machines []reconcile.Machine, sources []string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.FilePermissions)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	if err := export.WriteCSV(f, machines, sources); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.WrapIO("close", path, err)
	}
	return nil
}

// ParseMaps parses FILE=NAME_COLUMN[,DATE_COLUMN[,DATE_FORMAT]] values.
func ParseMaps(values []string) (map[string]inventory.Mapping, error) {
	out := make(map[string]inventory.Mapping, len(values))
	for _, v := range values {
		file, spec, ok := strings.Cut(v, "=")
		file = strings.TrimSpace(file)
		if !ok || file == "" {
			return nil, errors.NewValidationError("map", v, "expected FILE=NAME_COLUMN[,DATE_COLUMN[,DATE_FORMAT]]")
		}
		parts := strings.SplitN(spec, ",", 3)
		m := inventory.Mapping{NameColumn: strings.TrimSpace(parts[0])}
		if len(parts) > 1 {
			m.DateColumn = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			m.DateFormat = strings.TrimSpace(parts[2])
		}
		if !m.Configured() {
			return nil, errors.NewValidationError("map", v, "machine name column is required")
		}
		out[file] = m
	}
	return out, nil
}
