// Package guess provides the guess command.
package guess

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/agentstation/sightline/cmd/application"
	"github.com/agentstation/sightline/internal/cmd/output"
	"github.com/agentstation/sightline/internal/cmd/table"
	"github.com/agentstation/sightline/pkg/dateformat"
	"github.com/agentstation/sightline/pkg/errors"
	"github.com/agentstation/sightline/pkg/inventory"
)

// Result is the machine-readable output of guess.
type Result struct {
	Format     string                   `json:"format,omitempty" yaml:"format,omitempty"`
	Found      bool                     `json:"found" yaml:"found"`
	Samples    int                      `json:"samples" yaml:"samples"`
	Candidates []dateformat.GuessResult `json:"candidates" yaml:"candidates"`
}

// NewCommand creates the guess command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		file   string
		column string
	)

	cmd := &cobra.Command{
		Use:     "guess [SAMPLE...]",
		GroupID: "core",
		Short:   "Guess the date format of sample values",
		Long: `Guess ranks the known date formats by how many samples each parses
into a plausible date. Samples come from the arguments or from a column
of an export file.`,
		Example: `  sightline guess 15/06/2024 03/01/2024
  sightline guess --file ad.csv --column LastLogon -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := app.Settings()
			samples, err := collectSamples(args, file, column, settings.SampleSize)
			if err != nil {
				return err
			}

			result := Guess(samples, settings.DateOptions()...)
			app.Logger().Debug().
				Int("samples", result.Samples).
				Str("format", result.Format).
				Msg("Guessed date format")

			format, err := output.ParseFormat(app.OutputFormat())
			if err != nil {
				return err
			}
			return output.FormatAny(cmd.OutOrStdout(), format, result, func() table.Data {
				return table.GuessesToTableData(result.Candidates, result.Samples)
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "export file to take samples from")
	cmd.Flags().StringVar(&column, "column", "", "column of --file holding the dates")
	cmd.MarkFlagsRequiredTogether("file", "column")

	return cmd
}

// Guess ranks formats over samples, keeping candidates that parse at
// least one.
func Guess(samples []string, opts ...dateformat.Option) Result {
	result := Result{Samples: len(samples), Candidates: []dateformat.GuessResult{}}
	for _, c := range dateformat.Rank(samples, opts...) {
		if c.Score > 0 {
			result.Candidates = append(result.Candidates, c)
		}
	}
	if format, ok := dateformat.GuessFormat(samples, opts...); ok {
		result.Format = format
		result.Found = true
	}
	return result
}

func collectSamples(args []string, file, column string, n int) ([]string, error) {
	if file == "" {
		if len(args) == 0 {
			return nil, errors.NewValidationError("samples", nil, "pass samples as arguments or use --file and --column")
		}
		return args, nil
	}
	if len(args) > 0 {
		return nil, errors.NewValidationError("samples", args, "samples and --file are mutually exclusive")
	}

	content, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.WrapIO("read", file, err)
	}
	src := inventory.NewSource(filepath.Base(file), string(content))
	if !slices.Contains(src.Headers, column) {
		return nil, errors.NewValidationError("column", column, "not a column of "+src.FileName)
	}
	samples := dateformat.Samples(src.Rows, column, n)
	if len(samples) == 0 {
		return nil, errors.NewValidationError("column", column, "has no values")
	}
	return samples, nil
}
