// Package mapping provides the mapping command and its subcommands.
package mapping

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentstation/sightline"
	"github.com/agentstation/sightline/cmd/application"
	"github.com/agentstation/sightline/internal/cmd/emoji"
	"github.com/agentstation/sightline/internal/cmd/output"
	"github.com/agentstation/sightline/internal/cmd/table"
	"github.com/agentstation/sightline/internal/store"
	"github.com/agentstation/sightline/pkg/errors"
	"github.com/agentstation/sightline/pkg/inventory"
)

// NewCommand creates the mapping command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "mapping",
		Aliases: []string{"mappings"},
		GroupID: "management",
		Short:   "Manage remembered column mappings",
		Long: `Mappings are remembered per file name and exact content. A file whose
content changes needs its mapping set again.`,
		Example: `  sightline mapping set ad.csv --name-column Name --date-column LastLogon
  sightline mapping show ad.csv
  sightline mapping list
  sightline mapping delete ad.csv
  sightline mapping history`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return list(cmd, app)
		},
	}

	cmd.AddCommand(newSetCommand(app))
	cmd.AddCommand(newShowCommand(app))
	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List remembered mappings",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return list(cmd, app)
		},
	})
	cmd.AddCommand(newDeleteCommand(app))
	cmd.AddCommand(&cobra.Command{
		Use:   "history",
		Short: "Show the files of the last analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return history(cmd, app)
		},
	})

	return cmd
}

func newSetCommand(app application.Application) *cobra.Command {
	var m inventory.Mapping
	cmd := &cobra.Command{
		Use:   "set FILE",
		Short: "Remember the mapping of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := sightline.ReadInputs(args[0])
			if err != nil {
				return err
			}
			sl, err := app.Sightline()
			if err != nil {
				return err
			}
			defer func() { _ = sl.Close() }()

			if err := sl.Remember(cmd.Context(), inputs[0], m); err != nil {
				return err
			}
			app.Logger().Debug().Str("key", inputs[0].Key()).Msg("Mapping stored")
			fmt.Fprintf(cmd.OutOrStdout(), "%s Mapping for %s stored\n", emoji.Success, inputs[0].FileName)
			return nil
		},
	}
	cmd.Flags().StringVar(&m.NameColumn, "name-column", "", "machine-name column")
	cmd.Flags().StringVar(&m.DateColumn, "date-column", "", "last-seen date column")
	cmd.Flags().StringVar(&m.DateFormat, "date-format", "", "date format of the date column")
	_ = cmd.MarkFlagRequired("name-column")
	return cmd
}

func newShowCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "show FILE",
		Short: "Show the mapping remembered for a file's current content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := fileKey(args[0])
			if err != nil {
				return err
			}
			st, err := app.Store()
			if err != nil {
				return err
			}
			entry, err := lookup(cmd, st, key)
			if err != nil {
				return err
			}
			return format(cmd, app, entry, func() table.Data {
				return table.MappingsToTableData([]store.Entry{entry})
			})
		},
	}
}

func newDeleteCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "delete FILE|KEY",
		Aliases: []string{"rm"},
		Short:   "Forget a mapping by file or by key",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if _, err := os.Stat(key); err == nil {
				if key, err = fileKey(key); err != nil {
					return err
				}
			}
			st, err := app.Store()
			if err != nil {
				return err
			}
			if err := st.Delete(cmd.Context(), key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Mapping for %s deleted\n", emoji.Success, store.FileNameFromKey(key))
			return nil
		},
	}
}

func list(cmd *cobra.Command, app application.Application) error {
	st, err := app.Store()
	if err != nil {
		return err
	}
	entries, err := st.List(cmd.Context())
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	return format(cmd, app, entries, func() table.Data {
		return table.MappingsToTableData(entries)
	})
}

func history(cmd *cobra.Command, app application.Application) error {
	st, err := app.Store()
	if err != nil {
		return err
	}
	summaries, err := st.Summaries(cmd.Context())
	if err != nil {
		return err
	}
	if summaries == nil {
		summaries = []store.Summary{}
	}
	return format(cmd, app, summaries, func() table.Data {
		return table.SummariesToTableData(summaries)
	})
}

func format(cmd *cobra.Command, app application.Application, data any, toTable func() table.Data) error {
	f, err := output.ParseFormat(app.OutputFormat())
	if err != nil {
		return err
	}
	return output.FormatAny(cmd.OutOrStdout(), f, data, toTable)
}

// lookup returns the stored entry of key, with its update time.
func lookup(cmd *cobra.Command, st store.Store, key string) (store.Entry, error) {
	m, err := st.Get(cmd.Context(), key)
	if err != nil {
		return store.Entry{}, err
	}
	entries, err := st.List(cmd.Context())
	if err != nil {
		return store.Entry{}, err
	}
	for _, e := range entries {
		if e.Key == key {
			return e, nil
		}
	}
	return store.Entry{Key: key, FileName: store.FileNameFromKey(key), Mapping: m}, nil
}

func fileKey(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", errors.WrapIO("read", path, err)
	}
	return store.Key(filepath.Base(path), content), nil
}
