package app

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/sightline/internal/cmd/output"
)

// Execute runs the sightline CLI application with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	// Flags bind to the loaded values as defaults, so an explicit config
	// file must be read before the command tree is built.
	if path := configFlag(args); path != "" {
		config, err := loadConfig(path)
		if err != nil {
			return err
		}
		a.config = config
	}

	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "sightline",
		Short:   "Reconcile machine inventories and find machines that went missing",
		Version: a.Version(),
		Long: `Sightline merges machine inventory exports from several systems (directory
services, endpoint agents, asset databases) into one view of when each
machine was last seen and where.

Machines whose newest sighting is older than the disappearance threshold
are flagged. Column mappings are remembered per file name and content, and
date formats are guessed from samples when none is given.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands:",
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.config.ConfigFile, "config", "", "config file (default is $HOME/.sightline.yaml)")
	flags.BoolVarP(&a.config.Verbose, "verbose", "v", a.config.Verbose, "verbose output (shortcut for --log-level=debug)")
	flags.BoolVarP(&a.config.Quiet, "quiet", "q", a.config.Quiet, "minimal output (shortcut for --log-level=warn)")
	flags.BoolVar(&a.config.NoColor, "no-color", a.config.NoColor, "disable colored output")
	flags.StringVarP(&a.config.Format, "format", "o", a.config.Format, "output format: table, json, yaml, wide")
	flags.StringVar(&a.config.LogLevel, "log-level", a.config.LogLevel, "log level: trace, debug, info, warn, error (overrides -v/-q)")

	flags.StringVar(&a.config.Store, "store", a.config.Store, "mapping store: yaml, sqlite, memory, none")
	flags.StringVar(&a.config.StorePath, "store-path", a.config.StorePath, "mapping store file (default under $HOME/.sightline)")

	flags.IntVar(&a.config.DisappearanceThresholdDays, "threshold-days", a.config.DisappearanceThresholdDays, "days without a sighting before a machine counts as disappeared")
	flags.IntVar(&a.config.StaleThresholdDays, "stale-days", a.config.StaleThresholdDays, "days before a per-source sighting counts as stale (0 uses --threshold-days)")
	flags.BoolVar(&a.config.CaseSensitive, "case-sensitive", a.config.CaseSensitive, "compare machine names case-sensitively")

	rootCmd.SetVersionTemplate("sightline {{.Version}}\n")
	a.registerCommands(rootCmd)
	return rootCmd
}

// configFlag returns the value of --config in args.
func configFlag(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		if v, ok := strings.CutPrefix(arg, "--config="); ok {
			return v
		}
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// setupCommand validates the output format and rebuilds the logger from
// the flag-adjusted configuration before any command runs.
func (a *App) setupCommand(*cobra.Command, []string) error {
	if _, err := output.ParseFormat(a.config.Format); err != nil {
		return err
	}
	logger := NewLogger(a.config)
	a.logger = &logger
	return nil
}
