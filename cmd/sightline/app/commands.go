package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/sightline/cmd/sightline/cmd/analyze"
	"github.com/agentstation/sightline/cmd/sightline/cmd/guess"
	"github.com/agentstation/sightline/cmd/sightline/cmd/mapping"
	"github.com/agentstation/sightline/cmd/sightline/cmd/serve"
	"github.com/agentstation/sightline/cmd/sightline/cmd/version"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(analyze.NewCommand(a))
	rootCmd.AddCommand(guess.NewCommand(a))
	rootCmd.AddCommand(serve.NewCommand(a, a.config.Listen))

	// Management commands
	rootCmd.AddCommand(mapping.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(version.NewCommand(a))
}
