// Command sightline reconciles machine inventory exports and reports the
// machines that stopped being seen.
package main

import (
	"context"
	"os"

	"github.com/agentstation/sightline/cmd/sightline/app"
	"github.com/agentstation/sightline/pkg/constants"
)

// Stamped by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	a, err := app.New(app.NewBuild(version, commit, date, builtBy))
	app.ExitOnError(err)

	ctx, stop := app.ContextWithSignals(context.Background())
	runErr := a.Execute(ctx, os.Args[1:])
	stop()

	// ctx may be cancelled by now.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
	if err := a.Shutdown(shutdownCtx); err != nil {
		a.Logger().Error().Err(err).Msg("Shutdown failed")
	}
	cancel()

	app.ExitOnError(runErr)
}
