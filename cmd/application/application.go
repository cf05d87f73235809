// Package application is the seam between the CLI commands, the HTTP
// server and the process state they share. Commands take the Application
// interface; tests pass a Mock.
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/sightline"
	"github.com/agentstation/sightline/internal/store"
	"github.com/agentstation/sightline/pkg/inventory"
)

// Analysis hands out configured engines and the mapping store they share.
type Analysis interface {
	// Sightline returns an engine over the configured settings and the
	// shared store. opts are applied after those defaults.
	Sightline(opts ...sightline.Option) (sightline.Sightline, error)
	// Store opens the mapping store on first use.
	Store() (store.Store, error)
	// Settings are the analysis settings from flags, env and file.
	Settings() inventory.Settings
}

// Presentation controls how commands report.
type Presentation interface {
	Logger() *zerolog.Logger
	// OutputFormat is table, json, yaml or wide.
	OutputFormat() string
	// NoColor disables ANSI color in text output.
	NoColor() bool
}

// BuildInfo describes the running binary.
type BuildInfo interface {
	Version() string
	Commit() string
	Date() string
	BuiltBy() string
}

// Application is everything a command or the server may use. Its methods
// are safe for concurrent use.
type Application interface {
	Analysis
	Presentation
	BuildInfo
}
