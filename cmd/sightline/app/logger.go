package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/agentstation/sightline/pkg/logging"
)

// NewLogger builds the logger for the configuration and installs it as
// the process default, so packages logging through a bare context pick
// it up too.
//
// Level precedence: --log-level, then -q over -v when both are given,
// then -v, then -q, then info.
func NewLogger(config *Config) zerolog.Logger {
	level := determineLogLevel(config)

	logger := logging.New(logging.Config{
		Level:   level,
		Format:  config.LogFormat,
		Output:  config.LogOutput,
		NoColor: config.NoColor,
		Caller:  level == zerolog.DebugLevel.String() || level == zerolog.TraceLevel.String(),
	})
	logging.SetDefault(logger)
	return logger
}

func determineLogLevel(config *Config) string {
	if config.LogLevel != "" {
		level, ok := validateLogLevel(config.LogLevel)
		if !ok {
			fmt.Fprintf(os.Stderr, "Warning: invalid log level %q, using %q\n", config.LogLevel, level)
		}
		return level
	}

	switch {
	case config.Verbose && config.Quiet:
		fmt.Fprintf(os.Stderr, "Warning: both --verbose and --quiet specified, using --quiet\n")
		return "warn"
	case config.Verbose:
		return "debug"
	case config.Quiet:
		return "warn"
	default:
		return "info"
	}
}

// validateLogLevel returns level when zerolog knows it, info otherwise.
func validateLogLevel(level string) (string, bool) {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return level, true
	default:
		return "info", false
	}
}
