// Package alerts turns the outcome of an analysis into short status
// notices for the terminal: failed files, skipped files and disappeared
// machines.
package alerts

import (
	"fmt"
	"strings"

	"github.com/agentstation/sightline/pkg/reconcile"
)

// Alert is one status notice.
type Alert struct {
	Level   Level    `json:"level" yaml:"level"`
	Message string   `json:"message" yaml:"message"`
	Details []string `json:"details,omitempty" yaml:"details,omitempty"`
	Err     error    `json:"-" yaml:"-"`
}

// New creates an alert with the given level and message.
func New(level Level, message string) *Alert {
	return &Alert{Level: level, Message: message}
}

// NewError creates an error alert.
func NewError(message string) *Alert { return New(LevelError, message) }

// NewWarning creates a warning alert.
func NewWarning(message string) *Alert { return New(LevelWarning, message) }

// NewInfo creates an info alert.
func NewInfo(message string) *Alert { return New(LevelInfo, message) }

// NewSuccess creates a success alert.
func NewSuccess(message string) *Alert { return New(LevelSuccess, message) }

// WithError attaches the underlying error.
func (a *Alert) WithError(err error) *Alert {
	a.Err = err
	return a
}

// WithDetails appends detail lines.
func (a *Alert) WithDetails(details ...string) *Alert {
	a.Details = append(a.Details, details...)
	return a
}

// String renders the alert on one line.
func (a *Alert) String() string {
	s := a.Level.Icon() + " " + a.Message
	if a.Err != nil {
		s += ": " + a.Err.Error()
	}
	return s
}

// FromRun derives the alerts of one analysis. skipped lists the inputs
// that had no mapping and did not take part.
func FromRun(result *reconcile.Result, skipped []string) []*Alert {
	var out []*Alert

	if len(skipped) > 0 {
		out = append(out, NewWarning(fmt.Sprintf("%d %s skipped without a mapping: %s",
			len(skipped), plural(len(skipped), "file", "files"), strings.Join(skipped, ", "))).
			WithDetails("Map a file with --map FILE=NAME_COLUMN[,DATE_COLUMN[,DATE_FORMAT]]",
				"or remember it with: sightline mapping set FILE --name-column NAME"))
	}

	for _, f := range result.Files {
		if f.Failed() {
			out = append(out, NewError("Failed to read "+f.SourceFile).WithDetails(f.Error))
		}
	}

	if len(result.SourceFiles) == 0 {
		out = append(out, NewInfo("No file took part in the analysis"))
		return out
	}

	switch n := result.DisappearedCount; {
	case n > 0:
		out = append(out, NewWarning(fmt.Sprintf("%d %s not seen for more than %d days",
			n, plural(n, "machine", "machines"), result.Settings.DisappearanceThresholdDays)).
			WithDetails("Show them with --filter disappeared"))
	default:
		out = append(out, NewSuccess(fmt.Sprintf("All %d machines seen within %d days",
			len(result.Machines), result.Settings.DisappearanceThresholdDays)))
	}
	return out
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
