// Package emoji holds the symbols printed in tables, alerts and status
// lines.
package emoji

// Outcome markers.
const (
	Success = "✓"
	Error   = "✗"
	Warning = "!"
	Info    = "i"
)

// Machine and file markers.
const (
	// Disappeared follows machines unseen past the disappearance
	// boundary.
	Disappeared = "⚠"
	// Watch prefixes re-runs triggered by file changes.
	Watch = "↻"
	// Stop prefixes shutdown messages.
	Stop = Error
)
