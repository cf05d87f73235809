// Package constants provides shared constants used throughout the sightline codebase.
// This includes analysis defaults, heuristic bounds, file permissions and
// server settings that should be consistent across the application.
package constants

import "time"

// Analysis defaults
const (
	// DefaultDisappearanceThresholdDays is how long a machine may go unseen
	// by every source before it is counted as disappeared.
	DefaultDisappearanceThresholdDays = 90

	// DefaultSampleSize is the number of non-empty date cells fed to the
	// date-format guesser.
	DefaultSampleSize = 20

	// UnknownMachineName replaces an empty machine name cell.
	UnknownMachineName = "unknown"

	// NoDateColumn is the mapping value meaning "this file has no date column".
	NoDateColumn = "none"

	// PresentNoDateLabel is how a present-without-date cell is exported.
	PresentNoDateLabel = "Present"

	// FieldDelimiter separates fields in the flat export format.
	FieldDelimiter = ","
)

// Plausible year window used when scoring date-format candidates.
const (
	// MinPlausibleYear is the earliest year a guessed date may fall in.
	MinPlausibleYear = 1990

	// MaxYearLookahead is how many years past the current year a guessed
	// date may fall in.
	MaxYearLookahead = 5
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Store defaults
const (
	// DefaultStoreDir is the directory under the user's home holding persisted state.
	DefaultStoreDir = ".sightline"

	// DefaultYAMLStoreFile is the YAML mapping store file name.
	DefaultYAMLStoreFile = "mappings.yaml"

	// DefaultSQLiteStoreFile is the SQLite mapping store file name.
	DefaultSQLiteStoreFile = "mappings.db"
)

// Server defaults
const (
	// DefaultListenAddr is the address the HTTP service listens on.
	DefaultListenAddr = ":8080"

	// DefaultPathPrefix is the API route prefix.
	DefaultPathPrefix = "/api/v1"

	// DefaultReadTimeout bounds reading a request including its body.
	DefaultReadTimeout = 30 * time.Second

	// DefaultWriteTimeout bounds writing a response.
	DefaultWriteTimeout = 60 * time.Second

	// DefaultShutdownTimeout is how long in-flight requests get on shutdown.
	DefaultShutdownTimeout = 5 * time.Second

	// MaxUploadBytes caps the request body of an analysis request.
	MaxUploadBytes = 64 << 20

	// SessionTTL is how long an idle session is kept.
	SessionTTL = 2 * time.Hour
)

// Watch defaults
const (
	// WatchDebounce is how long file events must settle before a re-run.
	WatchDebounce = 500 * time.Millisecond
)
