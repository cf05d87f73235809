package alerts

import (
	"strconv"

	"github.com/agentstation/sightline/internal/cmd/emoji"
)

// Level is the severity of an alert, most severe first.
type Level int

// Levels.
const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
	LevelSuccess
)

const resetColor = "\033[0m"

var levels = [...]struct {
	name, icon, color string
}{
	LevelError:   {"error", emoji.Error, "\033[31m"},
	LevelWarning: {"warning", emoji.Warning, "\033[33m"},
	LevelInfo:    {"info", emoji.Info, "\033[36m"},
	LevelSuccess: {"success", emoji.Success, "\033[32m"},
}

func (l Level) known() bool { return l >= 0 && int(l) < len(levels) }

func (l Level) String() string {
	if !l.known() {
		return "level(" + strconv.Itoa(int(l)) + ")"
	}
	return levels[l].name
}

// MarshalText encodes the level by name in JSON and YAML alerts.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Icon is printed before text alerts.
func (l Level) Icon() string {
	if !l.known() {
		return "?"
	}
	return levels[l].icon
}

// Color is the ANSI escape used on terminals.
func (l Level) Color() string {
	if !l.known() {
		return resetColor
	}
	return levels[l].color
}
