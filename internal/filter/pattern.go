package filter

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/agentstation/sightline/pkg/errors"
)

// PatternType represents the type of pattern matching to use.
type PatternType int

const (
	// Auto detects the pattern type from its metacharacters.
	Auto PatternType = iota
	// Glob uses shell-style glob patterns (*, ?, []) against the whole name.
	Glob
	// Regex uses regular expressions, unanchored.
	Regex
	// Substring matches names containing the pattern.
	Substring
)

// String returns a string representation of the PatternType.
func (pt PatternType) String() string {
	switch pt {
	case Glob:
		return "glob"
	case Regex:
		return "regex"
	case Substring:
		return "substring"
	case Auto:
		return "auto"
	default:
		return "unknown"
	}
}

// ParsePatternType parses a pattern type name; empty means Auto.
func ParsePatternType(s string) (PatternType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case "glob":
		return Glob, nil
	case "regex", "regexp":
		return Regex, nil
	case "substring", "contains":
		return Substring, nil
	default:
		return Auto, errors.NewValidationError("pattern_type", s, "must be one of auto, glob, regex, substring")
	}
}

// Matcher matches machine names against one pattern.
type Matcher interface {
	// Match checks if the input matches the pattern
	Match(input string) bool
	// Pattern returns the original pattern string.
	Pattern() string
	// Type returns the pattern type being used.
	Type() PatternType
}

type matcher struct {
	pattern         string
	patternType     PatternType
	compiled        *regexp.Regexp
	glob            string
	caseInsensitive bool
}

// NewMatcher compiles pattern. An invalid pattern yields a
// *errors.ValidationError on field "pattern".
func NewMatcher(patternType PatternType, pattern string, caseInsensitive bool) (Matcher, error) {
	m := &matcher{
		pattern:         pattern,
		patternType:     patternType,
		caseInsensitive: caseInsensitive,
	}
	if patternType == Auto {
		m.patternType = detectPatternType(pattern)
	}
	if err := m.compile(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *matcher) compile() error {
	switch m.patternType {
	case Glob:
		m.glob = m.fold(m.pattern)
		if _, err := filepath.Match(m.glob, ""); err != nil {
			return errors.NewValidationError("pattern", m.pattern, "invalid glob pattern: "+err.Error())
		}
	case Regex:
		pattern := m.pattern
		if m.caseInsensitive && !strings.HasPrefix(pattern, "(?i)") {
			pattern = "(?i)" + pattern
		}
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return errors.NewValidationError("pattern", m.pattern, "invalid regular expression: "+err.Error())
		}
		m.compiled = compiled
	case Substring:
		m.glob = m.fold(m.pattern)
	default:
		return errors.NewValidationError("pattern_type", m.patternType.String(), "unsupported pattern type")
	}
	return nil
}

func (m *matcher) fold(s string) string {
	if m.caseInsensitive {
		return strings.ToLower(s)
	}
	return s
}

// Match checks if the input matches the pattern.
func (m *matcher) Match(input string) bool {
	switch m.patternType {
	case Glob:
		matched, _ := filepath.Match(m.glob, m.fold(input))
		return matched
	case Regex:
		return m.compiled.MatchString(input)
	case Substring:
		return strings.Contains(m.fold(input), m.glob)
	default:
		return false
	}
}

// Pattern returns the original pattern string.
func (m *matcher) Pattern() string {
	return m.pattern
}

// Type returns the pattern type being used.
func (m *matcher) Type() PatternType {
	return m.patternType
}

// detectPatternType picks regex when the pattern uses regex-only syntax,
// glob when it uses glob wildcards, and substring otherwise.
func detectPatternType(pattern string) PatternType {
	regexIndicators := []string{
		"^", "$", "\\d", "\\w", "\\s", "\\D", "\\W", "\\S",
		"(?:", "(?i)", "(?m)", "(?s)",
		"{", "}", "+", "|", "(", ")", ".*",
	}

	for _, indicator := range regexIndicators {
		if strings.Contains(pattern, indicator) {
			return Regex
		}
	}

	if strings.ContainsAny(pattern, "*?[]") {
		return Glob
	}

	return Substring
}
