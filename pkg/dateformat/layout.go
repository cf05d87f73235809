package dateformat

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/agentstation/sightline/pkg/errors"
)

type field int

const (
	fieldYear4 field = iota
	fieldYear2
	fieldMonth
	fieldDay
	fieldHour
	fieldMinute
	fieldSecond
	fieldMilli
)

// tokens are matched longest first so yyyy wins over yy.
var tokens = []struct {
	text  string
	field field
	expr  string
}{
	{"yyyy", fieldYear4, `(\d{4})`},
	{"SSS", fieldMilli, `(\d{1,3})`},
	{"yy", fieldYear2, `(\d{2})`},
	{"MM", fieldMonth, `(\d{1,2})`},
	{"dd", fieldDay, `(\d{1,2})`},
	{"HH", fieldHour, `(\d{1,2})`},
	{"mm", fieldMinute, `(\d{1,2})`},
	{"ss", fieldSecond, `(\d{1,2})`},
}

// Layout is a compiled date layout.
type Layout struct {
	pattern string
	re      *regexp.Regexp
	fields  []field
	utc     bool
}

// String returns the layout's pattern text.
func (l *Layout) String() string { return l.pattern }

// UTC reports whether values are interpreted in UTC.
func (l *Layout) UTC() bool { return l.utc }

var compiled sync.Map // pattern -> *Layout

// Compile turns a pattern into a Layout. Compiled layouts are cached.
func Compile(pattern string) (*Layout, error) {
	if cached, ok := compiled.Load(pattern); ok {
		return cached.(*Layout), nil
	}
	if strings.TrimSpace(pattern) == "" {
		return nil, errors.NewValidationError("format", pattern, "date format must not be empty")
	}

	var (
		expr   strings.Builder
		fields []field
	)
	expr.WriteString("^")

	for i := 0; i < len(pattern); {
		if pattern[i] == '\'' {
			end := strings.IndexByte(pattern[i+1:], '\'')
			if end < 0 {
				return nil, errors.NewValidationError("format", pattern, "unterminated quoted literal")
			}
			expr.WriteString(regexp.QuoteMeta(pattern[i+1 : i+1+end]))
			i += end + 2
			continue
		}

		matched := false
		for _, tok := range tokens {
			if strings.HasPrefix(pattern[i:], tok.text) {
				expr.WriteString(tok.expr)
				fields = append(fields, tok.field)
				i += len(tok.text)
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		expr.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
		i++
	}
	expr.WriteString("$")

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, errors.WrapValidation("format", err)
	}

	l := &Layout{
		pattern: pattern,
		re:      re,
		fields:  fields,
		utc:     strings.HasSuffix(pattern, "'Z'"),
	}
	actual, _ := compiled.LoadOrStore(pattern, l)
	return actual.(*Layout), nil
}

func mustCompile(pattern string) *Layout {
	l, err := Compile(pattern)
	if err != nil {
		panic(fmt.Sprintf("dateformat: bad built-in layout %q: %v", pattern, err))
	}
	return l
}

// Parse matches value against the layout and validates the result against
// the calendar. Surrounding whitespace is ignored. The returned error is a
// *errors.ParseError.
func (l *Layout) Parse(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	m := l.re.FindStringSubmatch(value)
	if m == nil {
		return time.Time{}, l.fail(value, "value does not match layout")
	}

	year, month, day := 1970, 1, 1
	var hour, minute, second, milli int
	for i, f := range l.fields {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return time.Time{}, l.fail(value, "non-numeric field")
		}
		switch f {
		case fieldYear4:
			year = n
		case fieldYear2:
			if n >= 70 {
				year = 1900 + n
			} else {
				year = 2000 + n
			}
		case fieldMonth:
			month = n
		case fieldDay:
			day = n
		case fieldHour:
			hour = n
		case fieldMinute:
			minute = n
		case fieldSecond:
			second = n
		case fieldMilli:
			milli = n
		}
	}

	switch {
	case month < 1 || month > 12:
		return time.Time{}, l.fail(value, "month out of range")
	case day < 1 || day > 31:
		return time.Time{}, l.fail(value, "day out of range")
	case hour > 23:
		return time.Time{}, l.fail(value, "hour out of range")
	case minute > 59:
		return time.Time{}, l.fail(value, "minute out of range")
	case second > 59:
		return time.Time{}, l.fail(value, "second out of range")
	}

	if l.utc || loc == nil {
		loc = time.UTC
	}
	t := time.Date(year, time.Month(month), day, hour, minute, second, milli*int(time.Millisecond), loc)

	// time.Date normalizes Feb 30 into March; a changed field means the
	// date does not exist.
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, l.fail(value, "date does not exist")
	}
	return t, nil
}

func (l *Layout) fail(value, message string) error {
	return errors.NewParseError("date", "", fmt.Sprintf("%q with layout %q: %s", value, l.pattern, message), nil)
}

// Parse parses value strictly against the given pattern. Year plausibility
// is not checked here; only the calendar is.
func Parse(value, pattern string, opts ...Option) (time.Time, error) {
	l, err := Compile(pattern)
	if err != nil {
		return time.Time{}, err
	}
	return l.Parse(value, newOptions(opts).loc)
}
