package dateformat

import (
	"time"

	"github.com/agentstation/sightline/pkg/constants"
)

// YearBounds is the plausibility window for guessed dates. A parsed sample
// only counts toward a layout's score when its year lies in
// [Min, now.Year()+Ahead].
type YearBounds struct {
	Min   int `json:"min" yaml:"min"`
	Ahead int `json:"ahead" yaml:"ahead"`
}

// DefaultYearBounds returns the default plausibility window.
func DefaultYearBounds() YearBounds {
	return YearBounds{Min: constants.MinPlausibleYear, Ahead: constants.MaxYearLookahead}
}

// Contains reports whether year is plausible relative to now.
func (b YearBounds) Contains(year int, now time.Time) bool {
	return year >= b.Min && year <= now.Year()+b.Ahead
}

// Option configures guessing and parsing.
type Option func(*options)

type options struct {
	bounds YearBounds
	now    func() time.Time
	loc    *time.Location
}

func newOptions(opts []Option) *options {
	o := &options{
		bounds: DefaultYearBounds(),
		now:    time.Now,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithYearBounds overrides the plausibility window used when scoring.
func WithYearBounds(b YearBounds) Option {
	return func(o *options) {
		o.bounds = b
	}
}

// WithNow fixes the instant the plausibility window is relative to.
func WithNow(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLocation sets the location for layouts without a UTC suffix.
// Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}
