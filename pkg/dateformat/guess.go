package dateformat

import (
	"sort"
	"strings"
	"time"
)

// ParsedSample is one sample a layout accepted.
type ParsedSample struct {
	Value string    `json:"value" yaml:"value"`
	Time  time.Time `json:"time" yaml:"time"`
}

// GuessResult is the score of one candidate layout over a sample set.
type GuessResult struct {
	Format string         `json:"format" yaml:"format"`
	Score  int            `json:"score" yaml:"score"`
	Parsed []ParsedSample `json:"parsed,omitempty" yaml:"parsed,omitempty"`
}

// Guess returns the catalog layout that parses the most samples into a
// plausible date, or nil when no layout parses any. Blank samples are
// skipped. Ties go to the layout listed first.
func Guess(samples []string, opts ...Option) *GuessResult {
	o := newOptions(opts)
	samples = nonBlank(samples)
	if len(samples) == 0 {
		return nil
	}

	var best *GuessResult
	for _, pattern := range catalog {
		r := score(mustCompile(pattern), samples, o)
		if best == nil || r.Score > best.Score {
			best = &r
		}
	}
	if best == nil || best.Score <= 0 {
		return nil
	}
	return best
}

// GuessFormat is Guess reduced to the winning format string; ok is false
// when no layout fits.
func GuessFormat(samples []string, opts ...Option) (format string, ok bool) {
	r := Guess(samples, opts...)
	if r == nil {
		return "", false
	}
	return r.Format, true
}

// Rank scores every catalog layout and returns them best first. Layouts
// with equal scores keep catalog order, so Rank(s)[0] agrees with Guess(s)
// whenever Guess finds a layout.
func Rank(samples []string, opts ...Option) []GuessResult {
	o := newOptions(opts)
	samples = nonBlank(samples)

	results := make([]GuessResult, 0, len(catalog))
	for _, pattern := range catalog {
		results = append(results, score(mustCompile(pattern), samples, o))
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

func score(l *Layout, samples []string, o *options) GuessResult {
	r := GuessResult{Format: l.String()}
	now := o.now()
	for _, s := range samples {
		t, err := l.Parse(s, o.loc)
		if err != nil {
			continue
		}
		if !o.bounds.Contains(t.Year(), now) {
			continue
		}
		r.Score++
		r.Parsed = append(r.Parsed, ParsedSample{Value: s, Time: t})
	}
	return r
}

func nonBlank(samples []string) []string {
	out := make([]string, 0, len(samples))
	for _, s := range samples {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
