// Package filter narrows a consolidated view by machine name and by
// per-source status.
//
// A filter expression is a whitespace-separated list of terms:
//
//	disappeared          machines past the disappearance boundary
//	stale:<file>         machines whose slot in <file> is stale
//	missing:<file>       machines absent from <file>
//	nodate:<file>        machines present in <file> without a date
//	present:<file>       machines recently seen in <file>
//	anything else        a name pattern (regex, glob or substring)
//
// All terms must hold for a machine to be kept. Multiple name patterns
// are joined with a space into one pattern.
package filter

import (
	"strings"

	"github.com/agentstation/sightline/pkg/errors"
	"github.com/agentstation/sightline/pkg/reconcile"
)

// StatusTerm requires a machine to have Status in SourceFile.
type StatusTerm struct {
	Status     reconcile.Status
	SourceFile string
}

// Options configure parsing.
type Options struct {
	PatternType     PatternType
	CaseInsensitive bool
}

// Filter selects machines from a result.
type Filter struct {
	name        Matcher
	disappeared bool
	statuses    []StatusTerm
}

var statusPrefixes = map[string]reconcile.Status{
	"stale":   reconcile.StatusStale,
	"missing": reconcile.StatusMissing,
	"nodate":  reconcile.StatusNoDate,
	"no_date": reconcile.StatusNoDate,
	"present": reconcile.StatusPresent,
}

// Parse builds a filter from an expression. An empty expression keeps
// every machine.
func Parse(expr string, opts Options) (*Filter, error) {
	f := &Filter{}
	var names []string

	for _, term := range strings.Fields(expr) {
		if strings.EqualFold(term, "disappeared") {
			f.disappeared = true
			continue
		}
		if prefix, file, ok := strings.Cut(term, ":"); ok {
			if st, known := statusPrefixes[strings.ToLower(prefix)]; known {
				if file == "" {
					return nil, errors.NewValidationError("filter", term, "status term needs a source file")
				}
				f.statuses = append(f.statuses, StatusTerm{Status: st, SourceFile: file})
				continue
			}
		}
		names = append(names, term)
	}

	if len(names) > 0 {
		m, err := NewMatcher(opts.PatternType, strings.Join(names, " "), opts.CaseInsensitive)
		if err != nil {
			return nil, err
		}
		f.name = m
	}
	return f, nil
}

// New builds a filter from its parts. pattern may be empty.
func New(pattern string, opts Options, disappeared bool, statuses ...StatusTerm) (*Filter, error) {
	f := &Filter{disappeared: disappeared, statuses: statuses}
	if pattern != "" {
		m, err := NewMatcher(opts.PatternType, pattern, opts.CaseInsensitive)
		if err != nil {
			return nil, err
		}
		f.name = m
	}
	return f, nil
}

// Empty reports whether the filter keeps everything.
func (f *Filter) Empty() bool {
	return f == nil || (f.name == nil && !f.disappeared && len(f.statuses) == 0)
}

// Validate checks that every status term names a source of the result.
func (f *Filter) Validate(result *reconcile.Result) error {
	if f == nil {
		return nil
	}
	for _, st := range f.statuses {
		if !contains(result.SourceFiles, st.SourceFile) {
			return errors.NewValidationError("filter", st.SourceFile, "unknown source file")
		}
	}
	return nil
}

// Match reports whether m passes every term.
func (f *Filter) Match(result *reconcile.Result, m reconcile.Machine) bool {
	if f == nil {
		return true
	}
	if f.name != nil && !f.name.Match(m.Name) {
		return false
	}
	if f.disappeared && !result.IsDisappeared(m) {
		return false
	}
	for _, st := range f.statuses {
		if result.Status(m, st.SourceFile) != st.Status {
			return false
		}
	}
	return true
}

// Apply returns the machines of result that pass the filter, in view
// order. The result itself is not modified.
func (f *Filter) Apply(result *reconcile.Result) ([]reconcile.Machine, error) {
	if err := f.Validate(result); err != nil {
		return nil, err
	}
	if f.Empty() {
		return result.Machines, nil
	}
	out := []reconcile.Machine{}
	for _, m := range result.Machines {
		if f.Match(result, m) {
			out = append(out, m)
		}
	}
	return out, nil
}

// View is a filtered view of a result with stats recomputed over it.
type View struct {
	Machines []reconcile.Machine   `json:"machines" yaml:"machines"`
	Stats    []reconcile.FileStats `json:"stats" yaml:"stats"`
	Total    int                   `json:"total" yaml:"total"`
}

// ApplyView filters result and recalculates per-file stats over the kept
// machines.
func (f *Filter) ApplyView(result *reconcile.Result) (*View, error) {
	machines, err := f.Apply(result)
	if err != nil {
		return nil, err
	}
	return &View{
		Machines: machines,
		Stats:    result.Recalculate(machines),
		Total:    len(result.Machines),
	}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
