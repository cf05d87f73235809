package reconcile

import (
	"github.com/agentstation/sightline/pkg/inventory"
)

// Comparison lists the machines one source has and another lacks. Each
// list holds the first record seen per name in its source file.
type Comparison struct {
	SourceFile      string             `json:"source_file" yaml:"source_file"`
	TargetFile      string             `json:"target_file" yaml:"target_file"`
	MissingInTarget []inventory.Record `json:"missing_in_target" yaml:"missing_in_target"`
	MissingInSource []inventory.Record `json:"missing_in_source" yaml:"missing_in_source"`
}

// Empty reports whether the two sources agree.
func (c Comparison) Empty() bool {
	return len(c.MissingInTarget) == 0 && len(c.MissingInSource) == 0
}

// MissingInTargetNames returns the names of MissingInTarget.
func (c Comparison) MissingInTargetNames() []string { return names(c.MissingInTarget) }

// MissingInSourceNames returns the names of MissingInSource.
func (c Comparison) MissingInSourceNames() []string { return names(c.MissingInSource) }

func names(recs []inventory.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Name
	}
	return out
}

// Compare diffs every pair (i, j), i < j, of files in input order.
// Pairs that agree are dropped unless includeEmpty is set.
func Compare(files []FileReport, includeEmpty bool) []Comparison {
	firsts := make([][]inventory.Record, len(files))
	sets := make([]map[string]struct{}, len(files))
	for i, f := range files {
		firsts[i], sets[i] = firstOccurrences(f.Records)
	}

	out := []Comparison{}
	for i := 0; i < len(files); i++ {
		for j := i + 1; j < len(files); j++ {
			c := Comparison{
				SourceFile:      files[i].SourceFile,
				TargetFile:      files[j].SourceFile,
				MissingInTarget: missingFrom(firsts[i], sets[j]),
				MissingInSource: missingFrom(firsts[j], sets[i]),
			}
			if c.Empty() && !includeEmpty {
				continue
			}
			out = append(out, c)
		}
	}
	return out
}

func firstOccurrences(recs []inventory.Record) ([]inventory.Record, map[string]struct{}) {
	set := make(map[string]struct{}, len(recs))
	firsts := make([]inventory.Record, 0, len(recs))
	for _, r := range recs {
		if _, ok := set[r.Name]; ok {
			continue
		}
		set[r.Name] = struct{}{}
		firsts = append(firsts, r)
	}
	return firsts, set
}

func missingFrom(firsts []inventory.Record, other map[string]struct{}) []inventory.Record {
	out := []inventory.Record{}
	for _, r := range firsts {
		if _, ok := other[r.Name]; !ok {
			out = append(out, r)
		}
	}
	return out
}
