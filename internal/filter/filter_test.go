package filter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/sightline/pkg/errors"
	"github.com/agentstation/sightline/pkg/inventory"
	"github.com/agentstation/sightline/pkg/logging"
	"github.com/agentstation/sightline/pkg/reconcile"
)

func TestDetectPatternType(t *testing.T) {
	tests := map[string]PatternType{
		"pc01":       Substring,
		"pc0*":       Glob,
		"pc0?":       Glob,
		"pc[0-9]":    Glob,
		"^pc":        Regex,
		`pc\d+`:      Regex,
		"pc(01|02)":  Regex,
		"lab.*":      Regex,
		"pc01.corp":  Substring,
		"web-{a,b}":  Regex,
		"(?i)server": Regex,
	}
	for pattern, want := range tests {
		assert.Equal(t, want, detectPatternType(pattern), pattern)
	}
}

func TestMatcher(t *testing.T) {
	tests := []struct {
		name            string
		patternType     PatternType
		pattern         string
		caseInsensitive bool
		matches         []string
		rejects         []string
	}{
		{"substring", Substring, "lab", false, []string{"lab01", "west-lab"}, []string{"LAB01", "pc01"}},
		{"substring folded", Substring, "LAB", true, []string{"lab01", "West-Lab"}, []string{"pc01"}},
		{"glob whole name", Glob, "pc0*", false, []string{"pc01", "pc0"}, []string{"xpc01", "PC01"}},
		{"glob folded", Glob, "PC0?", true, []string{"pc01", "Pc02"}, []string{"pc010"}},
		{"regex unanchored", Regex, `\d{3}$`, false, []string{"pc123", "123"}, []string{"pc12", "123x"}},
		{"regex folded", Regex, "^srv", true, []string{"SRV01", "srv"}, []string{"xsrv"}},
		{"auto regex", Auto, "^web", false, []string{"web01"}, []string{"myweb"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMatcher(tt.patternType, tt.pattern, tt.caseInsensitive)
			require.NoError(t, err)
			assert.Equal(t, tt.pattern, m.Pattern())
			for _, s := range tt.matches {
				assert.True(t, m.Match(s), s)
			}
			for _, s := range tt.rejects {
				assert.False(t, m.Match(s), s)
			}
		})
	}
}

func TestMatcher_Invalid(t *testing.T) {
	_, err := NewMatcher(Regex, "(unclosed", false)
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	var ve *errors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "pattern", ve.Field)

	_, err = NewMatcher(Glob, "[", false)
	assert.True(t, errors.IsValidationError(err))

	_, err = NewMatcher(PatternType(42), "x", false)
	assert.True(t, errors.IsValidationError(err))
}

func TestParsePatternType(t *testing.T) {
	for in, want := range map[string]PatternType{"": Auto, "GLOB": Glob, "regexp": Regex, "contains": Substring} {
		got, err := ParsePatternType(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParsePatternType("fuzzy")
	assert.True(t, errors.IsValidationError(err))
}

func fixture(t *testing.T) *reconcile.Result {
	t.Helper()
	logging.DisableLoggingForTest(t)

	mapping := inventory.Mapping{NameColumn: "Name", DateColumn: "Seen"}
	a := inventory.NewSource("a.csv", "Name,Seen\nlab01,2024-06-20\nlab02,2024-01-01\nsrv01,\nsrv02,2024-06-30")
	a.Mapping = mapping
	b := inventory.NewSource("b.csv", "Name,Seen\nlab01,2024-06-25\nsrv02,2024-06-01")
	b.Mapping = mapping

	settings := inventory.DefaultSettings()
	settings.Location = time.UTC
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	result, err := reconcile.Analyze(context.Background(), []*inventory.Source{a, b}, settings,
		reconcile.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return result
}

func names(ms []reconcile.Machine) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Name
	}
	return out
}

func TestFilter_Apply(t *testing.T) {
	result := fixture(t)
	require.Equal(t, []string{"srv02", "lab01", "lab02", "srv01"}, names(result.Machines))

	tests := []struct {
		expr string
		want []string
	}{
		{"", []string{"srv02", "lab01", "lab02", "srv01"}},
		{"lab", []string{"lab01", "lab02"}},
		{"srv0*", []string{"srv02", "srv01"}},
		{`^lab\d1$`, []string{"lab01"}},
		{"disappeared", []string{"lab02", "srv01"}},
		{"missing:b.csv", []string{"lab02", "srv01"}},
		{"nodate:a.csv", []string{"srv01"}},
		{"present:b.csv", []string{"srv02", "lab01"}},
		{"lab disappeared", []string{"lab02"}},
		{"present:a.csv present:b.csv", []string{"srv02", "lab01"}},
		{"stale:a.csv", []string{"lab02"}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := Parse(tt.expr, Options{})
			require.NoError(t, err)
			got, err := f.Apply(result)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestFilter_InvalidPatternLeavesResultAlone(t *testing.T) {
	result := fixture(t)
	before := names(result.Machines)

	_, err := Parse("(lab", Options{PatternType: Regex})
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.Equal(t, before, names(result.Machines))
}

func TestFilter_UnknownSource(t *testing.T) {
	result := fixture(t)
	f, err := Parse("missing:c.csv", Options{})
	require.NoError(t, err)
	_, err = f.Apply(result)
	assert.True(t, errors.IsValidationError(err))

	_, err = Parse("stale:", Options{})
	assert.True(t, errors.IsValidationError(err))
}

func TestFilter_ApplyView(t *testing.T) {
	result := fixture(t)
	f, err := New("lab", Options{}, false)
	require.NoError(t, err)

	view, err := f.ApplyView(result)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Total)
	assert.Len(t, view.Machines, 2)
	require.Len(t, view.Stats, 2)
	assert.Equal(t, 2, view.Stats[0].TotalInView)
	assert.Equal(t, 4, view.Stats[0].SourceRecordCount)
	assert.Equal(t, 1, view.Stats[1].Missing)
}

func TestFilter_Empty(t *testing.T) {
	var nilFilter *Filter
	assert.True(t, nilFilter.Empty())

	f, err := New("", Options{}, false)
	require.NoError(t, err)
	assert.True(t, f.Empty())

	f, err = New("", Options{}, true)
	require.NoError(t, err)
	assert.False(t, f.Empty())
}
