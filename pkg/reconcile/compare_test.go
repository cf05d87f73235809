package reconcile_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/sightline/pkg/inventory"
	"github.com/agentstation/sightline/pkg/reconcile"
)

func report(file string, names ...string) reconcile.FileReport {
	r := reconcile.FileReport{SourceFile: file, RowCount: len(names)}
	for i, n := range names {
		r.Records = append(r.Records, inventory.Record{Name: n, SourceFile: file, Row: i})
	}
	return r
}

func TestCompare_PairOrderAndDedup(t *testing.T) {
	files := []reconcile.FileReport{
		report("a", "pc1", "pc2", "pc2", "pc3"),
		report("b", "pc1", "pc4", "pc4"),
		report("c", "pc1", "pc2", "pc3"),
	}

	got := reconcile.Compare(files, false)
	require.Len(t, got, 2, "a/c agree and are omitted")

	assert.Equal(t, "a", got[0].SourceFile)
	assert.Equal(t, "b", got[0].TargetFile)
	assert.Equal(t, []string{"pc2", "pc3"}, got[0].MissingInTargetNames())
	assert.Equal(t, []string{"pc4"}, got[0].MissingInSourceNames())
	assert.Equal(t, 1, got[0].MissingInTarget[0].Row, "first occurrence is kept")
	assert.Equal(t, 1, got[0].MissingInSource[0].Row)

	assert.Equal(t, "b", got[1].SourceFile)
	assert.Equal(t, "c", got[1].TargetFile)

	all := reconcile.Compare(files, true)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[1].SourceFile)
	assert.Equal(t, "c", all[1].TargetFile)
	assert.True(t, all[1].Empty())
}

func TestCompare_Symmetry(t *testing.T) {
	a := report("a", "pc1", "pc2", "pc5")
	b := report("b", "pc2", "pc3", "pc4")

	ab := reconcile.Compare([]reconcile.FileReport{a, b}, true)
	ba := reconcile.Compare([]reconcile.FileReport{b, a}, true)
	require.Len(t, ab, 1)
	require.Len(t, ba, 1)

	assert.Equal(t, ab[0].MissingInTargetNames(), ba[0].MissingInSourceNames())
	assert.Equal(t, ab[0].MissingInSourceNames(), ba[0].MissingInTargetNames())
}

func TestCompare_SingleOrNoFiles(t *testing.T) {
	assert.Empty(t, reconcile.Compare(nil, true))
	assert.Empty(t, reconcile.Compare([]reconcile.FileReport{report("a", "pc1")}, true))
}

func TestClassify(t *testing.T) {
	boundary := date(2024, 4, 2)
	assert.Equal(t, reconcile.StatusMissing, reconcile.Classify(inventory.Absent(), boundary))
	assert.Equal(t, reconcile.StatusStale, reconcile.Classify(inventory.PresentAt(date(2024, 4, 1)), boundary))
	assert.Equal(t, reconcile.StatusPresent, reconcile.Classify(inventory.PresentAt(boundary), boundary))
	assert.Equal(t, reconcile.StatusPresent, reconcile.Classify(inventory.PresentAt(date(2024, 6, 1)), boundary))
}

func TestClassify_NoDateNeverStaleOrPresent(t *testing.T) {
	for _, boundary := range []time.Time{{}, date(1970, 1, 1), date(2024, 1, 1), date(9999, 1, 1)} {
		assert.Equal(t, reconcile.StatusNoDate, reconcile.Classify(inventory.PresentNoDate(), boundary))
	}
}

func TestDisappeared(t *testing.T) {
	boundary := date(2024, 4, 2)
	view := []reconcile.Machine{
		{Name: "new", LastSeen: date(2024, 6, 1)},
		{Name: "edge", LastSeen: boundary},
		{Name: "old", LastSeen: date(2024, 1, 1)},
		{Name: "never"},
	}
	assert.Equal(t, 2, reconcile.CountDisappeared(view, boundary))
	assert.Equal(t, []string{"old", "never"}, reconcile.DisappearedNames(view, boundary))
}

func TestBoundary(t *testing.T) {
	assert.Equal(t, date(2024, 4, 2), reconcile.Boundary(today, 90))
	assert.Equal(t, date(2024, 6, 1), reconcile.Boundary(today, 30))
}

func TestStats_FilteredView(t *testing.T) {
	files := []reconcile.FileReport{report("a", "pc1", "pc1", "pc2")}
	view := reconcile.Consolidate(files[0].Records, []string{"a"})

	stats := reconcile.Stats(view[:1], files, today)
	require.Len(t, stats, 1)
	assert.Equal(t, 3, stats[0].SourceRecordCount)
	assert.Equal(t, 2, stats[0].UniqueSourceRecordCount)
	assert.Equal(t, 1, stats[0].TotalInView)
	assert.Equal(t, 1, stats[0].NoDate)
	assert.Contains(t, stats[0].String(), "1 no date")
}

func TestDescribe(t *testing.T) {
	boundary := date(2024, 4, 2)
	assert.Equal(t, "Not present in a.csv", reconcile.Describe(inventory.Absent(), "a.csv", boundary))
	assert.Equal(t, "Present in a.csv (No date info)", reconcile.Describe(inventory.PresentNoDate(), "a.csv", boundary))
	assert.Equal(t, "Last seen in a.csv on 2024-06-01", reconcile.Describe(inventory.PresentAt(date(2024, 6, 1)), "a.csv", boundary))
	assert.Equal(t, "Last seen in a.csv on 2024-01-01 (This record is stale)", reconcile.Describe(inventory.PresentAt(date(2024, 1, 1)), "a.csv", boundary))
}
