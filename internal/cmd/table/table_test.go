package table

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/sightline/internal/cmd/emoji"
	"github.com/agentstation/sightline/internal/store"
	"github.com/agentstation/sightline/pkg/dateformat"
	"github.com/agentstation/sightline/pkg/inventory"
	"github.com/agentstation/sightline/pkg/reconcile"
)

var today = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

func analyze(t *testing.T) *reconcile.Result {
	t.Helper()
	ad := inventory.NewSource("ad.csv", "Name,LastLogon\nCORP\\PC01,2024-06-15\nCORP\\PC02,2024-01-03\nCORP\\PC04,\n")
	ad.Mapping = inventory.Mapping{NameColumn: "Name", DateColumn: "LastLogon", DateFormat: "yyyy-MM-dd"}
	av := inventory.NewSource("av.csv", "Computer\npc01.corp.local\npc03.corp.local\n")
	av.Mapping = inventory.Mapping{NameColumn: "Computer"}

	settings := inventory.DefaultSettings()
	settings.Location = time.UTC
	result, err := reconcile.Analyze(context.Background(), []*inventory.Source{ad, av}, settings,
		reconcile.WithClock(func() time.Time { return today }))
	require.NoError(t, err)
	return result
}

func row(t *testing.T, d Data, name string) []string {
	t.Helper()
	for _, r := range d.Rows {
		if strings.HasPrefix(r[0], name) {
			return r
		}
	}
	t.Fatalf("no row for %s", name)
	return nil
}

func TestMachinesToTableData(t *testing.T) {
	result := analyze(t)
	d := MachinesToTableData(result, result.Machines, false)

	assert.Equal(t, []string{"Machine", "Last Seen", "Source", "ad.csv", "av.csv"}, d.Headers)
	require.Len(t, d.Rows, 4)

	assert.Equal(t, []string{"pc01", "2024-06-15", "ad.csv", "2024-06-15", "Present"}, row(t, d, "pc01"))
	assert.Equal(t, []string{"pc02 " + emoji.Disappeared, "2024-01-03", "ad.csv", "2024-01-03 " + emoji.Warning, "-"}, row(t, d, "pc02"))
	assert.Equal(t, []string{"pc03 " + emoji.Disappeared, "-", "-", "-", "Present"}, row(t, d, "pc03"))
}

func TestMachinesToTableData_Wide(t *testing.T) {
	result := analyze(t)
	d := MachinesToTableData(result, result.Machines, true)

	r := row(t, d, "pc02")
	assert.Equal(t, "Last seen in ad.csv on 2024-01-03 (This record is stale)", r[3])
	assert.Equal(t, "Not present in av.csv", r[4])
	assert.Equal(t, "Present in ad.csv (No date info)", row(t, d, "pc04")[3])
}

func TestStatsAndComparisons(t *testing.T) {
	result := analyze(t)

	stats := StatsToTableData(result.Stats)
	require.Len(t, stats.Rows, 2)
	assert.Len(t, stats.ColumnAlignment, len(stats.Headers))
	assert.Equal(t, "ad.csv", stats.Rows[0][0])
	assert.Equal(t, "3", stats.Rows[0][1])

	cmp := ComparisonsToTableData(result.Comparisons)
	require.Len(t, cmp.Rows, 1)
	assert.Equal(t, []string{"ad.csv", "av.csv", "pc02, pc04", "pc03"}, cmp.Rows[0])
}

func TestFilesToTableData(t *testing.T) {
	d := FilesToTableData([]reconcile.FileReport{
		{SourceFile: "a.csv", RowCount: 3},
		{SourceFile: "b.csv", Error: "boom", Err: assert.AnError},
	})
	assert.Equal(t, emoji.Success+" ok", d.Rows[0][2])
	assert.Equal(t, emoji.Error+" boom", d.Rows[1][2])
}

func TestMappingsAndSummaries(t *testing.T) {
	key := store.Key("ad.csv", []byte("content"))
	entries := []store.Entry{{
		Key:      key,
		FileName: "ad.csv",
		Mapping:  inventory.Mapping{NameColumn: "Name"},
	}}
	d := MappingsToTableData(entries)
	require.Len(t, d.Rows, 1)
	assert.Equal(t, "-", d.Rows[0][2])
	assert.Len(t, d.Rows[0][5], 12)
	assert.True(t, strings.HasPrefix(key, "ad.csv:"+d.Rows[0][5]))

	s := SummariesToTableData([]store.Summary{{FileName: "ad.csv", TotalLines: 10, UniqueMachines: 7}})
	assert.Equal(t, []string{"ad.csv", "10", "7"}, s.Rows[0][:3])
}

func TestGuessesToTableData(t *testing.T) {
	samples := []string{"15/06/2024", "03/01/2024"}
	d := GuessesToTableData(dateformat.Rank(samples), len(samples))
	require.NotEmpty(t, d.Rows)
	assert.Equal(t, "dd/MM/yyyy "+emoji.Success, d.Rows[0][0])
	assert.Equal(t, "2/2", d.Rows[0][1])

	none := GuessesToTableData(dateformat.Rank([]string{"nope"}), 1)
	assert.Empty(t, none.Rows)
}
