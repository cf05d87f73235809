package export_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/sightline/pkg/export"
	"github.com/agentstation/sightline/pkg/inventory"
	"github.com/agentstation/sightline/pkg/reconcile"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func view() []reconcile.Machine {
	return []reconcile.Machine{
		{
			Name:           "pc01",
			LastSeen:       date(2024, 6, 15),
			LastSeenSource: "b.csv",
			Sources: map[string]inventory.Slot{
				"a.csv": inventory.PresentAt(date(2024, 1, 1)),
				"b.csv": inventory.PresentAt(date(2024, 6, 15)),
			},
		},
		{
			Name: `odd"name`,
			Sources: map[string]inventory.Slot{
				"a.csv": inventory.PresentNoDate(),
				"b.csv": inventory.Absent(),
			},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, view(), []string{"a.csv", "b.csv"}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"Machine Name","Last Seen","Last Seen Source","a.csv","b.csv"`, lines[0])
	assert.Equal(t, `"pc01","2024-06-15","b.csv","2024-01-01","2024-06-15"`, lines[1])
	assert.Equal(t, `"odd""name","","","Present",""`, lines[2])
}

func TestWriteCSV_Options(t *testing.T) {
	var buf bytes.Buffer
	err := export.WriteCSV(&buf, view()[:1], []string{"b.csv"},
		export.WithDateLayout("02/01/2006"),
		export.WithPresentLabel("yes"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"pc01","15/06/2024","b.csv","15/06/2024"`)

	row := export.Row(view()[1], []string{"a.csv"}, export.WithPresentLabel("yes"))
	assert.Equal(t, []string{`odd"name`, "", "", "yes"}, row)
}

func TestWriteCSV_EmptyView(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, nil, nil))
	assert.Equal(t, "\"Machine Name\",\"Last Seen\",\"Last Seen Source\"\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteCSV_WriteError(t *testing.T) {
	err := export.WriteCSV(failingWriter{}, view(), []string{"a.csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `""`, export.Quote(""))
	assert.Equal(t, `"a,b"`, export.Quote("a,b"))
	assert.Equal(t, `"say ""hi"""`, export.Quote(`say "hi"`))
}
