package alerts

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/sightline/internal/cmd/output"
	"github.com/agentstation/sightline/pkg/inventory"
	"github.com/agentstation/sightline/pkg/reconcile"
)

func analyze(t *testing.T, sources ...*inventory.Source) *reconcile.Result {
	t.Helper()
	settings := inventory.DefaultSettings()
	settings.Location = time.UTC
	r, err := reconcile.Analyze(context.Background(), sources, settings,
		reconcile.WithClock(func() time.Time { return time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC) }))
	require.NoError(t, err)
	return r
}

func source(name, content string, m inventory.Mapping) *inventory.Source {
	s := inventory.NewSource(name, content)
	s.Mapping = m
	return s
}

func messages(alerts []*Alert) []string {
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Level.String()+": "+a.Message)
	}
	return out
}

func TestFromRun(t *testing.T) {
	r := analyze(t,
		source("ad.csv", "Name,Seen\npc01,2024-06-15\npc02,2024-01-03\n", inventory.Mapping{NameColumn: "Name", DateColumn: "Seen"}),
		source("av.csv", "Host\npc01\n", inventory.Mapping{NameColumn: "Hostname"}),
	)

	got := messages(FromRun(r, []string{"cmdb.csv"}))
	assert.Equal(t, []string{
		"warning: 1 file skipped without a mapping: cmdb.csv",
		"error: Failed to read av.csv",
		"warning: 1 machine not seen for more than 90 days",
	}, got)
}

func TestFromRun_Clean(t *testing.T) {
	r := analyze(t, source("ad.csv", "Name,Seen\npc01,2024-06-15\npc03,2024-06-16\n", inventory.Mapping{NameColumn: "Name", DateColumn: "Seen"}))
	assert.Equal(t, []string{"success: All 2 machines seen within 90 days"}, messages(FromRun(r, nil)))
}

func TestFromRun_Empty(t *testing.T) {
	r := analyze(t)
	assert.Equal(t, []string{"info: No file took part in the analysis"}, messages(FromRun(r, nil)))
}

func TestFormatWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	w := NewFormatWriter(&buf, output.FormatTable, false)

	a := NewError("Failed to read ad.csv").WithError(stderrors.New("boom")).WithDetails("check the file")
	require.NoError(t, w.WriteAlert(a))
	assert.Equal(t, a.Level.Icon()+" Failed to read ad.csv: boom\n   check the file\n", buf.String())

	buf.Reset()
	brief := &TextWriter{W: &buf, Color: true, Brief: true}
	require.NoError(t, brief.WriteAlert(NewSuccess("done").WithDetails("hidden")))
	assert.Equal(t, LevelSuccess.Color()+LevelSuccess.Icon()+" done"+resetColor+"\n", buf.String())
}

func TestFormatWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewFormatWriter(&buf, output.FormatJSON, true)
	require.NoError(t, WriteAll(w, []*Alert{NewWarning("careful").WithDetails("a")}))
	assert.JSONEq(t, `{"level":"warning","message":"careful","details":["a"]}`, buf.String())
}

func TestLevel(t *testing.T) {
	assert.Equal(t, "level(9)", Level(9).String())
	assert.Equal(t, "?", Level(9).Icon())
	text, err := LevelInfo.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "info", string(text))
}
