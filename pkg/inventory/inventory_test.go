package inventory_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/sightline/pkg/errors"
	"github.com/agentstation/sightline/pkg/inventory"
	"github.com/agentstation/sightline/pkg/logging"
	"github.com/agentstation/sightline/pkg/records"
)

func settings(caseSensitive bool) inventory.Settings {
	s := inventory.DefaultSettings()
	s.CaseSensitive = caseSensitive
	s.Location = time.UTC
	return s
}

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		raw           string
		caseSensitive bool
		name, domain  string
	}{
		{`CORP\PC01`, false, "pc01", "corp"},
		{`CORP\PC01`, true, "PC01", "CORP"},
		{`CORP\sub\PC01`, false, `sub\pc01`, "corp"},
		{"PC01.corp.example.com", false, "pc01", "corp.example.com"},
		{`CORP\pc.01`, false, "pc.01", "corp"},
		{"/PC01/", false, "pc01", ""},
		{"//PC01", false, "/pc01", ""},
		{"PC01", true, "PC01", ""},
		{"", false, "unknown", ""},
	}
	for _, tt := range tests {
		name, domain := inventory.CanonicalName(tt.raw, tt.caseSensitive)
		assert.Equal(t, tt.name, name, tt.raw)
		assert.Equal(t, tt.domain, domain, tt.raw)
	}
}

func TestCanonicalName_Idempotent(t *testing.T) {
	for _, raw := range []string{"PC01", "/Pc02/", "WKS-9", "Laptop_X"} {
		for _, cs := range []bool{false, true} {
			once, _ := inventory.CanonicalName(raw, cs)
			twice, _ := inventory.CanonicalName(once, cs)
			assert.Equal(t, once, twice, raw)
		}
	}
}

func TestCanonicalName_CaseSensitivityOnlySplits(t *testing.T) {
	raws := []string{"PC01", "pc01", "Pc01", "PC02", `CORP\PC03`, `corp\pc03`}
	insensitive := map[string]string{}
	sensitive := map[string]string{}
	for _, raw := range raws {
		ci, _ := inventory.CanonicalName(raw, false)
		cs, _ := inventory.CanonicalName(raw, true)
		insensitive[raw] = ci
		sensitive[raw] = cs
	}
	// Two raws distinct when folded must stay distinct when not folded.
	for _, a := range raws {
		for _, b := range raws {
			if insensitive[a] != insensitive[b] {
				assert.NotEqual(t, sensitive[a], sensitive[b], "%s vs %s", a, b)
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	ctx := context.Background()
	row := records.Row{"Host": `CORP\PC01`, "Seen": "15/01/2024", "Iso": "2024-01-15T08:00:00Z"}

	t.Run("explicit format", func(t *testing.T) {
		m := inventory.Mapping{NameColumn: "Host", DateColumn: "Seen", DateFormat: "dd/MM/yyyy"}
		rec := inventory.Normalize(ctx, row, m, "a.csv", settings(false))
		assert.Equal(t, "pc01", rec.Name)
		assert.Equal(t, "corp", rec.Domain)
		assert.Equal(t, "a.csv", rec.SourceFile)
		assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), rec.LastSeen)
		assert.True(t, rec.Dated())
		assert.Equal(t, row, rec.Raw)
	})

	t.Run("generic parse", func(t *testing.T) {
		m := inventory.Mapping{NameColumn: "Host", DateColumn: "Iso"}
		rec := inventory.Normalize(ctx, row, m, "a.csv", settings(false))
		assert.Equal(t, time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC), rec.LastSeen.UTC())
	})

	t.Run("no date column", func(t *testing.T) {
		for _, col := range []string{"", "none", "NONE"} {
			m := inventory.Mapping{NameColumn: "Host", DateColumn: col, DateFormat: "dd/MM/yyyy"}
			rec := inventory.Normalize(ctx, row, m, "a.csv", settings(false))
			assert.False(t, rec.Dated(), col)
			assert.Equal(t, "pc01", rec.Name, col)
		}
	})

	t.Run("bad date degrades and logs", func(t *testing.T) {
		log := logging.NewTestLogger(t)
		lctx := logging.WithLogger(ctx, log.Logger)
		m := inventory.Mapping{NameColumn: "Host", DateColumn: "Seen", DateFormat: "yyyy-MM-dd"}
		rec := inventory.Normalize(lctx, row, m, "a.csv", settings(false))
		assert.False(t, rec.Dated())
		assert.Equal(t, "pc01", rec.Name)
		log.AssertContains(t, "Unparseable date")
		log.AssertContains(t, `"value":"15/01/2024"`)
	})

	t.Run("empty date cell", func(t *testing.T) {
		m := inventory.Mapping{NameColumn: "Host", DateColumn: "Missing"}
		rec := inventory.Normalize(ctx, row, m, "a.csv", settings(false))
		assert.False(t, rec.Dated())
	})

	t.Run("empty name", func(t *testing.T) {
		m := inventory.Mapping{NameColumn: "Nope"}
		rec := inventory.Normalize(ctx, row, m, "a.csv", settings(false))
		assert.Equal(t, "unknown", rec.Name)
	})
}

func TestNormalizeSource(t *testing.T) {
	src := inventory.NewSource("a.csv", "Name,Seen\nPC01,2024-01-01\npc01,\nPC02,2024-02-01")
	assert.Nil(t, inventory.NormalizeSource(context.Background(), src, settings(false)))

	src.Mapping = inventory.Mapping{NameColumn: "Name", DateColumn: "Seen"}
	recs := inventory.NormalizeSource(context.Background(), src, settings(false))
	require.Len(t, recs, 3)
	for i, r := range recs {
		assert.Equal(t, i, r.Row)
		assert.Equal(t, "a.csv", r.SourceFile)
	}
	assert.Equal(t, []string{"pc01", "pc02"}, inventory.UniqueNames(recs))

	recs = inventory.NormalizeSource(context.Background(), src, settings(true))
	assert.Equal(t, []string{"PC01", "pc01", "PC02"}, inventory.UniqueNames(recs))
}

func TestMapping(t *testing.T) {
	headers := []string{"Name", "Seen"}

	assert.False(t, inventory.Mapping{}.Configured())
	assert.True(t, inventory.Mapping{NameColumn: "Name"}.Configured())

	assert.NoError(t, inventory.Mapping{NameColumn: "Name"}.Validate(headers))
	assert.NoError(t, inventory.Mapping{NameColumn: "Name", DateColumn: "none"}.Validate(headers))
	assert.NoError(t, inventory.Mapping{NameColumn: "Name", DateColumn: "Seen", DateFormat: "yyyy-MM-dd"}.Validate(headers))

	for _, m := range []inventory.Mapping{
		{},
		{NameColumn: "Host"},
		{NameColumn: "Name", DateColumn: "When"},
		{NameColumn: "Name", DateFormat: "yyyy"},
		{NameColumn: "Name", DateColumn: "Seen", DateFormat: "yyyy'"},
	} {
		err := m.Validate(headers)
		assert.True(t, errors.IsValidationError(err), "%+v: %v", m, err)
	}
}

func TestSettings(t *testing.T) {
	s := inventory.DefaultSettings()
	assert.Equal(t, 90, s.DisappearanceThresholdDays)
	assert.Equal(t, 90, s.StaleDays())
	assert.False(t, s.CaseSensitive)
	assert.NoError(t, s.Validate())

	s.StaleThresholdDays = 30
	assert.Equal(t, 30, s.StaleDays())
	assert.True(t, strings.Contains(s.String(), "stale=30d"))

	s.DisappearanceThresholdDays = 0
	assert.True(t, errors.IsValidationError(s.Validate()))
}

func TestSlot(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	undated := inventory.Record{Name: "pc"}
	dated := func(d int) inventory.Record { return inventory.Record{Name: "pc", LastSeen: day(d)} }

	var s inventory.Slot
	assert.True(t, s.IsAbsent())

	s = s.Observe(undated)
	assert.Equal(t, inventory.PresentNoDate(), s)

	s = s.Observe(dated(5))
	assert.Equal(t, inventory.PresentAt(day(5)), s)

	s = s.Observe(dated(3))
	assert.Equal(t, day(5), s.At, "older dates never move the slot back")

	s = s.Observe(undated)
	assert.Equal(t, inventory.PresentAt(day(5)), s, "undated rows never replace a real date")

	s = s.Observe(dated(9))
	assert.Equal(t, day(9), s.At)
}

func TestSlot_JSON(t *testing.T) {
	at := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	for _, s := range []inventory.Slot{inventory.Absent(), inventory.PresentNoDate(), inventory.PresentAt(at)} {
		data, err := json.Marshal(s)
		require.NoError(t, err)

		var back inventory.Slot
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, s.State, back.State)
		assert.True(t, s.At.Equal(back.At))
	}

	data, _ := json.Marshal(inventory.PresentNoDate())
	assert.JSONEq(t, `{"state":"present_no_date"}`, string(data))
	assert.NotContains(t, string(data), "1970")

	var bad inventory.Slot
	assert.Error(t, json.Unmarshal([]byte(`{"state":"present"}`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`{"state":"later"}`), &bad))
}
