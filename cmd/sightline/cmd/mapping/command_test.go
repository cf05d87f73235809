package mapping

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/agentstation/utc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/sightline/cmd/application"
	"github.com/agentstation/sightline/internal/store"
	"github.com/agentstation/sightline/pkg/errors"
	"github.com/agentstation/sightline/pkg/inventory"
	"github.com/agentstation/sightline/pkg/logging"
)

const adExport = "Name,LastLogon\nCORP\\PC01,15/06/2024\nCORP\\PC02,03/01/2024\n"

type fixture struct {
	st   *store.Memory
	app  *application.Mock
	file string
}

func newFixture(t *testing.T, format string) *fixture {
	t.Helper()
	logging.DisableLoggingForTest(t)
	st := store.NewMemory()
	file := filepath.Join(t.TempDir(), "ad.csv")
	require.NoError(t, os.WriteFile(file, []byte(adExport), 0o644))
	return &fixture{
		st: st,
		app: &application.Mock{
			StoreFunc:        func() (store.Store, error) { return st, nil },
			OutputFormatFunc: func() string { return format },
		},
		file: file,
	}
}

func (f *fixture) execute(args ...string) (string, error) {
	cmd := NewCommand(f.app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSetShowDelete(t *testing.T) {
	f := newFixture(t, "json")

	out, err := f.execute("set", f.file, "--name-column", "Name", "--date-column", "LastLogon")
	require.NoError(t, err)
	assert.Contains(t, out, "Mapping for ad.csv stored")

	key := store.Key("ad.csv", []byte(adExport))
	m, err := f.st.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, inventory.Mapping{NameColumn: "Name", DateColumn: "LastLogon"}, m)

	out, err = f.execute("show", f.file)
	require.NoError(t, err)
	var entry store.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entry))
	assert.Equal(t, key, entry.Key)
	assert.Equal(t, "ad.csv", entry.FileName)
	assert.False(t, entry.UpdatedAt.IsZero())

	_, err = f.execute("delete", f.file)
	require.NoError(t, err)
	_, err = f.execute("show", f.file)
	assert.True(t, errors.IsNotFound(err))
}

func TestSet_Validation(t *testing.T) {
	f := newFixture(t, "table")

	_, err := f.execute("set", f.file, "--name-column", "Hostname")
	assert.True(t, errors.IsValidationError(err))

	_, err = f.execute("set", f.file)
	assert.Error(t, err, "name column is required")
}

func TestDelete_ByKey(t *testing.T) {
	f := newFixture(t, "table")
	require.NoError(t, f.st.Put(context.Background(), "old.csv:abc", inventory.Mapping{NameColumn: "Host"}))

	out, err := f.execute("delete", "old.csv:abc")
	require.NoError(t, err)
	assert.Contains(t, out, "Mapping for old.csv deleted")

	_, err = f.execute("delete", "old.csv:abc")
	assert.True(t, errors.IsNotFound(err))
}

func TestList(t *testing.T) {
	f := newFixture(t, "json")
	out, err := f.execute("list")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	require.NoError(t, f.st.Put(context.Background(), store.Key("ad.csv", []byte(adExport)), inventory.Mapping{NameColumn: "Name"}))

	f.app.OutputFormatFunc = func() string { return "table" }
	out, err = f.execute()
	require.NoError(t, err)
	assert.Contains(t, out, "ad.csv")
	assert.Contains(t, out, "Name")
}

func TestHistory(t *testing.T) {
	f := newFixture(t, "json")
	require.NoError(t, f.st.SaveSummaries(context.Background(), []store.Summary{
		{FileName: "ad.csv", TotalLines: 2, UniqueMachines: 2, AnalyzedAt: utc.Now()},
	}))

	out, err := f.execute("history")
	require.NoError(t, err)
	var got []store.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].UniqueMachines)
}
