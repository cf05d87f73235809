package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/sightline/pkg/inventory"
	"github.com/agentstation/sightline/pkg/logging"
	"github.com/agentstation/sightline/pkg/reconcile"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestNew_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()
	a.RecordRunError()
	assert.Contains(t, scrape(t, a), `sightline_runs_total{outcome="error"} 1`)
	assert.NotContains(t, scrape(t, b), `sightline_runs_total{outcome="error"}`)
}

func TestObserveRun(t *testing.T) {
	logging.DisableLoggingForTest(t)
	m := New()

	good := inventory.NewSource("a.csv", "Name,Seen\npc01,2024-01-01\npc02,")
	good.Mapping = inventory.Mapping{NameColumn: "Name", DateColumn: "Seen"}
	bad := inventory.NewSource("b.csv", "Host\npc03")
	bad.Mapping = inventory.Mapping{NameColumn: "Name"}

	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	_, err := reconcile.Analyze(context.Background(), []*inventory.Source{good, bad}, inventory.DefaultSettings(),
		reconcile.WithClock(func() time.Time { return now }),
		reconcile.WithObserver(m))
	require.NoError(t, err)

	body := scrape(t, m)
	assert.Contains(t, body, `sightline_runs_total{outcome="partial"} 1`)
	assert.Contains(t, body, "sightline_source_failures_total 1")
	assert.Contains(t, body, "sightline_last_run_machines 2")
	assert.Contains(t, body, "sightline_last_run_disappeared 2")
	assert.Contains(t, body, "sightline_run_duration_seconds_count 1")

	_, err = reconcile.Analyze(context.Background(), nil, inventory.DefaultSettings(), reconcile.WithObserver(m))
	require.NoError(t, err)
	assert.Contains(t, scrape(t, m), `sightline_runs_total{outcome="empty"} 1`)
}

func TestNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRun(&reconcile.Result{})
		m.RecordRunError()
		m.ObserveGuess(true)
		m.SessionOpened()
		m.SessionClosed()
		m.ObserveDuration(time.Now())
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveGuess(true)
	m.SessionOpened()

	body := scrape(t, m)
	assert.Contains(t, body, `sightline_guess_requests_total{outcome="found"} 1`)
	assert.Contains(t, body, "sightline_active_sessions 1")
}
