package sightline

import (
	"slices"
	"sync"

	"github.com/agentstation/sightline/pkg/reconcile"
)

type (
	// AnalysisCompleteHook receives the result of every finished run.
	AnalysisCompleteHook func(result *reconcile.Result)

	// SourceFailedHook receives each file that failed within a run,
	// before the run's AnalysisCompleteHooks fire.
	SourceFailedHook func(runID string, report reconcile.FileReport)
)

// hooks is the reconcile.Observer behind OnAnalysisComplete and
// OnSourceFailed. Hooks run on the analyzing goroutine, in registration
// order, and may register further hooks.
type hooks struct {
	mu       sync.Mutex
	complete []AnalysisCompleteHook
	failed   []SourceFailedHook
}

func (h *hooks) OnAnalysisComplete(fn AnalysisCompleteHook) {
	h.mu.Lock()
	h.complete = append(h.complete, fn)
	h.mu.Unlock()
}

func (h *hooks) OnSourceFailed(fn SourceFailedHook) {
	h.mu.Lock()
	h.failed = append(h.failed, fn)
	h.mu.Unlock()
}

// ObserveRun implements reconcile.Observer.
func (h *hooks) ObserveRun(result *reconcile.Result) {
	h.mu.Lock()
	complete, failed := slices.Clone(h.complete), slices.Clone(h.failed)
	h.mu.Unlock()

	if len(failed) > 0 {
		for _, report := range result.Files {
			if !report.Failed() {
				continue
			}
			for _, fn := range failed {
				fn(result.RunID, report)
			}
		}
	}
	for _, fn := range complete {
		fn(result)
	}
}
