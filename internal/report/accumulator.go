package report

import (
	"time"

	"github.com/google/uuid"
)

// Accumulator is the in-progress state of a run. It is a value: With returns
// a new Accumulator and leaves the receiver untouched, so a fold over checks
// never shares mutable state.
type Accumulator struct {
	runID       string
	kind        string
	target      string
	startedAt   time.Time
	results     []CheckResult
	presence    map[string]bool
	aborted     bool
	abortReason string
}

func NewAccumulator(kind, target string, startedAt time.Time) Accumulator {
	return Accumulator{
		runID:     uuid.NewString(),
		kind:      kind,
		target:    target,
		startedAt: startedAt,
	}
}

func (a Accumulator) RunID() string { return a.runID }
func (a Accumulator) Len() int { return len(a.results) }
func (a Accumulator) Results() []CheckResult { return append([]CheckResult(nil), a.results...) }
func (a Accumulator) Aborted() bool { return a.aborted }
func (a Accumulator) StartedAt() time.Time { return a.startedAt }
func (a Accumulator) Summary() Summary { return Summarize(a.results, 0, 0) }

// With appends one result.
func (a Accumulator) With(r CheckResult) Accumulator {
	r.Details = Truncate(r.Details, MaxDetailsLen)
	next := make([]CheckResult, len(a.results), len(a.results)+1)
	copy(next, a.results)
	a.results = append(next, r)
	return a
}

// WithPresence records whether an element id was found on the target.
func (a Accumulator) WithPresence(id string, present bool) Accumulator {
	next := make(map[string]bool, len(a.presence)+1)
	for k, v := range a.presence {
		next[k] = v
	}
	next[id] = present
	a.presence = next
	return a
}

// Abort marks the run as terminated by an infrastructure failure and appends
// the synthetic runtime_exception result.
func (a Accumulator) Abort(reason string) Accumulator {
	a = a.With(FailResult("runtime_exception", "runner", PriorityBlocking, reason))
	a.aborted = true
	a.abortReason = Truncate(reason, MaxDetailsLen)
	return a
}

// Finalize stamps the finish time and computes the summary. diag may be nil.
func (a Accumulator) Finalize(finishedAt time.Time, diag *Diagnostics) RunReport {
	pageErrs, consoleErrs := diag.Snapshot()
	results := a.Results()
	if results == nil {
		results = []CheckResult{}
	}
	var presence map[string]bool
	if len(a.presence) > 0 {
		presence = make(map[string]bool, len(a.presence))
		for k, v := range a.presence {
			presence[k] = v
		}
	}
	return RunReport{
		RunID:           a.runID,
		Kind:            a.kind,
		Target:          a.target,
		StartedAt:       a.startedAt,
		FinishedAt:      finishedAt,
		Results:         results,
		PageErrors:      pageErrs,
		ConsoleErrors:   consoleErrs,
		ElementPresence: presence,
		Aborted:         a.aborted,
		AbortReason:     a.abortReason,
		Summary:         Summarize(results, len(pageErrs), len(consoleErrs)),
	}
}
