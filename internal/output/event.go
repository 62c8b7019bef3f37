package output

import "sitegate/internal/report"

const (
	EventRunStarted  = "run.started"
	EventCheckResult = "check.result"
	EventRunFinished = "run.finished"
)

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line), including:
// - run.started
// - check.result
// - run.finished
//
// JSON mode remains an aggregate: the final report.RunReport when one was
// written, otherwise the array of report.CheckResult values.
type Event struct {
	Type   string `json:"type"`
	RunID  string `json:"run_id,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Target string `json:"target,omitempty"`
	*report.CheckResult
	Checks      int             `json:"checks,omitempty"`
	Summary     *report.Summary `json:"summary,omitempty"`
	Aborted     bool            `json:"aborted,omitempty"`
	AbortReason string          `json:"abort_reason,omitempty"`
	ExitCode    int             `json:"exit_code,omitempty"`
}

func eventFromResult(r report.CheckResult) Event {
	return Event{Type: EventCheckResult, CheckResult: &r}
}

// RunStarted builds the run.started event for a run about to execute checks.
func RunStarted(runID, kind, target string, checks int) Event {
	return Event{Type: EventRunStarted, RunID: runID, Kind: kind, Target: target, Checks: checks}
}

// RunFinished builds the run.finished event from a finalized report.
func RunFinished(r report.RunReport) Event {
	s := r.Summary
	return Event{
		Type:        EventRunFinished,
		RunID:       r.RunID,
		Kind:        r.Kind,
		Target:      r.Target,
		Summary:     &s,
		Aborted:     r.Aborted,
		AbortReason: r.AbortReason,
		ExitCode:    report.ExitCode(r),
	}
}

// streamable maps a written value to the event streamed in NDJSON mode.
// Finalized reports are not streamed; run.finished already carries them.
func streamable(v any) (Event, bool) {
	switch t := v.(type) {
	case Event:
		return t, true
	case report.CheckResult:
		return eventFromResult(t), true
	default:
		return Event{}, false
	}
}

// aggregate collects what JSON mode sinks encode on Close.
type aggregate struct {
	results []report.CheckResult
	run     *report.RunReport
}

func (a *aggregate) add(v any) {
	switch t := v.(type) {
	case report.CheckResult:
		a.results = append(a.results, t)
	case report.RunReport:
		a.run = &t
	}
}

func (a *aggregate) value() any {
	if a.run != nil {
		return *a.run
	}
	if a.results == nil {
		return []report.CheckResult{}
	}
	return a.results
}
