package report

import (
	"fmt"
	"time"
)

const (
	KindMatrix = "matrix"
	KindNative = "native"
)

// RunReport is one finalized execution of the probe runner.
type RunReport struct {
	RunID           string          `json:"run_id"`
	Kind            string          `json:"kind"`
	Target          string          `json:"target"`
	StartedAt       time.Time       `json:"started_at"`
	FinishedAt      time.Time       `json:"finished_at"`
	Results         []CheckResult   `json:"results"`
	PageErrors      []string        `json:"page_errors"`
	ConsoleErrors   []string        `json:"console_errors"`
	ElementPresence map[string]bool `json:"element_presence,omitempty"`
	Aborted         bool            `json:"aborted,omitempty"`
	AbortReason     string          `json:"abort_reason,omitempty"`
	Summary         Summary         `json:"summary"`
}

func (r RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Recompute derives the summary from the stored results.
func (r RunReport) Recompute() Summary {
	return Summarize(r.Results, len(r.PageErrors), len(r.ConsoleErrors))
}

// Audit recomputes the summary of a persisted report and returns an error
// describing the first mismatch with the stored block.
func Audit(r RunReport) (Summary, error) {
	got := r.Recompute()
	if got != r.Summary {
		return got, fmt.Errorf("stored summary %+v does not match recomputed %+v", r.Summary, got)
	}
	return got, nil
}
