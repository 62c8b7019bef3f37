package report

import "unicode/utf8"

// Priority marks whether a failed check blocks the release gate.
type Priority string

const (
	PriorityBlocking Priority = "P0"
	PriorityAdvisory Priority = "P1"
)

// Blocking reports whether a failure of this priority fails the gate.
// Anything that is not explicitly advisory is treated as blocking.
func (p Priority) Blocking() bool {
	return p != PriorityAdvisory
}

// MaxDetailsLen bounds CheckResult.Details (in runes).
const MaxDetailsLen = 300

type CheckResult struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Priority Priority `json:"priority"`
	Passed   bool     `json:"passed"`
	Details  string   `json:"details,omitempty"`
	// Evidence holds primitive auxiliary data (URLs before/after, counts, viewport).
	Evidence Evidence `json:"evidence,omitempty"`
}

func NewResult(name, category string, priority Priority, passed bool, details string) CheckResult {
	return CheckResult{
		Name:     name,
		Category: category,
		Priority: priority,
		Passed:   passed,
		Details:  Truncate(details, MaxDetailsLen),
	}
}

func PassResult(name, category string, priority Priority, details string) CheckResult {
	return NewResult(name, category, priority, true, details)
}

func FailResult(name, category string, priority Priority, details string) CheckResult {
	return NewResult(name, category, priority, false, details)
}

// WithEvidence returns a copy of r with key set to v.
func (r CheckResult) WithEvidence(key string, v Value) CheckResult {
	ev := make(Evidence, len(r.Evidence)+1)
	for k, old := range r.Evidence {
		ev[k] = old
	}
	ev[key] = v
	r.Evidence = ev
	return r
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
