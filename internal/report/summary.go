package report

// Summary is the release-gate view of a run. It is always derived from the
// ordered results and never edited independently.
type Summary struct {
	Total          int  `json:"total"`
	Failed         int  `json:"failed"`
	Blocking       int  `json:"blocking"`
	BlockingFailed int  `json:"blocking_failed"`
	PageErrors     int  `json:"page_errors"`
	ConsoleErrors  int  `json:"console_errors"`
	GatePass       bool `json:"gate_pass"`
}

// Summarize computes the gate summary. gate_pass holds iff no blocking check failed.
func Summarize(results []CheckResult, pageErrors, consoleErrors int) Summary {
	s := Summary{
		Total:         len(results),
		PageErrors:    pageErrors,
		ConsoleErrors: consoleErrors,
	}
	for _, r := range results {
		blocking := r.Priority.Blocking()
		if blocking {
			s.Blocking++
		}
		if r.Passed {
			continue
		}
		s.Failed++
		if blocking {
			s.BlockingFailed++
		}
	}
	s.GatePass = s.BlockingFailed == 0
	return s
}
