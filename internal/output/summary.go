package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"sitegate/internal/report"
)

// SummarySink renders a Markdown run summary (--summary) on Close.
type SummarySink struct {
	path     string
	file     *os.File
	mu       sync.Mutex
	results  []report.CheckResult
	run      *report.RunReport
	started  *Event
	exitCode int
	haveExit bool
}

func NewSummarySink(path string) (*SummarySink, error) {
	if path == "" {
		return nil, fmt.Errorf("summary path required")
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create summary directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create summary file: %w", err)
	}

	return &SummarySink{path: path, file: f}, nil
}

func (s *SummarySink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case report.CheckResult:
		s.results = append(s.results, t)
	case report.RunReport:
		s.run = &t
	case Event:
		switch t.Type {
		case EventRunStarted:
			s.started = &t
		case EventRunFinished:
			s.exitCode = t.ExitCode
			s.haveExit = true
		}
	}
	return nil
}

func (s *SummarySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run := s.run
	if run == nil {
		// No finalized report: summarize what streamed in.
		r := report.RunReport{Results: s.results}
		if s.started != nil {
			r.RunID, r.Kind, r.Target = s.started.RunID, s.started.Kind, s.started.Target
		}
		r.Summary = r.Recompute()
		run = &r
	}
	exit := report.ExitCode(*run)
	if s.haveExit {
		exit = s.exitCode
	}

	_, err := s.file.WriteString(RenderSummary(*run, exit))
	if closeErr := s.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// RenderSummary renders a run report as Markdown.
func RenderSummary(r report.RunReport, exitCode int) string {
	var b strings.Builder
	sum := r.Summary

	b.WriteString("# Sitegate Run Summary\n\n")
	fmt.Fprintf(&b, "- **Run:** `%s` (%s)\n", r.RunID, r.Kind)
	fmt.Fprintf(&b, "- **Target:** %s\n", r.Target)
	if !r.StartedAt.IsZero() {
		fmt.Fprintf(&b, "- **Started:** %s\n", r.StartedAt.Format(time.RFC3339))
	}
	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "- **Finished:** %s\n", r.FinishedAt.Format(time.RFC3339))
		fmt.Fprintf(&b, "- **Duration:** %s\n", r.Duration().Round(time.Millisecond))
	}
	fmt.Fprintf(&b, "- **Exit code:** %d\n\n", exitCode)

	b.WriteString("## Gate Status\n\n")
	if sum.GatePass {
		b.WriteString("**PASS**: no P0 check failed.\n\n")
	} else {
		fmt.Fprintf(&b, "**FAIL**: %d of %d P0 checks failed.\n\n", sum.BlockingFailed, sum.Blocking)
	}
	if r.Aborted {
		fmt.Fprintf(&b, "> Run aborted: %s\n\n", escapeCell(r.AbortReason))
	}

	b.WriteString("| Total | Failed | P0 | P0 failed | Page errors | Console errors |\n")
	b.WriteString("| ---: | ---: | ---: | ---: | ---: | ---: |\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %d |\n\n",
		sum.Total, sum.Failed, sum.Blocking, sum.BlockingFailed, sum.PageErrors, sum.ConsoleErrors)

	cats := computeCategoryStats(r.Results)
	b.WriteString("## Categories\n\n")
	if len(cats) == 0 {
		b.WriteString("No checks ran.\n\n")
	} else {
		b.WriteString("| Category | Checks | Failed | P0 failed | Failing checks |\n")
		b.WriteString("| --- | ---: | ---: | ---: | --- |\n")
		for _, c := range cats {
			fmt.Fprintf(&b, "| %s | %d | %d | %d | %s |\n",
				escapeCell(c.Name), c.Checks, c.Failed, c.BlockingFailed, formatNameList(c.FailingChecks, 3))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Failed Checks\n\n")
	failed := failedResults(r.Results)
	if len(failed) == 0 {
		b.WriteString("None.\n\n")
	} else {
		b.WriteString("| Priority | Category | Check | Details |\n")
		b.WriteString("| --- | --- | --- | --- |\n")
		for _, f := range failed {
			fmt.Fprintf(&b, "| %s | %s | `%s` | %s |\n", f.Priority, escapeCell(f.Category), f.Name, escapeCell(f.Details))
		}
		b.WriteString("\n")
	}

	writeErrorList(&b, "Page Errors", r.PageErrors)
	writeErrorList(&b, "Console Errors", r.ConsoleErrors)

	if len(r.ElementPresence) > 0 {
		b.WriteString("## Element Presence\n\n")
		b.WriteString("| Element | Present |\n")
		b.WriteString("| --- | --- |\n")
		for _, id := range sortedKeys(r.ElementPresence) {
			fmt.Fprintf(&b, "| `%s` | %t |\n", id, r.ElementPresence[id])
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeErrorList(b *strings.Builder, title string, errs []string) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s (%d)\n\n", title, len(errs))
	limit := min(len(errs), maxListedErrors)
	for _, e := range errs[:limit] {
		fmt.Fprintf(b, "- %s\n", escapeCell(e))
	}
	if len(errs) > limit {
		fmt.Fprintf(b, "- ... %d more\n", len(errs)-limit)
	}
	b.WriteString("\n")
}
