package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sitegate/internal/report"
)

func TestRenderSummary(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	results := []report.CheckResult{
		report.PassResult("navHome", "navigation", report.PriorityBlocking, "ok"),
		report.FailResult("navEvents", "navigation", report.PriorityBlocking, "expected path contains '/events' | final URL=https://x/"),
		report.FailResult("btnLogin_clickable", "smoke", report.PriorityAdvisory, "Click failed"),
	}
	run := report.RunReport{
		RunID:           "run-1",
		Kind:            report.KindNative,
		Target:          "https://example.com",
		StartedAt:       start,
		FinishedAt:      start.Add(90 * time.Second),
		Results:         results,
		ConsoleErrors:   []string{"TypeError: x is undefined"},
		ElementPresence: map[string]bool{"btnLogin": true, "btnRegister": false},
	}
	run.Summary = run.Recompute()

	md := RenderSummary(run, report.ExitCode(run))
	for _, want := range []string{
		"# Sitegate Run Summary",
		"- **Run:** `run-1` (native)",
		"- **Duration:** 1m30s",
		"- **Exit code:** 2",
		"**FAIL**: 1 of 2 P0 checks failed.",
		"| 3 | 2 | 2 | 1 | 0 | 1 |",
		"| navigation | 2 | 1 | 1 | `navEvents` |",
		`'/events' \| final URL`,
		"## Console Errors (1)",
		"| `btnRegister` | false |",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("summary missing %q:\n%s", want, md)
		}
	}

	// Blocking failures are listed before advisory ones.
	if strings.Index(md, "`navEvents` | expected") > strings.Index(md, "`btnLogin_clickable` | Click failed") {
		t.Fatalf("blocking failures should come first:\n%s", md)
	}
	if strings.Contains(md, "## Page Errors") {
		t.Fatalf("empty page error list should be omitted:\n%s", md)
	}
}

func TestRenderSummary_PassingAndAborted(t *testing.T) {
	run := report.RunReport{RunID: "r", Kind: report.KindMatrix}
	run.Summary = run.Recompute()
	md := RenderSummary(run, 0)
	if !strings.Contains(md, "**PASS**") || !strings.Contains(md, "No checks ran.") || !strings.Contains(md, "None.") {
		t.Fatalf("unexpected passing summary:\n%s", md)
	}

	run.Aborted = true
	run.AbortReason = "open page: connection refused"
	md = RenderSummary(run, report.ExitRuntimeError)
	if !strings.Contains(md, "> Run aborted: open page: connection refused") {
		t.Fatalf("abort reason missing:\n%s", md)
	}
}

func TestSummarySink_WritesOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "summary.md")
	s, err := NewSummarySink(path)
	if err != nil {
		t.Fatalf("NewSummarySink failed: %v", err)
	}

	_ = s.Write(RunStarted("run-7", report.KindMatrix, "https://example.com", 1))
	_ = s.Write(report.FailResult("navEvents", "navigation", report.PriorityBlocking, "Element not found"))
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	md := string(b)
	if !strings.Contains(md, "`run-7` (matrix)") || !strings.Contains(md, "- **Exit code:** 2") {
		t.Fatalf("summary built from streamed results is wrong:\n%s", md)
	}
}

func TestComputeCategoryStats_Order(t *testing.T) {
	stats := computeCategoryStats([]report.CheckResult{
		report.PassResult("a", "layout", report.PriorityBlocking, ""),
		report.FailResult("b", "smoke", report.PriorityAdvisory, ""),
		report.FailResult("c", "forms", report.PriorityBlocking, ""),
		report.FailResult("d", "smoke", report.PriorityAdvisory, ""),
	})
	var names []string
	for _, s := range stats {
		names = append(names, s.Name)
	}
	if got := strings.Join(names, ","); got != "forms,smoke,layout" {
		t.Fatalf("category order mismatch: %s", got)
	}
}

func TestFormatNameList(t *testing.T) {
	if got := formatNameList(nil, 3); got != "-" {
		t.Fatalf("empty list: %q", got)
	}
	got := formatNameList([]string{"a", "b", "c", "d", "e"}, 3)
	if got != "`a`, `b`, `c`, +2 more" {
		t.Fatalf("long list: %q", got)
	}
}
