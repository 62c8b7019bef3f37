package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"sitegate/internal/report"
)

const (
	markPass = "✅"
	markFail = "❌"
)

var (
	passColor     = color.New(color.FgGreen)
	failColor     = color.New(color.FgRed, color.Bold)
	advisoryColor = color.New(color.FgYellow)
	dimColor      = color.New(color.Faint)
)

type ConsoleSink struct {
	writer  io.Writer
	format  string // "text", "json", "ndjson"
	mu      sync.Mutex
	agg     aggregate
	allowed map[string]bool // "pass" / "fail"
}

func NewConsoleSink(w io.Writer, format string, filter []string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}

	s := &ConsoleSink{
		writer: w,
		format: format,
	}

	if len(filter) > 0 {
		s.allowed = make(map[string]bool)
		for _, f := range filter {
			s.allowed[strings.ToLower(strings.TrimSpace(f))] = true
		}
	}

	return s
}

func outcome(r report.CheckResult) string {
	if r.Passed {
		return "pass"
	}
	return "fail"
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(v)
}

func (s *ConsoleSink) writeLocked(v any) error {
	if len(s.allowed) > 0 {
		if r, ok := v.(report.CheckResult); ok && !s.allowed[outcome(r)] {
			return nil
		}
	}

	switch s.format {
	case "json":
		s.agg.add(v)
		return nil
	case "ndjson":
		e, ok := streamable(v)
		if !ok {
			return nil
		}
		if err := json.NewEncoder(s.writer).Encode(e); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	case "text":
		switch t := v.(type) {
		case report.CheckResult:
			if _, err := fmt.Fprintln(s.writer, FormatResult(t)); err != nil {
				return err
			}
		case report.RunReport:
			if err := writeFooter(s.writer, t); err != nil {
				return err
			}
		default:
			// Lifecycle events are not rendered in text mode.
			return nil
		}
		return flushIfPossible(s.writer)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

// FormatResult renders one result as "✅ [P0] category :: name -> details".
func FormatResult(r report.CheckResult) string {
	mark, c := markPass, passColor
	if !r.Passed {
		mark, c = markFail, failColor
		if !r.Priority.Blocking() {
			c = advisoryColor
		}
	}
	line := fmt.Sprintf("%s [%s] %s :: %s", mark, r.Priority, r.Category, c.Sprint(r.Name))
	if r.Details != "" {
		line += " -> " + r.Details
	}
	return line
}

func writeFooter(w io.Writer, r report.RunReport) error {
	s := r.Summary
	gate := passColor.Sprint("PASS")
	if !s.GatePass {
		gate = failColor.Sprint("FAIL")
	}
	lines := []string{
		"",
		dimColor.Sprintf("run %s (%s) %s", r.RunID, r.Kind, r.Target),
		fmt.Sprintf("Total: %d  Failed: %d  P0 failed: %d/%d  Page errors: %d  Console errors: %d",
			s.Total, s.Failed, s.BlockingFailed, s.Blocking, s.PageErrors, s.ConsoleErrors),
	}
	if r.Aborted {
		lines = append(lines, failColor.Sprint("Aborted: ")+r.AbortReason)
	}
	lines = append(lines, "P0 gate: "+gate)
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		encoder := json.NewEncoder(s.writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(s.agg.value()); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	}
	if s.format != "text" && s.format != "ndjson" {
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
	return nil
}
