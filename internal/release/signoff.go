package release

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const signoffTimeLayout = "2006-01-02 15:04:05"

// RenderSignoff produces the human-readable sign-off summary.
func RenderSignoff(r Record) string {
	var b strings.Builder
	b.WriteString("# Release Sign-Off Summary\n\n")
	if r.Target != "" {
		fmt.Fprintf(&b, "- Target: %s\n", r.Target)
	}
	fmt.Fprintf(&b, "- Started: %s\n", r.StartedAt.Local().Format(signoffTimeLayout))
	fmt.Fprintf(&b, "- Finished: %s\n", r.FinishedAt.Local().Format(signoffTimeLayout))
	fmt.Fprintf(&b, "- Duration: %s\n\n", seconds(r.FinishedAt.Sub(r.StartedAt)))

	b.WriteString("## Pipeline Steps\n")
	for _, s := range r.Stages {
		fmt.Fprintf(&b, "- %s: exit `%d` (%s)", title(s.Name), s.ExitCode, s.Status)
		if s.Error != "" {
			fmt.Fprintf(&b, " error: %s", s.Error)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("## Gate Status\n")
	for _, s := range r.Stages {
		fmt.Fprintf(&b, "- %s P0 gate pass: `%t`\n", title(s.Name), s.GatePass)
	}
	status := "FAIL"
	if r.ReleaseOK {
		status = "PASS"
	}
	fmt.Fprintf(&b, "- Final release status: `%s`\n", status)
	if r.CommitStatus != "" {
		fmt.Fprintf(&b, "- Commit status: `%s`\n", r.CommitStatus)
	}
	b.WriteString("\n")

	for _, s := range r.Stages {
		if s.Summary == nil {
			continue
		}
		data, err := json.MarshalIndent(s.Summary, "", "  ")
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "## %s Summary\n```json\n%s\n```\n\n", title(s.Name), data)
	}

	b.WriteString("## Artifacts\n")
	for _, s := range r.Stages {
		fmt.Fprintf(&b, "- %s report: `%s`\n", title(s.Name), orNone(s.ReportPath))
	}
	if r.GapChecklist != "" {
		fmt.Fprintf(&b, "- Native ID gap checklist: `%s`\n", r.GapChecklist)
	}
	return b.String()
}

func seconds(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return strconv.FormatFloat(d.Seconds(), 'f', 2, 64) + "s"
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
