package output

import (
	"fmt"
	"sort"
	"strings"

	"sitegate/internal/report"
)

// maxListedErrors caps page/console error lists in the Markdown summary.
const maxListedErrors = 20

type categoryStats struct {
	Name           string
	Checks         int
	Failed         int
	BlockingFailed int
	FailingChecks  []string
}

// computeCategoryStats groups results by category. Categories with blocking
// failures sort first, then by failure count, then by name.
func computeCategoryStats(results []report.CheckResult) []*categoryStats {
	byName := make(map[string]*categoryStats)
	for _, r := range results {
		cs, ok := byName[r.Category]
		if !ok {
			cs = &categoryStats{Name: r.Category}
			byName[r.Category] = cs
		}
		cs.Checks++
		if r.Passed {
			continue
		}
		cs.Failed++
		if r.Priority.Blocking() {
			cs.BlockingFailed++
		}
		cs.FailingChecks = append(cs.FailingChecks, r.Name)
	}

	out := make([]*categoryStats, 0, len(byName))
	for _, cs := range byName {
		out = append(out, cs)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BlockingFailed != out[j].BlockingFailed {
			return out[i].BlockingFailed > out[j].BlockingFailed
		}
		if out[i].Failed != out[j].Failed {
			return out[i].Failed > out[j].Failed
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// failedResults returns failures with blocking ones first, keeping run order otherwise.
func failedResults(results []report.CheckResult) []report.CheckResult {
	var out []report.CheckResult
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Blocking() && !out[j].Priority.Blocking()
	})
	return out
}

// escapeCell makes s safe inside a Markdown table cell.
func escapeCell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

func formatNameList(names []string, max int) string {
	if len(names) == 0 {
		return "-"
	}
	quoted := make([]string, 0, len(names))
	for _, n := range names {
		quoted = append(quoted, "`"+n+"`")
	}
	if len(quoted) <= max {
		return strings.Join(quoted, ", ")
	}
	return fmt.Sprintf("%s, +%d more", strings.Join(quoted[:max], ", "), len(quoted)-max)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
