// Package gaps turns the latest native and matrix reports into a checklist of
// element ids that the editor still has to create.
package gaps

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"sitegate/internal/mapping"
	"sitegate/internal/report"
)

// UnknownType is shown for ids that the mapping document does not describe.
const UnknownType = "Unknown"

const missingMarker = "Missing IDs:"

var (
	idCategories = map[string]bool{
		"navigation": true,
		"hero_cta":   true,
		"forms":      true,
		"repeaters":  true,
	}
	idLikeName = regexp.MustCompile(`^(nav|btn|input|repeater|txt)[A-Za-z0-9_]+$`)
)

// Collect returns the sorted ids reported missing by either report. Both
// arguments may be nil.
func Collect(native, matrix *report.RunReport) []string {
	missing := map[string]bool{}
	if native != nil {
		for id, present := range native.ElementPresence {
			if !present {
				missing[id] = true
			}
		}
	}
	if matrix != nil {
		for _, r := range matrix.Results {
			if r.Passed || !idCategories[r.Category] {
				continue
			}
			if _, tail, ok := strings.Cut(r.Details, missingMarker); ok {
				for _, part := range strings.Split(tail, ",") {
					if id := strings.TrimSpace(part); id != "" {
						missing[id] = true
					}
				}
			}
			if strings.HasSuffix(r.Name, "_presence") {
				continue
			}
			if idLikeName.MatchString(r.Name) {
				missing[r.Name] = true
			}
		}
	}

	ids := make([]string, 0, len(missing))
	for id := range missing {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Row is one checklist line.
type Row struct {
	ID          string
	ElementType string
	Description string
}

// Rows joins ids with their mapping entries.
func Rows(ids []string, table mapping.Table) []Row {
	rows := make([]Row, 0, len(ids))
	for _, id := range ids {
		e, ok := table[id]
		row := Row{ID: id, ElementType: UnknownType}
		if ok {
			row.ElementType = e.ElementType
			row.Description = e.Description
		}
		rows = append(rows, row)
	}
	return rows
}

// Sources names the reports a checklist was built from. Empty paths render
// as "none".
type Sources struct {
	Native string
	Matrix string
}

// Render produces the markdown checklist.
func Render(src Sources, ids []string, table mapping.Table) string {
	var b strings.Builder
	b.WriteString("# Native Element Gap Checklist\n\n")
	b.WriteString("Generated from the latest native and matrix reports.\n\n")
	fmt.Fprintf(&b, "- Native report: %s\n", orNone(src.Native))
	fmt.Fprintf(&b, "- Matrix report: %s\n\n", orNone(src.Matrix))

	if len(ids) == 0 {
		b.WriteString("✅ No missing IDs detected in the latest reports.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "## Missing IDs (%d)\n\n", len(ids))
	b.WriteString("| Wix ID | Element Type | Description |\n")
	b.WriteString("|---|---|---|\n")
	for _, r := range Rows(ids, table) {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", r.ID, r.ElementType, r.Description)
	}
	b.WriteString("\n## Editor Action\n")
	b.WriteString("1. Open the Home page in the editor (native elements only).\n")
	b.WriteString("2. Create each missing element and assign the exact ID.\n")
	b.WriteString("3. Publish.\n")
	b.WriteString("4. Re-run `sitegate release`.\n")
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
