// Package mapping reads the element id mapping document, a markdown file
// whose tables list `| Element Type | Wix ID | Description |` rows and whose
// prose names ids in backticks.
package mapping

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

type Entry struct {
	ElementType string `json:"element_type"`
	Description string `json:"description"`
}

// Table maps element ids to their documented type and description.
type Table map[string]Entry

var backtickID = regexp.MustCompile("`([A-Za-z][A-Za-z0-9_]*)`")

// ParseTable collects table rows keyed by their second column. Header and
// separator rows are skipped; backticks around the id are stripped. A later
// row for the same id wins.
func ParseTable(text string) Table {
	rows := Table{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") {
			continue
		}
		parts := strings.Split(strings.Trim(line, "|"), "|")
		if len(parts) < 3 {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		id := strings.Trim(parts[1], "`")
		if id == "" || strings.EqualFold(id, "wix id") || strings.Trim(id, "-: ") == "" {
			continue
		}
		rows[id] = Entry{ElementType: parts[0], Description: parts[2]}
	}
	return rows
}

// ExtractIDs returns every backticked identifier in text, first occurrence
// order, without duplicates.
func ExtractIDs(text string) []string {
	seen := map[string]bool{}
	var ids []string
	for _, m := range backtickID.FindAllStringSubmatch(text, -1) {
		id := m[1]
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// ReadFile loads the mapping document at path.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read mapping %s: %w", path, err)
	}
	return string(data), nil
}
