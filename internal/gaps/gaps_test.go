package gaps

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitegate/internal/mapping"
	"sitegate/internal/report"
)

func failed(name, category, details string) report.CheckResult {
	return report.FailResult(name, category, report.PriorityBlocking, details)
}

func TestCollect(t *testing.T) {
	native := &report.RunReport{
		Kind:            report.KindNative,
		ElementPresence: map[string]bool{"btnLogin": true, "txtMemberCount": false},
	}
	matrix := &report.RunReport{
		Kind: report.KindMatrix,
		Results: []report.CheckResult{
			failed("contact_form_structure", "forms", "Missing IDs: inputContactName, btnSubmitContact"),
			failed("navEvents", "navigation", "Element missing"),
			failed("repeaterNews_presence", "repeaters", "exists=false, child_nodes=-1"),
			failed("desktop_overflow", "responsive", "Missing IDs: ignored"),
			failed("no_iframe_home", "layout", "iframe_count=2"),
			report.PassResult("navHome", "navigation", report.PriorityBlocking, "ok"),
		},
	}

	got := Collect(native, matrix)
	want := []string{"btnSubmitContact", "inputContactName", "navEvents", "txtMemberCount"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Collect mismatch (-want +got):\n%s", diff)
	}
}

func TestCollect_NilReports(t *testing.T) {
	assert.Empty(t, Collect(nil, nil))
}

func TestRows_UnknownPlaceholder(t *testing.T) {
	table := mapping.Table{"btnLogin": {ElementType: "Button", Description: "Header login"}}
	got := Rows([]string{"btnLogin", "btnGhost"}, table)
	want := []Row{
		{ID: "btnLogin", ElementType: "Button", Description: "Header login"},
		{ID: "btnGhost", ElementType: UnknownType, Description: ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Rows mismatch (-want +got):\n%s", diff)
	}
}

func TestRender(t *testing.T) {
	md := Render(Sources{Native: "n.json"}, []string{"btnGhost"}, mapping.Table{})
	assert.Contains(t, md, "- Native report: n.json")
	assert.Contains(t, md, "- Matrix report: none")
	assert.Contains(t, md, "## Missing IDs (1)")
	assert.Contains(t, md, "| btnGhost | Unknown |  |")
	assert.Contains(t, md, "## Editor Action")

	md = Render(Sources{}, nil, nil)
	assert.Contains(t, md, "No missing IDs detected")
	assert.NotContains(t, md, "## Editor Action")
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	reports := filepath.Join(dir, "agent_reports")
	out := filepath.Join(dir, "release_signoff")
	mapFile := filepath.Join(dir, "map.md")
	require.NoError(t, os.WriteFile(mapFile, []byte("| Element Type | Wix ID | Description |\n|---|---|---|\n| Text | `txtMemberCount` | Member counter |\n"), 0o644))

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	native := report.NewAccumulator(report.KindNative, "https://example.com", now).
		WithPresence("txtMemberCount", false).
		Finalize(now, nil)
	_, err := report.Save(reports, native)
	require.NoError(t, err)

	res, err := Generate(reports, out, mapFile, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"txtMemberCount"}, res.Missing)
	assert.Empty(t, res.Sources.Matrix)
	assert.True(t, strings.HasPrefix(filepath.Base(res.Path), report.PrefixGap+"_20260301_120000"))

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "| txtMemberCount | Text | Member counter |")
}

func TestGenerate_NoReports(t *testing.T) {
	_, err := Generate(t.TempDir(), t.TempDir(), "missing.md", time.Now())
	assert.True(t, errors.Is(err, ErrNoReports))
}
