package editor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitegate/internal/report"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// project lays out a complete local project and returns a Preflight for it.
func project(t *testing.T) Preflight {
	t.Helper()
	root := t.TempDir()
	p := Preflight{
		ProjectRoot: root,
		MappingFile: filepath.Join(root, "WIX_ELEMENT_ID_MAPPING.md"),
		HomeCode:    filepath.Join(root, "src", "pages_backup", "Home.js"),
		WixConfig:   filepath.Join(root, "wix.config.json"),
		WixCLI:      filepath.Join(root, "node_modules", ".bin", "wix"),
		Command: func(ctx context.Context, dir, name string, args ...string) (string, string, error) {
			return "Logged in as dev@example.com\n", "", nil
		},
	}
	writeFile(t, p.MappingFile, "| Button | `btnLogin` | login |\n| Text | `txtMemberCount` | count |\n")
	writeFile(t, p.HomeCode, "$w.onReady(() => {});\n")
	writeFile(t, p.WixConfig, `{"siteId": "site-123", "uiVersion": "6"}`)
	writeFile(t, p.WixCLI, "#!/bin/sh\n")
	return p
}

func resultByName(t *testing.T, results []report.CheckResult, name string) report.CheckResult {
	t.Helper()
	for _, r := range results {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("no result named %s", name)
	return report.CheckResult{}
}

func TestPreflight_AllStepsPass(t *testing.T) {
	p := project(t)
	var gotDir, gotName string
	var gotArgs []string
	p.Command = func(ctx context.Context, dir, name string, args ...string) (string, string, error) {
		gotDir, gotName, gotArgs = dir, name, args
		return "Logged in as dev@example.com\n", "", nil
	}

	out := p.Run(context.Background())
	require.True(t, out.OK)
	assert.Equal(t, "site-123", out.SiteID)
	assert.Equal(t, []string{"btnLogin", "txtMemberCount"}, out.IDs)
	assert.Equal(t, p.ProjectRoot, gotDir)
	assert.Equal(t, p.WixCLI, gotName)
	assert.Equal(t, []string{"whoami"}, gotArgs)

	var names []string
	for _, r := range out.Results {
		assert.True(t, r.Passed, r.Name)
		assert.Equal(t, CategoryPreflight, r.Category)
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{
		"preflight.site_id",
		"preflight.file.mapping",
		"preflight.file.home_code",
		"preflight.wix_auth",
		"preflight.id_inventory",
	}, names)
	assert.Equal(t, "siteId=site-123", resultByName(t, out.Results, "preflight.site_id").Details)
	assert.Equal(t, "2 IDs discovered", resultByName(t, out.Results, "preflight.id_inventory").Details)
}

func TestPreflight_SiteIDOverride(t *testing.T) {
	p := project(t)
	p.SiteID = " override-1 "
	out := p.Run(context.Background())
	assert.Equal(t, "override-1", out.SiteID)
}

func TestPreflight_ReportsEveryProblem(t *testing.T) {
	p := project(t)
	require.NoError(t, os.Remove(p.WixConfig))
	require.NoError(t, os.Remove(p.HomeCode))
	require.NoError(t, os.Remove(p.WixCLI))
	writeFile(t, p.MappingFile, "no ids here\n")

	out := p.Run(context.Background())
	assert.False(t, out.OK)
	assert.Empty(t, out.SiteID)
	assert.False(t, resultByName(t, out.Results, "preflight.site_id").Passed)
	assert.True(t, resultByName(t, out.Results, "preflight.file.mapping").Passed)
	assert.Equal(t, "Missing "+p.HomeCode, resultByName(t, out.Results, "preflight.file.home_code").Details)
	assert.True(t, strings.HasPrefix(resultByName(t, out.Results, "preflight.wix_cli").Details, "Missing CLI binary: "))
	assert.Equal(t, "No IDs found in mapping file", resultByName(t, out.Results, "preflight.id_inventory").Details)
}

func TestPreflight_WhoamiNotLoggedIn(t *testing.T) {
	p := project(t)
	p.Command = func(ctx context.Context, dir, name string, args ...string) (string, string, error) {
		return "", strings.Repeat("x", 400), errors.New("exit status 1")
	}
	out := p.Run(context.Background())
	assert.False(t, out.OK)
	auth := resultByName(t, out.Results, "preflight.wix_auth")
	assert.False(t, auth.Passed)
	assert.Len(t, auth.Details, 220)
}

func TestReadSiteID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wix.config.json")
	assert.Empty(t, ReadSiteID(path))

	writeFile(t, path, "{not json")
	assert.Empty(t, ReadSiteID(path))

	writeFile(t, path, `{"siteId": 42}`)
	assert.Equal(t, "42", ReadSiteID(path))
}
