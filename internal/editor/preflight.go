package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"sitegate/internal/mapping"
	"sitegate/internal/report"
)

const CategoryPreflight = "preflight"

// CommandFunc runs name with args in dir and returns its output. A non-zero
// exit is reported through err.
type CommandFunc func(ctx context.Context, dir, name string, args ...string) (stdout, stderr string, err error)

// ExecCommand runs a local process.
func ExecCommand(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Preflight validates the local project before any browser work.
type Preflight struct {
	ProjectRoot string
	MappingFile string
	HomeCode    string
	WixConfig   string
	WixCLI      string

	// SiteID overrides the siteId of WixConfig.
	SiteID string

	Command CommandFunc
}

type PreflightOutcome struct {
	OK      bool
	SiteID  string
	IDs     []string
	Results []report.CheckResult
}

// ReadSiteID returns the siteId field of a wix.config.json, or "" when the
// file is missing or unreadable.
func ReadSiteID(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var cfg struct {
		SiteID any `json:"siteId"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil || cfg.SiteID == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(cfg.SiteID))
}

// Run records one result per step. Every step runs even after a failure so
// the report lists all problems at once.
func (p Preflight) Run(ctx context.Context) PreflightOutcome {
	out := PreflightOutcome{OK: true}
	add := func(name string, ok bool, details string) {
		out.Results = append(out.Results, report.NewResult(name, CategoryPreflight, report.PriorityBlocking, ok, details))
		if !ok {
			out.OK = false
		}
	}

	out.SiteID = strings.TrimSpace(p.SiteID)
	if out.SiteID == "" {
		out.SiteID = ReadSiteID(p.WixConfig)
	}
	if out.SiteID == "" {
		add("preflight.site_id", false, fmt.Sprintf("Missing siteId in %s", p.WixConfig))
	} else {
		add("preflight.site_id", true, "siteId="+out.SiteID)
	}

	for _, f := range []struct{ key, path string }{
		{"mapping", p.MappingFile},
		{"home_code", p.HomeCode},
	} {
		if fileExists(f.path) {
			add("preflight.file."+f.key, true, f.path)
		} else {
			add("preflight.file."+f.key, false, "Missing "+f.path)
		}
	}

	if !fileExists(p.WixCLI) {
		add("preflight.wix_cli", false, "Missing CLI binary: "+p.WixCLI)
	} else {
		run := p.Command
		if run == nil {
			run = ExecCommand
		}
		stdout, stderr, err := run(ctx, p.ProjectRoot, p.WixCLI, "whoami")
		ok := err == nil && strings.Contains(stdout, "Logged in as")
		msg := strings.TrimSpace(stdout)
		if msg == "" {
			msg = strings.TrimSpace(stderr)
		}
		var exitErr *exec.ExitError
		if msg == "" && err != nil && !errors.As(err, &exitErr) {
			msg = err.Error()
		}
		add("preflight.wix_auth", ok, report.Truncate(msg, 220))
	}

	if text, err := mapping.ReadFile(p.MappingFile); err == nil {
		out.IDs = mapping.ExtractIDs(text)
	}
	if len(out.IDs) > 0 {
		add("preflight.id_inventory", true, fmt.Sprintf("%d IDs discovered", len(out.IDs)))
	} else {
		add("preflight.id_inventory", false, "No IDs found in mapping file")
	}
	return out
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
