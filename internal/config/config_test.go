package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"sitegate/internal/flags"
)

func TestNew_Defaults(t *testing.T) {
	cfg := New()
	if cfg.Target.URL != DefaultURL {
		t.Fatalf("URL default mismatch: got %q", cfg.Target.URL)
	}
	if cfg.Probe.PollAttempts != 8 || cfg.Probe.PollInterval != 500*time.Millisecond {
		t.Fatalf("poll defaults mismatch: %d x %s", cfg.Probe.PollAttempts, cfg.Probe.PollInterval)
	}
	if cfg.Paths.ReportDir != "agent_reports" || cfg.Paths.SignoffDir != "release_signoff" {
		t.Fatalf("path defaults mismatch: %+v", cfg.Paths)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate, got %v", err)
	}
}

func TestValidate_NormalizesCommaDelimitedLists(t *testing.T) {
	cfg := New()
	cfg.Output.Emit = []string{"json, NDJSON", ",,"}
	cfg.Output.ConsoleFilter = []string{"Fail,pass"}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}

	if want := []string{"json", "ndjson"}; !reflect.DeepEqual(cfg.Output.Emit, want) {
		t.Fatalf("Emit normalized mismatch: got %v want %v", cfg.Output.Emit, want)
	}
	if want := []string{"fail", "pass"}; !reflect.DeepEqual(cfg.Output.ConsoleFilter, want) {
		t.Fatalf("ConsoleFilter normalized mismatch: got %v want %v", cfg.Output.ConsoleFilter, want)
	}
}

func TestValidateTarget(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "https://example.com/site/", want: "https://example.com/site"},
		{in: "  http://example.com  ", want: "http://example.com"},
		{in: "", wantErr: true},
		{in: "ftp://example.com", wantErr: true},
		{in: "example.com/site", wantErr: true},
		{in: "https://", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cfg := New()
			cfg.Target.URL = tt.in
			err := cfg.ValidateTarget()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Target.URL != tt.want {
				t.Fatalf("URL mismatch: got %q want %q", cfg.Target.URL, tt.want)
			}
		})
	}
}

func TestValidate_RejectsInvalidConsoleFormat(t *testing.T) {
	tests := []string{"", "  ", "yaml"}
	for _, format := range tests {
		cfg := New()
		cfg.Output.ConsoleFormat = format
		if err := cfg.Validate(); err == nil {
			t.Fatalf("expected error for console format %q", format)
		}
	}
}

func TestValidate_AllowsKnownConsoleFormats(t *testing.T) {
	for _, format := range []string{"text", "JSON", " ndjson "} {
		cfg := New()
		cfg.Output.ConsoleFormat = format
		if err := cfg.Validate(); err != nil {
			t.Fatalf("unexpected error for %q: %v", format, err)
		}
		if cfg.Output.ConsoleFormat != strings.ToLower(strings.TrimSpace(format)) {
			t.Fatalf("format not normalized: %q", cfg.Output.ConsoleFormat)
		}
	}
}

func TestValidate_RejectsInvalidEmitAndFilter(t *testing.T) {
	cfg := New()
	cfg.Output.Emit = []string{"xml"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for --emit xml")
	}

	cfg = New()
	cfg.Output.ConsoleFilter = []string{"error"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for --console-filter error")
	}
}

func TestValidate_InfersOutFormat(t *testing.T) {
	tests := []struct {
		out     string
		format  string
		want    string
		wantErr bool
	}{
		{out: "run.json", want: "json"},
		{out: "run.NDJSON", want: "ndjson"},
		{out: "run.txt", wantErr: true},
		{out: "run", wantErr: true},
		{out: "run", format: "ndjson", want: "ndjson"},
		{out: "run.json", format: "xml", wantErr: true},
	}
	for _, tt := range tests {
		cfg := New()
		cfg.Output.Out = tt.out
		cfg.Output.OutFormat = tt.format
		err := cfg.Validate()
		if tt.wantErr {
			if err == nil {
				t.Fatalf("expected error for out=%q format=%q", tt.out, tt.format)
			}
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error for out=%q: %v", tt.out, err)
		}
		if cfg.Output.OutFormat != tt.want {
			t.Fatalf("OutFormat mismatch: got %q want %q", cfg.Output.OutFormat, tt.want)
		}
	}
}

func TestValidate_RejectsInvalidBounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"poll attempts", func(c *Config) { c.Probe.PollAttempts = 0 }},
		{"poll interval", func(c *Config) { c.Probe.PollInterval = -time.Second }},
		{"check timeout", func(c *Config) { c.Probe.CheckTimeout = -time.Second }},
		{"concurrency", func(c *Config) { c.Probe.Concurrency = 0 }},
		{"navigation timeout", func(c *Config) { c.Browser.NavigationTimeout = 0 }},
		{"settle", func(c *Config) { c.Browser.SettleDelay = -time.Second }},
		{"hold seconds", func(c *Config) { c.Diagnose.HoldSeconds = -1 }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestValidate_GitHubRepo(t *testing.T) {
	cfg := New()
	cfg.GitHub.Repo = "acme"
	cfg.GitHub.SHA = "abc"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for repo without owner")
	}

	cfg = New()
	cfg.GitHub.Repo = "acme/site"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for missing sha")
	}

	cfg = New()
	cfg.GitHub.Repo = " acme/site "
	cfg.GitHub.SHA = "abc123"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GitHub.Repo != "acme/site" {
		t.Fatalf("repo not trimmed: %q", cfg.GitHub.Repo)
	}
}

func TestValidate_VerboseForcesDebug(t *testing.T) {
	cfg := New()
	cfg.Log.Verbose = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Log.Level)
	}
}

func TestPathsResolve(t *testing.T) {
	p := New().Paths
	p.ProjectRoot = "/work/site"
	p.SignoffDir = "/abs/signoff"

	got := p.Resolve()
	if got.ReportDir != filepath.Join("/work/site", "agent_reports") {
		t.Fatalf("ReportDir mismatch: %q", got.ReportDir)
	}
	if got.SignoffDir != "/abs/signoff" {
		t.Fatalf("absolute path should be kept: %q", got.SignoffDir)
	}
	if got.HistoryDB != filepath.Join("/work/site", "agent_reports", "history.db") {
		t.Fatalf("HistoryDB default mismatch: %q", got.HistoryDB)
	}
	if got.WixCLI != filepath.Join("/work/site", "node_modules", ".bin", "wix") {
		t.Fatalf("WixCLI mismatch: %q", got.WixCLI)
	}
}

func TestLoad_FileEnvAndFlagPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sitegate.yaml")
	content := `
target:
  url: https://file.example.com
  site_id: from-file
probe:
  poll_attempts: 3
  poll_interval: 250ms
  parallel: true
output:
  emit: [json]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SITEGATE_TARGET_SITE_ID", "from-env")
	t.Setenv("SITEGATE_PROBE_POLL_ATTEMPTS", "5")

	cfg := New()
	cfg.Probe.PollAttempts = 9 // pretend --poll-attempts 9 was passed
	changed := func(name string) bool { return name == flags.FlagPollAttempts }

	used, err := Load(path, cfg, changed)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if used != path {
		t.Fatalf("config file used mismatch: got %q want %q", used, path)
	}
	if cfg.Target.URL != "https://file.example.com" {
		t.Fatalf("URL from file not applied: %q", cfg.Target.URL)
	}
	if cfg.Target.SiteID != "from-env" {
		t.Fatalf("env should override file: %q", cfg.Target.SiteID)
	}
	if cfg.Probe.PollAttempts != 9 {
		t.Fatalf("explicit flag should win: %d", cfg.Probe.PollAttempts)
	}
	if cfg.Probe.PollInterval != 250*time.Millisecond {
		t.Fatalf("duration from file not applied: %s", cfg.Probe.PollInterval)
	}
	if !cfg.Probe.Parallel {
		t.Fatalf("bool from file not applied")
	}
	if !reflect.DeepEqual(cfg.Output.Emit, []string{"json"}) {
		t.Fatalf("list from file not applied: %v", cfg.Output.Emit)
	}
	if cfg.Paths.ReportDir != "agent_reports" {
		t.Fatalf("unset keys must keep defaults: %q", cfg.Paths.ReportDir)
	}
}

func TestLoad_MissingExplicitFileErrors(t *testing.T) {
	cfg := New()
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), cfg, nil); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestLoad_NoDefaultFileIsNotAnError(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg := New()
	used, err := Load("", cfg, nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if used != "" {
		t.Fatalf("expected no config file, got %q", used)
	}
	if cfg.Target.URL != DefaultURL {
		t.Fatalf("defaults changed: %q", cfg.Target.URL)
	}
}

func TestKeys_CoverEveryBinding(t *testing.T) {
	keys := Keys()
	if len(keys) != len(bindings) {
		t.Fatalf("Keys length mismatch")
	}
	seen := map[string]bool{}
	for _, k := range keys {
		if seen[k] {
			t.Fatalf("duplicate key %q", k)
		}
		seen[k] = true
	}
}
