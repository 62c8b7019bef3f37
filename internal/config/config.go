package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// DefaultURL is the published site checked when --url is omitted.
const DefaultURL = "https://banfwix.wixsite.com/banf1"

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields that affect a
	// run, keep these in sync:
	// - CLI flags in internal/cli (bindRunFlags and friends)
	// - the viper binding table in internal/config/load.go
	// - stage argument forwarding in internal/release/stage.go:StageArgs
	Target   Target
	Browser  Browser
	Probe    Probe
	Paths    Paths
	Output   Output
	Log      Log
	Editor   Editor
	Diagnose Diagnose
	GitHub   GitHub
}

type Target struct {
	// URL is the published site under test (see --url).
	URL string

	// SiteID overrides the site id read from wix.config.json (see --site-id).
	SiteID string

	// EditorURL overrides the editor URL derived from the site id (see --editor-url).
	EditorURL string
}

type Browser struct {
	// Headless runs the browser without a window (see --headless).
	Headless bool

	// Bin is an explicit browser binary; empty lets the launcher find or download one.
	Bin string

	// ControlURL connects to an already running browser instead of launching one.
	ControlURL string

	IgnoreCertErrors bool

	// NavigationTimeout bounds every page navigation (see --navigation-timeout).
	NavigationTimeout time.Duration

	// SettleDelay is slept after the initial load of every page (see --settle-delay).
	SettleDelay time.Duration
}

type Probe struct {
	// MatrixFile replaces the built-in matrix with a YAML definition (see --matrix-file).
	MatrixFile string

	PollAttempts int
	PollInterval time.Duration

	// CheckTimeout is the per-check budget. 0 means no per-check limit.
	CheckTimeout time.Duration

	// Parallel runs checks concurrently, each on its own isolated page.
	Parallel    bool
	Concurrency int

	// SkipMatrix disables the in-process matrix run of the native agent.
	SkipMatrix bool
}

type Paths struct {
	// ProjectRoot anchors every relative path below (see --project-root).
	ProjectRoot string

	ReportDir      string
	SignoffDir     string
	DiagnosticsDir string
	MappingFile    string
	HomeCode       string
	WixConfig      string
	WixCLI         string

	// HistoryDB is the bbolt run history. Empty means <report-dir>/history.db.
	HistoryDB string
	NoHistory bool
}

type Output struct {
	// ConsoleFormat controls the human-facing console sink format (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string

	// ConsoleFilter filters console output by outcome (see --console-filter).
	// Allowed values: pass, fail.
	ConsoleFilter []string

	// Summary writes a Markdown run summary to this path (see --summary).
	Summary string

	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the --out file extension.
	OutFormat string

	// Emit writes an additional structured event stream to stdout (see --emit).
	// Allowed values: json, ndjson.
	Emit []string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool
}

type Log struct {
	// Level is a logrus level name.
	Level string

	// Format is text or json.
	Format string

	Verbose bool
}

type Editor struct {
	// LoginTimeout bounds the wait for a manual editor login.
	LoginTimeout time.Duration

	// Settle is slept after editor navigations and panel toggles.
	Settle time.Duration
}

type Diagnose struct {
	LoginTimeout time.Duration
	HoldOpen     bool
	HoldOnError  bool

	// HoldSeconds keeps the browser open for N seconds. 0 waits for Enter.
	HoldSeconds int
}

type GitHub struct {
	// Repo is OWNER/REPO. Empty disables commit status publishing.
	Repo      string
	SHA       string
	Context   string
	TargetURL string
}

func New() *Config {
	return &Config{
		Target: Target{
			URL: DefaultURL,
		},
		Browser: Browser{
			NavigationTimeout: 90 * time.Second,
			SettleDelay:       4 * time.Second,
		},
		Probe: Probe{
			PollAttempts: 8,
			PollInterval: 500 * time.Millisecond,
			CheckTimeout: 2 * time.Minute,
			Concurrency:  4,
		},
		Paths: Paths{
			ProjectRoot:    ".",
			ReportDir:      "agent_reports",
			SignoffDir:     "release_signoff",
			DiagnosticsDir: filepath.Join("agent_reports", "publish_diagnostics"),
			MappingFile:    "WIX_ELEMENT_ID_MAPPING.md",
			HomeCode:       filepath.Join("src", "pages_backup", "Home.js"),
			WixConfig:      "wix.config.json",
			WixCLI:         filepath.Join("node_modules", ".bin", "wix"),
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Editor: Editor{
			LoginTimeout: 90 * time.Second,
			Settle:       3 * time.Second,
		},
		Diagnose: Diagnose{
			LoginTimeout: 120 * time.Second,
		},
		GitHub: GitHub{
			Context: "sitegate/release",
		},
	}
}

func (c *Config) Validate() error {
	// Normalize comma-delimited list inputs.
	c.Output.ConsoleFilter = splitCommaList(c.Output.ConsoleFilter)
	c.Output.Emit = splitCommaList(c.Output.Emit)

	if err := c.ValidateTarget(); err != nil {
		return err
	}

	// Output validation
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		return errors.New("--console-format must be one of: text, json, ndjson")
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}

	for i, f := range c.Output.ConsoleFilter {
		v := normalizeEnumValue(f)
		if v != "pass" && v != "fail" {
			return fmt.Errorf("unsupported --console-filter value: %s (must be one of: pass, fail)", f)
		}
		c.Output.ConsoleFilter[i] = v
	}

	for i, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v == "" {
			return errors.New("--emit must be one of: json, ndjson")
		}
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", v)
		}
		c.Output.Emit[i] = v
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
			return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
		}
	}

	// Log validation
	c.Log.Format = normalizeEnumValue(c.Log.Format)
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("unsupported --log-format: %s (must be one of: text, json)", c.Log.Format)
	}
	c.Log.Level = normalizeEnumValue(c.Log.Level)
	if c.Log.Verbose {
		c.Log.Level = "debug"
	}

	// Probe validation
	if c.Probe.PollAttempts <= 0 {
		return errors.New("--poll-attempts must be >= 1")
	}
	if c.Probe.PollInterval < 0 {
		return errors.New("--poll-interval must be >= 0")
	}
	if c.Probe.CheckTimeout < 0 {
		return errors.New("--check-timeout must be >= 0")
	}
	if c.Probe.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}

	// Browser validation
	if c.Browser.NavigationTimeout <= 0 {
		return errors.New("--navigation-timeout must be > 0")
	}
	if c.Browser.SettleDelay < 0 {
		return errors.New("--settle-delay must be >= 0")
	}

	if c.Diagnose.HoldSeconds < 0 {
		return errors.New("--hold-seconds must be >= 0")
	}

	// GitHub validation
	c.GitHub.Repo = strings.TrimSpace(c.GitHub.Repo)
	if c.GitHub.Repo != "" {
		owner, repo, ok := strings.Cut(c.GitHub.Repo, "/")
		if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
			return fmt.Errorf("invalid --github-repo value %q: expected OWNER/REPO", c.GitHub.Repo)
		}
		if strings.TrimSpace(c.GitHub.SHA) == "" {
			return errors.New("--github-sha is required with --github-repo")
		}
	}

	return nil
}

// ValidateTarget normalizes the site URL. It requires an absolute http(s) URL
// and strips trailing slashes so path joins stay predictable.
func (c *Config) ValidateTarget() error {
	raw := strings.TrimSpace(c.Target.URL)
	if raw == "" {
		return errors.New("--url must be provided")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid --url value %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid --url value %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid --url value %q: missing host", raw)
	}
	c.Target.URL = strings.TrimRight(raw, "/")
	return nil
}

// Abs anchors a relative path at ProjectRoot. Empty stays empty.
func (p Paths) Abs(s string) string {
	if s == "" || filepath.IsAbs(s) {
		return s
	}
	root := p.ProjectRoot
	if root == "" {
		root = "."
	}
	return filepath.Join(root, s)
}

// Resolve returns a copy with every relative path anchored at ProjectRoot.
func (p Paths) Resolve() Paths {
	abs := p.Abs
	out := p
	out.ReportDir = abs(p.ReportDir)
	out.SignoffDir = abs(p.SignoffDir)
	out.DiagnosticsDir = abs(p.DiagnosticsDir)
	out.MappingFile = abs(p.MappingFile)
	out.HomeCode = abs(p.HomeCode)
	out.WixConfig = abs(p.WixConfig)
	out.WixCLI = abs(p.WixCLI)
	if p.HistoryDB == "" {
		out.HistoryDB = filepath.Join(out.ReportDir, "history.db")
	} else {
		out.HistoryDB = abs(p.HistoryDB)
	}
	return out
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
