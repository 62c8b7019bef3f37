package cli

import (
	"github.com/spf13/cobra"

	"sitegate/internal/flags"
)

// MAINTAINER NOTE: flags bound here are forwarded to release stages by
// internal/release/stage.go:StageArgs and NativeArgs. Keep them in sync.

func bindTargetFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cfg.Target.URL, flags.FlagURL, cfg.Target.URL, "Published site URL to validate")
}

func bindBrowserFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVar(&cfg.Browser.Headless, flags.FlagHeadless, cfg.Browser.Headless, "Run the browser without a window")
	f.StringVar(&cfg.Browser.Bin, flags.FlagBrowserBin, cfg.Browser.Bin, "Browser binary (default: find or download Chromium)")
	f.StringVar(&cfg.Browser.ControlURL, flags.FlagControlURL, cfg.Browser.ControlURL, "DevTools URL of an already running browser to attach to")
	f.BoolVar(&cfg.Browser.IgnoreCertErrors, flags.FlagIgnoreCertErrors, cfg.Browser.IgnoreCertErrors, "Ignore TLS certificate errors (intercepting proxies)")
	f.DurationVar(&cfg.Browser.NavigationTimeout, flags.FlagNavigationTimeout, cfg.Browser.NavigationTimeout, "Budget for every page navigation")
	f.DurationVar(&cfg.Browser.SettleDelay, flags.FlagSettleDelay, cfg.Browser.SettleDelay, "Delay after the initial load of every page")
}

func bindProbeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&cfg.Probe.MatrixFile, flags.FlagMatrixFile, cfg.Probe.MatrixFile, "YAML matrix definition replacing the built-in matrix")
	f.IntVar(&cfg.Probe.PollAttempts, flags.FlagPollAttempts, cfg.Probe.PollAttempts, "Navigation check poll attempts")
	f.DurationVar(&cfg.Probe.PollInterval, flags.FlagPollInterval, cfg.Probe.PollInterval, "Navigation check poll interval")
	f.DurationVar(&cfg.Probe.CheckTimeout, flags.FlagCheckTimeout, cfg.Probe.CheckTimeout, "Per-check budget including page load (0 = none)")
	f.BoolVar(&cfg.Probe.Parallel, flags.FlagParallel, cfg.Probe.Parallel, "Run checks concurrently, each on its own incognito page")
	f.IntVar(&cfg.Probe.Concurrency, flags.FlagConcurrency, cfg.Probe.Concurrency, "Maximum concurrent checks with --parallel")
}

func bindReportFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&cfg.Paths.ProjectRoot, flags.FlagProjectRoot, cfg.Paths.ProjectRoot, "Project root; relative paths are resolved against it")
	f.StringVar(&cfg.Paths.ReportDir, flags.FlagReportDir, cfg.Paths.ReportDir, "Directory for run reports")
	f.StringVar(&cfg.Paths.HistoryDB, flags.FlagHistoryDB, cfg.Paths.HistoryDB, "Run history database (default: <report-dir>/history.db)")
	f.BoolVar(&cfg.Paths.NoHistory, flags.FlagNoHistory, cfg.Paths.NoHistory, "Do not record the run in the history database")
}

func bindOutputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, cfg.Output.ConsoleFormat, "Console output format: text|json|ndjson")
	f.StringSliceVar(&cfg.Output.ConsoleFilter, flags.FlagConsoleFilter, nil, "Only print results with this outcome: pass|fail (comma-separated accepted)")
	f.StringVar(&cfg.Output.Summary, flags.FlagSummary, "", "Write a Markdown run summary to this path")
	f.StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	f.StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	f.StringSliceVar(&cfg.Output.Emit, flags.FlagEmit, nil, "Emit an additional structured stream to stdout: json|ndjson")
	f.BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out)")
}

func bindEditorFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&cfg.Target.SiteID, flags.FlagSiteID, cfg.Target.SiteID, "Site id (default: siteId from wix.config.json)")
	f.StringVar(&cfg.Target.EditorURL, flags.FlagEditorURL, cfg.Target.EditorURL, "Full editor URL (default: derived from the site id)")
	f.StringVar(&cfg.Paths.MappingFile, flags.FlagMappingFile, cfg.Paths.MappingFile, "Element ID mapping markdown")
	f.StringVar(&cfg.Paths.HomeCode, flags.FlagHomeCode, cfg.Paths.HomeCode, "Home page code applied in the editor")
	f.StringVar(&cfg.Paths.WixConfig, flags.FlagWixConfig, cfg.Paths.WixConfig, "Project config holding the siteId")
	f.StringVar(&cfg.Paths.WixCLI, flags.FlagWixCLI, cfg.Paths.WixCLI, "Site CLI binary used for the auth preflight")
	f.DurationVar(&cfg.Editor.LoginTimeout, flags.FlagLoginTimeout, cfg.Editor.LoginTimeout, "How long to wait for a manual editor login")
	f.DurationVar(&cfg.Editor.Settle, flags.FlagEditorSettle, cfg.Editor.Settle, "Delay after editor navigations and panel toggles")
}

// bindRunFlags binds everything a browser run needs.
func bindRunFlags(cmd *cobra.Command) {
	bindTargetFlags(cmd)
	bindBrowserFlags(cmd)
	bindProbeFlags(cmd)
	bindReportFlags(cmd)
	bindOutputFlags(cmd)
}
