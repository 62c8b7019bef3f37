package flags

// Package flags defines canonical CLI flag names shared across the CLI, the
// config loader and the release orchestrator (which re-invokes this binary
// for each stage).
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Target.URL, flags.FlagURL, "", "...")
//	arg := "--" + flags.FlagURL
const (
	// Global
	FlagConfig    = "config"
	FlagLogLevel  = "log-level"
	FlagLogFormat = "log-format"
	FlagVerbose   = "verbose"

	// Target
	FlagURL       = "url"
	FlagSiteID    = "site-id"
	FlagEditorURL = "editor-url"

	// Browser
	FlagHeadless          = "headless"
	FlagBrowserBin        = "browser-bin"
	FlagControlURL        = "control-url"
	FlagIgnoreCertErrors  = "ignore-cert-errors"
	FlagNavigationTimeout = "navigation-timeout"
	FlagSettleDelay       = "settle-delay"

	// Probe
	FlagMatrixFile   = "matrix-file"
	FlagPollAttempts = "poll-attempts"
	FlagPollInterval = "poll-interval"
	FlagCheckTimeout = "check-timeout"
	FlagParallel     = "parallel"
	FlagConcurrency  = "concurrency"
	FlagSkipMatrix   = "skip-matrix"

	// Paths
	FlagProjectRoot    = "project-root"
	FlagReportDir      = "report-dir"
	FlagSignoffDir     = "signoff-dir"
	FlagDiagnosticsDir = "diagnostics-dir"
	FlagMappingFile    = "mapping-file"
	FlagHomeCode       = "home-code"
	FlagWixConfig      = "wix-config"
	FlagWixCLI         = "wix-cli"
	FlagHistoryDB      = "history-db"
	FlagNoHistory      = "no-history"

	// Output
	FlagConsoleFormat = "console-format"
	FlagConsoleFilter = "console-filter"
	FlagSummary       = "summary"
	FlagOut           = "out"
	FlagOutFormat     = "out-format"
	FlagEmit          = "emit"
	FlagNoConsole     = "no-console"

	// Editor / diagnostics
	FlagLoginTimeout = "login-timeout"
	FlagEditorSettle = "editor-settle"
	FlagHoldOpen     = "hold-open"
	FlagHoldOnError  = "hold-on-error"
	FlagHoldSeconds  = "hold-seconds"

	// GitHub commit status
	FlagGitHubRepo      = "github-repo"
	FlagGitHubSHA       = "github-sha"
	FlagGitHubContext   = "github-context"
	FlagGitHubTargetURL = "github-target-url"
)
