package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sitegate/internal/config"
	"sitegate/internal/flags"
	"sitegate/internal/logging"
	"sitegate/internal/report"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var (
	cfg        = config.New()
	configPath string
)

// exit is replaced in tests.
var exit = os.Exit

var rootCmd = &cobra.Command{
	Use:   "sitegate",
	Short: "Post-publish release gate for a hosted website",
	Long: `sitegate drives a real browser against a published site, runs an ordered
matrix of interaction checks and folds the results into a release gate.

Examples:
	# Run the post-publish matrix against the default site
	sitegate matrix --headless

	# Publish from the editor, smoke test and run the matrix
	sitegate native

	# Full release: native stage, matrix stage, sign-off summary
	sitegate release --url https://example.wixsite.com/site --headless

	# Explain a failing publish
	sitegate diagnose --hold-on-error

Configuration:
	Settings come from flags, then SITEGATE_* environment variables, then a
	config file (--config, or sitegate.yaml in the working directory), then
	built-in defaults. Keys mirror the flags, e.g. browser.headless or
	SITEGATE_BROWSER_HEADLESS.

Exit codes:
	0 = every blocking check passed
	2 = the release gate failed
	3 = runtime error (nothing reliable was measured)`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: prepare,
}

// prepare layers the config file and environment under the parsed flags,
// validates the result and configures logging.
func prepare(cmd *cobra.Command, _ []string) error {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	used, err := config.Load(configPath, cfg, changed)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logging.Configure(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr()); err != nil {
		return err
	}
	if used != "" {
		log.WithField("file", used).Debug("config loaded")
	}
	return nil
}

var log = logging.For("cli")

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, flags.FlagConfig, "", "Config file (YAML, TOML or JSON); default: ./sitegate.yaml when present")
	pf.StringVar(&cfg.Log.Level, flags.FlagLogLevel, cfg.Log.Level, "Log level: debug|info|warn|error")
	pf.StringVar(&cfg.Log.Format, flags.FlagLogFormat, cfg.Log.Format, "Log format: text|json (logs go to stderr)")
	pf.BoolVar(&cfg.Log.Verbose, flags.FlagVerbose, false, "Shorthand for --log-level debug (also logs every GitHub API call)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

// CrashDir is where main writes the crash artifact of an unrecovered panic.
func CrashDir() string {
	return cfg.Paths.Resolve().ReportDir
}

// Execute runs the command line. Errors that prevent a command from running
// exit 3.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(report.ExitRuntimeError)
	}
}

// finish exits with a non-zero code. Commands compute the code in a helper
// whose deferred cleanup has already run by then.
func finish(code int) {
	if code != report.ExitPass {
		exit(code)
	}
}
