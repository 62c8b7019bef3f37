package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"sitegate/internal/flags"
)

// EnvPrefix prefixes every environment override, e.g. SITEGATE_TARGET_URL.
const EnvPrefix = "SITEGATE"

// DefaultConfigName is searched for in the working directory when --config is
// not given (sitegate.yaml, sitegate.toml, sitegate.json, ...).
const DefaultConfigName = "sitegate"

type binding struct {
	key  string
	flag string
	set  func(v *viper.Viper, key string, c *Config)
}

func str(dst func(*Config) *string) func(*viper.Viper, string, *Config) {
	return func(v *viper.Viper, key string, c *Config) { *dst(c) = v.GetString(key) }
}

func boolean(dst func(*Config) *bool) func(*viper.Viper, string, *Config) {
	return func(v *viper.Viper, key string, c *Config) { *dst(c) = v.GetBool(key) }
}

func integer(dst func(*Config) *int) func(*viper.Viper, string, *Config) {
	return func(v *viper.Viper, key string, c *Config) { *dst(c) = v.GetInt(key) }
}

func duration(dst func(*Config) *time.Duration) func(*viper.Viper, string, *Config) {
	return func(v *viper.Viper, key string, c *Config) { *dst(c) = v.GetDuration(key) }
}

func list(dst func(*Config) *[]string) func(*viper.Viper, string, *Config) {
	return func(v *viper.Viper, key string, c *Config) { *dst(c) = v.GetStringSlice(key) }
}

var bindings = []binding{
	{"target.url", flags.FlagURL, str(func(c *Config) *string { return &c.Target.URL })},
	{"target.site_id", flags.FlagSiteID, str(func(c *Config) *string { return &c.Target.SiteID })},
	{"target.editor_url", flags.FlagEditorURL, str(func(c *Config) *string { return &c.Target.EditorURL })},

	{"browser.headless", flags.FlagHeadless, boolean(func(c *Config) *bool { return &c.Browser.Headless })},
	{"browser.bin", flags.FlagBrowserBin, str(func(c *Config) *string { return &c.Browser.Bin })},
	{"browser.control_url", flags.FlagControlURL, str(func(c *Config) *string { return &c.Browser.ControlURL })},
	{"browser.ignore_cert_errors", flags.FlagIgnoreCertErrors, boolean(func(c *Config) *bool { return &c.Browser.IgnoreCertErrors })},
	{"browser.navigation_timeout", flags.FlagNavigationTimeout, duration(func(c *Config) *time.Duration { return &c.Browser.NavigationTimeout })},
	{"browser.settle_delay", flags.FlagSettleDelay, duration(func(c *Config) *time.Duration { return &c.Browser.SettleDelay })},

	{"probe.matrix_file", flags.FlagMatrixFile, str(func(c *Config) *string { return &c.Probe.MatrixFile })},
	{"probe.poll_attempts", flags.FlagPollAttempts, integer(func(c *Config) *int { return &c.Probe.PollAttempts })},
	{"probe.poll_interval", flags.FlagPollInterval, duration(func(c *Config) *time.Duration { return &c.Probe.PollInterval })},
	{"probe.check_timeout", flags.FlagCheckTimeout, duration(func(c *Config) *time.Duration { return &c.Probe.CheckTimeout })},
	{"probe.parallel", flags.FlagParallel, boolean(func(c *Config) *bool { return &c.Probe.Parallel })},
	{"probe.concurrency", flags.FlagConcurrency, integer(func(c *Config) *int { return &c.Probe.Concurrency })},
	{"probe.skip_matrix", flags.FlagSkipMatrix, boolean(func(c *Config) *bool { return &c.Probe.SkipMatrix })},

	{"paths.project_root", flags.FlagProjectRoot, str(func(c *Config) *string { return &c.Paths.ProjectRoot })},
	{"paths.report_dir", flags.FlagReportDir, str(func(c *Config) *string { return &c.Paths.ReportDir })},
	{"paths.signoff_dir", flags.FlagSignoffDir, str(func(c *Config) *string { return &c.Paths.SignoffDir })},
	{"paths.diagnostics_dir", flags.FlagDiagnosticsDir, str(func(c *Config) *string { return &c.Paths.DiagnosticsDir })},
	{"paths.mapping_file", flags.FlagMappingFile, str(func(c *Config) *string { return &c.Paths.MappingFile })},
	{"paths.home_code", flags.FlagHomeCode, str(func(c *Config) *string { return &c.Paths.HomeCode })},
	{"paths.wix_config", flags.FlagWixConfig, str(func(c *Config) *string { return &c.Paths.WixConfig })},
	{"paths.wix_cli", flags.FlagWixCLI, str(func(c *Config) *string { return &c.Paths.WixCLI })},
	{"paths.history_db", flags.FlagHistoryDB, str(func(c *Config) *string { return &c.Paths.HistoryDB })},
	{"paths.no_history", flags.FlagNoHistory, boolean(func(c *Config) *bool { return &c.Paths.NoHistory })},

	{"output.console_format", flags.FlagConsoleFormat, str(func(c *Config) *string { return &c.Output.ConsoleFormat })},
	{"output.console_filter", flags.FlagConsoleFilter, list(func(c *Config) *[]string { return &c.Output.ConsoleFilter })},
	{"output.summary", flags.FlagSummary, str(func(c *Config) *string { return &c.Output.Summary })},
	{"output.out", flags.FlagOut, str(func(c *Config) *string { return &c.Output.Out })},
	{"output.out_format", flags.FlagOutFormat, str(func(c *Config) *string { return &c.Output.OutFormat })},
	{"output.emit", flags.FlagEmit, list(func(c *Config) *[]string { return &c.Output.Emit })},
	{"output.no_console", flags.FlagNoConsole, boolean(func(c *Config) *bool { return &c.Output.NoConsole })},

	{"log.level", flags.FlagLogLevel, str(func(c *Config) *string { return &c.Log.Level })},
	{"log.format", flags.FlagLogFormat, str(func(c *Config) *string { return &c.Log.Format })},
	{"log.verbose", flags.FlagVerbose, boolean(func(c *Config) *bool { return &c.Log.Verbose })},

	{"editor.login_timeout", flags.FlagLoginTimeout, duration(func(c *Config) *time.Duration { return &c.Editor.LoginTimeout })},
	{"editor.settle", flags.FlagEditorSettle, duration(func(c *Config) *time.Duration { return &c.Editor.Settle })},

	{"diagnose.login_timeout", "", duration(func(c *Config) *time.Duration { return &c.Diagnose.LoginTimeout })},
	{"diagnose.hold_open", flags.FlagHoldOpen, boolean(func(c *Config) *bool { return &c.Diagnose.HoldOpen })},
	{"diagnose.hold_on_error", flags.FlagHoldOnError, boolean(func(c *Config) *bool { return &c.Diagnose.HoldOnError })},
	{"diagnose.hold_seconds", flags.FlagHoldSeconds, integer(func(c *Config) *int { return &c.Diagnose.HoldSeconds })},

	{"github.repo", flags.FlagGitHubRepo, str(func(c *Config) *string { return &c.GitHub.Repo })},
	{"github.sha", flags.FlagGitHubSHA, str(func(c *Config) *string { return &c.GitHub.SHA })},
	{"github.context", flags.FlagGitHubContext, str(func(c *Config) *string { return &c.GitHub.Context })},
	{"github.target_url", flags.FlagGitHubTargetURL, str(func(c *Config) *string { return &c.GitHub.TargetURL })},
}

// Keys lists every configuration key understood by Load.
func Keys() []string {
	out := make([]string, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, b.key)
	}
	return out
}

// Load layers a config file and SITEGATE_* environment variables over c.
//
// Precedence, highest first: flags the user set explicitly (changed reports
// them), environment, config file, the values already in c. An explicit path
// must exist; without one, a missing sitegate.* in the working directory is
// not an error. Load returns the config file actually used, if any.
func Load(path string, c *Config, changed func(flag string) bool) (string, error) {
	if changed == nil {
		changed = func(string) bool { return false }
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return "", fmt.Errorf("read config: %w", err)
			}
		}
	}

	for _, b := range bindings {
		if b.flag != "" && changed(b.flag) {
			continue
		}
		if !v.IsSet(b.key) {
			continue
		}
		b.set(v, b.key, c)
	}

	return v.ConfigFileUsed(), nil
}
