package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/spf13/cobra"

	"sitegate/internal/diagnose"
	"sitegate/internal/editor"
	"sitegate/internal/flags"
	"sitegate/internal/probe"
	"sitegate/internal/report"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Attempt a publish from the editor and explain why it fails",
	Long: `Open the site dashboard and editor, click Publish and collect every visible
error message, the console errors and screenshots, then map them to probable
causes (TLS, network, auth, deployment).

Login is always manual; the command waits --login-timeout for it.

Artifacts:
	<diagnostics-dir>/publish_diag_<timestamp>.json   report
	<diagnostics-dir>/publish_diag_*_<timestamp>.png  screenshots
	<diagnostics-dir>/publish_diag_page_<timestamp>.html

Exit codes:
	0 = publish produced no findings
	2 = findings were recorded (login blocked, UI errors)
	3 = the browser failed`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		finish(runDiagnose(cmd.Context()))
	},
}

func runDiagnose(ctx context.Context) int {
	if ctx == nil {
		ctx = context.Background()
	}
	paths := cfg.Paths.Resolve()
	siteID := cfg.Target.SiteID
	if siteID == "" {
		siteID = editor.ReadSiteID(paths.WixConfig)
	}
	if siteID == "" && cfg.Target.EditorURL == "" {
		errorf("site id unknown: pass --site-id or set siteId in %s", paths.WixConfig)
		return report.ExitRuntimeError
	}

	diag := report.NewDiagnostics()
	session, err := launch(ctx, cfg)
	if err != nil {
		errorf("%v", err)
		return report.ExitRuntimeError
	}
	defer closeSession(session)

	surface, err := session.OpenSurface(ctx, probe.Desktop, diag)
	if err != nil {
		errorf("open editor page: %v", err)
		return report.ExitRuntimeError
	}

	agent := &diagnose.Agent{
		Surface:      surface,
		Diagnostics:  diag,
		Dir:          paths.DiagnosticsDir,
		SiteID:       siteID,
		EditorURL:    cfg.Target.EditorURL,
		LoginTimeout: cfg.Diagnose.LoginTimeout,
		Delays:       editor.DefaultDelays(cfg.Editor.Settle),
		Headless:     cfg.Browser.Headless,
		Hold: diagnose.Hold{
			Open:    cfg.Diagnose.HoldOpen,
			OnError: cfg.Diagnose.HoldOnError,
			Seconds: cfg.Diagnose.HoldSeconds,
		},
		WaitEnter: waitEnter,
	}
	rep, runErr := agent.Run(ctx)

	path, err := diagnose.Save(paths.DiagnosticsDir, rep)
	if err != nil {
		errorf("save diagnostics: %v", err)
		return report.ExitRuntimeError
	}
	log.WithField("path", path).WithField("findings", len(rep.Findings)).Info("publish diagnostics saved")
	for _, cause := range rep.ProbableCauses {
		log.WithField("cause", cause).Info("probable cause")
	}
	if runErr != nil {
		errorf("%v", runErr)
		return report.ExitRuntimeError
	}
	return diagnose.ExitCode(rep)
}

func waitEnter() {
	_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
}

func init() {
	rootCmd.AddCommand(diagnoseCmd)
	bindTargetFlags(diagnoseCmd)
	bindBrowserFlags(diagnoseCmd)
	f := diagnoseCmd.Flags()
	f.StringVar(&cfg.Paths.ProjectRoot, flags.FlagProjectRoot, cfg.Paths.ProjectRoot, "Project root; relative paths are resolved against it")
	f.StringVar(&cfg.Paths.DiagnosticsDir, flags.FlagDiagnosticsDir, cfg.Paths.DiagnosticsDir, "Directory for the diagnostics report and screenshots")
	f.StringVar(&cfg.Target.SiteID, flags.FlagSiteID, cfg.Target.SiteID, "Site id (default: siteId from wix.config.json)")
	f.StringVar(&cfg.Target.EditorURL, flags.FlagEditorURL, cfg.Target.EditorURL, "Full editor URL (default: derived from the site id)")
	f.StringVar(&cfg.Paths.WixConfig, flags.FlagWixConfig, cfg.Paths.WixConfig, "Project config holding the siteId")
	f.DurationVar(&cfg.Diagnose.LoginTimeout, flags.FlagLoginTimeout, cfg.Diagnose.LoginTimeout, "How long to wait for the manual login")
	f.BoolVar(&cfg.Diagnose.HoldOpen, flags.FlagHoldOpen, cfg.Diagnose.HoldOpen, "Keep the browser open after the publish attempt")
	f.BoolVar(&cfg.Diagnose.HoldOnError, flags.FlagHoldOnError, cfg.Diagnose.HoldOnError, "Keep the browser open only when findings were recorded")
	f.IntVar(&cfg.Diagnose.HoldSeconds, flags.FlagHoldSeconds, cfg.Diagnose.HoldSeconds, "Hold for N seconds instead of waiting for Enter")
}
