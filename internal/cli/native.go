package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"sitegate/internal/browser"
	"sitegate/internal/editor"
	"sitegate/internal/engine"
	"sitegate/internal/flags"
	"sitegate/internal/probe"
	"sitegate/internal/report"
)

// Login credentials for the editor. Without them login is manual.
const (
	envEmail    = "WIX_EMAIL"
	envPassword = "WIX_PASSWORD"
)

var nativeCmd = &cobra.Command{
	Use:   "native",
	Short: "Apply the home page code in the editor, publish and smoke test the site",
	Long: `Run the native execution agent.

Steps:
	1. Preflight: site id, mapping and home code files, CLI login, ID inventory
	2. Editor: log in (automatically from WIX_EMAIL/WIX_PASSWORD, or manually
	   within --login-timeout), enable dev mode, apply the home page code and
	   publish
	3. Smoke test of the published home page: no iframes, critical IDs present,
	   critical buttons clickable
	4. The post-publish matrix, unless --skip-matrix

The native report is written to <report-dir>/native_agent_<timestamp>.json;
the matrix run writes its own matrix_agent_<timestamp>.json.

Exit codes:
	0 = every P0 step and check passed
	2 = preflight, login, smoke or matrix gate failed
	3 = runtime error (browser or page could not be opened)

Examples:
	sitegate native
	WIX_EMAIL=me@example.com WIX_PASSWORD=... sitegate native --site-id <id>
	sitegate native --skip-matrix --headless
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		finish(runNative(cmd.Context()))
	},
}

func runNative(ctx context.Context) int {
	if ctx == nil {
		ctx = context.Background()
	}
	paths := cfg.Paths.Resolve()

	var matrixChecks []probe.Check
	if !cfg.Probe.SkipMatrix {
		checks, _, err := loadMatrix(cfg)
		if err != nil {
			errorf("%v", err)
			return report.ExitRuntimeError
		}
		matrixChecks = checks
	}

	out, err := engine.SetupOutput(cfg)
	if err != nil {
		errorf("%v", err)
		return report.ExitRuntimeError
	}
	defer closeOutput(out)

	diag := report.NewDiagnostics()
	session, err := launch(ctx, cfg)
	if err != nil {
		rep := abortedRun(newRunner(cfg, nil, diag, out), report.KindNative, cfg.Target.URL, err)
		if _, err := persist(cfg, rep); err != nil {
			errorf("%v", err)
		}
		return report.ExitRuntimeError
	}
	defer closeSession(session)

	agent := &editor.Agent{
		Runner: newRunner(cfg, &browser.Acquirer{Session: session, Target: cfg.Target.URL, Diagnostics: diag}, diag, out),
		Target: cfg.Target.URL,
		Preflight: editor.Preflight{
			ProjectRoot: paths.ProjectRoot,
			MappingFile: paths.MappingFile,
			HomeCode:    paths.HomeCode,
			WixConfig:   paths.WixConfig,
			WixCLI:      paths.WixCLI,
			SiteID:      cfg.Target.SiteID,
		},
		OpenSurface: func(ctx context.Context) (editor.Surface, error) {
			s, err := session.OpenSurface(ctx, probe.Desktop, diag)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
		Flow: editor.Flow{
			EditorURL:    cfg.Target.EditorURL,
			Email:        os.Getenv(envEmail),
			Password:     os.Getenv(envPassword),
			LoginTimeout: cfg.Editor.LoginTimeout,
			Delays:       editor.DefaultDelays(cfg.Editor.Settle),
		},
	}
	if len(matrixChecks) > 0 {
		matrixDiag := report.NewDiagnostics()
		acq := &browser.Acquirer{Session: session, Target: cfg.Target.URL, Diagnostics: matrixDiag}
		agent.MatrixRunner = newRunner(cfg, acq, matrixDiag, out)
		agent.MatrixChecks = matrixChecks
	}

	res := agent.Run(ctx)
	if res.Matrix != nil {
		if _, err := persist(cfg, *res.Matrix); err != nil {
			errorf("%v", err)
		}
	}
	if _, err := persist(cfg, res.Native); err != nil {
		errorf("%v", err)
		return report.ExitRuntimeError
	}
	return report.ExitCode(res.Native)
}

func init() {
	rootCmd.AddCommand(nativeCmd)
	bindRunFlags(nativeCmd)
	bindEditorFlags(nativeCmd)
	nativeCmd.Flags().BoolVar(&cfg.Probe.SkipMatrix, flags.FlagSkipMatrix, cfg.Probe.SkipMatrix, "Do not run the post-publish matrix after the smoke test")
}
