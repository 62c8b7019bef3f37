package cli

import (
	"context"

	"github.com/spf13/cobra"

	"sitegate/internal/browser"
	"sitegate/internal/engine"
	"sitegate/internal/flags"
	"sitegate/internal/report"
)

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Run the post-publish interaction matrix against the published site",
	Long: `Run the post-publish interaction matrix against the published site.

Every check gets a fresh page at its viewport. Failing checks never stop the
run; a page that cannot be opened aborts it.

Output:
	Results stream to the console as they finish (--console-format). The full
	run report is written to <report-dir>/matrix_agent_<timestamp>.json and
	recorded in the run history.

	NDJSON mode emits lifecycle events (run.started, check.result,
	run.finished) followed by the run report.

Exit codes:
	0 = every P0 check passed
	2 = at least one P0 check failed
	3 = runtime error (browser or page could not be opened)

Examples:
	sitegate matrix --headless
	sitegate matrix --url https://example.wixsite.com/site --parallel --concurrency 4
	sitegate matrix --matrix-file matrix.yaml --no-console --emit ndjson
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		finish(runMatrix(cmd.Context(), cmd.Flags().Changed(flags.FlagURL)))
	},
}

func runMatrix(ctx context.Context, urlSet bool) int {
	if ctx == nil {
		ctx = context.Background()
	}
	checks, target, err := loadMatrix(cfg)
	if err != nil {
		errorf("%v", err)
		return report.ExitRuntimeError
	}
	if target != "" && !urlSet {
		cfg.Target.URL = target
		if err := cfg.ValidateTarget(); err != nil {
			errorf("%v", err)
			return report.ExitRuntimeError
		}
	}

	out, err := engine.SetupOutput(cfg)
	if err != nil {
		errorf("%v", err)
		return report.ExitRuntimeError
	}
	defer closeOutput(out)

	diag := report.NewDiagnostics()
	var rep report.RunReport
	session, err := launch(ctx, cfg)
	if err != nil {
		rep = abortedRun(newRunner(cfg, nil, diag, out), report.KindMatrix, cfg.Target.URL, err)
	} else {
		defer closeSession(session)
		acq := &browser.Acquirer{Session: session, Target: cfg.Target.URL, Diagnostics: diag}
		rep = newRunner(cfg, acq, diag, out).Run(ctx, report.KindMatrix, cfg.Target.URL, checks)
	}

	if _, err := persist(cfg, rep); err != nil {
		errorf("%v", err)
		return report.ExitRuntimeError
	}
	return report.ExitCode(rep)
}

func init() {
	rootCmd.AddCommand(matrixCmd)
	bindRunFlags(matrixCmd)
}
