package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sitegate/internal/contracts"
	"sitegate/internal/flags"
	"sitegate/internal/gaps"
	"sitegate/internal/history"
	"sitegate/internal/report"
)

var (
	contractsFormat string
	historyLimit    int
	historyKind     string
	historyJSON     bool
)

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "Write the checklist of element IDs the published site is missing",
	Long: `Read the newest native and matrix reports, collect the element IDs their
failed checks reported missing, and write a checklist annotated from the
element ID mapping to <signoff-dir>/native_id_gap_<timestamp>.md.

Exit codes:
	0 = checklist written
	3 = no reports found, or the checklist could not be written`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		finish(runGaps(cmd.OutOrStdout(), time.Now()))
	},
}

func runGaps(w io.Writer, now time.Time) int {
	paths := cfg.Paths.Resolve()
	res, err := gaps.Generate(paths.ReportDir, paths.SignoffDir, paths.MappingFile, now)
	if err != nil {
		if errors.Is(err, gaps.ErrNoReports) {
			err = fmt.Errorf("%w in %s", err, paths.ReportDir)
		}
		errorf("%v", err)
		return report.ExitRuntimeError
	}
	fmt.Fprintf(w, "Missing IDs: %d\n", len(res.Missing))
	fmt.Fprintf(w, "Checklist: %s\n", res.Path)
	return report.ExitPass
}

var contractsCmd = &cobra.Command{
	Use:   "contracts",
	Short: "Check that page code only imports backend symbols that exist",
	Long: `Scan the page code under src/pages (and pages_backup*.js) for backend
imports and verify that each referenced module exists under src/backend or
backend and exports every imported symbol.

Output (text):
	MODULES_REFERENCED=<n>
	MISSING_MODULES=<n>
	MISSING_MODULE <module>
	MISSING_EXPORTS=<n>
	MISSING_EXPORT <module>::<symbol> in <path>

Exit codes:
	0 = every contract holds
	2 = a module or export is missing
	3 = the project could not be scanned`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		finish(runContracts(cmd.OutOrStdout()))
	},
}

func runContracts(w io.Writer) int {
	res, err := contracts.Scan(cfg.Paths.Resolve().ProjectRoot)
	if err != nil {
		errorf("%v", err)
		return report.ExitRuntimeError
	}
	switch strings.ToLower(contractsFormat) {
	case "json":
		err = contracts.WriteJSON(w, res)
	case "", "text":
		err = contracts.WriteText(w, res)
	default:
		err = fmt.Errorf("invalid --format value %q: expected text or json", contractsFormat)
	}
	if err != nil {
		errorf("%v", err)
		return report.ExitRuntimeError
	}
	if !res.OK() {
		return report.ExitGateFailed
	}
	return report.ExitPass
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded runs, newest first",
	Long: `Show the runs recorded in the history database, newest first.

Examples:
	sitegate history
	sitegate history --kind matrix --limit 5
	sitegate history --json`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		finish(runHistory(cmd.OutOrStdout()))
	},
}

func runHistory(w io.Writer) int {
	paths := cfg.Paths.Resolve()
	if _, err := os.Stat(paths.HistoryDB); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(w, "No runs recorded.")
		return report.ExitPass
	}
	store, err := history.Open(paths.HistoryDB)
	if err != nil {
		errorf("%v", err)
		return report.ExitRuntimeError
	}
	defer store.Close()

	entries, err := store.List(historyLimit, historyKind)
	if err != nil {
		errorf("%v", err)
		return report.ExitRuntimeError
	}
	if historyJSON {
		err = history.WriteJSON(w, entries)
	} else {
		err = history.WriteTable(w, entries)
	}
	if err != nil {
		errorf("%v", err)
		return report.ExitRuntimeError
	}
	return report.ExitPass
}

var auditCmd = &cobra.Command{
	Use:   "audit <report.json>",
	Short: "Recompute the gate of a saved run report",
	Long: `Load a saved run report, recompute its summary from the check results and
compare it with the stored summary block.

Exit codes:
	0 = the recomputed gate passes
	2 = the recomputed gate fails
	3 = the report is unreadable, aborted, or its stored summary is wrong`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		finish(runAudit(cmd.OutOrStdout(), args[0]))
	},
}

func runAudit(w io.Writer, path string) int {
	rep, err := report.Load(path)
	if err != nil {
		errorf("%v", err)
		return report.ExitRuntimeError
	}
	sum, err := report.Audit(rep)
	fmt.Fprintf(w, "Report:   %s (%s, %s)\n", path, rep.Kind, rep.RunID)
	fmt.Fprintf(w, "Checks:   %d total, %d failed\n", sum.Total, sum.Failed)
	fmt.Fprintf(w, "Blocking: %d total, %d failed\n", sum.Blocking, sum.BlockingFailed)
	if err != nil {
		errorf("%v", err)
		return report.ExitRuntimeError
	}
	if rep.Aborted {
		fmt.Fprintf(w, "Gate:     ABORTED (%s)\n", rep.AbortReason)
	} else if sum.GatePass {
		fmt.Fprintln(w, "Gate:     PASS")
	} else {
		fmt.Fprintln(w, "Gate:     FAIL")
	}
	return report.ExitCode(rep)
}

func init() {
	rootCmd.AddCommand(gapsCmd, contractsCmd, historyCmd, auditCmd)

	f := gapsCmd.Flags()
	f.StringVar(&cfg.Paths.ProjectRoot, flags.FlagProjectRoot, cfg.Paths.ProjectRoot, "Project root; relative paths are resolved against it")
	f.StringVar(&cfg.Paths.ReportDir, flags.FlagReportDir, cfg.Paths.ReportDir, "Directory holding the run reports")
	f.StringVar(&cfg.Paths.SignoffDir, flags.FlagSignoffDir, cfg.Paths.SignoffDir, "Directory the checklist is written to")
	f.StringVar(&cfg.Paths.MappingFile, flags.FlagMappingFile, cfg.Paths.MappingFile, "Element ID mapping markdown")

	f = contractsCmd.Flags()
	f.StringVar(&cfg.Paths.ProjectRoot, flags.FlagProjectRoot, cfg.Paths.ProjectRoot, "Project root to scan")
	f.StringVar(&contractsFormat, "format", "text", "Output format: text|json")

	f = historyCmd.Flags()
	f.StringVar(&cfg.Paths.ProjectRoot, flags.FlagProjectRoot, cfg.Paths.ProjectRoot, "Project root; relative paths are resolved against it")
	f.StringVar(&cfg.Paths.ReportDir, flags.FlagReportDir, cfg.Paths.ReportDir, "Directory for run reports")
	f.StringVar(&cfg.Paths.HistoryDB, flags.FlagHistoryDB, cfg.Paths.HistoryDB, "Run history database (default: <report-dir>/history.db)")
	f.IntVar(&historyLimit, "limit", 20, "Maximum number of runs to show (0 = all)")
	f.StringVar(&historyKind, "kind", "", "Only show runs of this kind: matrix|native")
	f.BoolVar(&historyJSON, "json", false, "Print entries as JSON")
}
