// Package release sequences the native and matrix stages as separate
// processes and folds their exit codes and reports into one release decision.
package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"sitegate/internal/config"
	"sitegate/internal/flags"
	"sitegate/internal/report"
)

// Stage is one sub-run. The orchestrator only relies on its exit code and
// the newest report named ReportPrefix created after it started.
type Stage struct {
	Name         string
	Args         []string
	ReportPrefix string
}

func flagArg(name, value string) string {
	return "--" + name + "=" + value
}

// StageArgs forwards the effective configuration shared by every run
// command. Values already merged from the config file and environment are
// passed as explicit flags so the child sees exactly what the parent saw.
func StageArgs(cfg *config.Config) []string {
	args := []string{
		flagArg(flags.FlagURL, cfg.Target.URL),
		flagArg(flags.FlagHeadless, strconv.FormatBool(cfg.Browser.Headless)),
		flagArg(flags.FlagIgnoreCertErrors, strconv.FormatBool(cfg.Browser.IgnoreCertErrors)),
		flagArg(flags.FlagNavigationTimeout, cfg.Browser.NavigationTimeout.String()),
		flagArg(flags.FlagSettleDelay, cfg.Browser.SettleDelay.String()),
		flagArg(flags.FlagPollAttempts, strconv.Itoa(cfg.Probe.PollAttempts)),
		flagArg(flags.FlagPollInterval, cfg.Probe.PollInterval.String()),
		flagArg(flags.FlagCheckTimeout, cfg.Probe.CheckTimeout.String()),
		flagArg(flags.FlagParallel, strconv.FormatBool(cfg.Probe.Parallel)),
		flagArg(flags.FlagConcurrency, strconv.Itoa(cfg.Probe.Concurrency)),
		flagArg(flags.FlagProjectRoot, cfg.Paths.ProjectRoot),
		flagArg(flags.FlagReportDir, cfg.Paths.ReportDir),
		flagArg(flags.FlagNoHistory, strconv.FormatBool(cfg.Paths.NoHistory)),
		flagArg(flags.FlagLogLevel, cfg.Log.Level),
		flagArg(flags.FlagLogFormat, cfg.Log.Format),
	}
	optional := []struct{ name, value string }{
		{flags.FlagBrowserBin, cfg.Browser.Bin},
		{flags.FlagControlURL, cfg.Browser.ControlURL},
		{flags.FlagMatrixFile, cfg.Probe.MatrixFile},
		{flags.FlagHistoryDB, cfg.Paths.HistoryDB},
	}
	for _, o := range optional {
		if o.value != "" {
			args = append(args, flagArg(o.name, o.value))
		}
	}
	return args
}

// NativeArgs adds the editor settings to StageArgs.
func NativeArgs(cfg *config.Config) []string {
	args := StageArgs(cfg)
	args = append(args,
		flagArg(flags.FlagMappingFile, cfg.Paths.MappingFile),
		flagArg(flags.FlagHomeCode, cfg.Paths.HomeCode),
		flagArg(flags.FlagWixConfig, cfg.Paths.WixConfig),
		flagArg(flags.FlagWixCLI, cfg.Paths.WixCLI),
		flagArg(flags.FlagLoginTimeout, cfg.Editor.LoginTimeout.String()),
		flagArg(flags.FlagEditorSettle, cfg.Editor.Settle.String()),
	)
	if cfg.Target.SiteID != "" {
		args = append(args, flagArg(flags.FlagSiteID, cfg.Target.SiteID))
	}
	if cfg.Target.EditorURL != "" {
		args = append(args, flagArg(flags.FlagEditorURL, cfg.Target.EditorURL))
	}
	return args
}

// DefaultStages runs the native agent without its in-process matrix, then
// the matrix on its own.
func DefaultStages(cfg *config.Config) []Stage {
	native := append([]string{"native", "--" + flags.FlagSkipMatrix}, NativeArgs(cfg)...)
	matrix := append([]string{"matrix"}, StageArgs(cfg)...)
	return []Stage{
		{Name: "native", Args: native, ReportPrefix: report.PrefixNative},
		{Name: "matrix", Args: matrix, ReportPrefix: report.PrefixMatrix},
	}
}

// Runner executes a stage and reports its exit code. err is non-nil only
// when the process could not start or did not exit normally.
type Runner interface {
	Run(ctx context.Context, args []string) (code int, err error)
}

// ExecRunner re-executes a binary (the running one by default) with the
// stage arguments.
type ExecRunner struct {
	Executable string
	Dir        string
	Stdout     io.Writer
	Stderr     io.Writer
}

func (r ExecRunner) Run(ctx context.Context, args []string) (int, error) {
	exe := r.Executable
	if exe == "" {
		self, err := os.Executable()
		if err != nil {
			return -1, fmt.Errorf("locate executable: %w", err)
		}
		exe = self
	}
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Dir = r.Dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = orDefault(r.Stdout, os.Stdout)
	cmd.Stderr = orDefault(r.Stderr, os.Stderr)
	log.WithField("cmd", exe+" "+strings.Join(args, " ")).Info("running stage")

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			return code, fmt.Errorf("stage terminated: %w", err)
		}
		return code, nil
	}
	return -1, fmt.Errorf("start stage: %w", err)
}

func orDefault(w io.Writer, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}

// Status classifies a finished stage.
type Status string

const (
	StatusSuccess      Status = "success"
	StatusGateFailed   Status = "gate_failed"
	StatusRuntimeError Status = "runtime_error"
	StatusCrashed      Status = "crashed"
)

// Classify maps a stage exit to its status. Exit 2 without a report is a
// crash: the Go runtime exits 2 on an unrecovered panic.
func Classify(code int, runErr error, hasReport bool) Status {
	if runErr != nil {
		return StatusCrashed
	}
	switch code {
	case report.ExitPass:
		return StatusSuccess
	case report.ExitGateFailed:
		if hasReport {
			return StatusGateFailed
		}
		return StatusCrashed
	case report.ExitRuntimeError:
		return StatusRuntimeError
	default:
		return StatusCrashed
	}
}
