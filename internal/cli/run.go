package cli

import (
	"context"
	"fmt"
	"os"

	"sitegate/internal/browser"
	"sitegate/internal/config"
	"sitegate/internal/engine"
	"sitegate/internal/history"
	"sitegate/internal/matrix"
	"sitegate/internal/output"
	"sitegate/internal/probe"
	"sitegate/internal/report"
)

func browserOptions(c *config.Config) browser.Options {
	return browser.Options{
		Headless:          c.Browser.Headless,
		Bin:               c.Browser.Bin,
		ControlURL:        c.Browser.ControlURL,
		IgnoreCertErrors:  c.Browser.IgnoreCertErrors,
		NavigationTimeout: c.Browser.NavigationTimeout,
		SettleDelay:       c.Browser.SettleDelay,
	}
}

func timing(c *config.Config) probe.Timing {
	return probe.Timing{PollAttempts: c.Probe.PollAttempts, PollInterval: c.Probe.PollInterval}
}

// loadMatrix returns the checks of --matrix-file or of the built-in matrix,
// and the target the definition names, if any.
func loadMatrix(c *config.Config) ([]probe.Check, string, error) {
	def := matrix.Default()
	if c.Probe.MatrixFile != "" {
		d, err := matrix.Load(c.Paths.Abs(c.Probe.MatrixFile))
		if err != nil {
			return nil, "", err
		}
		def = d
	}
	checks, err := def.Build(timing(c))
	return checks, def.Target, err
}

// newRunner wires a runner to a session page source. acq may be nil when the
// browser could not be started; the runner is then only used to abort.
func newRunner(c *config.Config, acq probe.Acquirer, diag *report.Diagnostics, out *output.Manager) *engine.Runner {
	return &engine.Runner{
		Acquirer:     acq,
		Diagnostics:  diag,
		CheckTimeout: c.Probe.CheckTimeout,
		Parallel:     c.Probe.Parallel,
		Concurrency:  c.Probe.Concurrency,
		Output:       out,
	}
}

// abortedRun records a run that could not start, e.g. because the browser
// failed to launch.
func abortedRun(r *engine.Runner, kind, target string, err error) report.RunReport {
	acc := r.Start(kind, target, 0)
	acc = r.Abort(acc, err.Error())
	return r.Finish(acc)
}

// persist saves rep under the report directory and records it in the run
// history. History failures are logged only.
func persist(c *config.Config, rep report.RunReport) (string, error) {
	paths := c.Paths.Resolve()
	path, err := report.Save(paths.ReportDir, rep)
	if err != nil {
		return "", fmt.Errorf("save %s report: %w", rep.Kind, err)
	}
	log.WithField("path", path).Infof("%s report saved", rep.Kind)
	if !paths.NoHistory {
		if err := recordHistory(paths.HistoryDB, history.FromReport(rep, path)); err != nil {
			log.WithError(err).Warn("run not recorded in history")
		}
	}
	return path, nil
}

func recordHistory(db string, e history.Entry) error {
	store, err := history.Open(db)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Append(e)
}

// launch starts the browser session for a run.
func launch(ctx context.Context, c *config.Config) (*browser.Session, error) {
	s, err := browser.Launch(ctx, browserOptions(c))
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	return s, nil
}

func closeSession(s *browser.Session) {
	if s == nil {
		return
	}
	if err := s.Close(); err != nil {
		log.WithError(err).Warn("close browser")
	}
}

func closeOutput(out *output.Manager) {
	if err := out.Close(); err != nil {
		log.WithError(err).Warn("close output")
	}
}

func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
