package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"sitegate/internal/logging"
	"sitegate/internal/output"
	"sitegate/internal/probe"
	"sitegate/internal/report"
)

var log = logging.For("engine")

// AcquireError reports that no page could be opened for a check. It is
// terminal for the run.
type AcquireError struct {
	Check string
	Err   error
}

func (e *AcquireError) Error() string {
	return fmt.Sprintf("open page for %s: %v", e.Check, e.Err)
}

func (e *AcquireError) Unwrap() error { return e.Err }

// Runner executes checks against pages handed out by Acquirer and folds
// their results into a report.
type Runner struct {
	Acquirer probe.Acquirer

	// Diagnostics collects page and console errors for the whole run. The
	// acquirer is expected to feed the same collector. Nil creates one per run.
	Diagnostics *report.Diagnostics

	// CheckTimeout bounds one check including page acquisition. 0 disables it.
	CheckTimeout time.Duration

	// Parallel runs checks concurrently, at most Concurrency at a time.
	Parallel    bool
	Concurrency int

	// Output receives lifecycle events and results. Nil disables streaming.
	Output *output.Manager

	// Now defaults to time.Now.
	Now func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) emit(v any) {
	if r.Output == nil {
		return
	}
	if err := r.Output.Write(v); err != nil {
		log.WithError(err).Warn("output write failed")
	}
}

// Start opens a run: it builds the accumulator and emits run.started.
func (r *Runner) Start(kind, target string, checks int) report.Accumulator {
	if r.Diagnostics == nil {
		r.Diagnostics = report.NewDiagnostics()
	}
	acc := report.NewAccumulator(kind, target, r.now())
	log.WithFields(logrus.Fields{"run_id": acc.RunID(), "kind": kind, "target": target}).Info("run started")
	r.emit(output.RunStarted(acc.RunID(), kind, target, checks))
	return acc
}

// Record appends a result produced outside the runner (preflight steps,
// smoke checks) and streams it.
func (r *Runner) Record(acc report.Accumulator, res report.CheckResult) report.Accumulator {
	acc = acc.With(res)
	r.emit(res)
	return acc
}

// Abort terminates the run with a synthetic runtime_exception result.
func (r *Runner) Abort(acc report.Accumulator, reason string) report.Accumulator {
	log.WithField("run_id", acc.RunID()).Warnf("run aborted: %s", reason)
	acc = acc.Abort(reason)
	r.emit(acc.Results()[acc.Len()-1])
	return acc
}

// Finish finalizes the run and emits run.finished followed by the report.
func (r *Runner) Finish(acc report.Accumulator) report.RunReport {
	rep := acc.Finalize(r.now(), r.Diagnostics)
	log.WithFields(logrus.Fields{
		"run_id":          rep.RunID,
		"total":           rep.Summary.Total,
		"blocking_failed": rep.Summary.BlockingFailed,
		"gate_pass":       rep.Summary.GatePass,
	}).Info("run finished")
	r.emit(output.RunFinished(rep))
	r.emit(rep)
	return rep
}

// Run executes checks as one complete run.
func (r *Runner) Run(ctx context.Context, kind, target string, checks []probe.Check) report.RunReport {
	acc := r.Start(kind, target, len(checks))
	acc = r.Execute(ctx, acc, checks)
	return r.Finish(acc)
}

// Execute folds checks into acc in definition order. A page acquisition
// failure or a cancelled ctx aborts the run; remaining checks are skipped.
func (r *Runner) Execute(ctx context.Context, acc report.Accumulator, checks []probe.Check) report.Accumulator {
	if acc.Aborted() {
		return acc
	}
	if r.Parallel && r.Concurrency > 1 && len(checks) > 1 {
		return r.executeParallel(ctx, acc, checks)
	}
	for _, c := range checks {
		if err := ctx.Err(); err != nil {
			return r.Abort(acc, fmt.Sprintf("run cancelled before %s: %v", c.Name(), err))
		}
		res, err := r.runOne(ctx, c)
		if err != nil {
			return r.Abort(acc, err.Error())
		}
		acc = r.Record(acc, res)
	}
	return acc
}

type slot struct {
	res     report.CheckResult
	err     error
	skipped bool
}

func (r *Runner) executeParallel(ctx context.Context, acc report.Accumulator, checks []probe.Check) report.Accumulator {
	slots := make([]slot, len(checks))

	var (
		mu       sync.Mutex
		stopped  bool
		firstErr error
	)
	stop := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if !stopped {
			stopped, firstErr = true, err
		}
	}
	isStopped := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return stopped
	}

	var g errgroup.Group
	g.SetLimit(r.Concurrency)
	for i, c := range checks {
		if isStopped() {
			slots[i].skipped = true
			continue
		}
		g.Go(func() error {
			if isStopped() {
				slots[i].skipped = true
				return nil
			}
			if err := ctx.Err(); err != nil {
				err = fmt.Errorf("run cancelled before %s: %w", c.Name(), err)
				slots[i].err = err
				stop(err)
				return nil
			}
			res, err := r.runOne(ctx, c)
			if err != nil {
				slots[i].err = err
				stop(err)
				return nil
			}
			slots[i].res = res
			return nil
		})
	}
	_ = g.Wait()

	for i := range slots {
		s := slots[i]
		switch {
		case s.err != nil:
			return r.Abort(acc, s.err.Error())
		case s.skipped:
			reason := "run stopped"
			if firstErr != nil {
				reason = firstErr.Error()
			}
			return r.Abort(acc, reason)
		}
		acc = r.Record(acc, s.res)
	}
	return acc
}

// runOne opens a fresh page for c and runs it. Only acquisition failures are
// returned as errors; everything else becomes a failed result.
func (r *Runner) runOne(ctx context.Context, c probe.Check) (report.CheckResult, error) {
	if r.CheckTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.CheckTimeout)
		defer cancel()
	}

	page, err := r.Open(ctx, c.Viewport())
	if err != nil {
		return report.CheckResult{}, &AcquireError{Check: c.Name(), Err: err}
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.WithError(err).WithField("check", c.Name()).Debug("close page")
		}
	}()

	start := r.now()
	res := RunCheck(ctx, c, page)
	log.WithFields(logrus.Fields{
		"check":    c.Name(),
		"passed":   res.Passed,
		"duration": r.now().Sub(start).Round(time.Millisecond).String(),
	}).Debug("check finished")
	return res, nil
}

// Open acquires a page from the runner's Acquirer, converting a panic into
// an error.
func (r *Runner) Open(ctx context.Context, vp probe.Viewport) (p probe.Page, err error) {
	if r.Acquirer == nil {
		return nil, errors.New("no page acquirer configured")
	}
	defer func() {
		if rec := recover(); rec != nil {
			p, err = nil, fmt.Errorf("panic: %v", rec)
		}
	}()
	return r.Acquirer.Open(ctx, vp)
}

// RunCheck runs c on page and always returns a result carrying c's identity.
// Returned errors and panics become failed results with the cause in details.
func RunCheck(ctx context.Context, c probe.Check, page probe.Page) (res report.CheckResult) {
	failed := func(details string) report.CheckResult {
		return report.FailResult(c.Name(), c.Category(), c.Priority(), details)
	}
	defer func() {
		if rec := recover(); rec != nil {
			res = failed(fmt.Sprintf("panic: %v", rec))
		}
	}()

	res, err := c.Run(ctx, page)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return failed(fmt.Sprintf("timed out: %v", err))
		}
		return failed(fmt.Sprintf("error: %v", err))
	}
	if res.Name == "" {
		res.Name = c.Name()
	}
	if res.Category == "" {
		res.Category = c.Category()
	}
	if res.Priority == "" {
		res.Priority = c.Priority()
	}
	res.Details = report.Truncate(res.Details, report.MaxDetailsLen)
	return res
}
