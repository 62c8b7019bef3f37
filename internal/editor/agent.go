package editor

import (
	"context"
	"fmt"
	"os"

	"sitegate/internal/engine"
	"sitegate/internal/probe"
	"sitegate/internal/report"
)

const CategoryRun = "run"

// Agent is the native execution agent: preflight, editor flow, smoke test of
// the published site and an optional matrix run, folded into one native
// report.
type Agent struct {
	// Runner streams results and hands out pages for the smoke test.
	Runner *engine.Runner
	Target string

	Preflight Preflight

	// OpenSurface opens the editor tab.
	OpenSurface func(ctx context.Context) (Surface, error)

	// Flow is a template; Surface, SiteID and HomeCode are filled per run.
	Flow Flow

	// MatrixRunner and MatrixChecks enable the in-process matrix run. Its
	// report is returned separately and summarized as matrix.p0_gate.
	MatrixRunner *engine.Runner
	MatrixChecks []probe.Check
}

type Result struct {
	Native report.RunReport
	Matrix *report.RunReport
}

func (a *Agent) Run(ctx context.Context) Result {
	r := a.Runner
	acc := r.Start(report.KindNative, a.Target, 0)

	pre := a.Preflight.Run(ctx)
	for _, res := range pre.Results {
		acc = r.Record(acc, res)
	}
	if !pre.OK {
		acc = r.Record(acc, report.FailResult("run.preflight_gate", CategoryRun, report.PriorityBlocking, "Preflight failed"))
		return Result{Native: r.Finish(acc)}
	}

	acc, ok := a.runEditor(ctx, acc, pre.SiteID)
	if acc.Aborted() {
		return Result{Native: r.Finish(acc)}
	}
	if !ok {
		acc = r.Record(acc, report.FailResult("run.editor_gate", CategoryRun, report.PriorityBlocking, "Editor execution failed"))
		return Result{Native: r.Finish(acc)}
	}

	acc = a.runSmoke(ctx, acc)
	if acc.Aborted() {
		return Result{Native: r.Finish(acc)}
	}

	var matrix *report.RunReport
	if a.MatrixRunner != nil && len(a.MatrixChecks) > 0 {
		rep := a.MatrixRunner.Run(ctx, report.KindMatrix, a.Target, a.MatrixChecks)
		matrix = &rep
		acc = r.Record(acc, matrixGate(rep))
	}
	return Result{Native: r.Finish(acc), Matrix: matrix}
}

func (a *Agent) runEditor(ctx context.Context, acc report.Accumulator, siteID string) (report.Accumulator, bool) {
	r := a.Runner
	code, err := os.ReadFile(a.Preflight.HomeCode)
	if err != nil {
		return r.Abort(acc, fmt.Sprintf("read home code: %v", err)), false
	}
	if a.OpenSurface == nil {
		return r.Abort(acc, "no editor surface configured"), false
	}
	surface, err := a.OpenSurface(ctx)
	if err != nil {
		return r.Abort(acc, fmt.Sprintf("open editor: %v", err)), false
	}
	defer func() {
		if err := surface.Close(); err != nil {
			log.WithError(err).Debug("close editor")
		}
	}()

	flow := a.Flow
	flow.Surface = surface
	flow.SiteID = siteID
	flow.HomeCode = string(code)

	out, err := flow.Run(ctx)
	for _, res := range out.Results {
		acc = r.Record(acc, res)
	}
	if err != nil {
		return r.Abort(acc, fmt.Sprintf("editor: %v", err)), false
	}
	return acc, out.LoggedIn && report.Summarize(out.Results, 0, 0).GatePass
}

func (a *Agent) runSmoke(ctx context.Context, acc report.Accumulator) report.Accumulator {
	r := a.Runner
	page, err := r.Open(ctx, probe.Desktop)
	if err != nil {
		return r.Abort(acc, (&engine.AcquireError{Check: "smoke", Err: err}).Error())
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.WithError(err).Debug("close smoke page")
		}
	}()

	out := Smoke(ctx, page)
	for _, id := range CriticalIDs {
		acc = acc.WithPresence(id, out.Presence[id])
	}
	for _, res := range out.Results {
		acc = r.Record(acc, res)
	}
	return acc
}

func matrixGate(rep report.RunReport) report.CheckResult {
	s := rep.Summary
	switch {
	case rep.Aborted:
		return report.FailResult("matrix.p0_gate", "matrix", report.PriorityBlocking, "Post-publish matrix aborted: "+rep.AbortReason)
	case s.GatePass:
		return report.PassResult("matrix.p0_gate", "matrix", report.PriorityBlocking, "Post-publish matrix passed")
	default:
		return report.FailResult("matrix.p0_gate", "matrix", report.PriorityBlocking,
			fmt.Sprintf("Post-publish matrix failed (P0 gate): %d of %d P0 checks failed", s.BlockingFailed, s.Blocking))
	}
}
