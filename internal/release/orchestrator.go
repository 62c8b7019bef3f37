package release

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"sitegate/internal/gaps"
	"sitegate/internal/logging"
	"sitegate/internal/report"
)

var log = logging.For("release")

// StageOutcome is one entry of the release record.
type StageOutcome struct {
	Name       string          `json:"name"`
	Args       []string        `json:"args"`
	ExitCode   int             `json:"exit_code"`
	Status     Status          `json:"status"`
	Error      string          `json:"error,omitempty"`
	ReportPath string          `json:"report_path,omitempty"`
	GatePass   bool            `json:"gate_pass"`
	Summary    *report.Summary `json:"summary,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

// OK is true for a clean exit whose report passed its gate.
func (o StageOutcome) OK() bool {
	return o.ExitCode == report.ExitPass && o.Status == StatusSuccess && o.GatePass
}

// Record is the aggregate release decision.
type Record struct {
	Target       string         `json:"target"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	Stages       []StageOutcome `json:"stages"`
	ReleaseOK    bool           `json:"release_ok"`
	SignoffPath  string         `json:"signoff_path,omitempty"`
	GapChecklist string         `json:"gap_path,omitempty"`
	CommitStatus string         `json:"commit_status,omitempty"`
}

// ReleaseOK requires at least one stage and every stage OK.
func ReleaseOK(stages []StageOutcome) bool {
	if len(stages) == 0 {
		return false
	}
	for _, s := range stages {
		if !s.OK() {
			return false
		}
	}
	return true
}

// ExitCode is 0 when the release passed and 2 otherwise.
func ExitCode(r Record) int {
	if r.ReleaseOK {
		return report.ExitPass
	}
	return report.ExitGateFailed
}

// StatusPublisher receives the final decision, e.g. as a commit status.
type StatusPublisher interface {
	Publish(ctx context.Context, state, description string) error
}

type Orchestrator struct {
	Runner Runner
	Stages []Stage
	Target string

	ReportDir   string
	SignoffDir  string
	MappingFile string

	// SkipGaps disables the gap checklist.
	SkipGaps bool

	Status StatusPublisher

	Now func() time.Time
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Run executes every stage in order without short-circuiting, then writes
// the sign-off markdown and the release record JSON. A returned error means
// the orchestrator itself failed; stage failures only affect ReleaseOK.
func (o *Orchestrator) Run(ctx context.Context) (Record, error) {
	if o.Runner == nil {
		return Record{}, errors.New("release: no stage runner")
	}
	rec := Record{Target: o.Target, StartedAt: o.now()}

	for _, st := range o.Stages {
		if err := ctx.Err(); err != nil {
			return rec, err
		}
		rec.Stages = append(rec.Stages, o.runStage(ctx, st))
	}

	if !o.SkipGaps {
		res, err := gaps.Generate(o.ReportDir, o.SignoffDir, o.MappingFile, o.now())
		if err != nil {
			log.WithError(err).Warn("gap checklist not generated")
		} else {
			rec.GapChecklist = res.Path
		}
	}

	rec.FinishedAt = o.now()
	rec.ReleaseOK = ReleaseOK(rec.Stages)

	if o.Status != nil {
		state, desc := statusFor(rec)
		if err := o.Status.Publish(ctx, state, desc); err != nil {
			log.WithError(err).Warn("commit status not published")
			rec.CommitStatus = "error: " + err.Error()
		} else {
			rec.CommitStatus = state
		}
	}

	path, err := report.WriteArtifact(o.SignoffDir, report.PrefixSignoff, "md", []byte(RenderSignoff(rec)), rec.FinishedAt)
	if err != nil {
		return rec, fmt.Errorf("write sign-off: %w", err)
	}
	rec.SignoffPath = path
	if _, err := report.WriteJSON(o.SignoffDir, report.PrefixRecord, rec, rec.FinishedAt); err != nil {
		return rec, fmt.Errorf("write release record: %w", err)
	}

	log.WithFields(logrus.Fields{"release_ok": rec.ReleaseOK, "signoff": path}).Info("release finished")
	return rec, nil
}

func (o *Orchestrator) runStage(ctx context.Context, st Stage) StageOutcome {
	out := StageOutcome{Name: st.Name, Args: st.Args, StartedAt: o.now()}
	// Artifact names have second resolution and some filesystems round
	// mtimes down.
	since := o.now().Truncate(time.Second)

	code, runErr := o.Runner.Run(ctx, st.Args)
	out.ExitCode = code
	out.FinishedAt = o.now()
	if runErr != nil {
		out.Error = runErr.Error()
	}

	path, ok, err := report.LatestAfter(o.ReportDir, st.ReportPrefix, since)
	if err != nil {
		log.WithError(err).WithField("stage", st.Name).Warn("look up stage report")
	}
	if ok {
		rep, err := report.Load(path)
		if err != nil {
			log.WithError(err).WithField("stage", st.Name).Warn("stage report unreadable")
			ok = false
		} else {
			out.ReportPath = path
			sum := rep.Recompute()
			out.Summary = &sum
			out.GatePass = sum.GatePass && !rep.Aborted
		}
	}
	out.Status = Classify(code, runErr, ok)

	log.WithFields(logrus.Fields{
		"stage":  st.Name,
		"exit":   code,
		"status": out.Status,
		"report": out.ReportPath,
	}).Info("stage finished")
	return out
}

func statusFor(r Record) (state, description string) {
	failed := 0
	for _, s := range r.Stages {
		if !s.OK() {
			failed++
		}
	}
	if r.ReleaseOK {
		return "success", fmt.Sprintf("Release gates passed (%d stages)", len(r.Stages))
	}
	return "failure", fmt.Sprintf("Release gates failed: %d of %d stages", failed, len(r.Stages))
}

// WriteError records an orchestrator failure as release_signoff_error_<ts>.md.
func WriteError(dir string, cause error, now time.Time) (string, error) {
	body := fmt.Sprintf("# Release Orchestrator Error\n\n- Error: `%v`\n", cause)
	return report.WriteArtifact(dir, report.PrefixSignoffError, "md", []byte(body), now)
}
