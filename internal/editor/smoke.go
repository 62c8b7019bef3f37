package editor

import (
	"context"
	"fmt"
	"strings"

	"sitegate/internal/report"
)

const CategorySmoke = "smoke"

// CriticalIDs must exist on the published home page.
var CriticalIDs = []string{
	"btnLogin", "btnRegister", "btnJoinBANF", "btnExploreEvents",
	"txtMemberCount", "repeaterEvents", "repeaterNews", "btnSubmitContact",
}

// CriticalButtons must accept a click.
var CriticalButtons = []string{"btnLogin", "btnRegister", "btnJoinBANF", "btnExploreEvents"}

// SmokePage is the subset of probe.Page the smoke test needs.
type SmokePage interface {
	Exists(ctx context.Context, id string) (bool, error)
	Click(ctx context.Context, id string) (bool, error)
	IframeCount(ctx context.Context) (int, error)
}

type SmokeOutcome struct {
	Results  []report.CheckResult
	Presence map[string]bool
}

// Smoke checks the published home page: no iframes, every critical id
// present, critical buttons clickable. Observation errors become failed
// results.
func Smoke(ctx context.Context, p SmokePage) SmokeOutcome {
	out := SmokeOutcome{Presence: make(map[string]bool, len(CriticalIDs))}

	n, err := p.IframeCount(ctx)
	switch {
	case err != nil:
		out.Results = append(out.Results, report.FailResult("smoke.no_iframe", CategorySmoke, report.PriorityBlocking, fmt.Sprintf("error: %v", err)))
	default:
		out.Results = append(out.Results,
			report.NewResult("smoke.no_iframe", CategorySmoke, report.PriorityBlocking, n == 0, fmt.Sprintf("iframe_count=%d", n)).
				WithEvidence("iframe_count", report.Int(n)))
	}

	var missing []string
	for _, id := range CriticalIDs {
		ok, err := p.Exists(ctx, id)
		if err != nil {
			ok = false
		}
		out.Presence[id] = ok
		if !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		out.Results = append(out.Results, report.PassResult("smoke.critical_ids", CategorySmoke, report.PriorityBlocking, "All critical IDs present"))
	} else {
		out.Results = append(out.Results, report.FailResult("smoke.critical_ids", CategorySmoke, report.PriorityBlocking, "Missing IDs: "+strings.Join(missing, ", ")))
	}

	for _, id := range CriticalButtons {
		name := "smoke.click." + id
		clicked, err := p.Click(ctx, id)
		switch {
		case err != nil:
			out.Results = append(out.Results, report.FailResult(name, CategorySmoke, report.PriorityAdvisory, fmt.Sprintf("error: %v", err)))
		case !clicked:
			out.Results = append(out.Results, report.FailResult(name, CategorySmoke, report.PriorityAdvisory, "Element missing"))
		default:
			out.Results = append(out.Results, report.PassResult(name, CategorySmoke, report.PriorityAdvisory, "Clicked"))
		}
	}
	return out
}
