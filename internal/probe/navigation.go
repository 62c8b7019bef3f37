package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sitegate/internal/report"
)

const KindNavigate = "navigate"

func init() {
	RegisterKind(KindNavigate, "Click an element and wait for the URL to contain a fragment", newNavigateCheck)
}

type navigateCheck struct {
	base
	element string
	expect  string
	timing  Timing
}

func newNavigateCheck(spec Spec, t Timing) (Check, error) {
	element := spec.Element
	if element == "" {
		element = spec.Name
	}
	if spec.Expect == "" {
		return nil, errors.New("navigate requires expect")
	}
	return &navigateCheck{
		base:    newBase(spec, "navigation"),
		element: element,
		expect:  spec.Expect,
		timing:  t,
	}, nil
}

func (c *navigateCheck) Run(ctx context.Context, p Page) (report.CheckResult, error) {
	exists, err := p.Exists(ctx, c.element)
	if err != nil {
		return report.CheckResult{}, err
	}
	if !exists {
		return c.fail("Element not found"), nil
	}

	before, err := p.URL(ctx)
	if err != nil {
		return report.CheckResult{}, err
	}
	clicked, err := p.Click(ctx, c.element)
	if err != nil {
		return report.CheckResult{}, err
	}
	if !clicked {
		return c.fail("Click failed"), nil
	}

	after := before
	ok, attempts, pollErr := Poll(ctx, c.timing.PollAttempts, c.timing.PollInterval, func(ctx context.Context) (bool, error) {
		u, err := p.URL(ctx)
		if err != nil {
			return false, err
		}
		after = u
		return strings.Contains(u, c.expect), nil
	})

	// The home destination may legitimately leave the URL unchanged.
	if !ok && pollErr == nil && c.expect == "/" && after == before {
		ok = true
	}

	details := fmt.Sprintf("expected path contains '%s', final URL=%s", c.expect, after)
	if pollErr != nil {
		details = fmt.Sprintf("%s (%v)", details, pollErr)
	}
	return c.result(ok, details).
		WithEvidence("before", report.String(before)).
		WithEvidence("after", report.String(after)).
		WithEvidence("attempts", report.Int(attempts)), nil
}
