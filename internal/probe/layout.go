package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sitegate/internal/report"
)

const (
	KindNoIframe   = "no-iframe"
	KindOverflow   = "overflow"
	KindVisibility = "visibility"
	KindPresence   = "presence"
)

// DefaultOverflowTolerance is the horizontal overflow, in pixels, that still passes.
const DefaultOverflowTolerance = 20

func init() {
	RegisterKind(KindNoIframe, "Fail when the page contains any iframe", newNoIframeCheck)
	RegisterKind(KindOverflow, "Fail when the document scrolls horizontally beyond a tolerance", newOverflowCheck)
	RegisterKind(KindVisibility, "Require every listed element to render with a non-zero box", newVisibilityCheck)
	RegisterKind(KindPresence, "Require an element to exist and report its descendant count", newPresenceCheck)
}

type noIframeCheck struct{ base }

func newNoIframeCheck(spec Spec, _ Timing) (Check, error) {
	return &noIframeCheck{base: newBase(spec, "layout")}, nil
}

func (c *noIframeCheck) Run(ctx context.Context, p Page) (report.CheckResult, error) {
	n, err := p.IframeCount(ctx)
	if err != nil {
		return report.CheckResult{}, err
	}
	return c.result(n == 0, fmt.Sprintf("iframe_count=%d", n)).
		WithEvidence("iframe_count", report.Int(n)), nil
}

type overflowCheck struct {
	base
	tolerance int
}

func newOverflowCheck(spec Spec, _ Timing) (Check, error) {
	tol := DefaultOverflowTolerance
	if spec.Tolerance != nil {
		if *spec.Tolerance < 0 {
			return nil, errors.New("tolerance must be >= 0")
		}
		tol = *spec.Tolerance
	}
	return &overflowCheck{base: newBase(spec, "responsive"), tolerance: tol}, nil
}

func (c *overflowCheck) Run(ctx context.Context, p Page) (report.CheckResult, error) {
	sw, iw, err := p.Widths(ctx)
	if err != nil {
		return report.CheckResult{}, err
	}
	ok := sw <= iw+c.tolerance
	return c.result(ok, fmt.Sprintf("viewport=%s, scroll_width=%d, inner_width=%d", c.viewport, sw, iw)).
		WithEvidence("viewport", report.String(c.viewport.String())).
		WithEvidence("scroll_width", report.Int(sw)).
		WithEvidence("inner_width", report.Int(iw)), nil
}

type visibilityCheck struct {
	base
	elements []string
}

func newVisibilityCheck(spec Spec, _ Timing) (Check, error) {
	if len(spec.Elements) == 0 {
		return nil, errors.New("visibility requires elements")
	}
	return &visibilityCheck{base: newBase(spec, "responsive"), elements: spec.Elements}, nil
}

func (c *visibilityCheck) Run(ctx context.Context, p Page) (report.CheckResult, error) {
	var hidden []string
	for _, id := range c.elements {
		ok, err := p.HasBox(ctx, id)
		if err != nil {
			return report.CheckResult{}, err
		}
		if !ok {
			hidden = append(hidden, id)
		}
	}
	details := fmt.Sprintf("viewport=%s", c.viewport)
	if len(hidden) > 0 {
		details = fmt.Sprintf("%s, hidden: %s", details, strings.Join(hidden, ", "))
	}
	return c.result(len(hidden) == 0, details).
		WithEvidence("viewport", report.String(c.viewport.String())), nil
}

type presenceCheck struct {
	base
	element string
}

func newPresenceCheck(spec Spec, _ Timing) (Check, error) {
	if spec.Element == "" {
		return nil, errors.New("presence requires element")
	}
	return &presenceCheck{base: newBase(spec, "repeaters"), element: spec.Element}, nil
}

func (c *presenceCheck) Run(ctx context.Context, p Page) (report.CheckResult, error) {
	exists, err := p.Exists(ctx, c.element)
	if err != nil {
		return report.CheckResult{}, err
	}
	n, err := p.DescendantCount(ctx, c.element)
	if err != nil {
		return report.CheckResult{}, err
	}
	return c.result(exists, fmt.Sprintf("exists=%t, child_nodes=%d", exists, n)).
		WithEvidence("child_nodes", report.Int(n)), nil
}
