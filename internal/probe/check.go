package probe

import (
	"context"

	"sitegate/internal/report"
)

// Check observes a target and returns exactly one result. Returned errors are
// downgraded to a failed result by the runner; they never abort a run.
type Check interface {
	Name() string
	Category() string
	Priority() report.Priority
	// Viewport is the size of the fresh page the check runs on.
	Viewport() Viewport
	Run(ctx context.Context, p Page) (report.CheckResult, error)
}

type base struct {
	name     string
	category string
	priority report.Priority
	viewport Viewport
}

func newBase(spec Spec, defaultCategory string) base {
	b := base{
		name:     spec.Name,
		category: spec.Category,
		priority: spec.Priority,
		viewport: DefaultViewport,
	}
	if b.category == "" {
		b.category = defaultCategory
	}
	if b.priority == "" {
		b.priority = report.PriorityBlocking
	}
	if spec.Viewport != nil && !spec.Viewport.IsZero() {
		b.viewport = *spec.Viewport
	}
	return b
}

func (b base) Name() string { return b.name }
func (b base) Category() string { return b.category }
func (b base) Priority() report.Priority { return b.priority }
func (b base) Viewport() Viewport { return b.viewport }

func (b base) pass(details string) report.CheckResult {
	return report.PassResult(b.name, b.category, b.priority, details)
}

func (b base) fail(details string) report.CheckResult {
	return report.FailResult(b.name, b.category, b.priority, details)
}

func (b base) result(passed bool, details string) report.CheckResult {
	return report.NewResult(b.name, b.category, b.priority, passed, details)
}
