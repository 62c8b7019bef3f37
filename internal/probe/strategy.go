package probe

import (
	"context"
	"fmt"
	"strings"
)

// Strategy is one way of achieving an effect (finding a button, entering
// dev mode). Try reports whether it succeeded.
type Strategy struct {
	Name string
	Try  func(ctx context.Context) (bool, error)
}

type Attempt struct {
	Strategy string
	Err      string
}

// Outcome describes a fallback chain run. An exhausted chain is an ordinary
// outcome with Succeeded=false.
type Outcome struct {
	Succeeded bool
	Strategy  string
	Attempts  []Attempt
}

func (o Outcome) String() string {
	if o.Succeeded {
		return fmt.Sprintf("succeeded via %s", o.Strategy)
	}
	if len(o.Attempts) == 0 {
		return "no strategies"
	}
	names := make([]string, 0, len(o.Attempts))
	for _, a := range o.Attempts {
		names = append(names, a.Strategy)
	}
	return fmt.Sprintf("no strategy succeeded (tried %s)", strings.Join(names, ", "))
}

// FirstSuccess tries strategies in order and stops at the first success.
// Errors are recorded on the outcome and never returned.
func FirstSuccess(ctx context.Context, strategies ...Strategy) Outcome {
	var out Outcome
	for _, s := range strategies {
		if ctx.Err() != nil {
			out.Attempts = append(out.Attempts, Attempt{Strategy: s.Name, Err: ctx.Err().Error()})
			return out
		}
		ok, err := tryStrategy(ctx, s)
		a := Attempt{Strategy: s.Name}
		if err != nil {
			a.Err = err.Error()
		}
		out.Attempts = append(out.Attempts, a)
		if ok && err == nil {
			out.Succeeded = true
			out.Strategy = s.Name
			return out
		}
	}
	return out
}

func tryStrategy(ctx context.Context, s Strategy) (ok bool, err error) {
	if s.Try == nil {
		return false, fmt.Errorf("strategy %q has no Try func", s.Name)
	}
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Try(ctx)
}
