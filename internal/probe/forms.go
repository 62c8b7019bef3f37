package probe

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sitegate/internal/report"
)

const (
	KindFormStructure = "form-structure"
	KindFormInvalid   = "form-invalid"
	KindFormValid     = "form-valid"
)

const (
	DefaultInvalidSubmitWait = 2 * time.Second
	DefaultValidSubmitWait   = 3 * time.Second
)

// MissingIDsPrefix starts the details of a check that failed on absent
// elements. Gap tooling parses the comma-separated ids after it.
const MissingIDsPrefix = "Missing IDs: "

func init() {
	RegisterKind(KindFormStructure, "Require every form field id to be present", newFormStructureCheck)
	RegisterKind(KindFormInvalid, "Submit an invalid payload and require that no success message appears", newFormInvalidCheck)
	RegisterKind(KindFormValid, "Submit a valid payload and require success or a still-intact form", newFormValidCheck)
}

func missingIDs(ctx context.Context, p Page, ids []string) ([]string, error) {
	var missing []string
	for _, id := range ids {
		ok, err := p.Exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func missingDetails(ids []string) string {
	return MissingIDsPrefix + strings.Join(ids, ", ")
}

type formStructureCheck struct {
	base
	elements []string
}

func newFormStructureCheck(spec Spec, _ Timing) (Check, error) {
	if len(spec.Elements) == 0 {
		return nil, errors.New("form-structure requires elements")
	}
	return &formStructureCheck{base: newBase(spec, "forms"), elements: spec.Elements}, nil
}

func (c *formStructureCheck) Run(ctx context.Context, p Page) (report.CheckResult, error) {
	missing, err := missingIDs(ctx, p, c.elements)
	if err != nil {
		return report.CheckResult{}, err
	}
	if len(missing) > 0 {
		return c.fail(missingDetails(missing)), nil
	}
	return c.pass(fmt.Sprintf("all %d form ids present", len(c.elements))), nil
}

// formFlow fills fields, clicks submit, waits, then evaluates an outcome.
type formFlow struct {
	base
	fields  []Field
	submit  string
	success string
	wait    time.Duration
	now     func() time.Time
}

func newFormFlow(spec Spec, defaultWait time.Duration) (formFlow, error) {
	if spec.Submit == "" || spec.Success == "" {
		return formFlow{}, errors.New("form flows require submit and success")
	}
	wait := spec.Wait
	if wait == 0 {
		wait = defaultWait
	}
	return formFlow{
		base:    newBase(spec, "forms"),
		fields:  spec.Fields,
		submit:  spec.Submit,
		success: spec.Success,
		wait:    wait,
		now:     time.Now,
	}, nil
}

// fillAndSubmit returns a failed result when required ids are missing.
func (f formFlow) fillAndSubmit(ctx context.Context, p Page) (*report.CheckResult, error) {
	ids := make([]string, 0, len(f.fields)+1)
	for _, fld := range f.fields {
		ids = append(ids, fld.ID)
	}
	ids = append(ids, f.submit)
	missing, err := missingIDs(ctx, p, ids)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		res := f.fail(missingDetails(missing))
		return &res, nil
	}

	stamp := strconv.FormatInt(f.now().Unix(), 10)
	for _, fld := range f.fields {
		v := strings.ReplaceAll(fld.Value, "{{timestamp}}", stamp)
		if err := p.SetValue(ctx, fld.ID, v); err != nil {
			return nil, fmt.Errorf("set %s: %w", fld.ID, err)
		}
	}
	if _, err := p.Click(ctx, f.submit); err != nil {
		return nil, fmt.Errorf("click %s: %w", f.submit, err)
	}
	if err := Sleep(ctx, f.wait); err != nil {
		return nil, err
	}
	return nil, nil
}

type formInvalidCheck struct{ formFlow }

func newFormInvalidCheck(spec Spec, _ Timing) (Check, error) {
	f, err := newFormFlow(spec, DefaultInvalidSubmitWait)
	if err != nil {
		return nil, err
	}
	return &formInvalidCheck{f}, nil
}

func (c *formInvalidCheck) Run(ctx context.Context, p Page) (report.CheckResult, error) {
	if res, err := c.fillAndSubmit(ctx, p); err != nil || res != nil {
		if res != nil {
			return *res, nil
		}
		return report.CheckResult{}, err
	}
	visible, err := p.Visible(ctx, c.success)
	if err != nil {
		return report.CheckResult{}, err
	}
	if visible {
		return c.fail("Invalid payload showed the success message"), nil
	}
	return c.pass("Invalid payload does not show success"), nil
}

type formValidCheck struct{ formFlow }

func newFormValidCheck(spec Spec, _ Timing) (Check, error) {
	f, err := newFormFlow(spec, DefaultValidSubmitWait)
	if err != nil {
		return nil, err
	}
	return &formValidCheck{f}, nil
}

func (c *formValidCheck) Run(ctx context.Context, p Page) (report.CheckResult, error) {
	if res, err := c.fillAndSubmit(ctx, p); err != nil || res != nil {
		if res != nil {
			return *res, nil
		}
		return report.CheckResult{}, err
	}
	visible, err := p.Visible(ctx, c.success)
	if err != nil {
		return report.CheckResult{}, err
	}
	formStillThere, err := p.Exists(ctx, c.submit)
	if err != nil {
		return report.CheckResult{}, err
	}
	res := c.result(visible || formStillThere, "Valid submission path executes without runtime failure")
	if !res.Passed {
		res.Details = "Valid submission removed the form without showing success"
	}
	return res.
		WithEvidence("success_visible", report.Bool(visible)).
		WithEvidence("form_present", report.Bool(formStillThere)), nil
}
