package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"sitegate/internal/probe"
	"sitegate/internal/report"
)

// DOM probes run in the page and address elements by id only.
const (
	jsExists = `(id) => !!document.getElementById(id)`
	jsClick  = `(id) => {
		const el = document.getElementById(id);
		if (!el) return false;
		el.click();
		return true;
	}`
	jsSetValue = `(id, value) => {
		const el = document.getElementById(id);
		if (!el) return false;
		el.focus && el.focus();
		el.value = value;
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return true;
	}`
	jsVisible = `(id) => {
		const el = document.getElementById(id);
		if (!el) return false;
		return !!(el.offsetWidth || el.offsetHeight || el.getClientRects().length);
	}`
	jsHasBox = `(id) => {
		const el = document.getElementById(id);
		if (!el) return false;
		const r = el.getBoundingClientRect();
		return r.width > 0 && r.height > 0;
	}`
	jsDescendants = `(id) => {
		const el = document.getElementById(id);
		return el ? el.querySelectorAll('*').length : -1;
	}`
	jsIframes = `() => document.querySelectorAll('iframe').length`
	jsWidths  = `() => [document.documentElement.scrollWidth, window.innerWidth]`
)

// Page is a probe.Page backed by a live browser tab.
type Page struct {
	page    *rod.Page
	stop    context.CancelFunc
	dispose func()
}

var _ probe.Page = (*Page)(nil)

func (p *Page) eval(ctx context.Context, js string, args ...any) (*proto.RuntimeRemoteObject, error) {
	res, err := p.page.Context(ctx).Evaluate(rod.Eval(js, args...))
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	return res, nil
}

func (p *Page) evalBool(ctx context.Context, js string, args ...any) (bool, error) {
	res, err := p.eval(ctx, js, args...)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

func (p *Page) URL(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("page info: %w", err)
	}
	return info.URL, nil
}

func (p *Page) Exists(ctx context.Context, id string) (bool, error) {
	return p.evalBool(ctx, jsExists, id)
}

func (p *Page) Click(ctx context.Context, id string) (bool, error) {
	return p.evalBool(ctx, jsClick, id)
}

func (p *Page) SetValue(ctx context.Context, id, value string) error {
	ok, err := p.evalBool(ctx, jsSetValue, id, value)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("element %s not found", id)
	}
	return nil
}

func (p *Page) Visible(ctx context.Context, id string) (bool, error) {
	return p.evalBool(ctx, jsVisible, id)
}

func (p *Page) HasBox(ctx context.Context, id string) (bool, error) {
	return p.evalBool(ctx, jsHasBox, id)
}

func (p *Page) DescendantCount(ctx context.Context, id string) (int, error) {
	res, err := p.eval(ctx, jsDescendants, id)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

func (p *Page) IframeCount(ctx context.Context) (int, error) {
	res, err := p.eval(ctx, jsIframes)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

func (p *Page) Widths(ctx context.Context) (int, int, error) {
	res, err := p.eval(ctx, jsWidths)
	if err != nil {
		return 0, 0, err
	}
	arr := res.Value.Arr()
	if len(arr) != 2 {
		return 0, 0, fmt.Errorf("unexpected widths %s", res.Value.JSON("", ""))
	}
	return arr[0].Int(), arr[1].Int(), nil
}

// Close stops the event listeners, closes the tab and disposes its context.
func (p *Page) Close() error {
	if p.stop != nil {
		p.stop()
	}
	err := p.page.Close()
	if p.dispose != nil {
		p.dispose()
	}
	return err
}

// watch streams uncaught exceptions and console errors of page into diag
// until the returned cancel func is called or the session ends.
func (s *Session) watch(page *rod.Page, diag *report.Diagnostics) context.CancelFunc {
	wctx, cancel := context.WithCancel(s.ctx)
	if diag == nil {
		return cancel
	}
	wait := page.Context(wctx).EachEvent(
		func(e *proto.RuntimeExceptionThrown) {
			diag.AddPageError(exceptionText(e.ExceptionDetails))
		},
		func(e *proto.RuntimeConsoleAPICalled) {
			if e.Type == proto.RuntimeConsoleAPICalledTypeError {
				diag.AddConsoleError(consoleText(e.Args))
			}
		},
	)
	go wait()
	return cancel
}

func exceptionText(d *proto.RuntimeExceptionDetails) string {
	if d == nil {
		return ""
	}
	if d.Exception != nil && d.Exception.Description != "" {
		return d.Exception.Description
	}
	return d.Text
}

func consoleText(args []*proto.RuntimeRemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a == nil {
			continue
		}
		switch {
		case a.Description != "":
			parts = append(parts, a.Description)
		case !a.Value.Nil():
			parts = append(parts, a.Value.String())
		}
	}
	return strings.Join(parts, " ")
}
