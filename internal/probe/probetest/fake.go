// Package probetest provides in-memory implementations of probe.Page and
// probe.Acquirer for tests.
package probetest

import (
	"context"
	"errors"
	"sync"

	"sitegate/internal/probe"
	"sitegate/internal/report"
)

// Element is a fake DOM element addressed by id.
type Element struct {
	Visible     bool
	HasBox      bool
	Descendants int
	// Href is where a click navigates. NavDelay is the number of URL reads
	// after the click before the location changes.
	Href     string
	NavDelay int
	// RemoveOnClick deletes the element when clicked.
	RemoveOnClick bool
	// Reveals makes another element visible when this one is clicked.
	Reveals string
}

type Page struct {
	mu sync.Mutex

	Location    string
	Elements    map[string]*Element
	Iframes     int
	ScrollWidth int
	InnerWidth  int
	// Err is returned from every observation when set.
	Err error
	// PanicOn panics inside the named method.
	PanicOn string

	Values  map[string]string
	Clicks  []string
	Closed  bool
	pending string
	delay   int
}

func NewPage(location string) *Page {
	return &Page{
		Location:    location,
		Elements:    make(map[string]*Element),
		Values:      make(map[string]string),
		ScrollWidth: 1440,
		InnerWidth:  1440,
	}
}

// With adds an element and returns the page for chaining.
func (p *Page) With(id string, el Element) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := el
	p.Elements[id] = &e
	return p
}

func (p *Page) enter(method string) error {
	if p.PanicOn == method {
		panic("probetest: panic in " + method)
	}
	return p.Err
}

func (p *Page) URL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("URL"); err != nil {
		return "", err
	}
	if p.pending != "" {
		if p.delay <= 0 {
			p.Location = p.pending
			p.pending = ""
		} else {
			p.delay--
		}
	}
	return p.Location, nil
}

func (p *Page) Exists(ctx context.Context, id string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("Exists"); err != nil {
		return false, err
	}
	_, ok := p.Elements[id]
	return ok, nil
}

func (p *Page) Click(ctx context.Context, id string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("Click"); err != nil {
		return false, err
	}
	el, ok := p.Elements[id]
	if !ok {
		return false, nil
	}
	p.Clicks = append(p.Clicks, id)
	if el.Href != "" {
		p.pending = el.Href
		p.delay = el.NavDelay
	}
	if el.Reveals != "" {
		if target, ok := p.Elements[el.Reveals]; ok {
			target.Visible = true
		}
	}
	if el.RemoveOnClick {
		delete(p.Elements, id)
	}
	return true, nil
}

func (p *Page) SetValue(ctx context.Context, id, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("SetValue"); err != nil {
		return err
	}
	if _, ok := p.Elements[id]; !ok {
		return errors.New("probetest: no element " + id)
	}
	p.Values[id] = value
	return nil
}

func (p *Page) Visible(ctx context.Context, id string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("Visible"); err != nil {
		return false, err
	}
	el, ok := p.Elements[id]
	return ok && el.Visible, nil
}

func (p *Page) HasBox(ctx context.Context, id string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("HasBox"); err != nil {
		return false, err
	}
	el, ok := p.Elements[id]
	return ok && el.HasBox, nil
}

func (p *Page) DescendantCount(ctx context.Context, id string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("DescendantCount"); err != nil {
		return 0, err
	}
	el, ok := p.Elements[id]
	if !ok {
		return -1, nil
	}
	return el.Descendants, nil
}

func (p *Page) IframeCount(ctx context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("IframeCount"); err != nil {
		return 0, err
	}
	return p.Iframes, nil
}

func (p *Page) Widths(ctx context.Context) (int, int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("Widths"); err != nil {
		return 0, 0, err
	}
	return p.ScrollWidth, p.InnerWidth, nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}

// Acquirer hands out pages built by NewPage.
type Acquirer struct {
	mu sync.Mutex

	// NewPage builds the page for each Open call.
	NewPage func(vp probe.Viewport) *Page
	// FailOn makes the n-th Open (1-based) return Err. Zero never fails.
	FailOn int
	Err    error
	// Diagnostics receives PageErrors and ConsoleErrors on every Open.
	Diagnostics   *report.Diagnostics
	PageErrors    []string
	ConsoleErrors []string

	Opened []probe.Viewport
	Pages  []*Page
}

func (a *Acquirer) Open(ctx context.Context, vp probe.Viewport) (probe.Page, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.Opened = append(a.Opened, vp)
	if a.FailOn > 0 && len(a.Opened) >= a.FailOn {
		err := a.Err
		if err == nil {
			err = errors.New("probetest: target unreachable")
		}
		return nil, err
	}
	for _, e := range a.PageErrors {
		a.Diagnostics.AddPageError(e)
	}
	for _, e := range a.ConsoleErrors {
		a.Diagnostics.AddConsoleError(e)
	}
	var p *Page
	if a.NewPage != nil {
		p = a.NewPage(vp)
	} else {
		p = NewPage("https://example.test/")
	}
	a.Pages = append(a.Pages, p)
	return p, nil
}

// OpenCount returns how many times Open was called.
func (a *Acquirer) OpenCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.Opened)
}
