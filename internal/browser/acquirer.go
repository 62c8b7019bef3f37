package browser

import (
	"context"

	"sitegate/internal/probe"
	"sitegate/internal/report"
)

// Acquirer hands out fresh pages loaded at Target, each in its own incognito
// context. Page exceptions and console errors go to Diagnostics.
type Acquirer struct {
	Session     *Session
	Target      string
	Diagnostics *report.Diagnostics
}

var _ probe.Acquirer = (*Acquirer)(nil)

func (a *Acquirer) Open(ctx context.Context, vp probe.Viewport) (probe.Page, error) {
	return a.Session.OpenURL(ctx, a.Target, vp, true, a.Diagnostics)
}

// OpenURL opens url at vp and waits for the settle delay. The caller owns the
// returned page.
func (s *Session) OpenURL(ctx context.Context, url string, vp probe.Viewport, incognito bool, diag *report.Diagnostics) (*Page, error) {
	rp, dispose, err := s.newPage(vp, incognito)
	if err != nil {
		return nil, err
	}
	p := &Page{page: rp, dispose: dispose}
	p.stop = s.watch(rp, diag)

	if err := s.navigate(ctx, rp, url); err != nil {
		_ = p.Close()
		return nil, err
	}
	if err := probe.Sleep(ctx, s.opts.SettleDelay); err != nil {
		_ = p.Close()
		return nil, err
	}
	log.WithField("url", url).WithField("viewport", vp.String()).Debug("page ready")
	return p, nil
}
