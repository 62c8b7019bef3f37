package browser

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"sitegate/internal/probe"
	"sitegate/internal/report"
)

const (
	jsMonacoSetValue = `(code) => {
		try {
			if (window.monaco && window.monaco.editor) {
				const models = window.monaco.editor.getModels();
				if (models && models.length > 0) {
					models[0].setValue(code);
					return true;
				}
			}
			return false;
		} catch (e) {
			return false;
		}
	}`
	jsTexts = `(css, pattern, limit) => {
		const re = pattern ? new RegExp(pattern, 'i') : null;
		const out = [];
		for (const el of document.querySelectorAll(css)) {
			if (out.length >= limit) break;
			const t = (el.innerText || '').replace(/\s+/g, ' ').trim();
			if (!t || (re && !re.test(t))) continue;
			out.push(t);
		}
		return out;
	}`
)

// Surface drives a long-lived, non-incognito tab through a third-party UI by
// CSS selectors and visible text. Logins performed on it persist in the
// session's default browser context.
type Surface struct {
	*Page
	session *Session
}

// OpenSurface opens a blank tab at vp. Console errors of the tab go to diag.
func (s *Session) OpenSurface(ctx context.Context, vp probe.Viewport, diag *report.Diagnostics) (*Surface, error) {
	rp, dispose, err := s.newPage(vp, false)
	if err != nil {
		return nil, err
	}
	p := &Page{page: rp, dispose: dispose}
	p.stop = s.watch(rp, diag)
	return &Surface{Page: p, session: s}, nil
}

func (s *Surface) Navigate(ctx context.Context, url string) error {
	return s.session.navigate(ctx, s.page, url)
}

// textPattern builds the JS regex literal used to narrow a locator by text.
func textPattern(text string, exact bool) string {
	q := regexp.QuoteMeta(text)
	if exact {
		return `/^\s*` + q + `\s*$/`
	}
	return "/" + q + "/i"
}

func (s *Surface) find(ctx context.Context, loc probe.Locator) (*rod.Element, error) {
	p := s.page.Context(ctx)
	if loc.Text == "" {
		return p.Element(loc.CSS)
	}
	return p.ElementR(loc.CSS, textPattern(loc.Text, loc.Exact))
}

// Click waits up to wait for loc and clicks it if visible. It reports false
// when nothing visible appeared; only a cancelled ctx is an error.
func (s *Surface) Click(ctx context.Context, loc probe.Locator, wait time.Duration) (bool, error) {
	wctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	el, err := s.find(wctx, loc)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}
	visible, err := el.Visible()
	if err != nil || !visible {
		return false, nil
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		log.WithError(err).WithField("locator", loc.String()).Debug("click failed")
		return false, nil
	}
	return true, nil
}

// Fill replaces the value of the first visible element matching loc without
// waiting for it to appear.
func (s *Surface) Fill(ctx context.Context, loc probe.Locator, value string) (bool, error) {
	els, err := s.page.Context(ctx).Elements(loc.CSS)
	if err != nil {
		return false, fmt.Errorf("query %s: %w", loc, err)
	}
	for _, el := range els {
		visible, err := el.Visible()
		if err != nil || !visible {
			continue
		}
		if err := el.SelectAllText(); err != nil {
			log.WithError(err).Debug("select text before fill")
		}
		if err := el.Input(value); err != nil {
			return false, fmt.Errorf("fill %s: %w", loc, err)
		}
		return true, nil
	}
	return false, nil
}

// Press sends a key chord such as "Alt+Shift+C" to the focused element.
func (s *Surface) Press(ctx context.Context, shortcut string) error {
	sc, err := ParseShortcut(shortcut)
	if err != nil {
		return err
	}
	ka := s.page.Context(ctx).KeyActions()
	if len(sc.Modifiers) > 0 {
		ka = ka.Press(sc.Modifiers...)
	}
	if err := ka.Type(sc.Key).Do(); err != nil {
		return fmt.Errorf("press %s: %w", shortcut, err)
	}
	return nil
}

// SetEditorModel replaces the first Monaco model's content. It reports false
// when no Monaco editor is loaded.
func (s *Surface) SetEditorModel(ctx context.Context, code string) (bool, error) {
	return s.evalBool(ctx, jsMonacoSetValue, code)
}

func (s *Surface) InsertText(ctx context.Context, text string) error {
	if err := s.page.Context(ctx).InsertText(text); err != nil {
		return fmt.Errorf("insert text: %w", err)
	}
	return nil
}

func (s *Surface) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := s.page.Context(ctx).Screenshot(true, nil)
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return data, nil
}

func (s *Surface) HTML(ctx context.Context) (string, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("page html: %w", err)
	}
	return html, nil
}

// Texts returns the whitespace-normalized text of up to limit elements
// matching loc.
func (s *Surface) Texts(ctx context.Context, loc probe.Locator, limit int) ([]string, error) {
	pattern := ""
	if loc.Text != "" {
		pattern = regexp.QuoteMeta(loc.Text)
	}
	res, err := s.eval(ctx, jsTexts, loc.CSS, pattern, limit)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, v := range res.Value.Arr() {
		out = append(out, v.Str())
	}
	return out, nil
}
