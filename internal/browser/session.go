// Package browser drives Chromium through go-rod. A Session owns one browser
// process; pages handed out for checks live in their own incognito context so
// concurrent checks never share cookies or storage.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"sitegate/internal/logging"
	"sitegate/internal/probe"
)

var log = logging.For("browser")

// ErrClosed is returned when a page is requested from a closed session.
var ErrClosed = errors.New("browser session closed")

type Options struct {
	Headless bool

	// Bin is an explicit browser binary. Empty lets the launcher find or
	// download one.
	Bin string

	// ControlURL attaches to a running browser instead of launching one.
	ControlURL string

	IgnoreCertErrors  bool
	NavigationTimeout time.Duration
	SettleDelay       time.Duration
}

type Session struct {
	mu       sync.Mutex
	opts     Options
	browser  *rod.Browser
	launcher *launcher.Launcher
	ctx      context.Context
	cancel   context.CancelFunc
	closed   bool
}

// Launch starts (or attaches to) a browser. The session outlives ctx only
// until ctx is cancelled.
func Launch(ctx context.Context, opts Options) (*Session, error) {
	controlURL := opts.ControlURL
	var l *launcher.Launcher
	if controlURL == "" {
		l = launcher.New().Headless(opts.Headless)
		if opts.Bin != "" {
			l = l.Bin(opts.Bin)
		}
		if opts.IgnoreCertErrors {
			l = l.Set(flags.Flag("ignore-certificate-errors"))
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = u
	}

	sctx, cancel := context.WithCancel(ctx)
	b := rod.New().ControlURL(controlURL).Context(sctx)
	if err := b.Connect(); err != nil {
		cancel()
		if l != nil {
			l.Kill()
		}
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	if opts.IgnoreCertErrors {
		if err := b.IgnoreCertErrors(true); err != nil {
			log.WithError(err).Debug("ignore cert errors")
		}
	}
	log.WithField("control_url", controlURL).Debug("browser connected")

	return &Session{
		opts:     opts,
		browser:  b,
		launcher: l,
		ctx:      sctx,
		cancel:   cancel,
	}, nil
}

// Close shuts the browser down. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var err error
	if s.launcher != nil {
		err = s.browser.Close()
		s.launcher.Kill()
	}
	s.cancel()
	return err
}

// newPage opens a blank page sized to vp. With incognito set the page gets
// its own browser context, which is disposed together with the page.
func (s *Session) newPage(vp probe.Viewport, incognito bool) (*rod.Page, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, nil, ErrClosed
	}

	owner := s.browser
	dispose := func() {}
	if incognito {
		inc, err := s.browser.Incognito()
		if err != nil {
			return nil, nil, fmt.Errorf("create incognito context: %w", err)
		}
		owner = inc
		ctxID := inc.BrowserContextID
		dispose = func() {
			if err := (proto.TargetDisposeBrowserContext{BrowserContextID: ctxID}).Call(s.browser); err != nil {
				log.WithError(err).Debug("dispose browser context")
			}
		}
	}

	page, err := owner.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		dispose()
		return nil, nil, fmt.Errorf("create page: %w", err)
	}
	if vp.IsZero() {
		vp = probe.DefaultViewport
	}
	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             vp.Width,
		Height:            vp.Height,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}).Call(page); err != nil {
		_ = page.Close()
		dispose()
		return nil, nil, fmt.Errorf("set viewport %s: %w", vp, err)
	}
	return page, dispose, nil
}

// navigate loads url and waits for DOMContentLoaded within the session's
// navigation timeout.
func (s *Session) navigate(ctx context.Context, page *rod.Page, url string) error {
	timeout := s.opts.NavigationTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	nctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p := page.Context(nctx)
	wait := p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	wait()
	if err := nctx.Err(); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}
