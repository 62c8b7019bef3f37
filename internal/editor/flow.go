package editor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"sitegate/internal/logging"
	"sitegate/internal/probe"
	"sitegate/internal/report"
)

var log = logging.For("editor")

const CategoryEditor = "editor"

// InsertChunkSize bounds each keyboard text insertion.
const InsertChunkSize = 5000

// DashboardURL is the site dashboard, which redirects to a sign-in page when
// the browser has no session.
func DashboardURL(siteID string) string {
	return "https://manage.wix.com/dashboard/" + siteID
}

// EditorURL is the editor of siteID.
func EditorURL(siteID string) string {
	return "https://editor.wix.com/html/editor/web/renderer/edit/" + siteID
}

// NeedsLogin reports whether url is a sign-in page.
func NeedsLogin(url string) bool {
	u := strings.ToLower(url)
	return strings.Contains(u, "signin") || strings.Contains(u, "login")
}

// Delays are the pauses that let the editor UI catch up between actions.
type Delays struct {
	Click      time.Duration
	Settle     time.Duration
	EditorLoad time.Duration
	Submit     time.Duration
	Publish    time.Duration
	Chunk      time.Duration
	// LoginPoll is the interval between URL reads while waiting for login.
	LoginPoll time.Duration
}

// DefaultDelays returns the pauses tuned for the hosted editor.
func DefaultDelays(settle time.Duration) Delays {
	return Delays{
		Click:      time.Second,
		Settle:     settle,
		EditorLoad: 10 * time.Second,
		Submit:     6 * time.Second,
		Publish:    5 * time.Second,
		Chunk:      50 * time.Millisecond,
		LoginPoll:  time.Second,
	}
}

// Flow drives login, dev mode, code apply and publish on one Surface.
type Flow struct {
	Surface Surface
	SiteID  string
	// EditorURL overrides EditorURL(SiteID).
	EditorURL string

	// Email and Password enable automatic login.
	Email    string
	Password string

	// HomeCode is the page code applied to the editor's home page.
	HomeCode string

	LoginTimeout time.Duration
	Delays       Delays
}

type FlowOutcome struct {
	// LoggedIn is false when the run cannot continue past login.
	LoggedIn bool
	Results  []report.CheckResult
}

func (f *Flow) step(out *FlowOutcome, name string, priority report.Priority, ok bool, details string) {
	res := report.NewResult(name, CategoryEditor, priority, ok, details)
	out.Results = append(out.Results, res)
	log.WithFields(logrus.Fields{"step": name, "passed": ok}).Info(details)
}

// Run executes the editor steps. Login and editor navigation are blocking;
// the remaining steps are best effort and advisory.
func (f *Flow) Run(ctx context.Context) (FlowOutcome, error) {
	var out FlowOutcome

	if err := f.Surface.Navigate(ctx, DashboardURL(f.SiteID)); err != nil {
		return out, err
	}
	_ = probe.Sleep(ctx, f.Delays.Settle)

	url, err := f.Surface.URL(ctx)
	if err != nil {
		return out, err
	}
	if NeedsLogin(url) {
		if f.Email != "" && f.Password != "" {
			f.autoLogin(ctx)
		}
		ok, err := WaitForLogin(ctx, f.Surface, f.LoginTimeout, f.Delays.LoginPoll)
		if err != nil {
			return out, err
		}
		if !ok {
			f.step(&out, "editor.login", report.PriorityBlocking, false, "Login not completed")
			return out, nil
		}
		url, _ = f.Surface.URL(ctx)
	}
	out.LoggedIn = true
	f.step(&out, "editor.login", report.PriorityBlocking, true, "Logged in URL="+report.Truncate(url, 120))

	editorURL := f.EditorURL
	if editorURL == "" {
		editorURL = EditorURL(f.SiteID)
	}
	if err := f.Surface.Navigate(ctx, editorURL); err != nil {
		f.step(&out, "editor.open", report.PriorityBlocking, false, fmt.Sprintf("Editor failed to load: %v", err))
		return out, nil
	}
	_ = probe.Sleep(ctx, f.Delays.EditorLoad)
	url, _ = f.Surface.URL(ctx)
	f.step(&out, "editor.open", report.PriorityBlocking, true, "Editor URL="+report.Truncate(url, 120))

	ok, details := EnableDevMode(ctx, f.Surface, f.Delays)
	f.step(&out, "editor.dev_mode", report.PriorityAdvisory, ok, details)

	panel := ClickAny(ctx, f.Surface, CodePanel, 3*time.Second, f.Delays.Click)
	f.step(&out, "editor.code_panel", report.PriorityAdvisory, panel.Succeeded, "Code panel: "+panel.String())

	applied := f.applyHomeCode(ctx)
	details = "Could not apply home code automatically: " + applied.String()
	if applied.Succeeded {
		details = "Applied home code via " + applied.Strategy
	}
	f.step(&out, "editor.apply_home_code", report.PriorityAdvisory, applied.Succeeded, details)

	published := PublishSite(ctx, f.Surface, f.Delays)
	details = "Publish button not found"
	if published {
		details = "Publish clicked"
	}
	f.step(&out, "editor.publish", report.PriorityAdvisory, published, details)

	return out, ctx.Err()
}

func (f *Flow) autoLogin(ctx context.Context) {
	if FillAny(ctx, f.Surface, EmailFields, f.Email).Succeeded {
		ClickAny(ctx, f.Surface, EmailSubmit, 5*time.Second, f.Delays.Click)
		_ = probe.Sleep(ctx, f.Delays.Settle)
	}
	if FillAny(ctx, f.Surface, PasswordFields, f.Password).Succeeded {
		ClickAny(ctx, f.Surface, PasswordSubmit, 5*time.Second, f.Delays.Click)
		_ = probe.Sleep(ctx, f.Delays.Submit)
	}
}

// WaitForLogin polls the surface URL until it reaches a dashboard page or
// timeout elapses.
func WaitForLogin(ctx context.Context, s Surface, timeout, interval time.Duration) (bool, error) {
	onDashboard := func(ctx context.Context) (bool, error) {
		url, err := s.URL(ctx)
		if err != nil {
			return false, err
		}
		return strings.Contains(url, "/dashboard/") && !NeedsLogin(url), nil
	}
	if ok, err := onDashboard(ctx); err != nil || ok {
		return ok, err
	}
	if interval <= 0 {
		interval = time.Second
	}
	attempts := int(timeout / interval)
	if attempts < 1 {
		attempts = 1
	}
	log.Warnf("waiting for manual login (up to %s)", timeout)
	ok, _, err := probe.Poll(ctx, attempts, interval, onDashboard)
	return ok, err
}

// EnableDevMode clicks a dev mode toggle, falling back to the keyboard
// shortcut.
func EnableDevMode(ctx context.Context, s Surface, d Delays) (bool, string) {
	out := ClickAny(ctx, s, DevMode, 4*time.Second, d.Click)
	if out.Succeeded {
		return true, "Dev mode toggled via " + out.Strategy
	}
	if err := s.Press(ctx, DevModeShortcut); err != nil {
		return false, fmt.Sprintf("Dev mode toggle not found and %s failed: %v", DevModeShortcut, err)
	}
	_ = probe.Sleep(ctx, 2*d.Click)
	return true, "Dev mode toggle attempted via " + DevModeShortcut
}

// PublishSite clicks publish and then a confirmation button if one appears.
func PublishSite(ctx context.Context, s Surface, d Delays) bool {
	if !ClickAny(ctx, s, Publish, 5*time.Second, d.Click).Succeeded {
		return false
	}
	_ = probe.Sleep(ctx, d.Settle)
	ClickAny(ctx, s, PublishConfirm, 3*time.Second, d.Click)
	_ = probe.Sleep(ctx, d.Publish)
	return true
}

func (f *Flow) applyHomeCode(ctx context.Context) probe.Outcome {
	ClickAny(ctx, f.Surface, HomePageCode, 2500*time.Millisecond, f.Delays.Click)
	return probe.FirstSuccess(ctx,
		probe.Strategy{
			Name: "monaco model",
			Try: func(ctx context.Context) (bool, error) {
				return f.Surface.SetEditorModel(ctx, f.HomeCode)
			},
		},
		probe.Strategy{
			Name: "keyboard",
			Try:  f.typeHomeCode,
		},
	)
}

func (f *Flow) typeHomeCode(ctx context.Context) (bool, error) {
	if !ClickAny(ctx, f.Surface, CodeInput, 2*time.Second, 0).Succeeded {
		return false, nil
	}
	if err := f.Surface.Press(ctx, "Control+A"); err != nil {
		return false, err
	}
	for _, chunk := range Chunks(f.HomeCode, InsertChunkSize) {
		if err := f.Surface.InsertText(ctx, chunk); err != nil {
			return false, err
		}
		if err := probe.Sleep(ctx, f.Delays.Chunk); err != nil {
			return false, err
		}
	}
	return true, nil
}
