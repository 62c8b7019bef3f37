// Package editor automates the hosted site editor for the native execution
// agent: preflight checks on the local project, login, dev mode, applying the
// home page code, publishing, and a smoke test of the published site.
package editor

import (
	"context"
	"time"

	"sitegate/internal/probe"
)

// Surface is a live browser tab driven through a third-party UI.
type Surface interface {
	Navigate(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)
	// Click waits up to wait for a visible element and clicks it. It reports
	// false when none appeared.
	Click(ctx context.Context, loc probe.Locator, wait time.Duration) (bool, error)
	// Fill replaces the value of the first visible match without waiting.
	Fill(ctx context.Context, loc probe.Locator, value string) (bool, error)
	Press(ctx context.Context, shortcut string) error
	// SetEditorModel replaces the code editor model, reporting false when no
	// code editor API is loaded.
	SetEditorModel(ctx context.Context, code string) (bool, error)
	InsertText(ctx context.Context, text string) error
	Screenshot(ctx context.Context) ([]byte, error)
	HTML(ctx context.Context) (string, error)
	Texts(ctx context.Context, loc probe.Locator, limit int) ([]string, error)
	Close() error
}

// Selector chains, tried in order.
var (
	EmailFields = []probe.Locator{
		probe.CSS(`input[type="email"]`),
		probe.CSS(`input[name="email"]`),
		probe.CSS(`input[autocomplete="email"]`),
	}
	EmailSubmit = []probe.Locator{
		probe.CSS(`button[type="submit"]`),
		probe.HasText("button", "Continue"),
		probe.HasText("button", "Next"),
	}
	PasswordFields = []probe.Locator{
		probe.CSS(`input[type="password"]`),
		probe.CSS(`input[name="password"]`),
		probe.CSS(`input[autocomplete="current-password"]`),
	}
	PasswordSubmit = []probe.Locator{
		probe.CSS(`button[type="submit"]`),
		probe.HasText("button", "Log In"),
		probe.HasText("button", "Sign In"),
	}
	DevMode = []probe.Locator{
		probe.HasText("button", "Dev Mode"),
		probe.ExactText("Turn on Dev Mode"),
		probe.CSS(`[data-hook*="developer"]`),
		probe.CSS(`[aria-label*="Dev"]`),
	}
	CodePanel = []probe.Locator{
		probe.ExactText("Code Files"),
		probe.CSS(`[data-hook*="code-files"]`),
		probe.ExactText("Backend"),
	}
	HomePageCode = []probe.Locator{
		probe.ExactText("Home"),
		probe.ExactText("Home.js"),
		probe.CSS(`[data-hook*="page-code"]`),
	}
	CodeInput = []probe.Locator{
		probe.CSS(`.monaco-editor .inputarea`),
		probe.CSS(`.CodeMirror textarea`),
		probe.CSS(`[data-hook*='code-editor']`),
	}
	Publish = []probe.Locator{
		probe.HasText("button", "Publish"),
		probe.CSS(`[data-hook*="publish"]`),
		probe.CSS(`[aria-label*="Publish"]`),
	}
	PublishConfirm = []probe.Locator{
		probe.HasText("button", "Publish"),
		probe.HasText("button", "Done"),
		probe.HasText("button", "Continue"),
	}
)

// DevModeShortcut toggles dev mode when no toggle control is found.
const DevModeShortcut = "Alt+Shift+C"

// ClickAny clicks the first locator that shows up within wait and pauses
// after a successful click.
func ClickAny(ctx context.Context, s Surface, locs []probe.Locator, wait, pause time.Duration) probe.Outcome {
	strategies := make([]probe.Strategy, 0, len(locs))
	for _, loc := range locs {
		strategies = append(strategies, probe.Strategy{
			Name: loc.String(),
			Try: func(ctx context.Context) (bool, error) {
				return s.Click(ctx, loc, wait)
			},
		})
	}
	out := probe.FirstSuccess(ctx, strategies...)
	if out.Succeeded {
		_ = probe.Sleep(ctx, pause)
	}
	return out
}

// FillAny fills the first visible field of locs.
func FillAny(ctx context.Context, s Surface, locs []probe.Locator, value string) probe.Outcome {
	strategies := make([]probe.Strategy, 0, len(locs))
	for _, loc := range locs {
		strategies = append(strategies, probe.Strategy{
			Name: loc.String(),
			Try: func(ctx context.Context) (bool, error) {
				return s.Fill(ctx, loc, value)
			},
		})
	}
	return probe.FirstSuccess(ctx, strategies...)
}

// Chunks splits s into pieces of at most n runes.
func Chunks(s string, n int) []string {
	if n <= 0 {
		return []string{s}
	}
	var out []string
	runes := []rune(s)
	for len(runes) > 0 {
		k := min(n, len(runes))
		out = append(out, string(runes[:k]))
		runes = runes[k:]
	}
	return out
}
