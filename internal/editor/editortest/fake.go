// Package editortest provides an in-memory editor.Surface for tests.
package editortest

import (
	"context"
	"strings"
	"sync"
	"time"

	"sitegate/internal/probe"
)

// Surface is a scripted UI. Locators are matched by their String form.
type Surface struct {
	mu sync.Mutex

	Location string
	// Redirects maps a navigated URL to where the browser lands.
	Redirects map[string]string
	// Visible lists the locators that resolve to a visible element.
	Visible map[string]bool
	// OnClick moves the location when the locator is clicked.
	OnClick map[string]string
	// ManualLoginAfter switches Location to ManualLoginURL once, after that
	// many URL reads. 0 disables it.
	ManualLoginAfter int
	ManualLoginURL   string

	// Monaco makes SetEditorModel succeed.
	Monaco bool

	NavigateErr error
	PressErr    error

	TextsByCSS map[string][]string
	Body       string
	Shot       []byte

	Navigations []string
	Clicks      []string
	Fills       map[string]string
	Pressed     []string
	Inserted    []string
	Model       string
	Closed      bool

	urlReads int
}

func New(location string) *Surface {
	return &Surface{
		Location:  location,
		Redirects: map[string]string{},
		Visible:   map[string]bool{},
		OnClick:   map[string]string{},
		Fills:     map[string]string{},
	}
}

// Show marks locators as visible and returns s for chaining.
func (s *Surface) Show(locs ...probe.Locator) *Surface {
	for _, l := range locs {
		s.Visible[l.String()] = true
	}
	return s
}

func (s *Surface) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Navigations = append(s.Navigations, url)
	if s.NavigateErr != nil {
		return s.NavigateErr
	}
	if to, ok := s.Redirects[url]; ok {
		url = to
	}
	s.Location = url
	return ctx.Err()
}

func (s *Surface) URL(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urlReads++
	if s.ManualLoginAfter > 0 && s.urlReads > s.ManualLoginAfter {
		s.Location = s.ManualLoginURL
		s.ManualLoginAfter = 0
	}
	return s.Location, ctx.Err()
}

func (s *Surface) Click(ctx context.Context, loc probe.Locator, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return false, err
	}
	key := loc.String()
	if !s.Visible[key] {
		return false, nil
	}
	s.Clicks = append(s.Clicks, key)
	if to, ok := s.OnClick[key]; ok {
		s.Location = to
	}
	return true, nil
}

func (s *Surface) Fill(_ context.Context, loc probe.Locator, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := loc.String()
	if !s.Visible[key] {
		return false, nil
	}
	s.Fills[key] = value
	return true, nil
}

func (s *Surface) Press(_ context.Context, shortcut string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PressErr != nil {
		return s.PressErr
	}
	s.Pressed = append(s.Pressed, shortcut)
	return nil
}

func (s *Surface) SetEditorModel(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Monaco {
		return false, nil
	}
	s.Model = code
	return true, nil
}

func (s *Surface) InsertText(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Inserted = append(s.Inserted, text)
	return nil
}

func (s *Surface) Screenshot(context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.Shot...), nil
}

func (s *Surface) HTML(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Body, nil
}

// Texts returns TextsByCSS[loc.CSS], keeping entries that contain loc.Text
// case-insensitively.
func (s *Surface) Texts(_ context.Context, loc probe.Locator, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, t := range s.TextsByCSS[loc.CSS] {
		if len(out) >= limit {
			break
		}
		if loc.Text != "" && !strings.Contains(strings.ToLower(t), strings.ToLower(loc.Text)) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}
