package probe_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"sitegate/internal/probe"
	"sitegate/internal/probe/probetest"
	"sitegate/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastTiming = probe.Timing{PollAttempts: 8, PollInterval: 0}

func build(t *testing.T, spec probe.Spec) probe.Check {
	t.Helper()
	c, err := probe.Build(spec, fastTiming)
	require.NoError(t, err)
	return c
}

func run(t *testing.T, c probe.Check, p probe.Page) report.CheckResult {
	t.Helper()
	res, err := c.Run(context.Background(), p)
	require.NoError(t, err)
	return res
}

func TestNavigate(t *testing.T) {
	spec := probe.Spec{Name: "navEvents", Kind: probe.KindNavigate, Expect: "/events"}

	t.Run("location changes within retry budget", func(t *testing.T) {
		page := probetest.NewPage("https://example.test/").
			With("navEvents", probetest.Element{Href: "https://example.test/events", NavDelay: 3})

		res := run(t, build(t, spec), page)
		assert.True(t, res.Passed)
		assert.Equal(t, "navigation", res.Category)
		assert.Equal(t, report.PriorityBlocking, res.Priority)
		assert.Equal(t, "https://example.test/events", res.Evidence["after"].Str())
		assert.Equal(t, int64(4), res.Evidence["attempts"].Int())
	})

	t.Run("location never changes", func(t *testing.T) {
		page := probetest.NewPage("https://example.test/").
			With("navEvents", probetest.Element{})

		res := run(t, build(t, spec), page)
		assert.False(t, res.Passed)
		assert.Equal(t, "https://example.test/", res.Evidence["after"].Str())
		assert.Equal(t, int64(8), res.Evidence["attempts"].Int())
		assert.Contains(t, res.Details, "final URL=https://example.test/")
	})

	t.Run("navigation too slow for budget", func(t *testing.T) {
		page := probetest.NewPage("https://example.test/").
			With("navEvents", probetest.Element{Href: "https://example.test/events", NavDelay: 20})

		res := run(t, build(t, spec), page)
		assert.False(t, res.Passed)
	})

	t.Run("missing element", func(t *testing.T) {
		res := run(t, build(t, spec), probetest.NewPage("https://example.test/"))
		assert.False(t, res.Passed)
		assert.Equal(t, "Element not found", res.Details)
	})

	t.Run("observation error is returned", func(t *testing.T) {
		page := probetest.NewPage("https://example.test/")
		page.Err = assert.AnError
		_, err := build(t, spec).Run(context.Background(), page)
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestNavigate_HomeUnchangedLocationPasses(t *testing.T) {
	c := build(t, probe.Spec{Name: "navHome", Kind: probe.KindNavigate, Expect: "/"})
	page := probetest.NewPage("about:blank").With("navHome", probetest.Element{})

	res := run(t, c, page)
	assert.True(t, res.Passed)
	assert.Equal(t, "about:blank", res.Evidence["before"].Str())
	assert.Equal(t, "about:blank", res.Evidence["after"].Str())
}

func TestNavigate_HomeRequiresUnchangedOrMatching(t *testing.T) {
	c := build(t, probe.Spec{Name: "navHome", Kind: probe.KindNavigate, Expect: "/"})
	page := probetest.NewPage("about:blank").
		With("navHome", probetest.Element{Href: "about:srcdoc"})

	res := run(t, c, page)
	assert.False(t, res.Passed)
}

func TestFormStructure(t *testing.T) {
	c := build(t, probe.Spec{
		Name:     "contact_form_structure",
		Kind:     probe.KindFormStructure,
		Elements: []string{"inputName", "inputEmail", "inputMessage", "btnSubmitContact"},
	})

	page := probetest.NewPage("u").
		With("inputName", probetest.Element{}).
		With("inputMessage", probetest.Element{})

	res := run(t, c, page)
	assert.False(t, res.Passed)
	assert.Equal(t, "forms", res.Category)
	assert.Equal(t, "Missing IDs: inputEmail, btnSubmitContact", res.Details)

	page.With("inputEmail", probetest.Element{}).With("btnSubmitContact", probetest.Element{})
	assert.True(t, run(t, c, page).Passed)
}

func contactPage() *probetest.Page {
	return probetest.NewPage("u").
		With("inputName", probetest.Element{}).
		With("inputEmail", probetest.Element{}).
		With("inputMessage", probetest.Element{}).
		With("btnSubmitContact", probetest.Element{}).
		With("txtContactSuccess", probetest.Element{})
}

func TestFormInvalid(t *testing.T) {
	spec := probe.Spec{
		Name:    "contact_invalid_flow",
		Kind:    probe.KindFormInvalid,
		Fields:  []probe.Field{{ID: "inputName"}, {ID: "inputEmail", Value: "bad-email"}, {ID: "inputMessage"}},
		Submit:  "btnSubmitContact",
		Success: "txtContactSuccess",
		Wait:    time.Millisecond,
	}

	page := contactPage()
	res := run(t, build(t, spec), page)
	assert.True(t, res.Passed)
	assert.Equal(t, "bad-email", page.Values["inputEmail"])
	assert.Equal(t, []string{"btnSubmitContact"}, page.Clicks)

	page = contactPage()
	page.Elements["btnSubmitContact"].Reveals = "txtContactSuccess"
	res = run(t, build(t, spec), page)
	assert.False(t, res.Passed)
}

func TestFormValid(t *testing.T) {
	spec := probe.Spec{
		Name:    "contact_valid_flow",
		Kind:    probe.KindFormValid,
		Fields:  []probe.Field{{ID: "inputEmail", Value: "agent_{{timestamp}}@example.com"}},
		Submit:  "btnSubmitContact",
		Success: "txtContactSuccess",
		Wait:    time.Millisecond,
	}

	t.Run("form still present counts as success", func(t *testing.T) {
		page := contactPage()
		res := run(t, build(t, spec), page)
		assert.True(t, res.Passed)
		assert.True(t, strings.HasPrefix(page.Values["inputEmail"], "agent_"))
		assert.NotContains(t, page.Values["inputEmail"], "{{timestamp}}")
	})

	t.Run("form removed without success fails", func(t *testing.T) {
		page := contactPage()
		page.Elements["btnSubmitContact"].RemoveOnClick = true
		res := run(t, build(t, spec), page)
		assert.False(t, res.Passed)
	})

	t.Run("form removed with success passes", func(t *testing.T) {
		page := contactPage()
		page.Elements["btnSubmitContact"].RemoveOnClick = true
		page.Elements["btnSubmitContact"].Reveals = "txtContactSuccess"
		res := run(t, build(t, spec), page)
		assert.True(t, res.Passed)
	})

	t.Run("missing fields fail without submitting", func(t *testing.T) {
		page := probetest.NewPage("u").With("btnSubmitContact", probetest.Element{})
		res := run(t, build(t, spec), page)
		assert.False(t, res.Passed)
		assert.Equal(t, "Missing IDs: inputEmail", res.Details)
		assert.Empty(t, page.Clicks)
	})
}

func TestOverflow(t *testing.T) {
	c := build(t, probe.Spec{Name: "mobile_overflow", Kind: probe.KindOverflow, Viewport: &probe.Mobile})
	assert.Equal(t, probe.Mobile, c.Viewport())
	assert.Equal(t, "responsive", c.Category())

	page := probetest.NewPage("u")
	page.InnerWidth = 390
	page.ScrollWidth = 410
	assert.True(t, run(t, c, page).Passed)

	page.ScrollWidth = 411
	res := run(t, c, page)
	assert.False(t, res.Passed)
	assert.Equal(t, "390x844", res.Evidence["viewport"].Str())
}

func TestVisibility(t *testing.T) {
	c := build(t, probe.Spec{
		Name:     "tablet_hero_visibility",
		Kind:     probe.KindVisibility,
		Elements: []string{"txtEnglishWelcome", "btnJoinBANF"},
		Viewport: &probe.Tablet,
	})

	page := probetest.NewPage("u").
		With("txtEnglishWelcome", probetest.Element{HasBox: true}).
		With("btnJoinBANF", probetest.Element{HasBox: false})

	res := run(t, c, page)
	assert.False(t, res.Passed)
	assert.Contains(t, res.Details, "hidden: btnJoinBANF")
}

func TestPresenceAndNoIframe(t *testing.T) {
	presence := build(t, probe.Spec{Name: "repeaterEvents_presence", Kind: probe.KindPresence, Element: "repeaterEvents"})
	page := probetest.NewPage("u").With("repeaterEvents", probetest.Element{Descendants: 12})
	res := run(t, presence, page)
	assert.True(t, res.Passed)
	assert.Equal(t, "exists=true, child_nodes=12", res.Details)
	assert.Equal(t, "repeaters", res.Category)

	res = run(t, presence, probetest.NewPage("u"))
	assert.False(t, res.Passed)
	assert.Equal(t, "exists=false, child_nodes=-1", res.Details)

	noIframe := build(t, probe.Spec{Name: "no_iframe_home", Kind: probe.KindNoIframe})
	page.Iframes = 2
	res = run(t, noIframe, page)
	assert.False(t, res.Passed)
	assert.Equal(t, "iframe_count=2", res.Details)
}

func TestBuild(t *testing.T) {
	_, err := probe.Build(probe.Spec{Name: "x", Kind: "teleport"}, fastTiming)
	assert.ErrorContains(t, err, "unknown kind")

	_, err = probe.Build(probe.Spec{Name: "x", Kind: probe.KindNavigate}, fastTiming)
	assert.ErrorContains(t, err, "requires expect")

	_, err = probe.Build(probe.Spec{Name: "x", Kind: probe.KindNoIframe, Priority: "P9"}, fastTiming)
	assert.ErrorContains(t, err, "unsupported priority")

	_, err = probe.BuildAll([]probe.Spec{
		{Name: "a", Kind: probe.KindNoIframe},
		{Name: "a", Kind: probe.KindNoIframe},
	}, fastTiming)
	assert.ErrorContains(t, err, "duplicate")

	c := build(t, probe.Spec{Name: "x", Kind: probe.KindNoIframe, Priority: report.PriorityAdvisory})
	assert.Equal(t, report.PriorityAdvisory, c.Priority())
	assert.Equal(t, probe.DefaultViewport, c.Viewport())
}

func TestKinds(t *testing.T) {
	var names []string
	for _, k := range probe.Kinds() {
		names = append(names, k.Name)
		assert.NotEmpty(t, k.Description)
	}
	assert.Equal(t, []string{
		"form-invalid", "form-structure", "form-valid", "navigate",
		"no-iframe", "overflow", "presence", "visibility",
	}, names)
}
