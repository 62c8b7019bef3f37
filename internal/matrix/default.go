package matrix

import (
	"sitegate/internal/probe"
	"sitegate/internal/report"
)

type navTarget struct {
	id   string
	path string
}

var navigationTargets = []navTarget{
	{"navHome", "/"},
	{"navEvents", "/events"},
	{"navMembers", "/members"},
	{"navGallery", "/gallery"},
	{"navMagazine", "/magazine"},
	{"navRadio", "/radio"},
	{"navSponsors", "/sponsors"},
	{"navVolunteer", "/volunteer"},
	{"navContact", "/contact"},
}

var heroTargets = []navTarget{
	{"btnJoinBANF", "/register"},
	{"btnExploreEvents", "/events"},
}

// Contact form ids.
const (
	InputName         = "inputName"
	InputEmail        = "inputEmail"
	InputMessage      = "inputMessage"
	SubmitContact     = "btnSubmitContact"
	ContactSuccess    = "txtContactSuccess"
	HeroWelcome       = "txtEnglishWelcome"
	HeroJoin          = "btnJoinBANF"
	RepeaterEvents    = "repeaterEvents"
	RepeaterNews      = "repeaterNews"
	presenceSuffix    = "_presence"
	overflowSuffix    = "_overflow"
	heroVisibleSuffix = "_hero_visibility"
)

// Default returns the standard post-publish matrix. Every check is blocking.
func Default() Definition {
	p0 := report.PriorityBlocking
	var specs []probe.Spec

	specs = append(specs, probe.Spec{Name: "no_iframe_home", Kind: probe.KindNoIframe, Category: "layout", Priority: p0})

	for _, n := range navigationTargets {
		specs = append(specs, probe.Spec{Name: n.id, Kind: probe.KindNavigate, Category: "navigation", Priority: p0, Element: n.id, Expect: n.path})
	}
	for _, n := range heroTargets {
		specs = append(specs, probe.Spec{Name: n.id, Kind: probe.KindNavigate, Category: "hero_cta", Priority: p0, Element: n.id, Expect: n.path})
	}

	for _, id := range []string{RepeaterEvents, RepeaterNews} {
		specs = append(specs, probe.Spec{Name: id + presenceSuffix, Kind: probe.KindPresence, Category: "repeaters", Priority: p0, Element: id})
	}

	specs = append(specs,
		probe.Spec{
			Name:     "contact_form_structure",
			Kind:     probe.KindFormStructure,
			Category: "forms",
			Priority: p0,
			Elements: []string{InputName, InputEmail, InputMessage, SubmitContact},
		},
		probe.Spec{
			Name:     "contact_invalid_flow",
			Kind:     probe.KindFormInvalid,
			Category: "forms",
			Priority: p0,
			Fields: []probe.Field{
				{ID: InputName, Value: ""},
				{ID: InputEmail, Value: "bad-email"},
				{ID: InputMessage, Value: ""},
			},
			Submit:  SubmitContact,
			Success: ContactSuccess,
			Wait:    probe.DefaultInvalidSubmitWait,
		},
		probe.Spec{
			Name:     "contact_valid_flow",
			Kind:     probe.KindFormValid,
			Category: "forms",
			Priority: p0,
			Fields: []probe.Field{
				{ID: InputName, Value: "BANF Agent"},
				{ID: InputEmail, Value: "agent_{{timestamp}}@example.com"},
				{ID: InputMessage, Value: "Automated matrix validation message"},
			},
			Submit:  SubmitContact,
			Success: ContactSuccess,
			Wait:    probe.DefaultValidSubmitWait,
		},
	)

	for _, vp := range []probe.Viewport{probe.Desktop, probe.Tablet, probe.Mobile} {
		specs = append(specs,
			probe.Spec{Name: vp.Label + overflowSuffix, Kind: probe.KindOverflow, Category: "responsive", Priority: p0, Viewport: &vp},
			probe.Spec{Name: vp.Label + heroVisibleSuffix, Kind: probe.KindVisibility, Category: "responsive", Priority: p0, Viewport: &vp, Elements: []string{HeroWelcome, HeroJoin}},
		)
	}

	return Definition{Checks: specs}
}
