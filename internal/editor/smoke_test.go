package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitegate/internal/probe/probetest"
	"sitegate/internal/report"
)

// publishedHome has every critical element.
func publishedHome() *probetest.Page {
	p := probetest.NewPage("https://site.example/")
	for _, id := range CriticalIDs {
		p.With(id, probetest.Element{Visible: true, HasBox: true})
	}
	return p
}

func TestSmoke_AllPresent(t *testing.T) {
	out := Smoke(context.Background(), publishedHome())

	require.Len(t, out.Results, 2+len(CriticalButtons))
	for _, r := range out.Results {
		assert.True(t, r.Passed, r.Name)
		assert.Equal(t, CategorySmoke, r.Category)
	}
	assert.Equal(t, "iframe_count=0", out.Results[0].Details)
	assert.Equal(t, int64(0), out.Results[0].Evidence["iframe_count"].Int())
	assert.Len(t, out.Presence, len(CriticalIDs))
	for _, id := range CriticalIDs {
		assert.True(t, out.Presence[id], id)
	}
}

func TestSmoke_IframeAndMissingIDs(t *testing.T) {
	p := publishedHome()
	p.Iframes = 2
	delete(p.Elements, "txtMemberCount")
	delete(p.Elements, "btnLogin")

	out := Smoke(context.Background(), p)
	noIframe, ids := out.Results[0], out.Results[1]
	assert.False(t, noIframe.Passed)
	assert.Equal(t, "iframe_count=2", noIframe.Details)
	assert.False(t, ids.Passed)
	assert.Equal(t, "Missing IDs: btnLogin, txtMemberCount", ids.Details)
	assert.False(t, out.Presence["btnLogin"])
	assert.True(t, out.Presence["btnRegister"])

	click := out.Results[2]
	assert.Equal(t, "smoke.click.btnLogin", click.Name)
	assert.False(t, click.Passed)
	assert.Equal(t, report.PriorityAdvisory, click.Priority)
}

func TestSmoke_ObservationErrorsFail(t *testing.T) {
	p := publishedHome()
	p.Err = errors.New("target closed")

	out := Smoke(context.Background(), p)
	for _, r := range out.Results {
		assert.False(t, r.Passed, r.Name)
	}
	assert.Contains(t, out.Results[0].Details, "target closed")
	assert.False(t, report.Summarize(out.Results, 0, 0).GatePass)
}
