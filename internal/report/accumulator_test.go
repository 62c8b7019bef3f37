package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulator_WithDoesNotMutateReceiver(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	base := NewAccumulator(KindMatrix, "https://example.com", start)

	a := base.With(PassResult("one", "layout", PriorityBlocking, ""))
	b := a.With(FailResult("two", "layout", PriorityBlocking, "x"))
	c := a.With(PassResult("three", "layout", PriorityBlocking, ""))

	assert.Equal(t, 0, base.Len())
	assert.Equal(t, 1, a.Len())
	require.Equal(t, 2, b.Len())
	require.Equal(t, 2, c.Len())
	assert.Equal(t, "two", b.Results()[1].Name)
	assert.Equal(t, "three", c.Results()[1].Name)
}

func TestAccumulator_Finalize(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	finish := start.Add(90 * time.Second)

	diag := NewDiagnostics()
	diag.AddPageError("TypeError: x is undefined")
	diag.AddConsoleError("Failed to load resource")

	acc := NewAccumulator(KindNative, "site", start).
		With(PassResult("smoke.no_iframe", "smoke", PriorityBlocking, "iframe_count=0")).
		WithPresence("btnLogin", true).
		WithPresence("btnRegister", false)

	r := acc.Finalize(finish, diag)
	assert.NotEmpty(t, r.RunID)
	assert.Equal(t, KindNative, r.Kind)
	assert.Equal(t, 90*time.Second, r.Duration())
	assert.Equal(t, []string{"TypeError: x is undefined"}, r.PageErrors)
	assert.Equal(t, map[string]bool{"btnLogin": true, "btnRegister": false}, r.ElementPresence)
	assert.Equal(t, Summary{Total: 1, Blocking: 1, PageErrors: 1, ConsoleErrors: 1, GatePass: true}, r.Summary)
}

func TestAccumulator_Abort(t *testing.T) {
	acc := NewAccumulator(KindMatrix, "u", time.Now()).
		With(PassResult("no_iframe_home", "layout", PriorityBlocking, "")).
		Abort("navigation timeout")

	r := acc.Finalize(time.Now(), nil)
	require.Len(t, r.Results, 2)
	last := r.Results[1]
	assert.Equal(t, "runtime_exception", last.Name)
	assert.Equal(t, "runner", last.Category)
	assert.Equal(t, PriorityBlocking, last.Priority)
	assert.False(t, last.Passed)
	assert.True(t, r.Aborted)
	assert.Equal(t, "navigation timeout", r.AbortReason)
	assert.False(t, r.Summary.GatePass)
	assert.Empty(t, r.PageErrors)
}

func TestAccumulator_TruncatesDetails(t *testing.T) {
	long := strings.Repeat("x", 1000)
	acc := NewAccumulator(KindMatrix, "u", time.Now()).With(CheckResult{Name: "a", Details: long})
	assert.Len(t, acc.Results()[0].Details, MaxDetailsLen)
}
