package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name    string
		results []CheckResult
		want    Summary
	}{
		{
			name:    "empty run passes",
			results: nil,
			want:    Summary{GatePass: true},
		},
		{
			name: "advisory failure does not block",
			results: []CheckResult{
				PassResult("a", "layout", PriorityBlocking, ""),
				FailResult("b", "smoke", PriorityAdvisory, "not clickable"),
			},
			want: Summary{Total: 2, Failed: 1, Blocking: 1, GatePass: true},
		},
		{
			name: "blocking failure fails the gate",
			results: []CheckResult{
				FailResult("navEvents", "navigation", PriorityBlocking, "final URL=/"),
				PassResult("navHome", "navigation", PriorityBlocking, ""),
			},
			want: Summary{Total: 2, Failed: 1, Blocking: 2, BlockingFailed: 1, GatePass: false},
		},
		{
			name: "unset priority counts as blocking",
			results: []CheckResult{
				{Name: "x", Passed: false},
			},
			want: Summary{Total: 1, Failed: 1, Blocking: 1, BlockingFailed: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.results, 0, 0))
		})
	}
}

func TestSummarize_CountsDiagnostics(t *testing.T) {
	s := Summarize([]CheckResult{PassResult("a", "c", PriorityBlocking, "")}, 2, 5)
	assert.Equal(t, 2, s.PageErrors)
	assert.Equal(t, 5, s.ConsoleErrors)
	assert.True(t, s.GatePass, "diagnostics never affect the gate")
}

func TestAudit(t *testing.T) {
	results := []CheckResult{
		PassResult("a", "c", PriorityBlocking, ""),
		FailResult("b", "c", PriorityBlocking, "boom"),
	}
	r := RunReport{Results: results, Summary: Summarize(results, 0, 0)}

	got, err := Audit(r)
	assert.NoError(t, err)
	assert.False(t, got.GatePass)

	r.Summary.GatePass = true
	_, err = Audit(r)
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	pass := RunReport{Results: []CheckResult{PassResult("a", "c", PriorityBlocking, "")}}
	fail := RunReport{Results: []CheckResult{FailResult("a", "c", PriorityBlocking, "")}}
	aborted := RunReport{Aborted: true}

	assert.Equal(t, ExitPass, ExitCode(pass))
	assert.Equal(t, ExitGateFailed, ExitCode(fail))
	assert.Equal(t, ExitRuntimeError, ExitCode(aborted))
}
