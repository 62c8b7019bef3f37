package report

// Process exit code contract shared by every command.
const (
	ExitPass         = 0
	ExitGateFailed   = 2
	ExitRuntimeError = 3
)

// ExitCode maps a finalized run to the process exit code.
func ExitCode(r RunReport) int {
	if r.Aborted {
		return ExitRuntimeError
	}
	if !r.Recompute().GatePass {
		return ExitGateFailed
	}
	return ExitPass
}
