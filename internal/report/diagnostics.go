package report

import "sync"

// Diagnostics collects page-level exceptions and console errors observed
// during a run, independent of individual check outcomes. Safe for
// concurrent use.
type Diagnostics struct {
	mu            sync.Mutex
	pageErrors    []string
	consoleErrors []string
}

func NewDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

func (d *Diagnostics) AddPageError(msg string) {
	if d == nil || msg == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pageErrors = append(d.pageErrors, Truncate(msg, MaxDetailsLen))
}

func (d *Diagnostics) AddConsoleError(msg string) {
	if d == nil || msg == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.consoleErrors = append(d.consoleErrors, Truncate(msg, MaxDetailsLen))
}

// Snapshot returns copies of the collected page and console errors.
func (d *Diagnostics) Snapshot() (pageErrors, consoleErrors []string) {
	if d == nil {
		return []string{}, []string{}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string{}, d.pageErrors...), append([]string{}, d.consoleErrors...)
}
