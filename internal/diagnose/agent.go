package diagnose

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sitegate/internal/editor"
	"sitegate/internal/logging"
	"sitegate/internal/probe"
	"sitegate/internal/report"
)

var log = logging.For("diagnose")

// MaxFindingLen bounds Finding.Text (in runes).
const MaxFindingLen = 500

// Evidence artifact prefixes. They share the report prefix but never look
// like a report, since a non-digit follows it.
const (
	PrefixLoginBlocked = report.PrefixDiagnose + "_login_blocked"
	PrefixEditorLoaded = report.PrefixDiagnose + "_editor_loaded"
	PrefixPage         = report.PrefixDiagnose + "_page"
	PrefixAfterPublish = report.PrefixDiagnose + "_after_publish"
)

type Finding struct {
	Source   string `json:"source"`
	Severity string `json:"severity"`
	Text     string `json:"text"`
}

type Report struct {
	StartedAt      time.Time         `json:"started_at"`
	FinishedAt     time.Time         `json:"finished_at"`
	EditorURL      string            `json:"editor_url"`
	SiteID         string            `json:"site_id"`
	LoginRequired  bool              `json:"login_required"`
	PublishClicked bool              `json:"publish_clicked"`
	Findings       []Finding         `json:"findings"`
	ConsoleErrors  []string          `json:"console_errors"`
	ProbableCauses []string          `json:"probable_causes"`
	Artifacts      map[string]string `json:"artifacts"`
}

// AddFinding records trimmed, truncated text. Empty text is ignored.
func (r *Report) AddFinding(source, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	r.Findings = append(r.Findings, Finding{Source: source, Severity: "error", Text: report.Truncate(text, MaxFindingLen)})
}

// ExitCode is 0 for a clean publish and 2 when anything was found.
func ExitCode(r Report) int {
	if len(r.Findings) > 0 {
		return report.ExitGateFailed
	}
	return report.ExitPass
}

// Save writes the report as publish_diag_<ts>.json in dir.
func Save(dir string, r Report) (string, error) {
	now := r.FinishedAt
	if now.IsZero() {
		now = time.Now()
	}
	return report.WriteJSON(dir, report.PrefixDiagnose, r, now)
}

// Hold keeps the browser open for manual inspection after the publish
// attempt.
type Hold struct {
	Open    bool
	OnError bool
	// Seconds holds for a fixed time; 0 waits for WaitEnter.
	Seconds int
}

func (h Hold) applies(findings int) bool {
	return h.Open || (h.OnError && findings > 0)
}

type Agent struct {
	Surface editor.Surface
	// Diagnostics is fed by the surface's console listener.
	Diagnostics *report.Diagnostics

	// Dir receives screenshots and the page HTML.
	Dir       string
	SiteID    string
	EditorURL string

	LoginTimeout time.Duration
	Delays       editor.Delays

	// Headless disables Hold.
	Headless  bool
	Hold      Hold
	WaitEnter func()

	Now func() time.Time
}

func (a *Agent) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// Run performs the publish attempt. A returned error means the browser
// itself failed; the partial report is still returned.
func (a *Agent) Run(ctx context.Context) (Report, error) {
	start := a.now()
	rep := Report{
		StartedAt: start,
		SiteID:    a.SiteID,
		EditorURL: a.EditorURL,
		Artifacts: map[string]string{},
	}
	if rep.EditorURL == "" {
		rep.EditorURL = editor.EditorURL(a.SiteID)
	}

	err := a.run(ctx, &rep, start)
	if err != nil {
		rep.AddFinding("runtime", err.Error())
	}
	_, rep.ConsoleErrors = a.Diagnostics.Snapshot()
	rep.ProbableCauses = InferCauses(rep.Findings, rep.ConsoleErrors)
	rep.FinishedAt = a.now()
	if rep.Findings == nil {
		rep.Findings = []Finding{}
	}
	return rep, err
}

func (a *Agent) run(ctx context.Context, rep *Report, stamp time.Time) error {
	s := a.Surface
	if err := s.Navigate(ctx, editor.DashboardURL(a.SiteID)); err != nil {
		return err
	}
	_ = probe.Sleep(ctx, a.Delays.Settle)

	url, err := s.URL(ctx)
	if err != nil {
		return err
	}
	if editor.NeedsLogin(url) {
		rep.LoginRequired = true
		ok, err := editor.WaitForLogin(ctx, s, a.LoginTimeout, a.Delays.LoginPoll)
		if err != nil {
			return err
		}
		if !ok {
			a.screenshot(ctx, rep, "login_blocked_screenshot", PrefixLoginBlocked, stamp)
			rep.AddFinding("login", "Manual login was not completed before timeout")
			return nil
		}
	}

	if err := s.Navigate(ctx, rep.EditorURL); err != nil {
		return err
	}
	_ = probe.Sleep(ctx, a.Delays.EditorLoad)
	a.screenshot(ctx, rep, "editor_loaded_screenshot", PrefixEditorLoaded, stamp)

	editor.ClickAny(ctx, s, editor.DevMode, 3500*time.Millisecond, a.Delays.Click)

	rep.PublishClicked = editor.ClickAny(ctx, s, editor.Publish, 8*time.Second, a.Delays.Click).Succeeded
	if rep.PublishClicked {
		editor.ClickAny(ctx, s, editor.PublishConfirm, 4*time.Second, a.Delays.Click)
	}
	_ = probe.Sleep(ctx, a.Delays.EditorLoad)

	rep.Findings = append(rep.Findings, CollectUIErrors(ctx, s)...)

	if html, err := s.HTML(ctx); err != nil {
		log.WithError(err).Warn("capture page html")
	} else if path, err := report.WriteArtifact(a.Dir, PrefixPage, "html", []byte(html), stamp); err != nil {
		log.WithError(err).Warn("write page html")
	} else {
		rep.Artifacts["page_html"] = path
	}
	a.screenshot(ctx, rep, "after_publish_screenshot", PrefixAfterPublish, stamp)

	a.hold(ctx, len(rep.Findings))
	return ctx.Err()
}

func (a *Agent) screenshot(ctx context.Context, rep *Report, key, prefix string, stamp time.Time) {
	data, err := a.Surface.Screenshot(ctx)
	if err != nil {
		log.WithError(err).WithField("artifact", key).Warn("screenshot failed")
		return
	}
	path, err := report.WriteArtifact(a.Dir, prefix, "png", data, stamp)
	if err != nil {
		log.WithError(err).WithField("artifact", key).Warn("write screenshot")
		return
	}
	rep.Artifacts[key] = path
}

func (a *Agent) hold(ctx context.Context, findings int) {
	if a.Headless || !a.Hold.applies(findings) {
		return
	}
	if a.Hold.Seconds > 0 {
		log.Infof("holding browser open for manual inspection (%ds)", a.Hold.Seconds)
		_ = probe.Sleep(ctx, time.Duration(a.Hold.Seconds)*time.Second)
		return
	}
	if a.WaitEnter != nil {
		log.Info("holding browser open for manual inspection; press Enter to close")
		a.WaitEnter()
	}
}

// Error containers scanned after publishing.
var errorContainers = []probe.Locator{
	probe.CSS("[role='alert']"),
	probe.CSS("[aria-live='assertive']"),
	probe.CSS("[data-hook*='toast']"),
	probe.CSS("[data-hook*='notification']"),
	probe.CSS("[data-hook*='error']"),
	probe.HasText("div", "error"),
	probe.HasText("div", "failed"),
	probe.HasText("div", "certificate"),
	probe.HasText("div", "self-signed"),
	probe.HasText("div", "Network error"),
	probe.HasText("div", "FailedToDeployDocument"),
}

var findingKeywords = []string{"error", "failed", "certificate", "network", "deploy"}

const maxNodesPerContainer = 20

// CollectUIErrors reads visible error containers and keeps texts that
// mention a failure keyword, deduplicated case-insensitively.
func CollectUIErrors(ctx context.Context, s editor.Surface) []Finding {
	seen := map[string]bool{}
	var out []Finding
	for _, loc := range errorContainers {
		texts, err := s.Texts(ctx, loc, maxNodesPerContainer)
		if err != nil {
			log.WithError(err).WithField("locator", loc.String()).Debug("read error container")
			continue
		}
		for _, t := range texts {
			t = strings.Join(strings.Fields(t), " ")
			key := strings.ToLower(t)
			if t == "" || seen[key] {
				continue
			}
			seen[key] = true
			if !containsAny(key, findingKeywords) {
				continue
			}
			out = append(out, Finding{Source: "ui", Severity: "error", Text: report.Truncate(t, MaxFindingLen)})
		}
	}
	return out
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s", f.Source, f.Text)
}
