package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sitegate/internal/flags"
	"sitegate/internal/github"
	"sitegate/internal/release"
	"sitegate/internal/report"
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Run the native and matrix stages and write the release sign-off",
	Long: `Run the full release pipeline.

Stages run in order as child processes of this binary and never
short-circuit:
	1. native --skip-matrix   editor publish and smoke test
	2. matrix                 post-publish interaction matrix

Each stage's newest report is re-read and its gate recomputed. The release
passes only when every stage exited 0 and its report passed.

Afterwards:
	- the native ID gap checklist is written (native_id_gap_<timestamp>.md)
	- a commit status is published when --github-repo is set
	- <signoff-dir>/release_signoff_<timestamp>.md and
	  release_record_<timestamp>.json are written

Flags are forwarded to the stages, so everything accepted by native and
matrix is accepted here.

Exit codes:
	0 = every stage passed
	2 = at least one stage failed or crashed
	3 = the orchestrator itself failed (release_signoff_error_<timestamp>.md)

Examples:
	sitegate release --headless
	sitegate release --github-repo acme/site --github-sha "$GITHUB_SHA"
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		finish(runRelease(cmd.Context()))
	},
}

func runRelease(ctx context.Context) (code int) {
	if ctx == nil {
		ctx = context.Background()
	}
	paths := cfg.Paths.Resolve()

	fail := func(cause error) int {
		errorf("release orchestrator: %v", cause)
		if path, err := release.WriteError(paths.SignoffDir, cause, time.Now()); err != nil {
			log.WithError(err).Warn("write orchestrator error")
		} else {
			log.WithField("path", path).Info("orchestrator error written")
		}
		return report.ExitRuntimeError
	}
	defer func() {
		if r := recover(); r != nil {
			code = fail(fmt.Errorf("panic: %v", r))
		}
	}()

	orch := &release.Orchestrator{
		Runner:      release.ExecRunner{Dir: paths.ProjectRoot},
		Stages:      release.DefaultStages(cfg),
		Target:      cfg.Target.URL,
		ReportDir:   paths.ReportDir,
		SignoffDir:  paths.SignoffDir,
		MappingFile: paths.MappingFile,
	}
	if cfg.GitHub.Repo != "" {
		publisher, err := statusPublisher(ctx)
		if err != nil {
			return fail(err)
		}
		orch.Status = publisher
	}

	rec, err := orch.Run(ctx)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Release %s: %s\n", releaseWord(rec.ReleaseOK), rec.SignoffPath)
	return release.ExitCode(rec)
}

func statusPublisher(ctx context.Context) (*github.StatusPublisher, error) {
	token, source, err := github.ResolveAuthToken(ctx, "")
	if err != nil {
		return nil, err
	}
	log.WithField("source", source).Debug("github token resolved")
	client, err := github.NewClient(ctx, token, github.WithVerbose(cfg.Log.Verbose))
	if err != nil {
		return nil, err
	}
	return github.NewStatusPublisher(client, cfg.GitHub.Repo, cfg.GitHub.SHA, cfg.GitHub.Context, cfg.GitHub.TargetURL)
}

func releaseWord(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}

func init() {
	rootCmd.AddCommand(releaseCmd)
	bindRunFlags(releaseCmd)
	bindEditorFlags(releaseCmd)
	f := releaseCmd.Flags()
	f.StringVar(&cfg.Paths.SignoffDir, flags.FlagSignoffDir, cfg.Paths.SignoffDir, "Directory for the sign-off summary, release record and gap checklist")
	f.StringVar(&cfg.GitHub.Repo, flags.FlagGitHubRepo, cfg.GitHub.Repo, "Publish the decision as a commit status on OWNER/REPO")
	f.StringVar(&cfg.GitHub.SHA, flags.FlagGitHubSHA, cfg.GitHub.SHA, "Commit the status is attached to")
	f.StringVar(&cfg.GitHub.Context, flags.FlagGitHubContext, cfg.GitHub.Context, "Commit status context")
	f.StringVar(&cfg.GitHub.TargetURL, flags.FlagGitHubTargetURL, cfg.GitHub.TargetURL, "Link attached to the commit status")
}
