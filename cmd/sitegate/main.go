package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"sitegate/internal/cli"
	"sitegate/internal/report"
)

// These variables are populated by the build via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			crash(r)
		}
	}()
	cli.SetBuildInfo(version, commit, date)
	cli.Execute()
}

// crash records an unrecovered panic next to the run reports and exits 3.
func crash(r any) {
	body := fmt.Sprintf("# sitegate crashed\n\n- Error: `%v`\n\n```\n%s```\n", r, debug.Stack())
	path, err := report.WriteArtifact(cli.CrashDir(), report.PrefixCrash, "md", []byte(body), time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v (crash report not written: %v)\n", r, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v (details: %s)\n", r, path)
	}
	os.Exit(report.ExitRuntimeError)
}
