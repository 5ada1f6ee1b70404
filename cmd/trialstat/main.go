// Command trialstat summarizes, screens, plots, and reports on CSV
// observation tables.
package main

import (
	"errors"
	"os"

	"github.com/trialmetrics/trialstat/internal/cli"
	"github.com/trialmetrics/trialstat/pkg/version"
)

func main() {
	os.Exit(run())
}

// run executes the root command and maps its outcome to a process exit
// code. Cobra has already printed the error by the time Execute returns.
func run() int {
	root := cli.NewRootCmd(version.GetVersion())
	if err := root.Execute(); err != nil {
		return extractFindingsExitCode(err)
	}
	return 0
}

// extractFindingsExitCode returns the exit code carried by a
// FindingsExitError, 1 for any other error, and 0 for nil.
func extractFindingsExitCode(err error) int {
	if err == nil {
		return 0
	}
	var findingsErr *cli.FindingsExitError
	if errors.As(err, &findingsErr) {
		return findingsErr.ExitCode
	}
	return 1
}
