package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trialmetrics/trialstat/internal/cli"
	"github.com/trialmetrics/trialstat/pkg/version"
)

func TestMainComponents(t *testing.T) {
	t.Run("version available", func(t *testing.T) {
		v := version.GetVersion()
		if v == "" {
			t.Error("expected version to be non-empty")
		}
	})

	t.Run("cli root command", func(t *testing.T) {
		root := cli.NewRootCmd(version.GetVersion())
		if root == nil {
			t.Error("expected root command to be non-nil")
		}
		if root.Use == "" {
			t.Error("expected root command to have a use string")
		}
	})
}

// Findings gates report their outcome through a typed error so the process
// can exit with a distinct code; verify extraction handles the common cases.
func TestExtractFindingsExitCode(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantExitCode   int
		wantIsFindings bool
	}{
		{
			name:           "FindingsExitError with exit code 2",
			err:            &cli.FindingsExitError{ExitCode: 2, Reason: "screening produced 3 finding(s)"},
			wantExitCode:   2,
			wantIsFindings: true,
		},
		{
			name:           "FindingsExitError with exit code 42",
			err:            &cli.FindingsExitError{ExitCode: 42, Reason: "over limit"},
			wantExitCode:   42,
			wantIsFindings: true,
		},
		{
			name:           "wrapped FindingsExitError",
			err:            errors.Join(errors.New("outer"), &cli.FindingsExitError{ExitCode: 3, Reason: "wrapped findings"}),
			wantExitCode:   3,
			wantIsFindings: true,
		},
		{
			name:           "non-FindingsExitError falls through",
			err:            errors.New("generic error"),
			wantExitCode:   1,
			wantIsFindings: false,
		},
		{
			name:           "nil error returns 0",
			err:            nil,
			wantExitCode:   0,
			wantIsFindings: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exitCode := extractFindingsExitCode(tt.err)
			if tt.err == nil {
				assert.Equal(t, 0, exitCode, "nil error should return 0")
				return
			}

			var findingsErr *cli.FindingsExitError
			isFindings := errors.As(tt.err, &findingsErr)
			assert.Equal(t, tt.wantIsFindings, isFindings)

			if tt.wantIsFindings {
				require.True(t, isFindings)
				assert.Equal(t, tt.wantExitCode, findingsErr.ExitCode)
			}

			assert.Equal(t, tt.wantExitCode, exitCode)
		})
	}
}
