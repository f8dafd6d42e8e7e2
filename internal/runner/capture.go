// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"bytes"
	"errors"
	"io"
	"os/exec"
	"strings"

	"bpybuild/pkg/types"

	"mvdan.cc/sh/v3/syntax"
)

type (
	// executeOutput configures where command output is directed.
	executeOutput struct {
		stdout io.Writer
		stderr io.Writer
	}

	// capturedOutput holds the captured stdout and stderr buffers.
	capturedOutput struct {
		stdout bytes.Buffer
		stderr bytes.Buffer
	}
)

func newCapturingOutput() (*executeOutput, *capturedOutput) {
	captured := &capturedOutput{}
	return &executeOutput{
		stdout: &captured.stdout,
		stderr: &captured.stderr,
	}, captured
}

// extractExitCode turns the error of exec.Cmd.Run into a Result. The second
// return value is non-nil only when the process could not be started (missing
// executable, bad working directory, permission denied).
func extractExitCode(err error, captured *capturedOutput) (*Result, error) {
	result := &Result{
		Stdout: captured.stdout.String(),
		Stderr: captured.stderr.String(),
	}

	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// -1 means the process was terminated by a signal.
		result.ExitCode = types.ExitCode(exitErr.ExitCode())
		return result, nil
	}

	result.ExitCode = 1
	return result, err
}

// Quote renders an argument vector as a shell command line for logs and errors.
func Quote(args []string) string {
	quoted := make([]string, 0, len(args))
	for _, a := range args {
		q, err := syntax.Quote(a, syntax.LangBash)
		if err != nil {
			q = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		quoted = append(quoted, q)
	}
	return strings.Join(quoted, " ")
}
