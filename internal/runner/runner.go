// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"bpybuild/internal/issue"
	"bpybuild/pkg/types"
)

var (
	// ErrUnexpectedExitCode is the sentinel error wrapped by UnexpectedExitCodeError.
	ErrUnexpectedExitCode = errors.New("unexpected exit code")
	// ErrEmptyCommand is returned when a Command has no arguments.
	ErrEmptyCommand = errors.New("empty command")
)

type (
	// Command is one external process invocation.
	Command struct {
		// Args is the argument vector; Args[0] is the executable.
		Args []string
		// Dir is the working directory of the child process. Empty means the
		// current directory of bpybuild.
		Dir string
		// ExpectCode is the exit code that counts as success (default 0).
		ExpectCode types.ExitCode
		// Env is appended to the inherited environment.
		Env []string
	}

	// Result holds the captured output of a finished process.
	Result struct {
		ExitCode types.ExitCode
		Stdout   string
		Stderr   string
	}

	// UnexpectedExitCodeError reports a process that ran to completion but
	// exited with a code other than the expected one.
	UnexpectedExitCodeError struct {
		Args     []string
		Dir      string
		Expected types.ExitCode
		Actual   types.ExitCode
	}

	// Runner runs commands. Exec is the production implementation; build
	// tasks accept the interface so tests can record invocations instead.
	Runner interface {
		Run(ctx context.Context, c Command) (*Result, error)
	}

	// Exec runs commands as child processes and logs their output.
	Exec struct {
		logger *slog.Logger
	}
)

// Error implements the error interface.
func (e *UnexpectedExitCodeError) Error() string {
	return fmt.Sprintf("command %s exited with code %d (expected %d)", Quote(e.Args), e.Actual, e.Expected)
}

// Unwrap returns ErrUnexpectedExitCode for errors.Is compatibility.
func (e *UnexpectedExitCodeError) Unwrap() error { return ErrUnexpectedExitCode }

// ExitCodeOf returns the actual exit code carried by err if it is (or wraps)
// an UnexpectedExitCodeError.
func ExitCodeOf(err error) (types.ExitCode, bool) {
	var ue *UnexpectedExitCodeError
	if errors.As(err, &ue) {
		return ue.Actual, true
	}
	return 0, false
}

// New creates an Exec that writes command output to logger.
func New(logger *slog.Logger) *Exec {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exec{logger: logger}
}

// Run executes c, captures its output and logs it. It returns an
// UnexpectedExitCodeError when the exit code differs from c.ExpectCode, and
// an ActionableError when the process could not be started at all.
func (r *Exec) Run(ctx context.Context, c Command) (*Result, error) {
	if len(c.Args) == 0 {
		return nil, ErrEmptyCommand
	}
	if err := c.ExpectCode.Validate(); err != nil {
		return nil, err
	}

	line := Quote(c.Args)
	r.logger.Debug("running command", "cmd", line, "dir", c.Dir)

	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	out, captured := newCapturingOutput()
	cmd.Stdout = out.stdout
	cmd.Stderr = out.stderr

	result, startErr := extractExitCode(cmd.Run(), captured)
	r.logOutput(result)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("%s: %w", line, ctxErr)
	}

	if startErr != nil {
		tool := filepath.Base(c.Args[0])
		return result, issue.NewErrorContext().
			WithOperation("start "+tool).
			WithResource(c.Dir).
			WithSuggestion(fmt.Sprintf("Check that %q is installed and on PATH", tool)).
			WithSuggestion("Check that the working directory exists").
			Wrap(startErr).
			BuildError()
	}

	r.logger.Debug("command finished", "cmd", line, "exit_code", result.ExitCode)

	if !result.ExitCode.Matches(c.ExpectCode) {
		return result, &UnexpectedExitCodeError{
			Args:     append([]string(nil), c.Args...),
			Dir:      c.Dir,
			Expected: c.ExpectCode,
			Actual:   result.ExitCode,
		}
	}

	return result, nil
}

func (r *Exec) logOutput(result *Result) {
	if s := strings.TrimRight(result.Stderr, "\n"); s != "" {
		r.logger.Warn(s, "stream", "stderr")
	}
	if s := strings.TrimRight(result.Stdout, "\n"); s != "" {
		r.logger.Info(s, "stream", "stdout")
	}
}
