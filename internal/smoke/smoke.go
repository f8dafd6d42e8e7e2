// SPDX-License-Identifier: MPL-2.0

// Package smoke runs the tox smoke test against a built wheel.
//
// A failed smoke test never aborts a batch: Run reports the outcome as a
// Result and logs failures at WARN.
package smoke

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"bpybuild/internal/issue"
	"bpybuild/internal/packaging"
	"bpybuild/internal/runner"
	"bpybuild/pkg/types"
	"bpybuild/pkg/version"
)

type (
	// Options configures a test task.
	Options struct {
		// DistDir holds the wheels.
		DistDir string
		// ProjectDir contains tox.ini. Empty means the current directory.
		ProjectDir string
		// ToxBinary defaults to "tox".
		ToxBinary string
	}

	// Task runs the smoke test of one pair.
	Task struct {
		opts   Options
		runner runner.Runner
		logger *slog.Logger
	}

	// Result is the outcome of one smoke test.
	Result struct {
		// Env is the tox environment, e.g. "py310".
		Env string
		// Archive is the wheel path handed to tox.
		Archive string
		// ExitCode is the exit code of tox, when it ran to completion.
		ExitCode types.ExitCode
		// Err is nil when the test passed.
		Err error
	}
)

// Passed reports whether the smoke test succeeded.
func (r Result) Passed() bool { return r.Err == nil }

// New creates a test task.
func New(opts Options, r runner.Runner, logger *slog.Logger) *Task {
	if opts.DistDir == "" {
		opts.DistDir = "dist"
	}
	if opts.ToxBinary == "" {
		opts.ToxBinary = "tox"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Task{opts: opts, runner: r, logger: logger}
}

// Run invokes "tox -e <env> --installpkg <wheel>" in the project directory.
func (t *Task) Run(ctx context.Context, pair version.Pair, tag types.PlatformTag) Result {
	res := Result{
		Env:     pair.TestEnv(),
		Archive: filepath.Join(t.opts.DistDir, packaging.WheelName(pair, tag)),
	}
	if abs, err := filepath.Abs(res.Archive); err == nil {
		res.Archive = abs
	}
	archive := res.Archive

	if _, err := os.Stat(archive); err != nil {
		res.Err = issue.NewErrorContext().
			WithOperation("locate wheel").
			WithResource(archive).
			WithSuggestion("Run 'bpybuild package' for this pair first").
			Wrap(err).
			BuildError()
		t.logger.Warn("wheel not found, skipping smoke test", "wheel", archive)
		return res
	}

	out, err := t.runner.Run(ctx, runner.Command{
		Args: []string{t.opts.ToxBinary, "-e", res.Env, "--installpkg", archive},
		Dir:  t.opts.ProjectDir,
	})
	if out != nil {
		res.ExitCode = out.ExitCode
	}
	if err != nil {
		res.Err = err
		t.logger.Warn("smoke test failed", "env", res.Env, "exit_code", int(res.ExitCode), "error", err)
		return res
	}

	t.logger.Info("smoke test passed", "env", res.Env)
	return res
}
