// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"slices"
	"sync"

	"bpybuild/internal/runner"
	"bpybuild/pkg/types"
)

// RecordingRunner implements runner.Runner without spawning processes.
// Every command is recorded; Hook, when set, decides the outcome.
type RecordingRunner struct {
	mu       sync.Mutex
	commands []runner.Command

	// Hook is called for every command. A nil Hook succeeds with exit code 0.
	Hook func(c runner.Command) (*runner.Result, error)
}

// Run records c and delegates to Hook.
func (r *RecordingRunner) Run(ctx context.Context, c runner.Command) (*runner.Result, error) {
	r.mu.Lock()
	c.Args = slices.Clone(c.Args)
	r.commands = append(r.commands, c)
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.Hook == nil {
		return &runner.Result{}, nil
	}
	return r.Hook(c)
}

// Commands returns a copy of the recorded commands.
func (r *RecordingRunner) Commands() []runner.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.commands)
}

// Argv returns the recorded argument vectors.
func (r *RecordingRunner) Argv() [][]string {
	cmds := r.Commands()
	out := make([][]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Args
	}
	return out
}

// FailWith returns an UnexpectedExitCodeError as a runner would for c.
func FailWith(c runner.Command, code int) (*runner.Result, error) {
	res := &runner.Result{ExitCode: types.ExitCode(code)}
	return res, &runner.UnexpectedExitCodeError{
		Args:     c.Args,
		Dir:      c.Dir,
		Expected: c.ExpectCode,
		Actual:   res.ExitCode,
	}
}
