// SPDX-License-Identifier: MPL-2.0

package orchestrate

import (
	"errors"
	"fmt"
	"time"

	"bpybuild/pkg/types"
	"bpybuild/pkg/version"
)

type (
	// Outcome is the result of one task.
	Outcome struct {
		// Index is the position of the pair in the requested Python list.
		Index int
		Pair  version.Pair
		// Err is nil when the task succeeded.
		Err error
		// ExitCode is the exit code of the failing tool, or of tox for test tasks.
		ExitCode types.ExitCode
		Elapsed  time.Duration
		// LogPath is the task's log file.
		LogPath string
		// Artifact is the artifact directory (build) or wheel (package, test).
		Artifact string
	}

	// Report collects the outcomes of one batch, ordered by Index.
	Report struct {
		Category string
		Outcomes []Outcome
	}

	// AllReport is the result of All. Package and Test only contain the pairs
	// whose build succeeded.
	AllReport struct {
		Build   *Report
		Package *Report
		Test    *Report
	}
)

// OK reports whether the task succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Failed returns the failed outcomes.
func (r *Report) Failed() []Outcome {
	return r.filter(false)
}

// Succeeded returns the successful outcomes.
func (r *Report) Succeeded() []Outcome {
	return r.filter(true)
}

// Err joins the errors of all failed tasks, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, o := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s task %d (%s): %w", r.Category, o.Index, o.Pair, o.Err))
	}
	return errors.Join(errs...)
}

func (r *Report) filter(ok bool) []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.OK() == ok {
			out = append(out, o)
		}
	}
	return out
}

// Err joins the errors of the build and package stages. Test failures are
// reported but never make the batch fail.
func (r *AllReport) Err() error {
	var errs []error
	for _, rep := range []*Report{r.Build, r.Package} {
		if rep != nil {
			errs = append(errs, rep.Err())
		}
	}
	return errors.Join(errs...)
}
