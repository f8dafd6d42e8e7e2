// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"bpybuild/pkg/types"
)

// ExitError ends the process with Code once Execute returns. RunE handlers
// return it after they have already printed the failure, so Err is kept only
// for errors.Is/As.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("bpybuild exited with status %s", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }
