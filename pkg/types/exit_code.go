// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	// ExitSuccess is the status of a process that did what it was asked.
	ExitSuccess ExitCode = 0
	// ExitFailure is the status bpybuild exits with when a task failed.
	ExitFailure ExitCode = 1
	maxExitCode ExitCode = 255
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode is the status a tool (git, cmake, make, python, tox) or
	// bpybuild itself exits with.
	ExitCode int

	// InvalidExitCodeError reports an expected exit code no POSIX process
	// can return.
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-%d)", e.Value, maxExitCode)
}

// Unwrap returns ErrInvalidExitCode for errors.Is compatibility.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate rejects codes outside 0-255.
func (c ExitCode) Validate() error {
	if c < ExitSuccess || c > maxExitCode {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess reports whether c is ExitSuccess.
func (c ExitCode) IsSuccess() bool { return c == ExitSuccess }

// Matches reports whether the exit code equals the expected one.
func (c ExitCode) Matches(expected ExitCode) bool { return c == expected }

func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
