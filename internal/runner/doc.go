// SPDX-License-Identifier: MPL-2.0

// Package runner executes external build tools.
//
// Every command runs with an explicit working directory handed to the child
// process; the working directory of the bpybuild process itself is never
// changed, so many commands may run concurrently from different goroutines.
// Output is captured and written to the task logger: stdout at INFO, stderr
// at WARN.
package runner
