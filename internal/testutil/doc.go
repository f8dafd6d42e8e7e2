// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include filesystem operations (MustMkdirAll, MustWriteFile,
// MustReadFile), a controllable FakeClock, and RecordingRunner, a command runner
// that records invocations instead of spawning processes.
package testutil
