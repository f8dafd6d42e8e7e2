// SPDX-License-Identifier: MPL-2.0

// Package tasklog creates one logger per build, package or test task.
//
// Each task writes every record to its own timestamped file under
// <log_dir>/<category>/ and mirrors warnings and errors to the console.
// Loggers are independent values; opening one never reconfigures another,
// which keeps concurrently running tasks from misrouting each other's lines.
package tasklog
