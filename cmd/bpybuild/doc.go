// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the bpybuild CLI commands.
//
// Every command resolves the configuration, builds an orchestrator for the
// requested (Blender, Python) pairs and prints a per-pair summary. Failures
// are rendered with the matching issue catalog entry.
package cmd
