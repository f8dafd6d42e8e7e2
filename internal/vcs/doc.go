// SPDX-License-Identifier: MPL-2.0

// Package vcs fetches the Blender sources and its prebuilt libraries.
//
// Two git backends are available: "exec" shells out to the git binary through
// the command runner, "go-git" clones and checks out in-process. Prebuilt
// libraries always come from Subversion through the runner.
package vcs
