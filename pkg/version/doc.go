// SPDX-License-Identifier: MPL-2.0

// Package version models the Blender and Python versions a build targets.
//
// A Pair combines one Blender version with one Python version and derives every
// deterministic name the build pipeline needs: the task identifier, the artifact
// directory under dist/, the log file suffix and the tox environment.
package version
