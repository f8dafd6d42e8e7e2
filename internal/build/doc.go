// SPDX-License-Identifier: MPL-2.0

// Package build compiles Blender as a Python module for one version pair.
//
// A build runs in its own work area: clone the sources, fetch the prebuilt
// libraries, check out the release tag, update, configure with the requested
// Python version, compile the bpy target and copy the result to
// <dist>/bpy_<blender>_<python>/. Any failing step aborts the build; the work
// area is removed either way.
package build
