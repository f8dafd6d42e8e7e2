// SPDX-License-Identifier: MPL-2.0

// Package orchestrate runs build, package and test tasks over a set of
// (Blender, Python) pairs.
//
// Builds run concurrently on a bounded pool. Packaging and testing run one
// pair at a time. A failing task never stops its siblings; every task ends
// as an Outcome in the returned Report.
package orchestrate
