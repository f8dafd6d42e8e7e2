// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints. The issue catalog maps well-known failure classes of a
// bpy build (missing tools, failing build steps, missing artifacts, bad
// configuration) to Markdown guides rendered with glamour.
package issue
