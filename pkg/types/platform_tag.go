// SPDX-License-Identifier: MPL-2.0

package types

import "strings"

// PlatformTag identifies the target OS/architecture/ABI combination of a wheel
// (e.g. "manylinux_2_28_x86_64"). It is passed verbatim to the packaging tool
// and is deliberately not validated.
type PlatformTag string

// String returns the tag as given.
func (p PlatformTag) String() string { return string(p) }

// WheelComponent returns the tag as it appears in a wheel file name.
// bdist_wheel replaces '-' and '.' with '_' in the platform component.
func (p PlatformTag) WheelComponent() string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(string(p))
}
