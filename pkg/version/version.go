// SPDX-License-Identifier: MPL-2.0

package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// ErrInvalidVersion is the sentinel error wrapped by InvalidVersionError.
var ErrInvalidVersion = errors.New("invalid version")

type (
	// Version is a parsed semantic version (major.minor[.patch][-prerelease]).
	// Fields are unexported; a Version can only be obtained through Parse.
	Version struct {
		raw        string
		canonical  string
		major      int
		minor      int
		patch      int
		prerelease string
	}

	// InvalidVersionError is returned when a version string is not a semantic version.
	InvalidVersionError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version %q (expected major.minor[.patch][-prerelease])", e.Value)
}

// Unwrap returns ErrInvalidVersion for errors.Is compatibility.
func (e *InvalidVersionError) Unwrap() error { return ErrInvalidVersion }

// Parse parses s as a semantic version. A leading "v" is accepted and dropped;
// "3.10" is accepted as shorthand for "3.10.0".
func Parse(s string) (Version, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "v")
	if raw == "" || !semver.IsValid("v"+raw) {
		return Version{}, &InvalidVersionError{Value: s}
	}

	canonical := semver.Canonical("v" + raw)
	prerelease := semver.Prerelease(canonical)
	core := strings.TrimSuffix(strings.TrimPrefix(canonical, "v"), prerelease)

	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return Version{}, &InvalidVersionError{Value: s}
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, &InvalidVersionError{Value: s}
		}
		nums[i] = n
	}

	return Version{
		raw:        raw,
		canonical:  canonical,
		major:      nums[0],
		minor:      nums[1],
		patch:      nums[2],
		prerelease: strings.TrimPrefix(prerelease, "-"),
	}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// ParseList parses every value, splitting comma-separated entries, so that
// both "--python 3.10 --python 3.11" and "--python 3.10,3.11" are accepted.
func ParseList(values []string) ([]Version, error) {
	var out []Version
	for _, value := range values {
		for field := range strings.SplitSeq(value, ",") {
			if strings.TrimSpace(field) == "" {
				continue
			}
			v, err := Parse(field)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

// String returns the version as given, without a leading "v".
func (v Version) String() string { return v.raw }

// IsZero reports whether v was never parsed.
func (v Version) IsZero() bool { return v.canonical == "" }

// Major returns the major component.
func (v Version) Major() int { return v.major }

// Minor returns the minor component.
func (v Version) Minor() int { return v.minor }

// Patch returns the patch component (0 for "major.minor" shorthands).
func (v Version) Patch() int { return v.patch }

// Prerelease returns the pre-release identifier without the leading '-', or "".
func (v Version) Prerelease() string { return v.prerelease }

// Tag returns the git release tag for this version (e.g. "v4.0.2").
func (v Version) Tag() string { return "v" + v.raw }

// MajorMinor returns "major.minor" (e.g. "3.10").
func (v Version) MajorMinor() string { return fmt.Sprintf("%d.%d", v.major, v.minor) }

// CPythonTag returns the CPython interpreter tag (e.g. "cp310").
func (v Version) CPythonTag() string { return fmt.Sprintf("cp%d%d", v.major, v.minor) }

// Equal reports whether both versions have the same precedence.
func (v Version) Equal(o Version) bool { return semver.Compare(v.canonical, o.canonical) == 0 }
