// SPDX-License-Identifier: MPL-2.0

package version

import (
	"fmt"
	"strings"
)

// Pair is one build target: a Blender version built against a Python version.
type Pair struct {
	blender Version
	python  Version
}

// NewPair combines two parsed versions.
func NewPair(blender, python Version) Pair {
	return Pair{blender: blender, python: python}
}

// ParsePair parses both versions.
func ParsePair(blender, python string) (Pair, error) {
	b, err := Parse(blender)
	if err != nil {
		return Pair{}, fmt.Errorf("blender version: %w", err)
	}
	p, err := Parse(python)
	if err != nil {
		return Pair{}, fmt.Errorf("python version: %w", err)
	}
	return NewPair(b, p), nil
}

// Pairs combines one Blender version with each Python version, preserving order.
func Pairs(blender Version, pythons []Version) []Pair {
	pairs := make([]Pair, 0, len(pythons))
	for _, p := range pythons {
		pairs = append(pairs, NewPair(blender, p))
	}
	return pairs
}

// Blender returns the application version.
func (p Pair) Blender() Version { return p.blender }

// Python returns the runtime version.
func (p Pair) Python() Version { return p.python }

// ID returns the task identifier, e.g. "blender-git-4.0.2-3.10".
func (p Pair) ID() string {
	return fmt.Sprintf("blender-git-%s-%s", p.blender, p.python)
}

// ArtifactDirName returns the directory name under dist/ holding the compiled
// bpy tree, e.g. "bpy_4.0.2_3.10".
func (p Pair) ArtifactDirName() string {
	return fmt.Sprintf("bpy_%s_%s", p.blender, p.python)
}

// LogSuffix returns the suffix appended to log file names, e.g. "4.0.2_3.10".
func (p Pair) LogSuffix() string {
	return fmt.Sprintf("%s_%s", p.blender, p.python)
}

// TestEnv returns the tox environment name for the Python version, e.g. "py310".
func (p Pair) TestEnv() string {
	return fmt.Sprintf("py%d%d", p.python.Major(), p.python.Minor())
}

// WheelVersion returns the Blender version as bdist_wheel writes it into the
// wheel file name, e.g. "4.1.0a0" for "4.1.0-alpha".
func (p Pair) WheelVersion() string {
	return strings.ReplaceAll(p.blender.PackagingVersion(), "-", "_")
}

// String implements fmt.Stringer.
func (p Pair) String() string {
	return fmt.Sprintf("blender %s / python %s", p.blender, p.python)
}
