// SPDX-License-Identifier: MPL-2.0

package version

import (
	"errors"
	"testing"
)

func TestPairNames(t *testing.T) {
	t.Parallel()

	p, err := ParsePair("4.0.2", "3.10")
	if err != nil {
		t.Fatalf("ParsePair() error = %v", err)
	}

	checks := map[string]string{
		"ID":              p.ID(),
		"ArtifactDirName": p.ArtifactDirName(),
		"LogSuffix":       p.LogSuffix(),
		"TestEnv":         p.TestEnv(),
		"WheelVersion":    p.WheelVersion(),
	}
	want := map[string]string{
		"ID":              "blender-git-4.0.2-3.10",
		"ArtifactDirName": "bpy_4.0.2_3.10",
		"LogSuffix":       "4.0.2_3.10",
		"TestEnv":         "py310",
		"WheelVersion":    "4.0.2",
	}
	for name, got := range checks {
		if got != want[name] {
			t.Errorf("%s() = %q, want %q", name, got, want[name])
		}
	}
}

func TestPairArtifactDirDeterministic(t *testing.T) {
	t.Parallel()

	blenders := []string{"3.6.5", "4.0.2", "4.1.0-beta"}
	pythons := []string{"3.10", "3.11", "3.11.4"}

	seen := make(map[string]string)
	for _, b := range blenders {
		for _, py := range pythons {
			first, err := ParsePair(b, py)
			if err != nil {
				t.Fatalf("ParsePair(%q, %q) error = %v", b, py, err)
			}
			second, _ := ParsePair(b, py)
			if first.ArtifactDirName() != second.ArtifactDirName() {
				t.Errorf("ArtifactDirName not deterministic for %s", first)
			}
			if prev, ok := seen[first.ArtifactDirName()]; ok {
				t.Errorf("ArtifactDirName %q shared by %s and %s", first.ArtifactDirName(), prev, first)
			}
			seen[first.ArtifactDirName()] = first.String()
		}
	}
}

func TestParsePairErrors(t *testing.T) {
	t.Parallel()

	if _, err := ParsePair("four", "3.10"); !errors.Is(err, ErrInvalidVersion) {
		t.Errorf("bad blender version: error = %v", err)
	}
	if _, err := ParsePair("4.0.2", "py3"); !errors.Is(err, ErrInvalidVersion) {
		t.Errorf("bad python version: error = %v", err)
	}
}

func TestPairs(t *testing.T) {
	t.Parallel()

	pairs := Pairs(MustParse("4.0.2"), []Version{MustParse("3.10"), MustParse("3.11")})
	if len(pairs) != 2 {
		t.Fatalf("len(Pairs()) = %d, want 2", len(pairs))
	}
	if pairs[0].Python().String() != "3.10" || pairs[1].Python().String() != "3.11" {
		t.Errorf("Pairs() did not preserve order: %v", pairs)
	}
	if pairs[1].Blender().String() != "4.0.2" {
		t.Errorf("Pairs() lost the blender version: %v", pairs[1])
	}
}
