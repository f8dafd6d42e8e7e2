// SPDX-License-Identifier: MPL-2.0

package workarea

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewCreatesUniqueDirectories(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	a, err := New(base, "blender-git-4.0.2-3.10")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	b, err := New(base, "blender-git-4.0.2-3.10")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if a.Root() == b.Root() {
		t.Fatalf("two areas share %q", a.Root())
	}
	if a.RunID() == b.RunID() {
		t.Error("two areas share a run ID")
	}
	if !strings.Contains(filepath.Base(a.Root()), "blender-git-4.0.2-3.10") {
		t.Errorf("Root() = %q does not contain the label", a.Root())
	}
	if filepath.Dir(a.Root()) != base {
		t.Errorf("Root() = %q not under %q", a.Root(), base)
	}
}

func TestCloseRemovesContents(t *testing.T) {
	t.Parallel()

	a, err := New(t.TempDir(), "x")
	if err != nil {
		t.Fatal(err)
	}
	dir, err := a.Mkdir("build_linux_bpy", "bin")
	if err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}
	if dir != a.Path("build_linux_bpy", "bin") {
		t.Errorf("Mkdir() = %q", dir)
	}
	if err := os.WriteFile(filepath.Join(dir, "f"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(a.Root()); !os.IsNotExist(err) {
		t.Errorf("work area still exists after Close(): %v", err)
	}
}
