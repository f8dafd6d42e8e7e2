// SPDX-License-Identifier: MPL-2.0

// Package workarea provides disposable, task-owned working directories.
package workarea

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Area is a temporary directory exclusively owned by one task. Close removes
// it together with everything the task placed inside.
type Area struct {
	root  string
	runID string
}

// New creates a fresh directory under base (the system temp dir when base is
// empty). The name embeds label and a random run ID so concurrent tasks never
// share a directory, even for the same label.
func New(base, label string) (*Area, error) {
	runID := uuid.NewString()
	root, err := os.MkdirTemp(base, fmt.Sprintf("bpybuild-%s-%s-*", label, runID[:8]))
	if err != nil {
		return nil, fmt.Errorf("failed to create work area: %w", err)
	}
	return &Area{root: root, runID: runID}, nil
}

// Root returns the directory path.
func (a *Area) Root() string { return a.root }

// RunID returns the random identifier of this area.
func (a *Area) RunID() string { return a.runID }

// Path joins elem onto the area root.
func (a *Area) Path(elem ...string) string {
	return filepath.Join(append([]string{a.root}, elem...)...)
}

// Mkdir creates a sub-directory (and parents) and returns its path.
func (a *Area) Mkdir(elem ...string) (string, error) {
	p := a.Path(elem...)
	if err := os.MkdirAll(p, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", p, err)
	}
	return p, nil
}

// Close removes the area and all of its contents.
func (a *Area) Close() error {
	if err := os.RemoveAll(a.root); err != nil {
		return fmt.Errorf("failed to remove work area %s: %w", a.root, err)
	}
	return nil
}
