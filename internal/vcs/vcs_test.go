// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"bpybuild/internal/runner"
	"bpybuild/internal/testutil"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/google/go-cmp/cmp"
)

func TestNewGit(t *testing.T) {
	t.Parallel()

	rec := &testutil.RecordingRunner{}

	g, err := NewGit("", rec, "", nil)
	if err != nil {
		t.Fatalf("NewGit(\"\") error = %v", err)
	}
	if eg, ok := g.(*ExecGit); !ok || eg.Binary != "git" {
		t.Errorf("default backend = %#v, want ExecGit with git binary", g)
	}

	g, err = NewGit(BackendGoGit, rec, "", nil)
	if err != nil {
		t.Fatalf("NewGit(go-git) error = %v", err)
	}
	if _, ok := g.(*GoGit); !ok {
		t.Errorf("go-git backend = %T", g)
	}

	if _, err := NewGit("hg", rec, "", nil); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("NewGit(hg) error = %v, want ErrUnknownBackend", err)
	}
}

func TestExecGitArguments(t *testing.T) {
	t.Parallel()

	rec := &testutil.RecordingRunner{}
	g := &ExecGit{Runner: rec, Binary: "/usr/bin/git"}
	work := t.TempDir()
	dest := filepath.Join(work, "blender")

	if err := g.Clone(context.Background(), "https://example.com/blender.git", dest); err != nil {
		t.Fatal(err)
	}
	if err := g.Checkout(context.Background(), dest, "v4.0.2"); err != nil {
		t.Fatal(err)
	}

	want := []runner.Command{
		{Args: []string{"/usr/bin/git", "clone", "https://example.com/blender.git", "blender"}, Dir: work},
		{Args: []string{"/usr/bin/git", "checkout", "v4.0.2"}, Dir: dest},
	}
	if diff := cmp.Diff(want, rec.Commands()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestExecGitPropagatesFailure(t *testing.T) {
	t.Parallel()

	rec := &testutil.RecordingRunner{
		Hook: func(c runner.Command) (*runner.Result, error) { return testutil.FailWith(c, 128) },
	}
	g := &ExecGit{Runner: rec, Binary: "git"}

	err := g.Checkout(context.Background(), t.TempDir(), "v9.9.9")
	if code, ok := runner.ExitCodeOf(err); !ok || code != 128 {
		t.Errorf("Checkout() error = %v, want exit code 128", err)
	}
}

func TestSVNCheckout(t *testing.T) {
	t.Parallel()

	rec := &testutil.RecordingRunner{}
	s := &SVN{Runner: rec}
	dir := t.TempDir()

	if err := s.Checkout(context.Background(), "https://svn.example.com/lib/linux", dir); err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"svn", "checkout", "https://svn.example.com/lib/linux"}}
	if diff := cmp.Diff(want, rec.Argv()); diff != "" {
		t.Errorf("argv mismatch (-want +got):\n%s", diff)
	}
	if rec.Commands()[0].Dir != dir {
		t.Errorf("Dir = %q, want %q", rec.Commands()[0].Dir, dir)
	}
}

// newTaggedRepo creates a repository with two commits of version.txt:
// "1" tagged v1.0.0 (lightweight) and v1.1.0 (annotated), then "2" on HEAD.
func newTaggedRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit() error = %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	sig := &object.Signature{Name: "bpybuild", Email: "bpybuild@example.com", When: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	commit := func(content string) plumbing.Hash {
		testutil.MustWriteFile(t, filepath.Join(dir, "version.txt"), content)
		if _, err := wt.Add("version.txt"); err != nil {
			t.Fatal(err)
		}
		h, err := wt.Commit("version "+content, &git.CommitOptions{Author: sig})
		if err != nil {
			t.Fatal(err)
		}
		return h
	}

	first := commit("1")
	if _, err := repo.CreateTag("v1.0.0", first, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateTag("v1.1.0", first, &git.CreateTagOptions{Tagger: sig, Message: "release 1.1.0"}); err != nil {
		t.Fatal(err)
	}
	commit("2")
	return dir
}

func TestGoGitCheckoutTags(t *testing.T) {
	t.Parallel()

	for _, tag := range []string{"v1.0.0", "v1.1.0"} {
		t.Run(tag, func(t *testing.T) {
			t.Parallel()

			dir := newTaggedRepo(t)
			g := &GoGit{}
			if err := g.Checkout(context.Background(), dir, tag); err != nil {
				t.Fatalf("Checkout(%s) error = %v", tag, err)
			}
			if got := testutil.MustReadFile(t, filepath.Join(dir, "version.txt")); got != "1" {
				t.Errorf("version.txt = %q after checkout of %s, want 1", got, tag)
			}
		})
	}
}

func TestGoGitCheckoutUnknownTag(t *testing.T) {
	t.Parallel()

	dir := newTaggedRepo(t)
	if err := (&GoGit{}).Checkout(context.Background(), dir, "v9.9.9"); err == nil {
		t.Error("Checkout() of a missing tag should fail")
	}
	if err := (&GoGit{}).Checkout(context.Background(), t.TempDir(), "v1.0.0"); err == nil {
		t.Error("Checkout() outside a repository should fail")
	}
}

func TestGoGitClone(t *testing.T) {
	t.Parallel()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("local clones need git-upload-pack")
	}

	src := newTaggedRepo(t)
	dest := filepath.Join(t.TempDir(), "blender")
	g := &GoGit{}

	if err := g.Clone(context.Background(), src, dest); err != nil {
		t.Fatalf("Clone() error = %v", err)
	}
	if err := g.Checkout(context.Background(), dest, "v1.1.0"); err != nil {
		t.Fatalf("Checkout() after clone error = %v", err)
	}
	if got := testutil.MustReadFile(t, filepath.Join(dest, "version.txt")); got != "1" {
		t.Errorf("version.txt = %q, want 1", got)
	}
	if _, err := os.Stat(filepath.Join(dest, ".git")); err != nil {
		t.Errorf("clone has no .git directory: %v", err)
	}
}
