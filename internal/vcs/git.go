// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"bpybuild/internal/runner"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

const (
	// BackendExec runs the git executable.
	BackendExec = "exec"
	// BackendGoGit uses the in-process go-git implementation.
	BackendGoGit = "go-git"
)

// ErrUnknownBackend is returned by NewGit for unrecognised backend names.
var ErrUnknownBackend = errors.New("unknown git backend")

type (
	// Git clones a repository and checks out a revision.
	Git interface {
		// Clone clones url into dest. dest must not exist yet.
		Clone(ctx context.Context, url, dest string) error
		// Checkout checks out rev (tag, branch or hash) in repoDir.
		Checkout(ctx context.Context, repoDir, rev string) error
	}

	// ExecGit drives the git executable through a runner.
	ExecGit struct {
		Runner runner.Runner
		Binary string
	}

	// GoGit clones and checks out with go-git.
	GoGit struct {
		Logger *slog.Logger
	}
)

// NewGit returns the backend selected by name.
func NewGit(backend string, r runner.Runner, binary string, logger *slog.Logger) (Git, error) {
	switch backend {
	case "", BackendExec:
		if binary == "" {
			binary = "git"
		}
		return &ExecGit{Runner: r, Binary: binary}, nil
	case BackendGoGit:
		return &GoGit{Logger: logger}, nil
	default:
		return nil, fmt.Errorf("%w: %q (expected %q or %q)", ErrUnknownBackend, backend, BackendExec, BackendGoGit)
	}
}

// Clone runs "git clone <url> <name>" in the parent directory of dest.
func (g *ExecGit) Clone(ctx context.Context, url, dest string) error {
	_, err := g.Runner.Run(ctx, runner.Command{
		Args: []string{g.Binary, "clone", url, filepath.Base(dest)},
		Dir:  filepath.Dir(dest),
	})
	return err
}

// Checkout runs "git checkout <rev>" in repoDir.
func (g *ExecGit) Checkout(ctx context.Context, repoDir, rev string) error {
	_, err := g.Runner.Run(ctx, runner.Command{
		Args: []string{g.Binary, "checkout", rev},
		Dir:  repoDir,
	})
	return err
}

// Clone clones url into dest with full history and tags.
func (g *GoGit) Clone(ctx context.Context, url, dest string) error {
	g.logger().Info("cloning repository", "url", url, "dest", dest)
	_, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:      url,
		Progress: &progressWriter{logger: g.logger()},
		Tags:     git.AllTags,
	})
	if err != nil {
		return fmt.Errorf("failed to clone %s: %w", url, err)
	}
	return nil
}

// Checkout resolves rev (annotated tags are peeled to their commit) and
// checks out the resulting commit as a detached HEAD.
func (g *GoGit) Checkout(ctx context.Context, repoDir, rev string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	repo, err := git.PlainOpen(repoDir)
	if err != nil {
		return fmt.Errorf("failed to open repository %s: %w", repoDir, err)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return fmt.Errorf("failed to resolve revision %q: %w", rev, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: *hash}); err != nil {
		return fmt.Errorf("failed to check out %s: %w", rev, err)
	}

	g.logger().Info("checked out revision", "rev", rev, "commit", hash.String())
	return nil
}

func (g *GoGit) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// progressWriter forwards go-git sideband progress to the task log.
type progressWriter struct {
	logger *slog.Logger
}

func (w *progressWriter) Write(p []byte) (int, error) {
	if s := strings.TrimSpace(string(p)); s != "" {
		w.logger.Debug(s, "stream", "git-progress")
	}
	return len(p), nil
}
