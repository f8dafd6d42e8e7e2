// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"context"

	"bpybuild/internal/runner"
)

// SVN checks out the prebuilt platform libraries.
type SVN struct {
	Runner runner.Runner
	Binary string
}

// Checkout runs "svn checkout <url>" inside dir.
func (s *SVN) Checkout(ctx context.Context, url, dir string) error {
	bin := s.Binary
	if bin == "" {
		bin = "svn"
	}
	_, err := s.Runner.Run(ctx, runner.Command{
		Args: []string{bin, "checkout", url},
		Dir:  dir,
	})
	return err
}
