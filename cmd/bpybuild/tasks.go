// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"

	"bpybuild/internal/orchestrate"
	"bpybuild/pkg/types"

	"github.com/spf13/cobra"
)

func newBuildCommand(app *App, root *rootFlags) *cobra.Command {
	var tf targetFlags
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile bpy for each Python version in parallel",
		Long: `Compile bpy for each Python version in parallel.

Each build clones Blender into its own temporary work area, fetches the
prebuilt libraries, checks out tag v<blender>, configures with cmake and runs
"make bpy". The result is copied to <dist_dir>/bpy_<blender>_<python>/.
Exits with status 1 if any build failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runTasks(cmd, root, &tf, false, func(ctx context.Context, s *session, t *target) error {
				rep, err := s.orch.Build(ctx, t.blender, t.pythons)
				if err != nil {
					return err
				}
				app.printReport(rep)
				return rep.Err()
			})
		},
	}
	tf.register(cmd, false, true)
	return cmd
}

func newPackageCommand(app *App, root *rootFlags) *cobra.Command {
	var tf targetFlags
	cmd := &cobra.Command{
		Use:   "package",
		Short: "Package built bpy trees as platform-tagged wheels",
		Long: `Package built bpy trees as platform-tagged wheels.

Packages run one Python version at a time and expect the output of
"bpybuild build" for the same versions. Wheels are written to <dist_dir>.
Exits with status 1 if any package failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runTasks(cmd, root, &tf, true, func(ctx context.Context, s *session, t *target) error {
				rep, err := s.orch.Package(ctx, t.blender, t.pythons, t.tag)
				if err != nil {
					return err
				}
				app.printReport(rep)
				return rep.Err()
			})
		},
	}
	tf.register(cmd, true, false)
	return cmd
}

func newTestCommand(app *App, root *rootFlags) *cobra.Command {
	var tf targetFlags
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Smoke-test wheels with tox",
		Long: `Smoke-test wheels with tox.

Runs "tox -e py<MM> --installpkg <wheel>" for each Python version. Test
failures are reported but never change the exit status.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runTasks(cmd, root, &tf, true, func(ctx context.Context, s *session, t *target) error {
				rep, err := s.orch.Test(ctx, t.blender, t.pythons, t.tag)
				if err != nil {
					return err
				}
				app.printReport(rep)
				return nil
			})
		},
	}
	tf.register(cmd, true, false)
	return cmd
}

func newAllCommand(app *App, root *rootFlags) *cobra.Command {
	var tf targetFlags
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Build, package and test in one go",
		Long: `Build, package and test in one go.

Builds run in parallel; the pairs that built are then packaged and tested one
at a time. Exits with status 1 if any build or package failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runTasks(cmd, root, &tf, true, func(ctx context.Context, s *session, t *target) error {
				rep, err := s.orch.All(ctx, t.blender, t.pythons, t.tag)
				if err != nil {
					return err
				}
				for _, r := range []*orchestrate.Report{rep.Build, rep.Package, rep.Test} {
					app.printReport(r)
				}
				return rep.Err()
			})
		},
	}
	tf.register(cmd, true, true)
	return cmd
}

// runTasks parses the target flags, opens a session and runs fn. Any error is
// rendered with its issue help and turned into exit status 1.
func (a *App) runTasks(cmd *cobra.Command, root *rootFlags, tf *targetFlags, withSystem bool, fn func(context.Context, *session, *target) error) error {
	ctx := cmd.Context()

	t, err := tf.parse(withSystem)
	if err != nil {
		return a.fail(cmd, err, root.verbose)
	}

	s, err := a.newSession(ctx, root, tf.jobs)
	if err != nil {
		return a.fail(cmd, err, root.verbose)
	}
	defer s.close(context.WithoutCancel(ctx))

	if err := fn(ctx, s, t); err != nil {
		return a.fail(cmd, err, s.cfg.UI.Verbose)
	}
	return nil
}

// fail renders err and returns the ExitError that ends the process with status 1.
func (a *App) fail(cmd *cobra.Command, err error, verbose bool) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	renderServiceError(a.stderr, newClassifiedError(err, verbose))
	return &ExitError{Code: types.ExitFailure, Err: err}
}
