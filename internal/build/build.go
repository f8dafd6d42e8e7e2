// SPDX-License-Identifier: MPL-2.0

package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bpybuild/internal/fsutil"
	"bpybuild/internal/issue"
	"bpybuild/internal/runner"
	"bpybuild/internal/vcs"
	"bpybuild/internal/workarea"
	"bpybuild/pkg/version"
)

const (
	// StepClone clones the Blender repository.
	StepClone = "clone"
	// StepFetchLibraries checks out the prebuilt platform libraries.
	StepFetchLibraries = "fetch libraries"
	// StepCheckout checks out the release tag.
	StepCheckout = "checkout"
	// StepUpdate runs "make update".
	StepUpdate = "update"
	// StepConfigure runs cmake.
	StepConfigure = "configure"
	// StepCompile runs "make bpy".
	StepCompile = "compile"
	// StepInstall copies the compiled module to the dist directory.
	StepInstall = "install"

	sourceDirName = "blender"
)

// ErrArtifactMissing is returned when the compiled bpy tree is not where the
// build (or a later packaging step) expects it.
var ErrArtifactMissing = errors.New("build artifact missing")

type (
	// Options configures a build. Zero values fall back to DefaultOptions.
	Options struct {
		RepoURL      string
		LibsURL      string
		DistDir      string
		TempDir      string
		MakeBinary   string
		CMakeBinary  string
		MakeTarget   string
		BuildDirName string
		LibDirName   string
	}

	// Clock abstracts time for elapsed-time measurement.
	Clock interface {
		Now() time.Time
		Since(t time.Time) time.Duration
	}

	// Task builds bpy for one version pair.
	Task struct {
		opts   Options
		runner runner.Runner
		git    vcs.Git
		svn    *vcs.SVN
		logger *slog.Logger
		clock  Clock
	}

	// Result describes a finished build.
	Result struct {
		ArtifactDir string
		Elapsed     time.Duration
	}

	// StepError reports which build step failed.
	StepError struct {
		Step string
		Err  error
	}

	realClock struct{}
)

// Error implements the error interface.
func (e *StepError) Error() string { return fmt.Sprintf("build step %q: %v", e.Step, e.Err) }

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error { return e.Err }

func (realClock) Now() time.Time                  { return time.Now() }
func (realClock) Since(t time.Time) time.Duration { return time.Since(t) }

// DefaultOptions returns the settings of an upstream Linux bpy build.
func DefaultOptions() Options {
	return Options{
		RepoURL:      "https://github.com/blender/blender",
		LibsURL:      "https://svn.blender.org/svnroot/bf-blender/trunk/lib/linux_x86_64_glibc_228",
		DistDir:      "dist",
		MakeBinary:   "make",
		CMakeBinary:  "cmake",
		MakeTarget:   "bpy",
		BuildDirName: "build_linux_bpy",
		LibDirName:   "lib",
	}
}

// ArtifactDir returns where the compiled bpy tree of pair is stored.
func ArtifactDir(distDir string, pair version.Pair) string {
	return filepath.Join(distDir, pair.ArtifactDirName())
}

// New creates a build task. svnBinary may be empty.
func New(opts Options, r runner.Runner, git vcs.Git, svnBinary string, logger *slog.Logger) *Task {
	opts = opts.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Task{
		opts:   opts,
		runner: r,
		git:    git,
		svn:    &vcs.SVN{Runner: r, Binary: svnBinary},
		logger: logger,
		clock:  realClock{},
	}
}

// WithClock replaces the clock used for elapsed-time measurement.
func (t *Task) WithClock(c Clock) *Task {
	t.clock = c
	return t
}

// Run builds pair. The returned error is a *StepError naming the failed step.
func (t *Task) Run(ctx context.Context, pair version.Pair) (res *Result, err error) {
	start := t.clock.Now()
	defer func() {
		elapsed := t.clock.Since(start)
		if res != nil {
			res.Elapsed = elapsed
		}
		t.logger.Info("elapsed time",
			"minutes", fmt.Sprintf("%.2f", elapsed.Minutes()),
			"ok", err == nil)
	}()

	area, err := workarea.New(t.opts.TempDir, pair.ID())
	if err != nil {
		return nil, err
	}
	t.logger.Debug("created work area", "path", area.Root(), "run_id", area.RunID())
	defer func() {
		if closeErr := area.Close(); closeErr != nil {
			t.logger.Warn("failed to remove work area", "path", area.Root(), "error", closeErr)
		}
	}()

	srcDir := area.Path(sourceDirName)
	buildDir := area.Path(t.opts.BuildDirName)
	dest := ArtifactDir(t.opts.DistDir, pair)

	steps := []struct {
		name string
		run  func() error
	}{
		{StepClone, func() error {
			return t.git.Clone(ctx, t.opts.RepoURL, srcDir)
		}},
		{StepFetchLibraries, func() error {
			libDir, err := area.Mkdir(t.opts.LibDirName)
			if err != nil {
				return err
			}
			return t.svn.Checkout(ctx, t.opts.LibsURL, libDir)
		}},
		{StepCheckout, func() error {
			return t.git.Checkout(ctx, srcDir, pair.Blender().Tag())
		}},
		{StepUpdate, func() error {
			return t.run(ctx, srcDir, t.opts.MakeBinary, "update")
		}},
		{StepConfigure, func() error {
			if _, err := area.Mkdir(t.opts.BuildDirName); err != nil {
				return err
			}
			return t.run(ctx, buildDir, t.opts.CMakeBinary, "-DPYTHON_VERSION="+pair.Python().String(), srcDir)
		}},
		{StepCompile, func() error {
			return t.run(ctx, srcDir, t.opts.MakeBinary, t.opts.MakeTarget)
		}},
		{StepInstall, func() error {
			return install(filepath.Join(buildDir, "bin", "bpy"), dest)
		}},
	}

	for _, s := range steps {
		t.logger.Info("build step", "step", s.name)
		if err := s.run(); err != nil {
			t.logger.Error("build step failed", "step", s.name, "error", err)
			return nil, &StepError{Step: s.name, Err: err}
		}
	}

	t.logger.Info("build finished", "artifact", dest)
	return &Result{ArtifactDir: dest}, nil
}

func (t *Task) run(ctx context.Context, dir string, args ...string) error {
	_, err := t.runner.Run(ctx, runner.Command{Args: args, Dir: dir})
	return err
}

func install(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil || !info.IsDir() {
		return issue.NewErrorContext().
			WithOperation("locate compiled bpy module").
			WithResource(src).
			WithSuggestion("Check the compile step output in the log file").
			Wrap(ErrArtifactMissing).
			BuildError()
	}
	if err := fsutil.ReplaceDir(src, dest); err != nil {
		return issue.WrapWithContext(err, "copy artifact", dest)
	}
	return nil
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.RepoURL == "" {
		o.RepoURL = d.RepoURL
	}
	if o.LibsURL == "" {
		o.LibsURL = d.LibsURL
	}
	if o.DistDir == "" {
		o.DistDir = d.DistDir
	}
	if o.MakeBinary == "" {
		o.MakeBinary = d.MakeBinary
	}
	if o.CMakeBinary == "" {
		o.CMakeBinary = d.CMakeBinary
	}
	if o.MakeTarget == "" {
		o.MakeTarget = d.MakeTarget
	}
	if o.BuildDirName == "" {
		o.BuildDirName = d.BuildDirName
	}
	if o.LibDirName == "" {
		o.LibDirName = d.LibDirName
	}
	return o
}
