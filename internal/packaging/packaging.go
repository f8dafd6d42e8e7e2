// SPDX-License-Identifier: MPL-2.0

package packaging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"bpybuild/internal/build"
	"bpybuild/internal/fsutil"
	"bpybuild/internal/issue"
	"bpybuild/internal/runner"
	"bpybuild/internal/workarea"
	"bpybuild/pkg/types"
	"bpybuild/pkg/version"
)

const (
	setupFileName     = "setup.py"
	pyprojectFileName = "pyproject.toml"
	packageDirName    = "bpy"
)

type (
	// Options configures a package task.
	Options struct {
		// DistDir holds the build artifacts and receives the wheel.
		DistDir string
		// TempDir is the parent of the staging directory. Empty means os.TempDir.
		TempDir string
		// LicenseFile and ReadmeFile are copied into the wheel.
		LicenseFile string
		ReadmeFile  string
		// PythonPrefix is joined with "<major>.<minor>" to name the interpreter.
		PythonPrefix string
	}

	// Task packages one pair.
	Task struct {
		opts   Options
		runner runner.Runner
		logger *slog.Logger
	}
)

// DefaultOptions returns the settings used when none are configured.
func DefaultOptions() Options {
	return Options{
		DistDir:      "dist",
		LicenseFile:  "LICENSE",
		ReadmeFile:   "README.md",
		PythonPrefix: "python",
	}
}

// WheelName returns the file name bdist_wheel writes for pair and tag.
func WheelName(pair version.Pair, tag types.PlatformTag) string {
	py := pair.Python().CPythonTag()
	return fmt.Sprintf("bpy-%s-%s-abi3-%s.whl", pair.WheelVersion(), py, tag.WheelComponent())
}

// New creates a package task.
func New(opts Options, r runner.Runner, logger *slog.Logger) *Task {
	d := DefaultOptions()
	if opts.DistDir == "" {
		opts.DistDir = d.DistDir
	}
	if opts.LicenseFile == "" {
		opts.LicenseFile = d.LicenseFile
	}
	if opts.ReadmeFile == "" {
		opts.ReadmeFile = d.ReadmeFile
	}
	if opts.PythonPrefix == "" {
		opts.PythonPrefix = d.PythonPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Task{opts: opts, runner: r, logger: logger}
}

// Run stages and packages the build artifact of pair and returns the path of
// the wheel.
func (t *Task) Run(ctx context.Context, pair version.Pair, tag types.PlatformTag) (string, error) {
	distDir, err := filepath.Abs(t.opts.DistDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve dist directory: %w", err)
	}

	artifact := build.ArtifactDir(distDir, pair)
	if info, err := os.Stat(artifact); err != nil || !info.IsDir() {
		return "", issue.NewErrorContext().
			WithOperation("locate build artifact").
			WithResource(artifact).
			WithSuggestion(fmt.Sprintf("Run 'bpybuild build --blender %s --python %s' first", pair.Blender(), pair.Python())).
			Wrap(build.ErrArtifactMissing).
			BuildError()
	}

	area, err := workarea.New(t.opts.TempDir, "package-"+pair.ID())
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := area.Close(); closeErr != nil {
			t.logger.Warn("failed to remove staging directory", "path", area.Root(), "error", closeErr)
		}
	}()
	t.logger.Debug("staging wheel", "path", area.Root())

	if err := t.stage(area, pair, artifact); err != nil {
		return "", err
	}

	py := pair.Python().CPythonTag()
	_, err = t.runner.Run(ctx, runner.Command{
		Args: []string{
			t.opts.PythonPrefix + pair.Python().MajorMinor(),
			setupFileName, "bdist_wheel",
			"--plat-name", tag.String(),
			"--python-tag", py,
			"--py-limited-api", py,
			"--dist-dir", distDir,
		},
		Dir: area.Root(),
	})
	if err != nil {
		return "", err
	}

	wheel := filepath.Join(distDir, WheelName(pair, tag))
	t.logger.Info("wheel created", "wheel", wheel)
	return wheel, nil
}

func (t *Task) stage(area *workarea.Area, pair version.Pair, artifact string) error {
	license := filepath.Base(t.opts.LicenseFile)
	readme := filepath.Base(t.opts.ReadmeFile)

	setup, err := RenderSetup(pair, license, readme)
	if err != nil {
		return err
	}
	project, err := RenderPyproject()
	if err != nil {
		return err
	}

	files := map[string][]byte{
		setupFileName:     setup,
		pyprojectFileName: project,
	}
	for name, data := range files {
		if err := os.WriteFile(area.Path(name), data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	for src, name := range map[string]string{t.opts.LicenseFile: license, t.opts.ReadmeFile: readme} {
		if err := fsutil.CopyFile(src, area.Path(name)); err != nil {
			return issue.NewErrorContext().
				WithOperation("copy " + name + " into staging directory").
				WithResource(src).
				WithSuggestion("Set packaging.license_file and packaging.readme_file in bpybuild.cue").
				Wrap(err).
				BuildError()
		}
	}

	if err := fsutil.CopyDir(artifact, area.Path(packageDirName)); err != nil {
		return issue.WrapWithContext(err, "copy build artifact", artifact)
	}
	return nil
}
