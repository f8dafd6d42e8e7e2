// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"bpybuild/internal/build"
	"bpybuild/internal/packaging"
	"bpybuild/internal/vcs"
)

const (
	// GitBackendExec shells out to the git binary.
	GitBackendExec GitBackend = vcs.BackendExec
	// GitBackendGoGit clones in-process with go-git.
	GitBackendGoGit GitBackend = vcs.BackendGoGit
)

var (
	// ErrInvalidGitBackend is returned when a GitBackend value is not recognized.
	ErrInvalidGitBackend = errors.New("invalid git backend")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// GitBackend selects how the Blender repository is cloned.
	GitBackend string

	// InvalidGitBackendError is returned when a GitBackend value is not recognized.
	// It wraps ErrInvalidGitBackend for errors.Is() compatibility.
	InvalidGitBackendError struct {
		Value GitBackend
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// DistDir receives build artifacts and wheels.
		DistDir string `json:"dist_dir" mapstructure:"dist_dir"`
		// LogDir is the root of the per-task log files.
		LogDir string `json:"log_dir" mapstructure:"log_dir"`
		// Jobs bounds concurrent builds; 0 means the number of CPUs.
		Jobs int `json:"jobs" mapstructure:"jobs"`

		Source    SourceConfig    `json:"source" mapstructure:"source"`
		Toolchain ToolchainConfig `json:"toolchain" mapstructure:"toolchain"`
		Build     BuildConfig     `json:"build" mapstructure:"build"`
		Packaging PackagingConfig `json:"packaging" mapstructure:"packaging"`
		UI        UIConfig        `json:"ui" mapstructure:"ui"`
		Telemetry TelemetryConfig `json:"telemetry" mapstructure:"telemetry"`
	}

	// SourceConfig locates the Blender sources and prebuilt libraries.
	SourceConfig struct {
		RepoURL    string     `json:"repo_url" mapstructure:"repo_url"`
		LibsURL    string     `json:"libs_url" mapstructure:"libs_url"`
		GitBackend GitBackend `json:"git_backend" mapstructure:"git_backend"`
	}

	// ToolchainConfig names the external tools.
	ToolchainConfig struct {
		Git   string `json:"git" mapstructure:"git"`
		SVN   string `json:"svn" mapstructure:"svn"`
		Make  string `json:"make" mapstructure:"make"`
		CMake string `json:"cmake" mapstructure:"cmake"`
		// PythonPrefix is joined with "<major>.<minor>", e.g. "python" -> "python3.10".
		PythonPrefix string `json:"python_prefix" mapstructure:"python_prefix"`
		Tox          string `json:"tox" mapstructure:"tox"`
	}

	// BuildConfig tunes the Blender build layout.
	BuildConfig struct {
		MakeTarget   string `json:"make_target" mapstructure:"make_target"`
		BuildDirName string `json:"build_dir_name" mapstructure:"build_dir_name"`
		LibDirName   string `json:"lib_dir_name" mapstructure:"lib_dir_name"`
	}

	// PackagingConfig names the files copied into every wheel.
	PackagingConfig struct {
		LicenseFile string `json:"license_file" mapstructure:"license_file"`
		ReadmeFile  string `json:"readme_file" mapstructure:"readme_file"`
	}

	// UIConfig configures console output.
	UIConfig struct {
		// Verbose enables detailed error output.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// TelemetryConfig toggles span export.
	TelemetryConfig struct {
		// Enabled writes task spans to <log_dir>/trace.
		Enabled bool `json:"enabled" mapstructure:"enabled"`
	}
)

// Error implements the error interface.
func (e *InvalidGitBackendError) Error() string {
	return fmt.Sprintf("invalid git backend %q (valid: %s, %s)", e.Value, GitBackendExec, GitBackendGoGit)
}

// Unwrap returns ErrInvalidGitBackend for errors.Is() compatibility.
func (e *InvalidGitBackendError) Unwrap() error { return ErrInvalidGitBackend }

// Validate returns nil if the backend is known.
func (b GitBackend) Validate() error {
	switch b {
	case GitBackendExec, GitBackendGoGit:
		return nil
	default:
		return &InvalidGitBackendError{Value: b}
	}
}

// String returns the string representation of the GitBackend.
func (b GitBackend) String() string { return string(b) }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	b := build.DefaultOptions()
	p := packaging.DefaultOptions()
	return &Config{
		DistDir: b.DistDir,
		LogDir:  "log",
		Jobs:    0,
		Source: SourceConfig{
			RepoURL:    b.RepoURL,
			LibsURL:    b.LibsURL,
			GitBackend: GitBackendExec,
		},
		Toolchain: ToolchainConfig{
			Git:          "git",
			SVN:          "svn",
			Make:         b.MakeBinary,
			CMake:        b.CMakeBinary,
			PythonPrefix: p.PythonPrefix,
			Tox:          "tox",
		},
		Build: BuildConfig{
			MakeTarget:   b.MakeTarget,
			BuildDirName: b.BuildDirName,
			LibDirName:   b.LibDirName,
		},
		Packaging: PackagingConfig{
			LicenseFile: p.LicenseFile,
			ReadmeFile:  p.ReadmeFile,
		},
	}
}

// Validate checks constraints the schema cannot see, such as values that
// arrived through the environment.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Source.GitBackend.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Jobs < 0 {
		errs = append(errs, fmt.Errorf("jobs: must be >= 0, got %d", c.Jobs))
	}
	required := []struct{ key, val string }{
		{"dist_dir", c.DistDir},
		{"log_dir", c.LogDir},
		{"toolchain.python_prefix", c.Toolchain.PythonPrefix},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			errs = append(errs, fmt.Errorf("%s: must not be empty", r.key))
		}
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// BuildOptions maps the configuration onto build.Options.
func (c *Config) BuildOptions() build.Options {
	return build.Options{
		RepoURL:      c.Source.RepoURL,
		LibsURL:      c.Source.LibsURL,
		DistDir:      c.DistDir,
		MakeBinary:   c.Toolchain.Make,
		CMakeBinary:  c.Toolchain.CMake,
		MakeTarget:   c.Build.MakeTarget,
		BuildDirName: c.Build.BuildDirName,
		LibDirName:   c.Build.LibDirName,
	}
}

// PackagingOptions maps the configuration onto packaging.Options.
func (c *Config) PackagingOptions() packaging.Options {
	return packaging.Options{
		DistDir:      c.DistDir,
		LicenseFile:  c.Packaging.LicenseFile,
		ReadmeFile:   c.Packaging.ReadmeFile,
		PythonPrefix: c.Toolchain.PythonPrefix,
	}
}
