// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bpybuild/internal/config"
	"bpybuild/internal/orchestrate"
	"bpybuild/internal/runner"
	"bpybuild/internal/smoke"
	"bpybuild/internal/telemetry"

	"github.com/charmbracelet/log"
)

type (
	// App wires CLI services and shared dependencies. Cobra handlers receive
	// an App and delegate to it.
	App struct {
		Config    ConfigProvider
		newRunner func(*slog.Logger) runner.Runner
		workDir   string
		now       func() time.Time
		stdout    io.Writer
		stderr    io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		// NewRunner creates the command runner of each task.
		NewRunner func(*slog.Logger) runner.Runner
		// WorkDir is the project directory. Empty means the process working directory.
		WorkDir string
		Now     func() time.Time
		Stdout  io.Writer
		Stderr  io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Loaded, error)
	}

	// session is everything one command invocation needs.
	session struct {
		cfg       *config.Config
		orch      *orchestrate.Orchestrator
		telemetry *telemetry.Provider
		logger    *slog.Logger
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.NewRunner == nil {
		deps.NewRunner = func(logger *slog.Logger) runner.Runner { return runner.New(logger) }
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &App{
		Config:    deps.Config,
		newRunner: deps.NewRunner,
		workDir:   deps.WorkDir,
		now:       deps.Now,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
	}
}

// loadConfig resolves the configuration for one invocation.
func (a *App) loadConfig(ctx context.Context, flags *rootFlags) (*config.Loaded, error) {
	loaded, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: flags.configFile,
		WorkDir:        a.workDir,
	})
	if err != nil {
		return nil, err
	}
	if flags.verbose {
		loaded.Config.UI.Verbose = true
	}
	return loaded, nil
}

// newSession loads the configuration and builds the orchestrator. The caller
// must call close.
func (a *App) newSession(ctx context.Context, flags *rootFlags, jobs int) (*session, error) {
	loaded, err := a.loadConfig(ctx, flags)
	if err != nil {
		return nil, err
	}
	cfg := loaded.Config

	level := log.WarnLevel
	if cfg.UI.Verbose {
		level = log.InfoLevel
	}
	console := orchestrate.SyncWriter(a.stderr)
	logger := slog.New(log.NewWithOptions(console, log.Options{Level: level}))

	logDir := a.resolve(cfg.LogDir)
	tp, err := telemetry.Setup(telemetry.Options{Enabled: cfg.Telemetry.Enabled, LogDir: logDir, Now: a.now()})
	if err != nil {
		return nil, err
	}
	if tp.Path() != "" {
		logger.Info("writing trace", "path", tp.Path())
	}

	if jobs <= 0 {
		jobs = cfg.Jobs
	}

	buildOpts := cfg.BuildOptions()
	buildOpts.DistDir = a.resolve(buildOpts.DistDir)
	packOpts := cfg.PackagingOptions()
	packOpts.DistDir = buildOpts.DistDir
	packOpts.LicenseFile = a.resolve(packOpts.LicenseFile)
	packOpts.ReadmeFile = a.resolve(packOpts.ReadmeFile)

	orch := orchestrate.New(orchestrate.Config{
		Jobs:    jobs,
		LogDir:  logDir,
		Console: console,
		Build:   buildOpts,
		Package: packOpts,
		Smoke: smoke.Options{
			DistDir:    buildOpts.DistDir,
			ProjectDir: a.workDir,
			ToxBinary:  cfg.Toolchain.Tox,
		},
		GitBackend: cfg.Source.GitBackend.String(),
		GitBinary:  cfg.Toolchain.Git,
		SVNBinary:  cfg.Toolchain.SVN,
		Tracer:     tp.Tracer(),
		Logger:     logger,
		NewRunner:  a.newRunner,
		Now:        a.now,
	})

	return &session{cfg: cfg, orch: orch, telemetry: tp, logger: logger}, nil
}

func (s *session) close(ctx context.Context) {
	if err := s.telemetry.Shutdown(ctx); err != nil {
		s.logger.Warn("failed to flush trace", "error", err)
	}
}

// resolve makes a configured path relative to the project directory.
func (a *App) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || a.workDir == "" {
		return path
	}
	return filepath.Join(a.workDir, path)
}
