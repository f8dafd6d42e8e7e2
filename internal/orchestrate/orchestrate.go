// SPDX-License-Identifier: MPL-2.0

package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"bpybuild/internal/build"
	"bpybuild/internal/packaging"
	"bpybuild/internal/runner"
	"bpybuild/internal/smoke"
	"bpybuild/internal/tasklog"
	"bpybuild/internal/telemetry"
	"bpybuild/internal/vcs"
	"bpybuild/pkg/types"
	"bpybuild/pkg/version"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

// ErrDuplicatePair is returned when the same Python version is requested twice.
var ErrDuplicatePair = errors.New("duplicate version pair")

type (
	// DuplicatePairError names the repeated pair.
	DuplicatePairError struct {
		Pair   version.Pair
		First  int
		Second int
	}

	// Config configures an Orchestrator.
	Config struct {
		// Jobs bounds concurrent builds. Zero or less means runtime.NumCPU().
		Jobs int
		// LogDir is the root of the per-task log files.
		LogDir string
		// Console receives WARN and above from every task. Defaults to os.Stderr.
		Console io.Writer

		Build   build.Options
		Package packaging.Options
		Smoke   smoke.Options

		// GitBackend is vcs.BackendExec or vcs.BackendGoGit.
		GitBackend string
		GitBinary  string
		SVNBinary  string

		// Tracer starts one span per task. Defaults to a no-op tracer.
		Tracer trace.Tracer
		// Logger receives batch-level records.
		Logger *slog.Logger

		// NewRunner creates the command runner of one task. Defaults to runner.New.
		NewRunner func(logger *slog.Logger) runner.Runner
		// Now defaults to time.Now.
		Now func() time.Time
	}

	// Orchestrator runs batches of tasks.
	Orchestrator struct {
		cfg Config
	}

	// indexedPair keeps the requested position of a pair.
	indexedPair struct {
		index int
		pair  version.Pair
	}

	// lockedWriter serializes writes from concurrent task loggers.
	lockedWriter struct {
		mu sync.Mutex
		w  io.Writer
	}

	// taskFunc runs one task with its own logger and runner. It returns the
	// artifact path and, for test tasks, the tool's exit code.
	taskFunc func(ctx context.Context, logger *slog.Logger, r runner.Runner) (artifact string, code types.ExitCode, err error)
)

// Error implements the error interface.
func (e *DuplicatePairError) Error() string {
	return fmt.Sprintf("python %s requested twice (positions %d and %d)", e.Pair.Python().MajorMinor(), e.First, e.Second)
}

// Unwrap returns ErrDuplicatePair.
func (e *DuplicatePairError) Unwrap() error { return ErrDuplicatePair }

// New creates an Orchestrator.
func New(cfg Config) *Orchestrator {
	if cfg.Jobs <= 0 {
		cfg.Jobs = runtime.NumCPU()
	}
	if cfg.Console == nil {
		cfg.Console = os.Stderr
	}
	cfg.Console = SyncWriter(cfg.Console)
	if cfg.GitBackend == "" {
		cfg.GitBackend = vcs.BackendExec
	}
	if cfg.Tracer == nil {
		cfg.Tracer = noop.NewTracerProvider().Tracer("bpybuild")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.NewRunner == nil {
		cfg.NewRunner = func(logger *slog.Logger) runner.Runner { return runner.New(logger) }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Orchestrator{cfg: cfg}
}

// SyncWriter makes w safe for the concurrent task loggers. Share the result
// with any other logger that writes to the same destination.
func SyncWriter(w io.Writer) io.Writer {
	if lw, ok := w.(*lockedWriter); ok {
		return lw
	}
	return &lockedWriter{w: w}
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

// Jobs returns the effective build concurrency.
func (o *Orchestrator) Jobs() int { return o.cfg.Jobs }

// Pairs combines blender with every Python version. Two Python versions with
// the same major.minor are duplicates: they would produce the same wheel.
func Pairs(blender version.Version, pythons []version.Version) ([]version.Pair, error) {
	seen := make(map[string]int, len(pythons))
	pairs := version.Pairs(blender, pythons)
	for i, p := range pairs {
		key := p.Python().CPythonTag()
		if first, ok := seen[key]; ok {
			return nil, &DuplicatePairError{Pair: p, First: first, Second: i}
		}
		seen[key] = i
	}
	return pairs, nil
}

// Build builds every pair concurrently, at most Jobs at a time, and waits
// for all of them.
func (o *Orchestrator) Build(ctx context.Context, blender version.Version, pythons []version.Version) (*Report, error) {
	pairs, err := Pairs(blender, pythons)
	if err != nil {
		return nil, err
	}
	return o.build(ctx, indexed(pairs)), nil
}

// Package packages every pair, one after another.
func (o *Orchestrator) Package(ctx context.Context, blender version.Version, pythons []version.Version, tag types.PlatformTag) (*Report, error) {
	pairs, err := Pairs(blender, pythons)
	if err != nil {
		return nil, err
	}
	return o.pack(ctx, indexed(pairs), tag), nil
}

// Test smoke-tests every pair, one after another.
func (o *Orchestrator) Test(ctx context.Context, blender version.Version, pythons []version.Version, tag types.PlatformTag) (*Report, error) {
	pairs, err := Pairs(blender, pythons)
	if err != nil {
		return nil, err
	}
	return o.test(ctx, indexed(pairs), tag), nil
}

// All builds every pair, packages the ones that built and tests the ones
// that packaged.
func (o *Orchestrator) All(ctx context.Context, blender version.Version, pythons []version.Version, tag types.PlatformTag) (*AllReport, error) {
	pairs, err := Pairs(blender, pythons)
	if err != nil {
		return nil, err
	}

	rep := &AllReport{Build: o.build(ctx, indexed(pairs))}
	rep.Package = o.pack(ctx, succeeded(rep.Build), tag)
	rep.Test = o.test(ctx, succeeded(rep.Package), tag)
	return rep, nil
}

func (o *Orchestrator) build(ctx context.Context, items []indexedPair) *Report {
	o.cfg.Logger.Info("starting builds", "count", len(items), "jobs", o.cfg.Jobs)
	outcomes := make([]Outcome, len(items))

	var g errgroup.Group
	g.SetLimit(o.cfg.Jobs)
	for i, it := range items {
		g.Go(func() error {
			outcomes[i] = o.runTask(ctx, tasklog.CategoryBuild, it, func(ctx context.Context, logger *slog.Logger, r runner.Runner) (string, types.ExitCode, error) {
				git, err := vcs.NewGit(o.cfg.GitBackend, r, o.cfg.GitBinary, logger)
				if err != nil {
					return "", 0, err
				}
				res, err := build.New(o.cfg.Build, r, git, o.cfg.SVNBinary, logger).Run(ctx, it.pair)
				if err != nil {
					return "", 0, err
				}
				return res.ArtifactDir, 0, nil
			})
			return nil
		})
	}
	_ = g.Wait()

	return &Report{Category: tasklog.CategoryBuild, Outcomes: outcomes}
}

func (o *Orchestrator) pack(ctx context.Context, items []indexedPair, tag types.PlatformTag) *Report {
	rep := &Report{Category: tasklog.CategoryPackage}
	for _, it := range items {
		rep.Outcomes = append(rep.Outcomes, o.runTask(ctx, tasklog.CategoryPackage, it, func(ctx context.Context, logger *slog.Logger, r runner.Runner) (string, types.ExitCode, error) {
			wheel, err := packaging.New(o.cfg.Package, r, logger).Run(ctx, it.pair, tag)
			return wheel, 0, err
		}))
	}
	return rep
}

func (o *Orchestrator) test(ctx context.Context, items []indexedPair, tag types.PlatformTag) *Report {
	rep := &Report{Category: tasklog.CategoryTest}
	for _, it := range items {
		rep.Outcomes = append(rep.Outcomes, o.runTask(ctx, tasklog.CategoryTest, it, func(ctx context.Context, logger *slog.Logger, r runner.Runner) (string, types.ExitCode, error) {
			res := smoke.New(o.cfg.Smoke, r, logger).Run(ctx, it.pair, tag)
			return res.Archive, res.ExitCode, res.Err
		}))
	}
	return rep
}

// runTask gives one task its log file, runner and span, and turns whatever
// happens into an Outcome.
func (o *Orchestrator) runTask(ctx context.Context, category string, it indexedPair, fn taskFunc) (out Outcome) {
	out = Outcome{Index: it.index, Pair: it.pair}
	start := o.cfg.Now()
	defer func() { out.Elapsed = o.cfg.Now().Sub(start) }()

	ctx, span := telemetry.StartTask(ctx, o.cfg.Tracer, category, it.index, it.pair)
	defer func() { telemetry.EndTask(span, out.Err) }()

	tl, err := tasklog.Open(tasklog.Options{
		Dir:      o.cfg.LogDir,
		Category: category,
		Pair:     it.pair,
		Console:  o.cfg.Console,
		Now:      start,
	})
	if err != nil {
		out.Err = err
		o.cfg.Logger.Error("task failed", "task", category, "index", it.index, "pair", it.pair.ID(), "error", err)
		return out
	}
	defer func() {
		if err := tl.Close(); err != nil {
			o.cfg.Logger.Warn("failed to close task log", "path", tl.Path(), "error", err)
		}
	}()
	out.LogPath = tl.Path()

	logger := tl.Logger()
	logger.Info("task started", "index", it.index, "blender", it.pair.Blender().String(), "python", it.pair.Python().String())

	out.Artifact, out.ExitCode, out.Err = fn(ctx, logger, o.cfg.NewRunner(logger))
	if out.Err != nil {
		if code, ok := runner.ExitCodeOf(out.Err); ok {
			out.ExitCode = code
		}
		if category != tasklog.CategoryTest {
			logger.Error("task failed", "index", it.index, "error", out.Err)
		}
		o.cfg.Logger.Info("task failed", "task", category, "index", it.index, "pair", it.pair.ID(), "log", out.LogPath)
		return out
	}

	logger.Info("task finished", "index", it.index)
	o.cfg.Logger.Info("task finished", "task", category, "index", it.index, "pair", it.pair.ID())
	return out
}

func indexed(pairs []version.Pair) []indexedPair {
	out := make([]indexedPair, len(pairs))
	for i, p := range pairs {
		out[i] = indexedPair{index: i, pair: p}
	}
	return out
}

func succeeded(r *Report) []indexedPair {
	var out []indexedPair
	for _, o := range r.Succeeded() {
		out = append(out, indexedPair{index: o.Index, pair: o.Pair})
	}
	return out
}
