// SPDX-License-Identifier: MPL-2.0

package orchestrate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bpybuild/internal/build"
	"bpybuild/internal/packaging"
	"bpybuild/internal/runner"
	"bpybuild/internal/smoke"
	"bpybuild/internal/testutil"
	"bpybuild/pkg/types"
	"bpybuild/pkg/version"

	"github.com/google/go-cmp/cmp"
)

const testTag = types.PlatformTag("manylinux_2_28_x86_64")

// toolchain fakes every external tool used by the three task kinds.
type toolchain struct {
	failConfigure string // python version whose cmake fails, "*" for all
	failPackage   string // python tag whose bdist_wheel fails
	failTox       string // tox env that fails

	running atomic.Int32
	peak    atomic.Int32

	mu   sync.Mutex
	seen []string
}

func (tc *toolchain) hook(c runner.Command) (*runner.Result, error) {
	tool := filepath.Base(c.Args[0])
	tc.mu.Lock()
	tc.seen = append(tc.seen, strings.Join(c.Args, " "))
	tc.mu.Unlock()

	switch {
	case tool == "cmake":
		if tc.failConfigure == "*" || c.Args[1] == "-DPYTHON_VERSION="+tc.failConfigure {
			return testutil.FailWith(c, 1)
		}
	case tool == "make" && c.Args[1] == "bpy":
		n := tc.running.Add(1)
		for {
			p := tc.peak.Load()
			if n <= p || tc.peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		tc.running.Add(-1)
		out := filepath.Join(filepath.Dir(c.Dir), "build_linux_bpy", "bin", "bpy")
		if err := os.MkdirAll(out, 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(out, "__init__.so"), nil, 0o644); err != nil {
			return nil, err
		}
	case strings.HasPrefix(tool, "python"):
		dist := c.Args[len(c.Args)-1]
		if c.Args[6] == tc.failPackage {
			return testutil.FailWith(c, 1)
		}
		py := strings.TrimPrefix(c.Args[6], "cp")
		name := "bpy-4.0.2-cp" + py + "-abi3-" + testTag.WheelComponent() + ".whl"
		if err := os.WriteFile(filepath.Join(dist, name), nil, 0o644); err != nil {
			return nil, err
		}
	case tool == "tox":
		if c.Args[2] == tc.failTox {
			return testutil.FailWith(c, 42)
		}
	}
	return &runner.Result{}, nil
}

func newOrchestrator(t *testing.T, tc *toolchain, jobs int) (*Orchestrator, string) {
	t.Helper()
	project := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(project, "LICENSE"), "GPL")
	testutil.MustWriteFile(t, filepath.Join(project, "README.md"), "# bpy")
	dist := filepath.Join(project, "dist")
	logDir := filepath.Join(project, "log")

	rec := &testutil.RecordingRunner{Hook: tc.hook}
	o := New(Config{
		Jobs:    jobs,
		LogDir:  logDir,
		Console: io.Discard,
		Build:   build.Options{DistDir: dist, TempDir: t.TempDir()},
		Package: packaging.Options{
			DistDir:     dist,
			TempDir:     t.TempDir(),
			LicenseFile: filepath.Join(project, "LICENSE"),
			ReadmeFile:  filepath.Join(project, "README.md"),
		},
		Smoke:     smoke.Options{DistDir: dist, ProjectDir: project},
		Logger:    slog.New(slog.DiscardHandler),
		NewRunner: func(*slog.Logger) runner.Runner { return rec },
	})
	return o, project
}

func versions(t *testing.T, vs ...string) []version.Version {
	t.Helper()
	out, err := version.ParseList(vs)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func indexes(outcomes []Outcome) []int {
	out := make([]int, len(outcomes))
	for i, o := range outcomes {
		out[i] = o.Index
	}
	return out
}

func TestBuildIsolatesFailures(t *testing.T) {
	t.Parallel()

	tc := &toolchain{failConfigure: "3.11"}
	o, project := newOrchestrator(t, tc, 3)

	rep, err := o.Build(context.Background(), version.MustParse("4.0.2"), versions(t, "3.10", "3.11", "3.12"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if diff := cmp.Diff([]int{0, 1, 2}, indexes(rep.Outcomes)); diff != "" {
		t.Errorf("outcome order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 2}, indexes(rep.Succeeded())); diff != "" {
		t.Errorf("succeeded mismatch (-want +got):\n%s", diff)
	}

	failed := rep.Failed()
	if len(failed) != 1 {
		t.Fatalf("failed = %d outcomes, want 1", len(failed))
	}
	var stepErr *build.StepError
	if !errors.As(failed[0].Err, &stepErr) || stepErr.Step != build.StepConfigure {
		t.Errorf("failed outcome error = %v, want configure StepError", failed[0].Err)
	}
	if failed[0].ExitCode != 1 {
		t.Errorf("failed outcome exit code = %d, want 1", failed[0].ExitCode)
	}
	if err := rep.Err(); err == nil || !strings.Contains(err.Error(), "build task 1") {
		t.Errorf("Report.Err() = %v", err)
	}

	for _, py := range []string{"3.10", "3.12"} {
		if _, err := os.Stat(filepath.Join(project, "dist", "bpy_4.0.2_"+py, "__init__.so")); err != nil {
			t.Errorf("artifact for %s missing: %v", py, err)
		}
	}
	testutil.MustNotExist(t, filepath.Join(project, "dist", "bpy_4.0.2_3.11"))

	for _, out := range rep.Outcomes {
		if !strings.HasPrefix(out.LogPath, filepath.Join(project, "log", "build")) {
			t.Errorf("log path = %q", out.LogPath)
		}
		if !strings.HasSuffix(out.LogPath, "_"+out.Pair.LogSuffix()+".log") {
			t.Errorf("log path %q does not name the pair", out.LogPath)
		}
		if _, err := os.Stat(out.LogPath); err != nil {
			t.Errorf("log file missing: %v", err)
		}
	}
}

func TestBuildRejectsDuplicates(t *testing.T) {
	t.Parallel()

	tc := &toolchain{}
	o, _ := newOrchestrator(t, tc, 2)

	_, err := o.Build(context.Background(), version.MustParse("4.0.2"), versions(t, "3.10", "3.11", "3.10.1"))
	var dup *DuplicatePairError
	if !errors.As(err, &dup) || !errors.Is(err, ErrDuplicatePair) {
		t.Fatalf("Build() error = %v, want DuplicatePairError", err)
	}
	if dup.First != 0 || dup.Second != 2 {
		t.Errorf("duplicate positions = %d, %d; want 0, 2", dup.First, dup.Second)
	}
	if len(tc.seen) != 0 {
		t.Errorf("ran commands before rejecting duplicates: %v", tc.seen)
	}
}

func TestBuildRespectsJobs(t *testing.T) {
	t.Parallel()

	tc := &toolchain{}
	o, _ := newOrchestrator(t, tc, 1)

	rep, err := o.Build(context.Background(), version.MustParse("4.0.2"), versions(t, "3.10", "3.11", "3.12"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := rep.Err(); err != nil {
		t.Fatalf("Report.Err() = %v", err)
	}
	if p := tc.peak.Load(); p != 1 {
		t.Errorf("peak concurrent compiles = %d, want 1", p)
	}
}

func TestPackageContinuesPastFailures(t *testing.T) {
	t.Parallel()

	tc := &toolchain{}
	o, project := newOrchestrator(t, tc, 2)
	// Only 3.11 has a build artifact.
	testutil.MustWriteFile(t, filepath.Join(project, "dist", "bpy_4.0.2_3.11", "__init__.so"), "")

	rep, err := o.Package(context.Background(), version.MustParse("4.0.2"), versions(t, "3.10", "3.11"), testTag)
	if err != nil {
		t.Fatalf("Package() error = %v", err)
	}
	if len(rep.Outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(rep.Outcomes))
	}
	if !errors.Is(rep.Outcomes[0].Err, build.ErrArtifactMissing) {
		t.Errorf("outcome 0 error = %v, want ErrArtifactMissing", rep.Outcomes[0].Err)
	}
	if !rep.Outcomes[1].OK() {
		t.Errorf("outcome 1 error = %v", rep.Outcomes[1].Err)
	}
	if want := packaging.WheelName(rep.Outcomes[1].Pair, testTag); filepath.Base(rep.Outcomes[1].Artifact) != want {
		t.Errorf("wheel = %q, want %q", rep.Outcomes[1].Artifact, want)
	}
}

func TestAllSkipsFailedBuilds(t *testing.T) {
	t.Parallel()

	tc := &toolchain{failConfigure: "3.11", failTox: "py312"}
	o, _ := newOrchestrator(t, tc, 3)

	rep, err := o.All(context.Background(), version.MustParse("4.0.2"), versions(t, "3.10", "3.11", "3.12"), testTag)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}

	if diff := cmp.Diff([]int{0, 2}, indexes(rep.Package.Outcomes)); diff != "" {
		t.Errorf("packaged pairs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 2}, indexes(rep.Test.Outcomes)); diff != "" {
		t.Errorf("tested pairs mismatch (-want +got):\n%s", diff)
	}
	if rep.Test.Outcomes[1].ExitCode != 42 {
		t.Errorf("test exit code = %d, want 42", rep.Test.Outcomes[1].ExitCode)
	}

	err = rep.Err()
	if err == nil || !strings.Contains(err.Error(), "build task 1") {
		t.Errorf("AllReport.Err() = %v, want build failure", err)
	}
	if strings.Contains(err.Error(), "test task") {
		t.Errorf("AllReport.Err() includes test failures: %v", err)
	}
}

func TestAllSucceedsDespiteTestFailure(t *testing.T) {
	t.Parallel()

	tc := &toolchain{failTox: "py310"}
	o, _ := newOrchestrator(t, tc, 2)

	rep, err := o.All(context.Background(), version.MustParse("4.0.2"), versions(t, "3.10"), testTag)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(rep.Test.Failed()) != 1 {
		t.Errorf("test failures = %d, want 1", len(rep.Test.Failed()))
	}
	if err := rep.Err(); err != nil {
		t.Errorf("AllReport.Err() = %v, want nil", err)
	}
}

func TestAllSkipsFailedPackages(t *testing.T) {
	t.Parallel()

	tc := &toolchain{failPackage: "cp311"}
	o, _ := newOrchestrator(t, tc, 2)

	rep, err := o.All(context.Background(), version.MustParse("4.0.2"), versions(t, "3.10", "3.11", "3.12"), testTag)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}

	if diff := cmp.Diff([]int{0, 2}, indexes(rep.Package.Succeeded())); diff != "" {
		t.Errorf("packaged pairs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 2}, indexes(rep.Test.Outcomes)); diff != "" {
		t.Errorf("tested pairs mismatch (-want +got):\n%s", diff)
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	for _, cmd := range tc.seen {
		if strings.HasPrefix(cmd, "tox -e py311") {
			t.Errorf("tested a pair whose wheel was never built: %s", cmd)
		}
	}
	if err := rep.Err(); err == nil || !strings.Contains(err.Error(), "package task 1") {
		t.Errorf("AllReport.Err() = %v, want package failure", err)
	}
}

// overlapWriter records whether two Write calls were ever in flight at once.
type overlapWriter struct {
	inFlight atomic.Int32
	overlap  atomic.Bool
	lines    atomic.Int32
}

func (w *overlapWriter) Write(p []byte) (int, error) {
	if w.inFlight.Add(1) > 1 {
		w.overlap.Store(true)
	}
	time.Sleep(time.Millisecond)
	w.lines.Add(1)
	w.inFlight.Add(-1)
	return len(p), nil
}

func TestBuildSerializesConsoleWrites(t *testing.T) {
	t.Parallel()

	tc := &toolchain{failConfigure: "*"}
	base, _ := newOrchestrator(t, tc, 4)
	console := &overlapWriter{}
	cfg := base.cfg
	cfg.Console = console
	o := New(cfg)

	rep, err := o.Build(context.Background(), version.MustParse("4.0.2"), versions(t, "3.9", "3.10", "3.11", "3.12"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(rep.Failed()) != 4 {
		t.Fatalf("failed = %d, want 4", len(rep.Failed()))
	}
	if console.lines.Load() == 0 {
		t.Fatal("no task wrote to the console")
	}
	if console.overlap.Load() {
		t.Error("console writes from concurrent tasks overlapped")
	}
}

func TestSyncWriterWrapsOnce(t *testing.T) {
	t.Parallel()

	w := SyncWriter(io.Discard)
	if SyncWriter(w) != w {
		t.Error("SyncWriter() wrapped an already synchronized writer")
	}
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	o := New(Config{})
	if o.Jobs() < 1 {
		t.Errorf("Jobs() = %d", o.Jobs())
	}
}
