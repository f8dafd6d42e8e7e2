// SPDX-License-Identifier: MPL-2.0

package tasklog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bpybuild/pkg/version"

	"github.com/charmbracelet/log"
)

const (
	// CategoryBuild is the log sub-directory of build tasks.
	CategoryBuild = "build"
	// CategoryPackage is the log sub-directory of package tasks.
	CategoryPackage = "package"
	// CategoryTest is the log sub-directory of test tasks.
	CategoryTest = "test"

	// FileTimeLayout is the ISO-8601 basic-format timestamp used in log file names.
	FileTimeLayout = "20060102T150405.000000000Z0700"
)

type (
	// Options configures Open.
	Options struct {
		// Dir is the log root (e.g. "log").
		Dir string
		// Category is the sub-directory (CategoryBuild, ...).
		Category string
		// Pair names the file and prefixes console lines.
		Pair version.Pair
		// Console receives WARN and above. Defaults to os.Stderr.
		Console io.Writer
		// Now stamps the file name. Defaults to time.Now().
		Now time.Time
	}

	// Task is an open per-task logger.
	Task struct {
		logger *slog.Logger
		file   *os.File
		path   string
	}
)

// Open creates the log directory if needed, creates the task's log file and
// returns a logger writing DEBUG and above to the file and WARN and above to
// the console.
func Open(opts Options) (*Task, error) {
	if opts.Category == "" {
		opts.Category = CategoryBuild
	}
	if opts.Console == nil {
		opts.Console = os.Stderr
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	dir := filepath.Join(opts.Dir, opts.Category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(dir, FileName(opts.Now, opts.Pair))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	fileSink := log.NewWithOptions(f, log.Options{
		Level:           log.DebugLevel,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
		Formatter:       log.LogfmtFormatter,
	})
	consoleSink := log.NewWithOptions(opts.Console, log.Options{
		Level:  log.WarnLevel,
		Prefix: opts.Pair.ID(),
	})

	logger := slog.New(newFanoutHandler(fileSink, consoleSink)).
		With("task", opts.Category, "pair", opts.Pair.ID())

	return &Task{logger: logger, file: f, path: path}, nil
}

// FileName returns the log file name for a task started at t.
func FileName(t time.Time, pair version.Pair) string {
	return t.Format(FileTimeLayout) + "_" + pair.LogSuffix() + ".log"
}

// Logger returns the task logger.
func (t *Task) Logger() *slog.Logger { return t.logger }

// Path returns the log file path.
func (t *Task) Path() string { return t.path }

// Close closes the log file. Records logged afterwards still reach the console.
func (t *Task) Close() error {
	if err := t.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file %s: %w", t.path, err)
	}
	return nil
}
