// SPDX-License-Identifier: MPL-2.0

// Package telemetry records one OpenTelemetry span per task.
//
// When enabled, spans are exported as JSON to log/trace/<timestamp>.json.
// Otherwise a no-op tracer is used and nothing is written.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bpybuild/pkg/version"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	instrumentationName = "bpybuild"
	traceDirName        = "trace"
	fileTimeLayout      = "20060102T150405.000000000Z0700"
)

type (
	// Options configures Setup.
	Options struct {
		Enabled bool
		// LogDir is the log root; traces go to <LogDir>/trace.
		LogDir string
		// Now stamps the trace file name. Defaults to time.Now().
		Now time.Time
	}

	// Provider owns the tracer and its exporter.
	Provider struct {
		tracer   trace.Tracer
		path     string
		shutdown []func(context.Context) error
	}
)

// Setup creates a Provider. Call Shutdown to flush and close the trace file.
func Setup(opts Options) (*Provider, error) {
	if !opts.Enabled {
		return &Provider{tracer: noop.NewTracerProvider().Tracer(instrumentationName)}, nil
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	dir := filepath.Join(opts.LogDir, traceDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create trace directory: %w", err)
	}
	path := filepath.Join(dir, opts.Now.Format(fileTimeLayout)+".json")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(f))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	return &Provider{
		tracer: tp.Tracer(instrumentationName),
		path:   path,
		shutdown: []func(context.Context) error{
			tp.Shutdown,
			func(context.Context) error { return f.Close() },
		},
	}, nil
}

// Tracer returns the tracer tasks start their spans with.
func (p *Provider) Tracer() trace.Tracer { return p.tracer }

// Path returns the trace file, or "" when tracing is disabled.
func (p *Provider) Path() string { return p.path }

// Shutdown flushes pending spans and closes the trace file.
func (p *Provider) Shutdown(ctx context.Context) error {
	var err error
	for _, fn := range p.shutdown {
		err = errors.Join(err, fn(ctx))
	}
	p.shutdown = nil
	return err
}

// StartTask starts the span of one task.
func StartTask(ctx context.Context, tracer trace.Tracer, category string, index int, pair version.Pair) (context.Context, trace.Span) {
	return tracer.Start(ctx, category+" "+pair.ID(), trace.WithAttributes(
		attribute.String("bpybuild.task", category),
		attribute.Int("bpybuild.index", index),
		attribute.String("bpybuild.blender", pair.Blender().String()),
		attribute.String("bpybuild.python", pair.Python().String()),
	))
}

// EndTask records err on span and ends it.
func EndTask(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
