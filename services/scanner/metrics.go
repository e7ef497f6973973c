// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scanner

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for scan operations.
var (
	tracer = otel.Tracer("markguard.scanner")
	meter  = otel.Meter("markguard.scanner")
)

// Metrics for scan operations.
var (
	scanLatency        metric.Float64Histogram
	scanTotal          metric.Int64Counter
	violationsFound    metric.Int64Histogram
	violationsEnabled  metric.Int64Counter
	violationsDisabled metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		scanLatency, err = meter.Float64Histogram(
			"scan_duration_seconds",
			metric.WithDescription("Duration of file scans"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		scanTotal, err = meter.Int64Counter(
			"scan_total",
			metric.WithDescription("Total number of file scans"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		violationsFound, err = meter.Int64Histogram(
			"scan_violations_found",
			metric.WithDescription("Number of violations found per scan"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		violationsEnabled, err = meter.Int64Counter(
			"scan_violations_enabled_total",
			metric.WithDescription("Total enabled violations found"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		violationsDisabled, err = meter.Int64Counter(
			"scan_violations_disabled_total",
			metric.WithDescription("Total violations consumed by disable pragmas"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startScanSpan creates a span for one file scan.
func startScanSpan(ctx context.Context, kind ArtifactKind, path string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Engine.ScanText",
		trace.WithAttributes(
			attribute.String("scan.kind", string(kind)),
			attribute.String("scan.file_path", path),
		),
	)
}

// setScanSpanResult sets the result attributes on a scan span.
func setScanSpanResult(span trace.Span, results *FileResults) {
	enabled := results.EnabledCount()
	span.SetAttributes(
		attribute.Int("scan.violation_count", len(results.Violations)),
		attribute.Int("scan.enabled_count", enabled),
		attribute.Int("scan.disabled_count", len(results.Violations)-enabled),
	)
}

// recordScanMetrics records metrics for one file scan.
func recordScanMetrics(ctx context.Context, kind ArtifactKind, duration time.Duration, results *FileResults, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.Bool("success", success),
	)

	scanLatency.Record(ctx, duration.Seconds(), attrs)
	scanTotal.Add(ctx, 1, attrs)

	if success && results != nil {
		kindAttr := metric.WithAttributes(
			attribute.String("kind", string(kind)),
		)
		enabled := results.EnabledCount()
		violationsFound.Record(ctx, int64(len(results.Violations)), kindAttr)
		violationsEnabled.Add(ctx, int64(enabled), kindAttr)
		violationsDisabled.Add(ctx, int64(len(results.Violations)-enabled), kindAttr)
	}
}
