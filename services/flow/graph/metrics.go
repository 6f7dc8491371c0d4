// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("flowdom.graph")

// Metrics for the analysis passes.
var (
	passLatency    metric.Float64Histogram
	passTotal      metric.Int64Counter
	passIterations metric.Int64Histogram
	analysedBlocks metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// Outcome labels for recorded passes.
const (
	outcomeSuccess   = "success"
	outcomeMalformed = "malformed"
	outcomeCancelled = "cancelled"
	outcomeError     = "error"
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		passLatency, err = meter.Float64Histogram(
			"flow_graph_pass_duration_seconds",
			metric.WithDescription("Duration of dominance analysis passes"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		passTotal, err = meter.Int64Counter(
			"flow_graph_pass_total",
			metric.WithDescription("Total number of dominance analysis passes"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		passIterations, err = meter.Int64Histogram(
			"flow_graph_dominance_iterations",
			metric.WithDescription("Fixpoint iterations needed per dominance computation"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		analysedBlocks, err = meter.Int64Histogram(
			"flow_graph_blocks",
			metric.WithDescription("Number of blocks per analysed graph"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordPassMetrics records one dominance or frontier pass.
func recordPassMetrics(ctx context.Context, pass string, duration time.Duration, blocks, iterations int, outcome string) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("pass", pass),
		attribute.String("outcome", outcome),
	)

	passLatency.Record(ctx, duration.Seconds(), attrs)
	passTotal.Add(ctx, 1, attrs)

	if outcome == outcomeSuccess {
		analysedBlocks.Record(ctx, int64(blocks), metric.WithAttributes(attribute.String("pass", pass)))
		if iterations > 0 {
			passIterations.Record(ctx, int64(iterations))
		}
	}
}
