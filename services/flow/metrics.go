// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package flow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowdom_analyses_total",
		Help: "Total graph analyses by outcome",
	}, []string{"outcome"})

	analysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flowdom_analysis_duration_seconds",
		Help:    "Graph analysis latency",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowdom_cache_lookups_total",
		Help: "Result cache lookups by result",
	}, []string{"result"})

	batchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flowdom_batch_documents",
		Help:    "Documents per batch request",
		Buckets: prometheus.LinearBuckets(1, 10, 10),
	})
)
