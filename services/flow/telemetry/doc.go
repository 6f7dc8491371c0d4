// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


// Package telemetry wires flowdom's OpenTelemetry providers.
//
// Analysis packages call otel.Tracer and otel.Meter directly. Init decides
// where those spans and instruments go; without it they are no-ops.
// LoggerWithTrace adds trace_id and span_id to slog records so log lines can
// be matched to spans.
//
//	shutdown, err := telemetry.Init(ctx, cfg.Telemetry)
//	if err != nil {
//	    return err
//	}
//	defer shutdown(context.Background())
package telemetry
