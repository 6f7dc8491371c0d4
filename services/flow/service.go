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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/flowdom/services/flow/cache"
	"github.com/AleutianAI/flowdom/services/flow/config"
	"github.com/AleutianAI/flowdom/services/flow/export"
	"github.com/AleutianAI/flowdom/services/flow/graph"
	"github.com/AleutianAI/flowdom/services/flow/loader"
	"github.com/AleutianAI/flowdom/services/flow/structure"
	"github.com/AleutianAI/flowdom/services/flow/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// MaxBatchSize bounds the number of documents in one batch.
const MaxBatchSize = 100

var serviceTracer = otel.Tracer("flow.service")

// Service analyses graph documents.
//
// Thread Safety: Safe for concurrent use. Each call builds its own graph.
type Service struct {
	cfg   config.AnalysisConfig
	cache *cache.Cache
}

// Option configures a Service.
type Option func(*Service)

// WithCache makes Analyze consult and fill c. A nil cache is ignored.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// NewService creates a Service bounded by cfg.
func NewService(cfg config.AnalysisConfig, opts ...Option) *Service {
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analysis is a fully analysed graph together with the names used to build
// it. It is read-only.
type Analysis struct {
	Name  string
	Graph *graph.ControlFlowGraph
	Names map[graph.BlockIndex]string
	Loops *structure.LoopNest
}

// Analyze builds and analyses doc and returns the wire result.
//
// # Outputs
//
//   - *AnalysisResult: Per-block dominance data plus structuring facts.
//   - error: A loader error for invalid documents, a
//     *graph.MalformedGraphError, or a context error when the analysis
//     timeout or ctx expires.
func (s *Service) Analyze(ctx context.Context, doc *loader.Document) (*AnalysisResult, error) {
	start := time.Now()

	key := s.cacheKey(ctx, doc)
	if res := s.cached(ctx, key); res != nil {
		res.Cached = true
		res.DurationMs = time.Since(start).Milliseconds()
		analysesTotal.WithLabelValues("cached").Inc()
		return res, nil
	}

	a, err := s.Run(ctx, doc)
	analysisDuration.Observe(time.Since(start).Seconds())
	analysesTotal.WithLabelValues(outcomeOf(err)).Inc()
	if err != nil {
		return nil, err
	}

	res, err := a.Result()
	if err != nil {
		return nil, err
	}
	res.DurationMs = time.Since(start).Milliseconds()
	s.store(ctx, key, res)
	return res, nil
}

// cacheKey returns the cache key for doc, or "" when there is no cache or
// the document cannot be keyed.
func (s *Service) cacheKey(ctx context.Context, doc *loader.Document) string {
	if s.cache == nil || doc == nil {
		return ""
	}
	key, err := cache.Key(doc)
	if err != nil {
		telemetry.LoggerWithTrace(ctx, slog.Default()).Warn("cache key failed", slog.String("error", err.Error()))
		return ""
	}
	return key
}

// cached returns the stored result for key, or nil. Cache failures are
// logged and treated as misses.
func (s *Service) cached(ctx context.Context, key string) *AnalysisResult {
	if key == "" {
		return nil
	}
	data, ok, err := s.cache.Get(key)
	switch {
	case err != nil:
		cacheLookups.WithLabelValues("error").Inc()
		telemetry.LoggerWithTrace(ctx, slog.Default()).Warn("cache lookup failed", slog.String("error", err.Error()))
		return nil
	case !ok:
		cacheLookups.WithLabelValues("miss").Inc()
		return nil
	}

	var res AnalysisResult
	if err := json.Unmarshal(data, &res); err != nil {
		cacheLookups.WithLabelValues("error").Inc()
		telemetry.LoggerWithTrace(ctx, slog.Default()).Warn("cached result unreadable", slog.String("error", err.Error()))
		return nil
	}
	cacheLookups.WithLabelValues("hit").Inc()
	return &res
}

func (s *Service) store(ctx context.Context, key string, res *AnalysisResult) {
	if key == "" {
		return
	}
	data, err := json.Marshal(res)
	if err == nil {
		err = s.cache.Put(key, data)
	}
	if err != nil {
		telemetry.LoggerWithTrace(ctx, slog.Default()).Warn("cache store failed", slog.String("error", err.Error()))
	}
}

// Run builds doc and runs every analysis, returning the analysed graph.
func (s *Service) Run(ctx context.Context, doc *loader.Document) (*Analysis, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if s.cfg.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.AnalysisTimeout)
		defer cancel()
	}

	ctx, span := serviceTracer.Start(ctx, "flow.Service.Run",
		trace.WithAttributes(
			attribute.String("graph", doc.Name),
			attribute.Int("blocks", len(doc.Blocks)),
			attribute.Int("edges", len(doc.Edges)),
		),
	)
	defer span.End()

	a, err := s.run(ctx, doc)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetSpanOK(span)
	return a, nil
}

func (s *Service) run(ctx context.Context, doc *loader.Document) (*Analysis, error) {
	g, names, err := s.build(doc)
	if err != nil {
		return nil, err
	}
	if err := g.ComputeDominance(ctx); err != nil {
		return nil, fmt.Errorf("dominance: %w", err)
	}
	if err := g.ComputeDominanceFrontier(ctx); err != nil {
		return nil, fmt.Errorf("dominance frontier: %w", err)
	}
	loops, err := structure.FindLoops(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("loops: %w", err)
	}
	return &Analysis{Name: doc.Name, Graph: g, Names: names, Loops: loops}, nil
}

func (s *Service) build(doc *loader.Document) (*graph.ControlFlowGraph, map[graph.BlockIndex]string, error) {
	if err := doc.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", loader.ErrInvalidDocument, err)
	}
	g, ids, err := doc.BuildWithLimits(loader.Limits{
		MaxBlocks: s.cfg.MaxBlocks,
		MaxEdges:  s.cfg.MaxEdges,
	})
	if err != nil {
		return nil, nil, err
	}
	names := make(map[graph.BlockIndex]string, len(ids))
	for name, i := range ids {
		names[i] = name
	}
	return g, names, nil
}

// Result converts the analysis into its wire form.
func (a *Analysis) Result() (*AnalysisResult, error) {
	g := a.Graph
	res := &AnalysisResult{
		Name:        a.Name,
		Blocks:      make([]BlockResult, 0, g.Len()),
		MergePoints: make([]MergePointResult, 0),
		Loops:       make([]LoopResult, 0, len(a.Loops.Loops)),
		Iterations:  g.Iterations(),
	}

	for _, n := range g.Nodes() {
		br := BlockResult{
			Name:     a.Names[n.BlockIndex],
			Index:    int(n.BlockIndex),
			Type:     n.Type.String(),
			Label:    n.Label,
			Children: a.names(n.DominatorTreeChildren),
			Frontier: a.names(g.Frontier(n.BlockIndex)),
			Depth:    -1,
		}
		if n.ImmediateDominator != graph.NoBlock {
			br.ImmediateDominator = a.Names[n.ImmediateDominator]
		}
		depth, err := g.DominatorTreeDepth(n.BlockIndex)
		switch {
		case err == nil:
			br.Depth = depth
		case !errors.Is(err, graph.ErrUnreachableNode):
			return nil, err
		}
		res.Blocks = append(res.Blocks, br)
	}

	points, err := structure.MergePoints(g)
	if err != nil {
		return nil, err
	}
	for _, p := range points {
		res.MergePoints = append(res.MergePoints, MergePointResult{Block: a.Names[p.Block], Degree: p.Degree})
	}

	for _, l := range a.Loops.Loops {
		lr := LoopResult{Header: a.Names[l.Header], Body: a.names(l.Body), Depth: l.Depth}
		if l.Parent != nil {
			lr.Parent = a.Names[l.Parent.Header]
		}
		res.Loops = append(res.Loops, lr)
	}

	res.Reducible, err = structure.IsReducible(g)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (a *Analysis) names(idx []graph.BlockIndex) []string {
	out := make([]string, len(idx))
	for i, b := range idx {
		out[i] = a.Names[b]
	}
	return out
}

// AnalyzeBatch analyses docs concurrently, at most cfg.BatchConcurrency at a
// time. A failing document yields an entry with Error set; the batch itself
// fails only for an empty or oversized request.
func (s *Service) AnalyzeBatch(ctx context.Context, docs []*loader.Document) (*BatchResponse, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(docs) > MaxBatchSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(docs), MaxBatchSize)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	batchSize.Observe(float64(len(docs)))

	entries := make([]BatchEntry, len(docs))
	g, gCtx := errgroup.WithContext(ctx)
	if s.cfg.BatchConcurrency > 0 {
		g.SetLimit(s.cfg.BatchConcurrency)
	}

	for i, doc := range docs {
		g.Go(func() error {
			if doc != nil {
				entries[i].Name = doc.Name
			}
			res, err := s.Analyze(gCtx, doc)
			if err != nil {
				_, code := classifyError(err)
				entries[i].Error = &ErrorResponse{Error: err.Error(), Code: code}
				telemetry.LoggerWithTrace(gCtx, slog.Default()).Warn("batch entry failed",
					slog.Int("index", i),
					slog.String("code", code),
					slog.String("error", err.Error()),
				)
				return nil
			}
			entries[i].Result = res
			return nil
		})
	}
	_ = g.Wait()

	resp := &BatchResponse{Results: entries}
	for _, e := range entries {
		if e.Error != nil {
			resp.Failed++
		} else {
			resp.Succeeded++
		}
	}
	return resp, nil
}

// Export builds doc, computes dominance when possible and renders it.
//
// A malformed graph is still rendered, without dominator edges, since that
// is when a picture of it is most useful. Invalid documents, cancellation
// and unknown formats fail.
func (s *Service) Export(ctx context.Context, doc *loader.Document, format export.Format) (string, error) {
	if doc == nil {
		return "", ErrNilDocument
	}
	if ctx == nil {
		ctx = context.Background()
	}
	format, err := export.ParseFormat(string(format))
	if err != nil {
		return "", err
	}
	if s.cfg.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.AnalysisTimeout)
		defer cancel()
	}

	g, _, err := s.build(doc)
	if err != nil {
		return "", err
	}
	if err := g.ComputeDominance(ctx); err != nil {
		if !graph.IsMalformed(err) {
			return "", fmt.Errorf("dominance: %w", err)
		}
		telemetry.LoggerWithTrace(ctx, slog.Default()).Warn("exporting malformed graph",
			slog.String("graph", doc.Name),
			slog.String("error", err.Error()),
		)
	}
	return export.Render(g.ExportGraph(doc.Name), format)
}
