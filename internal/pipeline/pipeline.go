// Package pipeline runs one coupling analysis from DOT text to Report.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/efebarandurmaz/coupler/internal/depgraph"
	"github.com/efebarandurmaz/coupler/internal/observability"
	"github.com/efebarandurmaz/coupler/internal/report"
)

// Options controls a single run.
type Options struct {
	Variant           string
	IncludeSimplified bool
	Analysis          depgraph.Options

	// Clock stamps the report. Defaults to time.Now.
	Clock func() time.Time
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Result carries the report and the parsed graph it was computed from.
type Result struct {
	Report *report.Report
	Graph  *depgraph.Graph
}

// Run analyzes text and returns the assembled report.
func Run(ctx context.Context, text string, opts Options) (*report.Report, error) {
	res, err := Analyze(ctx, text, opts)
	if err != nil {
		return nil, err
	}
	return res.Report, nil
}

// Analyze is Run but also returns the parsed graph for callers that persist it.
func Analyze(ctx context.Context, text string, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	analysis := opts.Analysis
	if analysis == (depgraph.Options{}) {
		analysis = depgraph.DefaultOptions()
	}

	ctx, span := observability.StartAnalysisSpan(ctx, opts.Variant, len(text))
	defer span.End()

	_, parseSpan := observability.StartStageSpan(ctx, observability.StageParse)
	g, err := depgraph.ParseDOTWithPrefix(text, analysis.MetaNodePrefix)
	if err != nil {
		observability.RecordError(parseSpan, err)
		parseSpan.End()
		observability.RecordError(span, err)
		return nil, err
	}
	observability.RecordGraphSize(parseSpan, len(g.Nodes), len(g.Edges))
	parseSpan.End()
	logger.Debug("parsed graph", "nodes", len(g.Nodes), "edges", len(g.Edges))

	_, degreeSpan := observability.StartStageSpan(ctx, observability.StageDegree)
	idx := depgraph.BuildDegreeIndex(g)
	degreeSpan.End()
	logger.Debug("built degree index", "nodes", len(idx.In))

	_, metricsSpan := observability.StartStageSpan(ctx, observability.StageMetrics)
	m := depgraph.ComputeMetrics(g, idx, analysis)
	observability.RecordCoupling(metricsSpan, m.CouplingScore, m.GraphDensity, m.HubNodeCount)
	metricsSpan.End()
	logger.Debug("computed metrics", "coupling", m.CouplingScore, "hubs", m.HubNodeCount, "threshold", m.HubThreshold)

	var view *depgraph.SimplifiedView
	if opts.IncludeSimplified {
		_, simplifySpan := observability.StartStageSpan(ctx, observability.StageSimplify)
		view = depgraph.Simplify(g, analysis)
		simplifySpan.End()
		logger.Debug("simplified graph", "categories", len(view.NodeTypeCounts), "flows", len(view.InterTypeFlows))
	}

	r := report.Assemble(opts.Variant, clock(), m, view)
	observability.RecordGraphSize(span, m.NodeCount, m.EdgeCount)
	observability.RecordCoupling(span, m.CouplingScore, m.GraphDensity, m.HubNodeCount)

	logger.Info("analysis complete",
		"variant", r.Variant,
		"nodes", m.NodeCount,
		"edges", m.EdgeCount,
		"coupling", m.CouplingScore,
	)

	return &Result{Report: r, Graph: g}, nil
}
