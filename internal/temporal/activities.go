package temporal

import (
	"context"
	"errors"
	"fmt"

	sdktemporal "go.temporal.io/sdk/temporal"

	"github.com/efebarandurmaz/coupler/internal/depgraph"
	"github.com/efebarandurmaz/coupler/internal/graph"
	"github.com/efebarandurmaz/coupler/internal/pipeline"
	"github.com/efebarandurmaz/coupler/internal/report"
	"github.com/efebarandurmaz/coupler/internal/vector"
)

const inputErrorType = "InputError"

// AnalyzeResult is the serializable result of AnalyzeActivity.
type AnalyzeResult struct {
	Report *report.Report
	Graph  *depgraph.Graph
}

// PublishInput carries what PublishActivity persists.
type PublishInput struct {
	Variant string
	Graph   *depgraph.Graph
	Report  *report.Report
}

// Dependencies holds shared resources injected into activities.
type Dependencies struct {
	Analysis depgraph.Options
	Graphs   graph.Repository // optional
	Index    *vector.Indexer  // optional
}

var deps = &Dependencies{}

// SetDependencies injects shared resources (called during worker setup).
func SetDependencies(d *Dependencies) {
	deps = d
}

// AnalyzeActivity runs the analysis pipeline. Input errors are returned as
// non-retryable application errors.
func AnalyzeActivity(ctx context.Context, input AnalysisInput) (AnalyzeResult, error) {
	res, err := pipeline.Analyze(ctx, input.DOT, pipeline.Options{
		Variant:           input.Variant,
		IncludeSimplified: input.IncludeSimplified,
		Analysis:          deps.Analysis,
		Logger:            activityLogger(ctx),
	})
	if err != nil {
		var inErr *depgraph.InputError
		if errors.As(err, &inErr) {
			return AnalyzeResult{}, sdktemporal.NewNonRetryableApplicationError(err.Error(), inputErrorType, err)
		}
		return AnalyzeResult{}, err
	}
	return AnalyzeResult{Report: res.Report, Graph: res.Graph}, nil
}

// PublishActivity stores the graph and indexes the report fingerprint in
// whichever repositories are configured.
func PublishActivity(ctx context.Context, input PublishInput) error {
	if deps.Graphs == nil && deps.Index == nil {
		return sdktemporal.NewNonRetryableApplicationError("no publish targets configured", "Configuration", nil)
	}
	if deps.Graphs != nil && input.Graph != nil {
		if err := deps.Graphs.StoreGraph(ctx, input.Variant, input.Graph); err != nil {
			return fmt.Errorf("store graph: %w", err)
		}
	}
	if deps.Index != nil && input.Report != nil {
		if err := deps.Index.IndexReport(ctx, input.Report); err != nil {
			return err
		}
	}
	return nil
}
