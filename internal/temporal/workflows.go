package temporal

import (
	"fmt"
	"time"

	sdktemporal "go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/efebarandurmaz/coupler/internal/report"
)

// WorkflowName is the registered name of AnalysisWorkflow.
const WorkflowName = "AnalysisWorkflow"

// AnalysisInput holds the workflow parameters.
type AnalysisInput struct {
	Variant           string
	DOT               string
	IncludeSimplified bool
	// Publish stores the parsed graph and fingerprint after analysis.
	Publish bool
}

// AnalysisOutput holds the workflow result.
type AnalysisOutput struct {
	Report    *report.Report
	Published bool
}

// AnalysisWorkflow analyzes a DOT document and optionally publishes the
// result to the configured repositories.
func AnalysisWorkflow(ctx workflow.Context, input AnalysisInput) (*AnalysisOutput, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &sdktemporal.RetryPolicy{
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{inputErrorType},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	logger := workflow.GetLogger(ctx)

	var analyzed AnalyzeResult
	if err := workflow.ExecuteActivity(ctx, AnalyzeActivity, input).Get(ctx, &analyzed); err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	logger.Info("analysis complete", "variant", analyzed.Report.Variant, "coupling", analyzed.Report.GraphMetrics.CouplingScore)

	out := &AnalysisOutput{Report: analyzed.Report}
	if !input.Publish {
		return out, nil
	}

	pub := PublishInput{Variant: analyzed.Report.Variant, Graph: analyzed.Graph, Report: analyzed.Report}
	if err := workflow.ExecuteActivity(ctx, PublishActivity, pub).Get(ctx, nil); err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}
	out.Published = true
	return out, nil
}
