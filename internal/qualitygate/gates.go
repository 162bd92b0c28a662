package qualitygate

import (
	"errors"
	"fmt"
)

var errNoMetrics = errors.New("no graph metrics to evaluate")

// ceilingGate fails when a metric exceeds a maximum.
type ceilingGate struct {
	name     string
	max      float64
	severity GateSeverity
	value    func(ctx *EvalContext) float64
	format   string // verb used for value and threshold
	details  func(ctx *EvalContext) []string
}

func (g *ceilingGate) Name() string           { return g.name }
func (g *ceilingGate) Severity() GateSeverity { return g.severity }
func (g *ceilingGate) Evaluate(ctx *EvalContext) (*GateResult, error) {
	if ctx == nil || ctx.Metrics == nil {
		return nil, errNoMetrics
	}
	v := g.value(ctx)
	r := &GateResult{
		Name:      g.name,
		Severity:  g.severity,
		Value:     v,
		Threshold: g.max,
	}
	val := fmt.Sprintf(g.format, v)
	limit := fmt.Sprintf(g.format, g.max)
	if v <= g.max {
		r.Status = GatePassed
		r.Message = fmt.Sprintf("%s %s within limit %s", g.name, val, limit)
		return r, nil
	}
	r.Status = GateFailed
	r.Message = fmt.Sprintf("%s %s exceeds limit %s", g.name, val, limit)
	if g.details != nil {
		r.Details = g.details(ctx)
	}
	return r, nil
}

// NewCouplingGate limits the edge-to-node ratio.
func NewCouplingGate(max float64, severity GateSeverity) Gate {
	return &ceilingGate{
		name: "coupling", max: max, severity: severity, format: "%.4f",
		value: func(ctx *EvalContext) float64 { return ctx.Metrics.CouplingScore },
	}
}

// NewDensityGate limits graph density.
func NewDensityGate(max float64, severity GateSeverity) Gate {
	return &ceilingGate{
		name: "density", max: max, severity: severity, format: "%.6f",
		value: func(ctx *EvalContext) float64 { return ctx.Metrics.GraphDensity },
	}
}

// NewCircularGate limits the number of reciprocal edges.
func NewCircularGate(max int, severity GateSeverity) Gate {
	return &ceilingGate{
		name: "circular", max: float64(max), severity: severity, format: "%.0f",
		value: func(ctx *EvalContext) float64 { return float64(ctx.Metrics.CircularReferencePairs) },
	}
}

// NewHubGate limits the number of hub nodes and lists the worst offenders
// on failure.
func NewHubGate(max int, severity GateSeverity) Gate {
	return &ceilingGate{
		name: "hubs", max: float64(max), severity: severity, format: "%.0f",
		value: func(ctx *EvalContext) float64 { return float64(ctx.Metrics.HubNodeCount) },
		details: func(ctx *EvalContext) []string {
			var out []string
			for _, h := range ctx.Metrics.HubNodes {
				out = append(out, fmt.Sprintf("%s (in-degree %d)", h.Node, h.InDegree))
			}
			return out
		},
	}
}

// NewDegreeGate limits the largest total degree of any node.
func NewDegreeGate(max int, severity GateSeverity) Gate {
	return &ceilingGate{
		name: "degree", max: float64(max), severity: severity, format: "%.0f",
		value: func(ctx *EvalContext) float64 { return float64(ctx.Metrics.MaxDegree) },
	}
}
