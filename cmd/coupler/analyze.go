package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/efebarandurmaz/coupler/internal/depgraph"
	"github.com/efebarandurmaz/coupler/internal/qualitygate"
	"github.com/efebarandurmaz/coupler/internal/report"
	"github.com/efebarandurmaz/coupler/internal/snapshot"
)

type analyzeFlags struct {
	input      string
	output     string
	variant    string
	simplified bool
	format     string
	quiet      bool
}

func (a *app) runAnalyze(cmd *cobra.Command, f analyzeFlags) error {
	format, err := report.ParseFormat(f.format)
	if err != nil {
		return err
	}
	res, _, err := a.analyzeFile(cmd.Context(), f.input, f.variant, f.simplified)
	if err != nil {
		return err
	}
	if !f.quiet {
		res.Report.PrintSummary(cmd.ErrOrStderr())
	}
	if err := res.Report.Write(f.output, format, cmd.OutOrStdout()); err != nil {
		return err
	}
	if f.output != "" {
		a.logger.Info("Report written", "path", f.output, "format", string(format))
	}
	return nil
}

// compareInput is one "[name=]path" argument of the compare command.
type compareInput struct {
	variant string
	path    string
}

func parseCompareArg(arg string) compareInput {
	if name, path, ok := strings.Cut(arg, "="); ok && name != "" && path != "" {
		return compareInput{variant: name, path: path}
	}
	return compareInput{variant: variantFromPath(arg), path: arg}
}

func (a *app) runCompare(cmd *cobra.Command, args []string, simplified bool) error {
	inputs := make([]compareInput, len(args))
	for i, arg := range args {
		inputs[i] = parseCompareArg(arg)
	}

	reports, err := a.analyzeAll(cmd.Context(), inputs, simplified)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	writeCompareTable(out, reports)

	base := reports[0]
	for _, r := range reports[1:] {
		fmt.Fprintln(out)
		fmt.Fprint(out, snapshot.FormatDiff(snapshot.Diff(base, r)))
	}
	return nil
}

// analyzeAll analyzes inputs concurrently. Reports keep the argument order.
func (a *app) analyzeAll(ctx context.Context, inputs []compareInput, simplified bool) ([]*report.Report, error) {
	reports := make([]*report.Report, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	for i, in := range inputs {
		g.Go(func() error {
			res, _, err := a.analyzeFile(gctx, in.path, in.variant, simplified)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", in.path, err)
			}
			reports[i] = res.Report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func writeCompareTable(w io.Writer, reports []*report.Report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIANT\tNODES\tEDGES\tCOUPLING\tDENSITY\tHUBS\tCIRCULAR\tMAX DEGREE")
	for _, r := range reports {
		m := r.GraphMetrics
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.4f\t%.6f\t%d\t%d\t%d\n",
			r.Variant, m.NodeCount, m.EdgeCount, m.CouplingScore, m.GraphDensity,
			m.HubNodeCount, m.CircularReferencePairs, m.MaxDegree)
	}
	tw.Flush()
}

func (a *app) runExport(cmd *cobra.Command, input, output, format string) error {
	res, _, err := a.analyzeFile(cmd.Context(), input, "", true)
	if err != nil {
		return err
	}

	var data []byte
	switch strings.ToLower(format) {
	case "dot":
		data = []byte(depgraph.ExportDOT(res.Report.SimplifiedGraph))
	case "mermaid":
		data = []byte(depgraph.ExportMermaid(res.Report.SimplifiedGraph))
	case "stats":
		m := res.Report.GraphMetrics
		data = []byte(depgraph.FormatStats(&m))
	case "graph-dot":
		data = []byte(depgraph.ExportGraphDOT(res.Graph))
	case "json":
		data, err = depgraph.ExportJSON(res.Graph)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown export format %q (want dot, mermaid, stats, graph-dot or json)", format)
	}
	return report.WriteFile(output, data, cmd.OutOrStdout())
}

func (a *app) runGate(cmd *cobra.Command, input, variant string, asJSON bool) error {
	res, _, err := a.analyzeFile(cmd.Context(), input, variant, false)
	if err != nil {
		return err
	}
	r := res.Report

	gates := qualitygate.BuildPipeline(&a.cfg.Gates)
	result := gates.Run(&qualitygate.EvalContext{Variant: r.Variant, Metrics: &r.GraphMetrics})

	out := cmd.OutOrStdout()
	if asJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	} else {
		fmt.Fprint(out, qualitygate.FormatReport(result))
	}

	if !result.Passed() {
		return &exitError{code: 2, err: fmt.Errorf("quality gates failed for variant %s", r.Variant)}
	}
	return nil
}
