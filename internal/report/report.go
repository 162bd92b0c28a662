package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/efebarandurmaz/coupler/internal/depgraph"
)

// DefaultVariant labels reports produced without an explicit variant.
const DefaultVariant = "unknown"

// Report is the serialized result of one analysis run.
type Report struct {
	Variant         string                   `json:"variant" yaml:"variant"`
	AnalyzedAt      time.Time                `json:"analyzed_at" yaml:"analyzed_at"`
	GraphMetrics    depgraph.GraphMetrics    `json:"graph_metrics" yaml:"graph_metrics"`
	SimplifiedGraph *depgraph.SimplifiedView `json:"simplified_graph,omitempty" yaml:"simplified_graph,omitempty"`
}

// Assemble combines metadata with analysis results. An empty variant becomes
// DefaultVariant and the timestamp is normalised to UTC.
func Assemble(variant string, at time.Time, m *depgraph.GraphMetrics, view *depgraph.SimplifiedView) *Report {
	if strings.TrimSpace(variant) == "" {
		variant = DefaultVariant
	}
	r := &Report{
		Variant:         variant,
		AnalyzedAt:      at.UTC(),
		SimplifiedGraph: view,
	}
	if m != nil {
		r.GraphMetrics = *m
	}
	return r
}

// Format selects a serialization for Encode.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", s)
	}
}

// JSON returns the report as indented JSON.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Encode serializes the report in the requested format.
func (r *Report) Encode(f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		data, err := r.JSON()
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(data, '\n'), nil
	}
}

// Decode reads a JSON report.
func Decode(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}

// Write encodes the report to path, creating parent directories, or to w
// when path is empty.
func (r *Report) Write(path string, f Format, w io.Writer) error {
	data, err := r.Encode(f)
	if err != nil {
		return err
	}
	return WriteFile(path, data, w)
}

// WriteFile writes data to path, creating parent directories, or to w when
// path is empty.
func WriteFile(path string, data []byte, w io.Writer) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// PrintSummary writes a human-readable summary.
func (r *Report) PrintSummary(w io.Writer) {
	m := r.GraphMetrics
	fmt.Fprintf(w, "\n╔══════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║       COUPLING ANALYSIS REPORT       ║\n")
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ Variant:     %-24s║\n", r.Variant)
	fmt.Fprintf(w, "║ Analyzed:    %-24s║\n", r.AnalyzedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ GRAPH\n")
	fmt.Fprintf(w, "║   Nodes:       %d\n", m.NodeCount)
	fmt.Fprintf(w, "║   Edges:       %d\n", m.EdgeCount)
	fmt.Fprintf(w, "║   Coupling:    %.4f\n", m.CouplingScore)
	fmt.Fprintf(w, "║   Density:     %.6f\n", m.GraphDensity)
	fmt.Fprintf(w, "║   Avg Degree:  %.2f\n", m.AvgDegree)
	fmt.Fprintf(w, "║   Max Degree:  %d\n", m.MaxDegree)
	fmt.Fprintf(w, "║   Circular:    %d\n", m.CircularReferencePairs)
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	if m.HubThreshold > 0 {
		fmt.Fprintf(w, "║ HUBS (%d, in-degree >= %d)\n", m.HubNodeCount, m.HubThreshold)
	} else {
		fmt.Fprintf(w, "║ HUBS (%d)\n", m.HubNodeCount)
	}
	for i, h := range m.HubNodes {
		if i == 5 {
			break
		}
		fmt.Fprintf(w, "║   %-30s %d\n", h.Node, h.InDegree)
	}
	if v := r.SimplifiedGraph; v != nil {
		fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
		fmt.Fprintf(w, "║ CATEGORIES\n")
		for _, c := range depgraph.Categories {
			if n, ok := v.NodeTypeCounts[c]; ok {
				fmt.Fprintf(w, "║   %-14s %d\n", c, n)
			}
		}
	}
	fmt.Fprintf(w, "╚══════════════════════════════════════╝\n")
}
