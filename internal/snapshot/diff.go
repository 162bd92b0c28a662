package snapshot

import (
	"fmt"
	"strings"

	"github.com/efebarandurmaz/coupler/internal/depgraph"
	"github.com/efebarandurmaz/coupler/internal/report"
)

// MetricDelta is the change in one scalar metric.
type MetricDelta struct {
	Name  string  `json:"name"`
	Old   float64 `json:"old"`
	New   float64 `json:"new"`
	Delta float64 `json:"delta"`
}

// CategoryDelta is the change in node count for one category.
type CategoryDelta struct {
	Category depgraph.NodeCategory `json:"category"`
	Old      int                   `json:"old"`
	New      int                   `json:"new"`
	Delta    int                   `json:"delta"`
}

// ReportDiff compares two analysis reports.
type ReportDiff struct {
	OldVariant     string          `json:"old_variant"`
	NewVariant     string          `json:"new_variant"`
	Metrics        []MetricDelta   `json:"metrics"`
	Categories     []CategoryDelta `json:"categories,omitempty"`
	HubsAdded      []string        `json:"hubs_added"`
	HubsRemoved    []string        `json:"hubs_removed"`
	Improved       bool            `json:"improved"` // coupling score decreased
	CouplingChange float64         `json:"coupling_change"`
}

// Diff computes metric, category and hub changes from old to new.
// Category deltas are only present when both reports carry a simplified view.
func Diff(old, new *report.Report) *ReportDiff {
	om, nm := old.GraphMetrics, new.GraphMetrics
	d := &ReportDiff{
		OldVariant:  old.Variant,
		NewVariant:  new.Variant,
		HubsAdded:   []string{},
		HubsRemoved: []string{},
	}

	add := func(name string, o, n float64) {
		d.Metrics = append(d.Metrics, MetricDelta{Name: name, Old: o, New: n, Delta: roundDelta(n - o)})
	}
	add("node_count", float64(om.NodeCount), float64(nm.NodeCount))
	add("edge_count", float64(om.EdgeCount), float64(nm.EdgeCount))
	add("coupling_score", om.CouplingScore, nm.CouplingScore)
	add("graph_density", om.GraphDensity, nm.GraphDensity)
	add("hub_node_count", float64(om.HubNodeCount), float64(nm.HubNodeCount))
	add("leaf_node_count", float64(om.LeafNodeCount), float64(nm.LeafNodeCount))
	add("root_node_count", float64(om.RootNodeCount), float64(nm.RootNodeCount))
	add("avg_degree", om.AvgDegree, nm.AvgDegree)
	add("max_degree", float64(om.MaxDegree), float64(nm.MaxDegree))
	add("min_degree", float64(om.MinDegree), float64(nm.MinDegree))
	add("circular_reference_pairs", float64(om.CircularReferencePairs), float64(nm.CircularReferencePairs))

	d.CouplingChange = roundDelta(nm.CouplingScore - om.CouplingScore)
	d.Improved = nm.CouplingScore < om.CouplingScore

	oldHubs := hubSet(om.HubNodes)
	newHubs := hubSet(nm.HubNodes)
	for _, h := range nm.HubNodes {
		if !oldHubs[h.Node] {
			d.HubsAdded = append(d.HubsAdded, h.Node)
		}
	}
	for _, h := range om.HubNodes {
		if !newHubs[h.Node] {
			d.HubsRemoved = append(d.HubsRemoved, h.Node)
		}
	}

	if old.SimplifiedGraph != nil && new.SimplifiedGraph != nil {
		for _, c := range depgraph.Categories {
			o := old.SimplifiedGraph.NodeTypeCounts[c]
			n := new.SimplifiedGraph.NodeTypeCounts[c]
			if o == 0 && n == 0 {
				continue
			}
			d.Categories = append(d.Categories, CategoryDelta{Category: c, Old: o, New: n, Delta: n - o})
		}
	}

	return d
}

// Metric returns the delta with the given name.
func (d *ReportDiff) Metric(name string) (MetricDelta, bool) {
	for _, m := range d.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return MetricDelta{}, false
}

// FormatDiff renders a diff as an aligned table.
func FormatDiff(d *ReportDiff) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s → %s\n", d.OldVariant, d.NewVariant)
	fmt.Fprintf(&b, "%-26s %12s %12s %12s\n", "METRIC", "OLD", "NEW", "DELTA")
	for _, m := range d.Metrics {
		fmt.Fprintf(&b, "%-26s %12s %12s %12s\n", m.Name, formatNum(m.Old), formatNum(m.New), formatSigned(m.Delta))
	}
	if len(d.Categories) > 0 {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%-26s %12s %12s %12s\n", "CATEGORY", "OLD", "NEW", "DELTA")
		for _, c := range d.Categories {
			fmt.Fprintf(&b, "%-26s %12d %12d %12s\n", c.Category, c.Old, c.New, formatSigned(float64(c.Delta)))
		}
	}
	if len(d.HubsAdded) > 0 {
		fmt.Fprintf(&b, "\nNew hubs: %s\n", strings.Join(d.HubsAdded, ", "))
	}
	if len(d.HubsRemoved) > 0 {
		fmt.Fprintf(&b, "Resolved hubs: %s\n", strings.Join(d.HubsRemoved, ", "))
	}
	verdict := "regressed"
	switch {
	case d.Improved:
		verdict = "improved"
	case d.CouplingChange == 0:
		verdict = "unchanged"
	}
	fmt.Fprintf(&b, "\nCoupling %s (%s)\n", verdict, formatSigned(d.CouplingChange))
	return b.String()
}

func hubSet(hubs []depgraph.HubEntry) map[string]bool {
	set := make(map[string]bool, len(hubs))
	for _, h := range hubs {
		set[h.Node] = true
	}
	return set
}

// roundDelta trims float noise from subtracting already-rounded metrics.
func roundDelta(v float64) float64 {
	const scale = 1e6
	if v < 0 {
		return -float64(int64(-v*scale+0.5)) / scale
	}
	return float64(int64(v*scale+0.5)) / scale
}

func formatNum(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.4f", v)
}

func formatSigned(v float64) string {
	s := formatNum(v)
	if v > 0 {
		return "+" + s
	}
	return s
}
