package depgraph

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ExportGraphDOT renders a parsed graph back to DOT. Identifiers are
// written verbatim, so parsing the output yields the same graph.
func ExportGraphDOT(g *Graph) string {
	var b strings.Builder
	b.WriteString("digraph {\n")
	b.WriteString("  compound = \"true\"\n")
	b.WriteString("  newrank = \"true\"\n")
	for _, n := range g.Nodes {
		fmt.Fprintf(&b, "  \"%s\" [label=\"%s\" shape=%s]\n", n, n, nodeShape(Classify(n)))
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "  \"%s\" -> \"%s\"\n", e.From, e.To)
	}
	b.WriteString("}\n")
	return b.String()
}

// ExportDOT renders the category-level view as a Graphviz digraph, with
// edge weights taken from the flow counts.
func ExportDOT(v *SimplifiedView) string {
	var b strings.Builder
	b.WriteString("digraph categories {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\" fontsize=10];\n\n")

	for _, c := range presentCategories(v) {
		fmt.Fprintf(&b, "  %s [label=\"%s (%d)\" shape=%s style=filled fillcolor=\"%s\"];\n",
			c, c, v.NodeTypeCounts[c], nodeShape(c), nodeColor(c))
	}
	if len(v.InterTypeFlows) > 0 {
		b.WriteString("\n")
	}
	for _, f := range v.InterTypeFlows {
		fmt.Fprintf(&b, "  %s -> %s [label=\"%d\" penwidth=%d];\n",
			f.From, f.To, f.EdgeCount, penWidth(f.EdgeCount))
	}

	b.WriteString("}\n")
	return b.String()
}

// ExportMermaid renders the category-level view as a Mermaid flowchart.
func ExportMermaid(v *SimplifiedView) string {
	var b strings.Builder
	b.WriteString("graph LR\n")
	for _, c := range presentCategories(v) {
		fmt.Fprintf(&b, "  %s%s\n", c, mermaidNodeShape(c, v.NodeTypeCounts[c]))
	}
	for _, f := range v.InterTypeFlows {
		fmt.Fprintf(&b, "  %s -->|%d| %s\n", f.From, f.EdgeCount, f.To)
	}
	return b.String()
}

// ExportJSON serializes the parsed graph to JSON.
func ExportJSON(g *Graph) ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

// FormatStats returns a human-readable summary of graph metrics.
func FormatStats(m *GraphMetrics) string {
	var b strings.Builder
	b.WriteString("Dependency Graph Statistics\n")
	b.WriteString("==========================\n\n")
	fmt.Fprintf(&b, "Nodes:          %d\n", m.NodeCount)
	fmt.Fprintf(&b, "  Leaves:       %d\n", m.LeafNodeCount)
	fmt.Fprintf(&b, "  Roots:        %d\n", m.RootNodeCount)
	fmt.Fprintf(&b, "Edges:          %d\n", m.EdgeCount)
	fmt.Fprintf(&b, "Coupling:       %.4f (E/N)\n", m.CouplingScore)
	fmt.Fprintf(&b, "Density:        %.6f\n", m.GraphDensity)
	fmt.Fprintf(&b, "Degree:         avg %.2f, max %d, min %d\n", m.AvgDegree, m.MaxDegree, m.MinDegree)
	fmt.Fprintf(&b, "Circular pairs: %d (2-cycles only)\n", m.CircularReferencePairs)

	if len(m.HubNodes) > 0 {
		fmt.Fprintf(&b, "\nHub Nodes: %d (in-degree >= %d)\n", m.HubNodeCount, m.HubThreshold)
		for _, h := range m.HubNodes {
			fmt.Fprintf(&b, "  [%3d] %s\n", h.InDegree, h.Node)
		}
	}
	return b.String()
}

// presentCategories returns categories with at least one node, in
// classification order.
func presentCategories(v *SimplifiedView) []NodeCategory {
	var out []NodeCategory
	for _, c := range Categories {
		if v.NodeTypeCounts[c] > 0 {
			out = append(out, c)
		}
	}
	// Unknown keys can appear when a view was decoded from disk.
	var extra []string
	for c := range v.NodeTypeCounts {
		if !isKnownCategory(c) {
			extra = append(extra, string(c))
		}
	}
	sort.Strings(extra)
	for _, c := range extra {
		out = append(out, NodeCategory(c))
	}
	return out
}

func isKnownCategory(c NodeCategory) bool {
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}

func penWidth(count int) int {
	switch {
	case count >= 50:
		return 4
	case count >= 10:
		return 3
	case count >= 3:
		return 2
	default:
		return 1
	}
}

func nodeShape(c NodeCategory) string {
	switch c {
	case CategoryProvider:
		return "hexagon"
	case CategoryModule:
		return "box3d"
	case CategoryDataSource:
		return "cylinder"
	case CategoryVariable:
		return "note"
	case CategoryOutput:
		return "cds"
	case CategoryLocal:
		return "ellipse"
	default:
		return "box"
	}
}

func nodeColor(c NodeCategory) string {
	switch c {
	case CategoryProvider:
		return "#d29922"
	case CategoryModule:
		return "#1f6feb"
	case CategoryDataSource:
		return "#8957e5"
	case CategoryVariable:
		return "#3fb950"
	case CategoryOutput:
		return "#f85149"
	case CategoryLocal:
		return "#8b949e"
	default:
		return "#238636"
	}
}

func mermaidNodeShape(c NodeCategory, count int) string {
	label := fmt.Sprintf("%s (%d)", c, count)
	switch c {
	case CategoryProvider:
		return fmt.Sprintf("{{\"%s\"}}", label)
	case CategoryModule:
		return fmt.Sprintf("[[\"%s\"]]", label)
	case CategoryDataSource:
		return fmt.Sprintf("[(\"%s\")]", label)
	case CategoryVariable, CategoryLocal:
		return fmt.Sprintf("([\"%s\"])", label)
	case CategoryOutput:
		return fmt.Sprintf(">\"%s\"]", label)
	default:
		return fmt.Sprintf("[\"%s\"]", label)
	}
}
