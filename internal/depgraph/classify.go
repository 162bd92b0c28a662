package depgraph

import (
	"sort"
	"strings"
)

type classRule struct {
	match    func(id string) bool
	category NodeCategory
}

// classRules is evaluated top to bottom; the first match wins. Order
// matters because an identifier can satisfy several rules.
var classRules = []classRule{
	{func(id string) bool { return strings.Contains(id, ".provider") || strings.HasPrefix(id, "provider") }, CategoryProvider},
	{prefixRule("module."), CategoryModule},
	{prefixRule("data."), CategoryDataSource},
	{prefixRule("var."), CategoryVariable},
	{prefixRule("output."), CategoryOutput},
	{prefixRule("local."), CategoryLocal},
}

func prefixRule(prefix string) func(string) bool {
	return func(id string) bool { return strings.HasPrefix(id, prefix) }
}

// Classify assigns a NodeCategory to a node identifier. Identifiers that
// match no rule are resources.
func Classify(id string) NodeCategory {
	for _, r := range classRules {
		if r.match(id) {
			return r.category
		}
	}
	return CategoryResource
}

// Simplify groups nodes by category and counts edges between categories.
func Simplify(g *Graph, opts Options) *SimplifiedView {
	opts = opts.withDefaults()

	groups := make(map[NodeCategory][]string)
	for _, node := range g.Nodes {
		c := Classify(node)
		groups[c] = append(groups[c], node)
	}

	type pair struct{ from, to NodeCategory }
	counts := make(map[pair]int)
	var order []pair
	for _, e := range g.Edges {
		p := pair{Classify(e.From), Classify(e.To)}
		if _, seen := counts[p]; !seen {
			order = append(order, p)
		}
		counts[p]++
	}

	view := &SimplifiedView{
		NodeTypeCounts: make(map[NodeCategory]int, len(groups)),
		InterTypeFlows: make([]Flow, 0, len(order)),
		SampleNodes:    make(map[NodeCategory][]string, len(groups)),
	}
	for c, nodes := range groups {
		view.NodeTypeCounts[c] = len(nodes)
		sorted := append([]string(nil), nodes...)
		sort.Strings(sorted)
		if len(sorted) > opts.SampleSize {
			sorted = sorted[:opts.SampleSize]
		}
		view.SampleNodes[c] = sorted
	}
	for _, p := range order {
		view.InterTypeFlows = append(view.InterTypeFlows, Flow{From: p.from, To: p.to, EdgeCount: counts[p]})
	}
	// Stable so equal counts keep first-seen order.
	sort.SliceStable(view.InterTypeFlows, func(i, j int) bool {
		return view.InterTypeFlows[i].EdgeCount > view.InterTypeFlows[j].EdgeCount
	})
	return view
}
