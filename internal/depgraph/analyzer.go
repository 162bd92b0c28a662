package depgraph

import (
	"math"
	"sort"
)

// Analyze computes coupling metrics for g with default options.
func Analyze(g *Graph) *GraphMetrics {
	return AnalyzeWithOptions(g, DefaultOptions())
}

// AnalyzeWithOptions computes coupling metrics for g.
func AnalyzeWithOptions(g *Graph, opts Options) *GraphMetrics {
	return ComputeMetrics(g, BuildDegreeIndex(g), opts)
}

// ComputeMetrics derives all graph-level statistics from g and its degree
// index. A nil idx is built from g. Degenerate graphs yield zero values
// rather than errors.
func ComputeMetrics(g *Graph, idx *DegreeIndex, opts Options) *GraphMetrics {
	opts = opts.withDefaults()
	if idx == nil {
		idx = BuildDegreeIndex(g)
	}

	n := len(g.Nodes)
	e := len(g.Edges)

	m := &GraphMetrics{
		NodeCount:        n,
		EdgeCount:        e,
		HubNodes:         []HubEntry{},
		TopDependedNodes: []HubEntry{},
	}

	if n > 0 {
		m.CouplingScore = round(float64(e)/float64(n), 4)
	}
	if maxEdges := n * (n - 1); maxEdges > 0 {
		m.GraphDensity = round(float64(e)/float64(maxEdges), 6)
	}

	hubs, threshold := identifyHubs(g.Nodes, idx.In, opts.HubPercentile)
	m.HubThreshold = threshold
	m.HubNodeCount = len(hubs)
	m.HubNodes = truncate(hubs, opts.TopN)

	for _, node := range g.Nodes {
		if idx.Out[node] == 0 {
			m.LeafNodeCount++
		}
		if idx.In[node] == 0 {
			m.RootNodeCount++
		}
	}

	m.AvgDegree, m.MaxDegree, m.MinDegree = degreeStats(g.Nodes, idx)
	m.CircularReferencePairs = countCircularPairs(g.Edges)
	m.TopDependedNodes = truncate(rankByInDegree(g.Nodes, idx.In), opts.TopN)

	return m
}

// identifyHubs returns nodes whose in-degree is at or above the value at
// the given percentile of the sorted in-degree list, and strictly positive.
// The returned list is ordered by in-degree descending.
func identifyHubs(nodes []string, inDegree map[string]int, percentile float64) ([]HubEntry, int) {
	if len(nodes) == 0 {
		return []HubEntry{}, 0
	}

	degrees := make([]int, 0, len(nodes))
	for _, node := range nodes {
		degrees = append(degrees, inDegree[node])
	}
	sort.Ints(degrees)

	idx := int(math.Floor(float64(len(degrees)) * percentile))
	if idx > len(degrees)-1 {
		idx = len(degrees) - 1
	}
	threshold := degrees[idx]

	hubs := []HubEntry{}
	for _, node := range nodes {
		d := inDegree[node]
		if d >= threshold && d > 0 {
			hubs = append(hubs, HubEntry{Node: node, InDegree: d})
		}
	}
	sort.SliceStable(hubs, func(i, j int) bool {
		return hubs[i].InDegree > hubs[j].InDegree
	})
	return hubs, threshold
}

// rankByInDegree lists every node with positive fan-in, highest first.
// Ties keep node-set order.
func rankByInDegree(nodes []string, inDegree map[string]int) []HubEntry {
	ranked := []HubEntry{}
	for _, node := range nodes {
		if d := inDegree[node]; d > 0 {
			ranked = append(ranked, HubEntry{Node: node, InDegree: d})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].InDegree > ranked[j].InDegree
	})
	return ranked
}

func degreeStats(nodes []string, idx *DegreeIndex) (avg float64, maxDeg, minDeg int) {
	if len(nodes) == 0 {
		return 0, 0, 0
	}
	total := 0
	minDeg = math.MaxInt
	for _, node := range nodes {
		d := idx.In[node] + idx.Out[node]
		total += d
		if d > maxDeg {
			maxDeg = d
		}
		if d < minDeg {
			minDeg = d
		}
	}
	return round(float64(total)/float64(len(nodes)), 2), maxDeg, minDeg
}

// countCircularPairs counts edges (s, d) for which (d, s) also appears.
// Repeated edges are each counted. This is a 2-cycle heuristic, not
// strongly-connected-component detection.
func countCircularPairs(edges []Edge) int {
	set := make(map[Edge]struct{}, len(edges))
	for _, e := range edges {
		set[e] = struct{}{}
	}
	count := 0
	for _, e := range edges {
		if _, ok := set[Edge{From: e.To, To: e.From}]; ok {
			count++
		}
	}
	return count
}

func truncate(entries []HubEntry, n int) []HubEntry {
	if len(entries) > n {
		return entries[:n]
	}
	return entries
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
