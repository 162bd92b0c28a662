package depgraph

// BuildDegreeIndex counts fan-in and fan-out for every node. Nodes without
// edges get explicit zero entries.
func BuildDegreeIndex(g *Graph) *DegreeIndex {
	idx := &DegreeIndex{
		In:  make(map[string]int, len(g.Nodes)),
		Out: make(map[string]int, len(g.Nodes)),
	}
	for _, n := range g.Nodes {
		idx.In[n] = 0
		idx.Out[n] = 0
	}
	for _, e := range g.Edges {
		idx.Out[e.From]++
		idx.In[e.To]++
	}
	return idx
}
