package depgraph

import "sort"

// Edge is a directed dependency: From depends on (points to) To.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Graph is a parsed dependency graph. Nodes is a sorted set of identifiers;
// Edges keeps scan order and is not deduplicated.
type Graph struct {
	Nodes []string `json:"nodes" yaml:"nodes"`
	Edges []Edge   `json:"edges" yaml:"edges"`
}

// NewGraph builds a Graph from a node set and an edge list. Edge endpoints
// are added to the node set.
func NewGraph(nodes []string, edges []Edge) *Graph {
	set := make(map[string]struct{}, len(nodes)+2*len(edges))
	for _, n := range nodes {
		set[n] = struct{}{}
	}
	for _, e := range edges {
		set[e.From] = struct{}{}
		set[e.To] = struct{}{}
	}
	return &Graph{Nodes: sortedKeys(set), Edges: append([]Edge(nil), edges...)}
}

// HasNode reports whether id is a member of the node set.
func (g *Graph) HasNode(id string) bool {
	i := sort.SearchStrings(g.Nodes, id)
	return i < len(g.Nodes) && g.Nodes[i] == id
}

// DegreeIndex holds in- and out-degree counts for every node of a graph.
type DegreeIndex struct {
	In  map[string]int `json:"in_degree"`
	Out map[string]int `json:"out_degree"`
}

// HubEntry is a node ranked by fan-in.
type HubEntry struct {
	Node     string `json:"node" yaml:"node"`
	InDegree int    `json:"in_degree" yaml:"in_degree"`
}

// GraphMetrics is the immutable result of a coupling analysis.
type GraphMetrics struct {
	NodeCount     int     `json:"node_count" yaml:"node_count"`
	EdgeCount     int     `json:"edge_count" yaml:"edge_count"`
	CouplingScore float64 `json:"coupling_score" yaml:"coupling_score"` // E/N
	GraphDensity  float64 `json:"graph_density" yaml:"graph_density"`

	HubNodeCount int        `json:"hub_node_count" yaml:"hub_node_count"`
	HubNodes     []HubEntry `json:"hub_nodes" yaml:"hub_nodes"`
	// HubThreshold is the in-degree at the configured percentile. It is not
	// serialized, so decoded metrics carry zero.
	HubThreshold int `json:"-" yaml:"-"`

	LeafNodeCount int `json:"leaf_node_count" yaml:"leaf_node_count"`
	RootNodeCount int `json:"root_node_count" yaml:"root_node_count"`

	AvgDegree float64 `json:"avg_degree" yaml:"avg_degree"`
	MaxDegree int     `json:"max_degree" yaml:"max_degree"`
	MinDegree int     `json:"min_degree" yaml:"min_degree"`

	// CircularReferencePairs counts edges whose reverse edge also exists.
	// It only sees 2-cycles; longer cycles are not detected.
	CircularReferencePairs int `json:"circular_reference_pairs" yaml:"circular_reference_pairs"`

	TopDependedNodes []HubEntry `json:"top_depended_nodes" yaml:"top_depended_nodes"`
}

// NodeCategory is the structural kind of a node, derived from its identifier.
type NodeCategory string

const (
	CategoryProvider   NodeCategory = "provider"
	CategoryModule     NodeCategory = "module"
	CategoryDataSource NodeCategory = "data_source"
	CategoryVariable   NodeCategory = "variable"
	CategoryOutput     NodeCategory = "output"
	CategoryLocal      NodeCategory = "local"
	CategoryResource   NodeCategory = "resource"
)

// Categories lists every NodeCategory in classification priority order.
var Categories = []NodeCategory{
	CategoryProvider,
	CategoryModule,
	CategoryDataSource,
	CategoryVariable,
	CategoryOutput,
	CategoryLocal,
	CategoryResource,
}

// Flow counts edges from one category to another.
type Flow struct {
	From      NodeCategory `json:"from" yaml:"from"`
	To        NodeCategory `json:"to" yaml:"to"`
	EdgeCount int          `json:"edge_count" yaml:"edge_count"`
}

// SimplifiedView is a category-level summary of a graph.
type SimplifiedView struct {
	NodeTypeCounts map[NodeCategory]int      `json:"node_type_counts" yaml:"node_type_counts"`
	InterTypeFlows []Flow                    `json:"inter_type_flows" yaml:"inter_type_flows"`
	SampleNodes    map[NodeCategory][]string `json:"sample_nodes" yaml:"sample_nodes"`
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
