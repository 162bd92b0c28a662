package depgraph

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func mustParse(t *testing.T, dot string) *Graph {
	t.Helper()
	g, err := ParseDOT(dot)
	if err != nil {
		t.Fatalf("ParseDOT: %v", err)
	}
	return g
}

func TestBuildDegreeIndex(t *testing.T) {
	g := mustParse(t, `"a" -> "b"
"a" -> "c"
"b" -> "c"
"lonely" [shape=box]`)
	idx := BuildDegreeIndex(g)

	wantOut := map[string]int{"a": 2, "b": 1, "c": 0, "lonely": 0}
	wantIn := map[string]int{"a": 0, "b": 1, "c": 2, "lonely": 0}
	if !reflect.DeepEqual(idx.Out, wantOut) {
		t.Errorf("out = %v, want %v", idx.Out, wantOut)
	}
	if !reflect.DeepEqual(idx.In, wantIn) {
		t.Errorf("in = %v, want %v", idx.In, wantIn)
	}
}

func TestDegreeSumsEqualEdgeCount(t *testing.T) {
	g := mustParse(t, terraformGraph+`"x" -> "y"
"x" -> "y"
"y" -> "x"`)
	idx := BuildDegreeIndex(g)
	sumIn, sumOut := 0, 0
	for _, n := range g.Nodes {
		sumIn += idx.In[n]
		sumOut += idx.Out[n]
	}
	if sumIn != len(g.Edges) || sumOut != len(g.Edges) {
		t.Errorf("sum(in)=%d sum(out)=%d edges=%d", sumIn, sumOut, len(g.Edges))
	}
}

func TestAnalyze_TwoNodesOneEdge(t *testing.T) {
	m := Analyze(mustParse(t, `"a" -> "b"`))

	if m.NodeCount != 2 || m.EdgeCount != 1 {
		t.Errorf("counts = %d/%d, want 2/1", m.NodeCount, m.EdgeCount)
	}
	if m.CouplingScore != 0.5 {
		t.Errorf("coupling = %v, want 0.5", m.CouplingScore)
	}
	if m.GraphDensity != 0.5 {
		t.Errorf("density = %v, want 0.5", m.GraphDensity)
	}
	if m.RootNodeCount != 1 || m.LeafNodeCount != 1 {
		t.Errorf("roots/leaves = %d/%d, want 1/1", m.RootNodeCount, m.LeafNodeCount)
	}
	if m.CircularReferencePairs != 0 {
		t.Errorf("circular = %d, want 0", m.CircularReferencePairs)
	}
	// n=2: threshold index floor(1.8)=1 -> value 1, so b (in-degree 1) is a hub.
	if m.HubNodeCount != 1 || m.HubNodes[0].Node != "b" {
		t.Errorf("hubs = %+v", m.HubNodes)
	}
	if m.AvgDegree != 1 || m.MaxDegree != 1 || m.MinDegree != 1 {
		t.Errorf("degree stats = %v/%d/%d", m.AvgDegree, m.MaxDegree, m.MinDegree)
	}
}

func TestAnalyze_ReciprocalPair(t *testing.T) {
	m := Analyze(mustParse(t, `"a" -> "b"
"b" -> "a"`))
	if m.CircularReferencePairs != 2 {
		t.Errorf("circular = %d, want 2", m.CircularReferencePairs)
	}
	if m.CouplingScore != 1.0 {
		t.Errorf("coupling = %v, want 1.0", m.CouplingScore)
	}
	if m.RootNodeCount != 0 || m.LeafNodeCount != 0 {
		t.Errorf("roots/leaves = %d/%d, want 0/0", m.RootNodeCount, m.LeafNodeCount)
	}
}

func TestAnalyze_RepeatedReciprocalCountsEachEdge(t *testing.T) {
	m := Analyze(mustParse(t, `"a" -> "b"
"a" -> "b"
"b" -> "a"`))
	if m.CircularReferencePairs != 3 {
		t.Errorf("circular = %d, want 3", m.CircularReferencePairs)
	}
}

func TestAnalyze_ThreeCycleNotDetected(t *testing.T) {
	m := Analyze(mustParse(t, `"a" -> "b"
"b" -> "c"
"c" -> "a"`))
	if m.CircularReferencePairs != 0 {
		t.Errorf("3-cycle should not be reported as reciprocal pairs, got %d", m.CircularReferencePairs)
	}
}

func TestAnalyze_EmptyGraph(t *testing.T) {
	m := Analyze(&Graph{})
	if m.NodeCount != 0 || m.EdgeCount != 0 {
		t.Errorf("counts = %d/%d", m.NodeCount, m.EdgeCount)
	}
	if m.CouplingScore != 0 || m.GraphDensity != 0 || m.AvgDegree != 0 {
		t.Errorf("ratios should be zero: %+v", m)
	}
	if m.MaxDegree != 0 || m.MinDegree != 0 {
		t.Errorf("degree bounds should be zero: %+v", m)
	}
	if m.HubNodes == nil || len(m.HubNodes) != 0 {
		t.Errorf("hub list should be empty, not nil: %#v", m.HubNodes)
	}
	if m.TopDependedNodes == nil {
		t.Error("top depended list should be empty, not nil")
	}
}

func TestAnalyze_SingleNodeDensity(t *testing.T) {
	m := Analyze(mustParse(t, `"solo" [shape=box]`))
	if m.GraphDensity != 0 {
		t.Errorf("density = %v, want 0 for one node", m.GraphDensity)
	}
	if m.CouplingScore != 0 {
		t.Errorf("coupling = %v, want 0", m.CouplingScore)
	}
	if m.LeafNodeCount != 1 || m.RootNodeCount != 1 {
		t.Errorf("isolated node should be both leaf and root: %+v", m)
	}
}

func TestAnalyze_AllZeroInDegreeHasNoHubs(t *testing.T) {
	g := mustParse(t, `"a" [x=1]
"b" [x=1]
"c" [x=1]`)
	m := Analyze(g)
	if m.HubNodeCount != 0 || len(m.HubNodes) != 0 {
		t.Errorf("expected no hubs on an edgeless graph, got %+v", m.HubNodes)
	}
	if m.HubThreshold != 0 {
		t.Errorf("threshold = %d, want 0", m.HubThreshold)
	}
}

func TestAnalyze_HubInvariant(t *testing.T) {
	var b strings.Builder
	// Star: everything depends on "shared".
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "\"r%d\" -> \"shared\"\n", i)
	}
	fmt.Fprintf(&b, "\"r0\" -> \"r1\"\n")
	m := Analyze(mustParse(t, b.String()))

	if m.HubNodeCount == 0 {
		t.Fatal("expected at least one hub")
	}
	if m.HubNodes[0].Node != "shared" || m.HubNodes[0].InDegree != 20 {
		t.Errorf("top hub = %+v, want shared/20", m.HubNodes[0])
	}
	for _, h := range m.HubNodes {
		if h.InDegree <= 0 || h.InDegree < m.HubThreshold {
			t.Errorf("hub %+v violates threshold %d", h, m.HubThreshold)
		}
	}
}

func TestAnalyze_HubsTruncatedToTopN(t *testing.T) {
	var b strings.Builder
	// 15 targets each with in-degree 1; threshold is 1 so all qualify.
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, "\"src\" -> \"t%02d\"\n", i)
	}
	m := Analyze(mustParse(t, b.String()))
	if m.HubNodeCount != 15 {
		t.Errorf("hub count = %d, want 15", m.HubNodeCount)
	}
	if len(m.HubNodes) != DefaultTopN {
		t.Errorf("hub list len = %d, want %d", len(m.HubNodes), DefaultTopN)
	}
	if len(m.TopDependedNodes) != DefaultTopN {
		t.Errorf("top depended len = %d, want %d", len(m.TopDependedNodes), DefaultTopN)
	}
}

func TestAnalyze_TopDependedOrdering(t *testing.T) {
	m := Analyze(mustParse(t, `"a" -> "c"
"b" -> "c"
"a" -> "b"
"c" -> "d"`))
	want := []HubEntry{{"c", 2}, {"b", 1}, {"d", 1}}
	if !reflect.DeepEqual(m.TopDependedNodes, want) {
		t.Errorf("top depended = %v, want %v", m.TopDependedNodes, want)
	}
}

func TestAnalyze_LeafRootPartition(t *testing.T) {
	g := mustParse(t, terraformGraph)
	idx := BuildDegreeIndex(g)
	m := ComputeMetrics(g, idx, DefaultOptions())

	withOut, withIn := 0, 0
	for _, n := range g.Nodes {
		if idx.Out[n] > 0 {
			withOut++
		}
		if idx.In[n] > 0 {
			withIn++
		}
	}
	if m.LeafNodeCount+withOut != m.NodeCount {
		t.Errorf("leaves %d + non-leaves %d != nodes %d", m.LeafNodeCount, withOut, m.NodeCount)
	}
	if m.RootNodeCount+withIn != m.NodeCount {
		t.Errorf("roots %d + non-roots %d != nodes %d", m.RootNodeCount, withIn, m.NodeCount)
	}
}

func TestAnalyze_Rounding(t *testing.T) {
	// 3 nodes, 1 edge: coupling 0.3333, density 1/6.
	m := Analyze(mustParse(t, `"a" -> "b"
"c" [x=1]`))
	if m.CouplingScore != 0.3333 {
		t.Errorf("coupling = %v, want 0.3333", m.CouplingScore)
	}
	if m.GraphDensity != 0.166667 {
		t.Errorf("density = %v, want 0.166667", m.GraphDensity)
	}
	if m.AvgDegree != 0.67 {
		t.Errorf("avg degree = %v, want 0.67", m.AvgDegree)
	}
}

func TestAnalyzeWithOptions_Percentile(t *testing.T) {
	g := mustParse(t, `"a" -> "x"
"b" -> "x"
"c" -> "x"
"a" -> "y"`)
	// in-degrees sorted: a0 b0 c0 y1 x3
	low := AnalyzeWithOptions(g, Options{HubPercentile: 0.5})
	high := AnalyzeWithOptions(g, Options{HubPercentile: 0.9})
	if low.HubNodeCount != 2 {
		t.Errorf("p50 hubs = %d, want 2 (%+v)", low.HubNodeCount, low.HubNodes)
	}
	if high.HubNodeCount != 1 {
		t.Errorf("p90 hubs = %d, want 1 (%+v)", high.HubNodeCount, high.HubNodes)
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	a := Analyze(mustParse(t, terraformGraph))
	b := Analyze(mustParse(t, terraformGraph))
	if !reflect.DeepEqual(a, b) {
		t.Errorf("metrics differ between runs:\n%+v\n%+v", a, b)
	}
}

func TestComputeMetrics_NilIndex(t *testing.T) {
	g := mustParse(t, terraformGraph)
	got := ComputeMetrics(g, nil, DefaultOptions())
	want := ComputeMetrics(g, BuildDegreeIndex(g), DefaultOptions())
	if !reflect.DeepEqual(got, want) {
		t.Errorf("nil index metrics differ:\n%+v\n%+v", got, want)
	}
}
