package depgraph

import (
	"errors"
	"reflect"
	"testing"
)

const terraformGraph = `digraph {
	compound = "true"
	newrank = "true"
	subgraph "root" {
		"[root] aws_instance.web (expand)" [label = "aws_instance.web", shape = "box"]
		"[root] provider[\"registry.terraform.io/hashicorp/aws\"]" [label = "provider", shape = "diamond"]
		"[root] aws_instance.web (expand)" -> "[root] provider[\"registry.terraform.io/hashicorp/aws\"]"
		"aws_instance.web" [label = "aws_instance.web", shape = "box"]
		"aws_security_group.web" [label = "aws_security_group.web", shape = "box"]
		"var.region" [label = "var.region", shape = "note"]
		"aws_instance.web" -> "aws_security_group.web"
		"aws_instance.web" -> "var.region" [style = dashed]
		"aws_security_group.web" -> "var.region"
	}
}
`

func TestParseDOT_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t\n"} {
		g, err := ParseDOT(in)
		if err == nil {
			t.Fatalf("ParseDOT(%q): expected error", in)
		}
		if g != nil {
			t.Errorf("ParseDOT(%q): expected nil graph", in)
		}
		if !IsInputError(err) {
			t.Errorf("ParseDOT(%q): expected InputError, got %T", in, err)
		}
		if !errors.Is(err, ErrEmptyInput) {
			t.Errorf("ParseDOT(%q): expected ErrEmptyInput in chain", in)
		}
	}
}

func TestParseDOT_SingleEdge(t *testing.T) {
	g, err := ParseDOT(`"a" -> "b"`)
	if err != nil {
		t.Fatalf("ParseDOT: %v", err)
	}
	if !reflect.DeepEqual(g.Nodes, []string{"a", "b"}) {
		t.Errorf("nodes = %v, want [a b]", g.Nodes)
	}
	if len(g.Edges) != 1 || g.Edges[0] != (Edge{From: "a", To: "b"}) {
		t.Errorf("edges = %v, want [a->b]", g.Edges)
	}
}

func TestParseDOT_TerraformGraph(t *testing.T) {
	g, err := ParseDOT(terraformGraph)
	if err != nil {
		t.Fatalf("ParseDOT: %v", err)
	}
	wantNodes := []string{"aws_instance.web", "aws_security_group.web", "var.region"}
	if !reflect.DeepEqual(g.Nodes, wantNodes) {
		t.Errorf("nodes = %v, want %v", g.Nodes, wantNodes)
	}
	wantEdges := []Edge{
		{From: "aws_instance.web", To: "aws_security_group.web"},
		{From: "aws_instance.web", To: "var.region"},
		{From: "aws_security_group.web", To: "var.region"},
	}
	if !reflect.DeepEqual(g.Edges, wantEdges) {
		t.Errorf("edges = %v, want %v", g.Edges, wantEdges)
	}
}

func TestParseDOT_MetaNodeFiltering(t *testing.T) {
	in := `"[root] module.foo (expand)" -> "module.foo.aws_instance.x"
"module.foo.aws_instance.x" -> "var.size"
`
	g, err := ParseDOT(in)
	if err != nil {
		t.Fatalf("ParseDOT: %v", err)
	}
	if len(g.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d: %v", len(g.Edges), g.Edges)
	}
	for _, n := range g.Nodes {
		if n == "[root] module.foo (expand)" {
			t.Error("meta node leaked into node set")
		}
	}
	if len(g.Nodes) != 2 {
		t.Errorf("expected 2 nodes, got %v", g.Nodes)
	}
}

func TestParseDOT_MetaEdgeDropsBothEndpoints(t *testing.T) {
	g, err := ParseDOT(`"[root] root" -> "orphan"`)
	if err != nil {
		t.Fatalf("ParseDOT: %v", err)
	}
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Errorf("expected empty graph, got nodes=%v edges=%v", g.Nodes, g.Edges)
	}
}

func TestParseDOT_IsolatedNodeDeclaration(t *testing.T) {
	in := `digraph {
  "output.vpc_id" [label="output.vpc_id"]
  "aws_vpc.main" -> "var.cidr"
}`
	g, err := ParseDOT(in)
	if err != nil {
		t.Fatalf("ParseDOT: %v", err)
	}
	if !g.HasNode("output.vpc_id") {
		t.Error("isolated declaration missing from node set")
	}
	if len(g.Nodes) != 3 {
		t.Errorf("expected 3 nodes, got %v", g.Nodes)
	}
}

func TestParseDOT_NodeDeclarationMustStartLine(t *testing.T) {
	g, err := ParseDOT(`label = "x" "inline" [shape=box]`)
	if err != nil {
		t.Fatalf("ParseDOT: %v", err)
	}
	if len(g.Nodes) != 0 {
		t.Errorf("mid-line declaration should not match, got %v", g.Nodes)
	}
}

func TestParseDOT_DuplicateEdgesKept(t *testing.T) {
	g, err := ParseDOT("\"a\" -> \"b\"\n\"a\" -> \"b\"\n\"a\" -> \"b\"\n")
	if err != nil {
		t.Fatalf("ParseDOT: %v", err)
	}
	if len(g.Edges) != 3 {
		t.Errorf("expected 3 edges, got %d", len(g.Edges))
	}
	if len(g.Nodes) != 2 {
		t.Errorf("expected 2 nodes, got %d", len(g.Nodes))
	}
}

func TestParseDOT_IgnoresUnmatchedLines(t *testing.T) {
	in := `digraph {
  rankdir = "LR"
  node [shape=box]
  // legend
  this is not dot at all
}`
	g, err := ParseDOT(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Errorf("expected empty graph, got %+v", g)
	}
}

func TestParseDOT_EdgesWithoutWhitespace(t *testing.T) {
	g, err := ParseDOT(`"x"->"y";"y"  ->  "z" [color=red]`)
	if err != nil {
		t.Fatalf("ParseDOT: %v", err)
	}
	if len(g.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %v", g.Edges)
	}
	if g.Edges[0] != (Edge{"x", "y"}) || g.Edges[1] != (Edge{"y", "z"}) {
		t.Errorf("edge order not preserved: %v", g.Edges)
	}
}

func TestParseDOTWithPrefix_CustomPrefix(t *testing.T) {
	g, err := ParseDOTWithPrefix(`"meta:x" -> "a"
"a" -> "b"`, "meta:")
	if err != nil {
		t.Fatalf("ParseDOTWithPrefix: %v", err)
	}
	if len(g.Edges) != 1 || g.HasNode("meta:x") {
		t.Errorf("custom prefix not filtered: %+v", g)
	}
}

func TestParsedEdgeEndpointsAreNodes(t *testing.T) {
	g, err := ParseDOT(terraformGraph)
	if err != nil {
		t.Fatalf("ParseDOT: %v", err)
	}
	for _, e := range g.Edges {
		if !g.HasNode(e.From) || !g.HasNode(e.To) {
			t.Errorf("dangling edge %v", e)
		}
	}
}

func TestNewGraph_AddsEndpoints(t *testing.T) {
	g := NewGraph([]string{"c"}, []Edge{{From: "b", To: "a"}})
	if !reflect.DeepEqual(g.Nodes, []string{"a", "b", "c"}) {
		t.Errorf("nodes = %v", g.Nodes)
	}
}
