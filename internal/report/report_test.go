package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/efebarandurmaz/coupler/internal/depgraph"
)

func sampleMetrics(t *testing.T) *depgraph.GraphMetrics {
	t.Helper()
	g, err := depgraph.ParseDOT(`digraph {
  "aws_instance.web" -> "var.region"
  "module.vpc" -> "var.region"
}`)
	require.NoError(t, err)
	return depgraph.Analyze(g)
}

func TestAssemble_DefaultsVariantAndUTC(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	at := time.Date(2024, 3, 1, 7, 0, 0, 0, loc)

	r := Assemble("  ", at, sampleMetrics(t), nil)

	assert.Equal(t, DefaultVariant, r.Variant)
	assert.Equal(t, time.UTC, r.AnalyzedAt.Location())
	assert.True(t, r.AnalyzedAt.Equal(at))
	assert.Equal(t, 3, r.GraphMetrics.NodeCount)
}

func TestJSON_OmitsSimplifiedWhenAbsent(t *testing.T) {
	r := Assemble("baseline", time.Unix(0, 0), sampleMetrics(t), nil)

	data, err := r.JSON()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "variant")
	assert.Contains(t, raw, "analyzed_at")
	assert.Contains(t, raw, "graph_metrics")
	assert.NotContains(t, raw, "simplified_graph")

	gm := raw["graph_metrics"].(map[string]any)
	keys := []string{
		"node_count", "edge_count", "coupling_score", "graph_density",
		"hub_node_count", "hub_nodes", "leaf_node_count", "root_node_count",
		"avg_degree", "max_degree", "min_degree", "circular_reference_pairs",
		"top_depended_nodes",
	}
	for _, key := range keys {
		assert.Contains(t, gm, key)
	}
	assert.Len(t, gm, len(keys))
	assert.NotContains(t, gm, "hub_threshold")
}

func TestJSON_IncludesSimplified(t *testing.T) {
	g, err := depgraph.ParseDOT(`"module.vpc" -> "var.region"`)
	require.NoError(t, err)
	view := depgraph.Simplify(g, depgraph.DefaultOptions())

	r := Assemble("v1", time.Unix(0, 0), depgraph.Analyze(g), view)
	data, err := r.JSON()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	require.NotNil(t, decoded.SimplifiedGraph)
	assert.Equal(t, 1, decoded.SimplifiedGraph.NodeTypeCounts[depgraph.CategoryModule])
	assert.Equal(t, []depgraph.Flow{{From: depgraph.CategoryModule, To: depgraph.CategoryVariable, EdgeCount: 1}},
		decoded.SimplifiedGraph.InterTypeFlows)
}

func TestEncode_YAML(t *testing.T) {
	r := Assemble("yaml-variant", time.Unix(0, 0), sampleMetrics(t), nil)

	data, err := r.Encode(FormatYAML)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Equal(t, "yaml-variant", raw["variant"])
	assert.NotContains(t, raw, "simplified_graph")
	gm := raw["graph_metrics"].(map[string]any)
	assert.Equal(t, 2, gm["edge_count"])
	assert.NotContains(t, gm, "hub_threshold")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestWrite_CreatesParentDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "report.json")
	r := Assemble("v", time.Unix(0, 0), sampleMetrics(t), nil)

	require.NoError(t, r.Write(path, FormatJSON, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "v", decoded.Variant)
}

func TestWrite_Stdout(t *testing.T) {
	var buf bytes.Buffer
	r := Assemble("v", time.Unix(0, 0), sampleMetrics(t), nil)

	require.NoError(t, r.Write("", FormatJSON, &buf))
	assert.Contains(t, buf.String(), `"variant": "v"`)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "graph.mmd")
	require.NoError(t, WriteFile(path, []byte("graph LR\n"), nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "graph LR\n", string(data))

	var buf bytes.Buffer
	require.NoError(t, WriteFile("", []byte("stdout"), &buf))
	assert.Equal(t, "stdout", buf.String())
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	r := Assemble("prod", time.Unix(0, 0), sampleMetrics(t), nil)
	r.PrintSummary(&buf)

	out := buf.String()
	assert.Contains(t, out, "prod")
	assert.Contains(t, out, "Nodes:       3")
	assert.Contains(t, out, "Coupling:    0.6667")
	assert.Contains(t, out, "var.region")
	assert.Contains(t, out, "HUBS (1, in-degree >= 2)")
	assert.NotContains(t, out, "CATEGORIES")
}

func TestPrintSummary_DecodedReportOmitsThreshold(t *testing.T) {
	data, err := Assemble("prod", time.Unix(0, 0), sampleMetrics(t), nil).JSON()
	require.NoError(t, err)
	decoded, err := Decode(data)
	require.NoError(t, err)

	var buf bytes.Buffer
	decoded.PrintSummary(&buf)
	assert.Contains(t, buf.String(), "HUBS (1)\n")
}
