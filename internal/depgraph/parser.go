package depgraph

import (
	"regexp"
	"strings"
)

var (
	// "src" -> "dst", optionally followed by an attribute block.
	edgePattern = regexp.MustCompile(`"([^"]+)"\s*->\s*"([^"]+)"`)
	// "name" [ at the start of a line.
	nodePattern = regexp.MustCompile(`(?m)^\s*"([^"]+)"\s*\[`)
)

// ParseDOT extracts nodes and edges from `terraform graph` style DOT text
// using the default meta-node prefix.
func ParseDOT(text string) (*Graph, error) {
	return ParseDOTWithPrefix(text, DefaultMetaNodePrefix)
}

// ParseDOTWithPrefix is ParseDOT with an explicit meta-node prefix. Edges
// touching a meta node are dropped along with both endpoints; lines that
// match neither pattern are ignored.
func ParseDOTWithPrefix(text, metaPrefix string) (*Graph, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &InputError{Err: ErrEmptyInput}
	}
	if metaPrefix == "" {
		metaPrefix = DefaultMetaNodePrefix
	}

	nodes := make(map[string]struct{})
	var edges []Edge

	for _, m := range edgePattern.FindAllStringSubmatch(text, -1) {
		src, dst := m[1], m[2]
		if strings.HasPrefix(src, metaPrefix) || strings.HasPrefix(dst, metaPrefix) {
			continue
		}
		nodes[src] = struct{}{}
		nodes[dst] = struct{}{}
		edges = append(edges, Edge{From: src, To: dst})
	}

	for _, m := range nodePattern.FindAllStringSubmatch(text, -1) {
		if strings.HasPrefix(m[1], metaPrefix) {
			continue
		}
		nodes[m[1]] = struct{}{}
	}

	if edges == nil {
		edges = []Edge{}
	}
	return &Graph{Nodes: sortedKeys(nodes), Edges: edges}, nil
}
