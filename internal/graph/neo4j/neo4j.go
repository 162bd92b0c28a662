// Package neo4j stores dependency graphs in Neo4j as
// (:Node {id, category, variant})-[:DEPENDS_ON {seq}]->(:Node).
package neo4j

import (
	"context"
	"fmt"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/efebarandurmaz/coupler/internal/depgraph"
	"github.com/efebarandurmaz/coupler/internal/graph"
)

// Neo4jRepository implements graph.Repository using Neo4j.
type Neo4jRepository struct {
	driver neo4j.DriverWithContext
}

// NewNeo4j creates a Neo4j-backed repository and verifies connectivity.
func NewNeo4j(ctx context.Context, uri, username, password string) (*Neo4jRepository, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Neo4jRepository{driver: driver}, nil
}

// StoreGraph replaces the variant's subgraph. Each parsed edge becomes its
// own relationship so duplicate edges survive the round trip.
func (r *Neo4jRepository) StoreGraph(ctx context.Context, variant string, g *depgraph.Graph) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx,
			"MATCH (n:Node {variant: $variant}) DETACH DELETE n",
			map[string]any{"variant": variant}); err != nil {
			return nil, err
		}

		if _, err := tx.Run(ctx,
			"UNWIND $nodes AS node "+
				"CREATE (:Node {id: node.id, category: node.category, variant: $variant})",
			map[string]any{"variant": variant, "nodes": nodeParams(g.Nodes)}); err != nil {
			return nil, err
		}

		if _, err := tx.Run(ctx,
			"UNWIND $edges AS edge "+
				"MATCH (a:Node {variant: $variant, id: edge.from}) "+
				"MATCH (b:Node {variant: $variant, id: edge.to}) "+
				"CREATE (a)-[:DEPENDS_ON {seq: edge.seq}]->(b)",
			map[string]any{"variant": variant, "edges": edgeParams(g.Edges)}); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("store variant %s: %w", variant, err)
	}
	return nil
}

func (r *Neo4jRepository) LoadGraph(ctx context.Context, variant string) (*depgraph.Graph, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx,
			"MATCH (n:Node {variant: $variant}) RETURN n.id AS id",
			map[string]any{"variant": variant})
		if err != nil {
			return nil, err
		}
		var nodes []string
		for records.Next(ctx) {
			id, _ := records.Record().Get("id")
			nodes = append(nodes, id.(string))
		}
		if err := records.Err(); err != nil {
			return nil, err
		}

		records, err = tx.Run(ctx,
			"MATCH (a:Node {variant: $variant})-[r:DEPENDS_ON]->(b:Node) "+
				"RETURN a.id AS from, b.id AS to ORDER BY r.seq",
			map[string]any{"variant": variant})
		if err != nil {
			return nil, err
		}
		edges := []depgraph.Edge{}
		for records.Next(ctx) {
			rec := records.Record()
			from, _ := rec.Get("from")
			to, _ := rec.Get("to")
			edges = append(edges, depgraph.Edge{From: from.(string), To: to.(string)})
		}
		if err := records.Err(); err != nil {
			return nil, err
		}
		if len(nodes) == 0 {
			return nil, fmt.Errorf("%q: %w", variant, graph.ErrVariantNotFound)
		}
		return depgraph.NewGraph(nodes, edges), nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*depgraph.Graph), nil
}

func (r *Neo4jRepository) QueryDependents(ctx context.Context, variant, node string) ([]string, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx,
			"MATCH (d:Node {variant: $variant})-[:DEPENDS_ON]->(:Node {variant: $variant, id: $id}) "+
				"RETURN DISTINCT d.id AS id",
			map[string]any{"variant": variant, "id": node})
		if err != nil {
			return nil, err
		}
		names := []string{}
		for records.Next(ctx) {
			n, _ := records.Record().Get("id")
			names = append(names, n.(string))
		}
		return names, records.Err()
	})
	if err != nil {
		return nil, err
	}
	names := result.([]string)
	sort.Strings(names)
	return names, nil
}

// Ping verifies the server is reachable.
func (r *Neo4jRepository) Ping(ctx context.Context) error {
	return r.driver.VerifyConnectivity(ctx)
}

func (r *Neo4jRepository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

func nodeParams(nodes []string) []map[string]any {
	out := make([]map[string]any, len(nodes))
	for i, n := range nodes {
		out[i] = map[string]any{"id": n, "category": string(depgraph.Classify(n))}
	}
	return out
}

func edgeParams(edges []depgraph.Edge) []map[string]any {
	out := make([]map[string]any, len(edges))
	for i, e := range edges {
		out[i] = map[string]any{"from": e.From, "to": e.To, "seq": i}
	}
	return out
}

var _ graph.Repository = (*Neo4jRepository)(nil)
