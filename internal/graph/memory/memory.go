// Package memory is an in-process graph.Repository.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/efebarandurmaz/coupler/internal/depgraph"
	"github.com/efebarandurmaz/coupler/internal/graph"
)

// Repository keeps graphs in a map keyed by variant.
type Repository struct {
	mu     sync.RWMutex
	graphs map[string]*depgraph.Graph
}

// New returns an empty repository.
func New() *Repository {
	return &Repository{graphs: make(map[string]*depgraph.Graph)}
}

func (r *Repository) StoreGraph(_ context.Context, variant string, g *depgraph.Graph) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.graphs[variant] = depgraph.NewGraph(g.Nodes, g.Edges)
	return nil
}

func (r *Repository) LoadGraph(_ context.Context, variant string) (*depgraph.Graph, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.graphs[variant]
	if !ok {
		return nil, fmt.Errorf("%q: %w", variant, graph.ErrVariantNotFound)
	}
	return depgraph.NewGraph(g.Nodes, g.Edges), nil
}

func (r *Repository) QueryDependents(_ context.Context, variant, node string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.graphs[variant]
	if !ok {
		return nil, fmt.Errorf("%q: %w", variant, graph.ErrVariantNotFound)
	}
	seen := make(map[string]bool)
	deps := []string{}
	for _, e := range g.Edges {
		if e.To == node && !seen[e.From] {
			seen[e.From] = true
			deps = append(deps, e.From)
		}
	}
	sort.Strings(deps)
	return deps, nil
}

func (r *Repository) Close(context.Context) error { return nil }

var _ graph.Repository = (*Repository)(nil)
