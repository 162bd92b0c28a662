// Package graph persists parsed dependency graphs per variant.
package graph

import (
	"context"
	"errors"

	"github.com/efebarandurmaz/coupler/internal/depgraph"
)

// ErrVariantNotFound is returned when no graph is stored for a variant.
var ErrVariantNotFound = errors.New("variant not found")

// Repository provides graph storage for analyzed variants.
type Repository interface {
	// StoreGraph replaces the graph stored for variant.
	StoreGraph(ctx context.Context, variant string, g *depgraph.Graph) error
	// LoadGraph retrieves the graph for a variant, edges in original order.
	LoadGraph(ctx context.Context, variant string) (*depgraph.Graph, error)
	// QueryDependents returns the sorted, distinct nodes with an edge into node.
	QueryDependents(ctx context.Context, variant, node string) ([]string, error)
	// Close releases resources.
	Close(ctx context.Context) error
}
