// Package vector indexes variant fingerprints for similarity search.
package vector

import "context"

// Document is one indexed variant: its fingerprint and summary metadata
// (variant, analyzed_at, node_count, edge_count, coupling_score).
type Document struct {
	ID       string
	Vector   []float32
	Metadata map[string]string
}

// SearchResult is a stored variant ranked by cosine similarity.
type SearchResult struct {
	ID       string
	Score    float32
	Metadata map[string]string
}

// Repository stores fingerprints and ranks them against a query vector.
type Repository interface {
	// Upsert replaces documents with the same ID.
	Upsert(ctx context.Context, docs []Document) error
	// Search returns at most topK documents, best match first.
	Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)
	Close() error
}
