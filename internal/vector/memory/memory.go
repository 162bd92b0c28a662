// Package memory is an in-process vector.Repository using cosine similarity.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/efebarandurmaz/coupler/internal/vector"
)

// Repository holds documents in a map keyed by ID.
type Repository struct {
	mu   sync.RWMutex
	docs map[string]vector.Document
}

// New returns an empty repository.
func New() *Repository {
	return &Repository{docs: make(map[string]vector.Document)}
}

func (r *Repository) Upsert(_ context.Context, docs []vector.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range docs {
		d.Vector = append([]float32(nil), d.Vector...)
		r.docs[d.ID] = d
	}
	return nil
}

// Search ranks by descending similarity, breaking ties by ID.
func (r *Repository) Search(_ context.Context, vec []float32, topK int) ([]vector.SearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]vector.SearchResult, 0, len(r.docs))
	for _, d := range r.docs {
		results = append(results, vector.SearchResult{
			ID:       d.ID,
			Score:    vector.Cosine(vec, d.Vector),
			Metadata: d.Metadata,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if topK >= 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Len returns the number of stored documents.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

func (r *Repository) Close() error { return nil }

var _ vector.Repository = (*Repository)(nil)
