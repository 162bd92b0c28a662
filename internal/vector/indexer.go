package vector

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/efebarandurmaz/coupler/internal/report"
)

// variantNamespace seeds deterministic point IDs so re-indexing a variant
// overwrites its previous fingerprint.
var variantNamespace = uuid.MustParse("6f1c1f5e-9a3b-4c1e-8d7a-2f0b7c9e4a11")

// Indexer stores report fingerprints and finds similar variants.
type Indexer struct {
	repo Repository
}

// NewIndexer creates an Indexer.
func NewIndexer(repo Repository) *Indexer {
	return &Indexer{repo: repo}
}

// PointID returns the stable point ID for a variant.
func PointID(variant string) string {
	return uuid.NewSHA1(variantNamespace, []byte(variant)).String()
}

// IndexReport upserts the fingerprint of r under its variant.
func (ix *Indexer) IndexReport(ctx context.Context, r *report.Report) error {
	m := r.GraphMetrics
	doc := Document{
		ID:     PointID(r.Variant),
		Vector: Fingerprint(&m),
		Metadata: map[string]string{
			"variant":        r.Variant,
			"analyzed_at":    r.AnalyzedAt.Format("2006-01-02T15:04:05Z07:00"),
			"node_count":     strconv.Itoa(m.NodeCount),
			"edge_count":     strconv.Itoa(m.EdgeCount),
			"coupling_score": strconv.FormatFloat(m.CouplingScore, 'f', 4, 64),
		},
	}
	if err := ix.repo.Upsert(ctx, []Document{doc}); err != nil {
		return fmt.Errorf("index variant %s: %w", r.Variant, err)
	}
	return nil
}

// Similar returns up to topK stored variants closest to r, excluding r's
// own variant.
func (ix *Indexer) Similar(ctx context.Context, r *report.Report, topK int) ([]SearchResult, error) {
	m := r.GraphMetrics
	results, err := ix.repo.Search(ctx, Fingerprint(&m), topK+1)
	if err != nil {
		return nil, fmt.Errorf("search similar variants: %w", err)
	}
	self := PointID(r.Variant)
	out := make([]SearchResult, 0, topK)
	for _, res := range results {
		if res.ID == self {
			continue
		}
		if len(out) == topK {
			break
		}
		out = append(out, res)
	}
	return out, nil
}
