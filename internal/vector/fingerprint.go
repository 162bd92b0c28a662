package vector

import (
	"math"

	"github.com/efebarandurmaz/coupler/internal/depgraph"
)

// FingerprintSize is the dimension of a metrics fingerprint.
const FingerprintSize = 10

// Fingerprint maps scalar graph metrics to an L2-normalised vector. Counts
// are log-scaled so that graph size does not dominate shape. An empty graph
// yields the zero vector.
func Fingerprint(m *depgraph.GraphMetrics) []float32 {
	raw := [FingerprintSize]float64{
		math.Log1p(float64(m.NodeCount)),
		math.Log1p(float64(m.EdgeCount)),
		m.CouplingScore,
		m.GraphDensity,
		ratio(m.HubNodeCount, m.NodeCount),
		ratio(m.LeafNodeCount, m.NodeCount),
		ratio(m.RootNodeCount, m.NodeCount),
		math.Log1p(m.AvgDegree),
		math.Log1p(float64(m.MaxDegree)),
		ratio(m.CircularReferencePairs, m.EdgeCount),
	}

	var norm float64
	for _, v := range raw {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, FingerprintSize)
	if norm == 0 {
		return out
	}
	for i, v := range raw {
		out[i] = float32(v / norm)
	}
	return out
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector or the lengths differ.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
