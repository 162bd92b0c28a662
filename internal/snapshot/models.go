package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/efebarandurmaz/coupler/internal/report"
)

// Snapshot is a saved analysis report together with a reference to the
// DOT input it was computed from.
type Snapshot struct {
	ID          string            `json:"id"`
	Tag         string            `json:"tag,omitempty"`
	Description string            `json:"description,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	Variant     string            `json:"variant"`
	InputPath   string            `json:"input_path,omitempty"`
	InputHash   string            `json:"input_hash"` // object key of the DOT text
	InputSize   int               `json:"input_size"`
	Report      *report.Report    `json:"report"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// SnapshotIndex is a lightweight listing of all snapshots for fast lookup.
type SnapshotIndex struct {
	Snapshots []SnapshotSummary `json:"snapshots"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// SnapshotSummary is the minimal info for listing snapshots.
type SnapshotSummary struct {
	ID            string    `json:"id"`
	Tag           string    `json:"tag,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	Variant       string    `json:"variant"`
	NodeCount     int       `json:"node_count"`
	EdgeCount     int       `json:"edge_count"`
	CouplingScore float64   `json:"coupling_score"`
}

// NewSnapshot wraps a report and the input it came from.
func NewSnapshot(r *report.Report, input []byte, inputPath string) *Snapshot {
	snap := &Snapshot{
		CreatedAt: time.Now().UTC(),
		Variant:   r.Variant,
		InputPath: inputPath,
		InputHash: ContentHash(input),
		InputSize: len(input),
		Report:    r,
		Metadata:  make(map[string]string),
	}
	snap.ID = generateSnapshotID(snap)
	return snap
}

// ContentHash computes SHA-256 of content.
func ContentHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

func generateSnapshotID(snap *Snapshot) string {
	data, _ := json.Marshal(struct {
		Time    int64  `json:"t"`
		Variant string `json:"v"`
		Content string `json:"c"`
	}{
		Time:    snap.CreatedAt.UnixNano(),
		Variant: snap.Variant,
		Content: snap.InputHash,
	})
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:8]) // 16-char hex ID
}

// Summary returns a lightweight summary of this snapshot.
func (s *Snapshot) Summary() SnapshotSummary {
	sum := SnapshotSummary{
		ID:        s.ID,
		Tag:       s.Tag,
		CreatedAt: s.CreatedAt,
		Variant:   s.Variant,
	}
	if s.Report != nil {
		m := s.Report.GraphMetrics
		sum.NodeCount = m.NodeCount
		sum.EdgeCount = m.EdgeCount
		sum.CouplingScore = m.CouplingScore
	}
	return sum
}
