package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/efebarandurmaz/coupler/internal/depgraph"
	"github.com/efebarandurmaz/coupler/internal/observability"
	"github.com/efebarandurmaz/coupler/internal/pipeline"
)

// DefaultMaxBodyBytes caps the DOT payload accepted by /analyze.
const DefaultMaxBodyBytes = 32 << 20

// AnalyzeConfig configures the /analyze handler.
type AnalyzeConfig struct {
	Analysis       depgraph.Options
	DefaultVariant string
	MaxBodyBytes   int64
	Metrics        *observability.AnalysisMetrics // optional
	Clock          func() time.Time
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// AnalyzeHandler accepts DOT text via POST and responds with the report.
// Query parameters: variant, simplified (bool, default true).
func AnalyzeHandler(cfg AnalyzeConfig) http.Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed", Kind: "method"})
			return
		}

		q := r.URL.Query()
		variant := q.Get("variant")
		if variant == "" {
			variant = cfg.DefaultVariant
		}
		simplified := true
		if s := q.Get("simplified"); s != "" {
			v, err := strconv.ParseBool(s)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid simplified value %q", s), Kind: "query"})
				return
			}
			simplified = v
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, cfg.MaxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error(), Kind: "input"})
				return
			}
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "read body: " + err.Error(), Kind: "input"})
			return
		}

		start := time.Now()
		rep, err := pipeline.Run(r.Context(), string(body), pipeline.Options{
			Variant:           variant,
			IncludeSimplified: simplified,
			Analysis:          cfg.Analysis,
			Clock:             cfg.Clock,
		})
		if err != nil {
			if depgraph.IsInputError(err) {
				if cfg.Metrics != nil {
					cfg.Metrics.RecordInputError()
				}
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "input"})
				return
			}
			slog.Error("Analysis failed", "variant", variant, "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Kind: "internal"})
			return
		}

		if cfg.Metrics != nil {
			m := rep.GraphMetrics
			cfg.Metrics.RecordAnalysis(time.Since(start), m.NodeCount, m.EdgeCount, m.CouplingScore)
		}
		writeJSON(w, http.StatusOK, rep)
	})
}
