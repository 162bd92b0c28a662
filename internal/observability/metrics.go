package observability

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Registry holds named counters, gauges and histograms and renders them in
// the Prometheus text format.
type Registry struct {
	mu       sync.RWMutex
	counters map[string]*Counter
	gauges   map[string]*Gauge
	histos   map[string]*Histogram
}

// Counter is a monotonically increasing metric.
type Counter struct {
	name, help string
	mu         sync.Mutex
	value      float64
}

// Gauge is a metric that can go up or down.
type Gauge struct {
	name, help string
	mu         sync.Mutex
	value      float64
}

// Histogram tracks distribution of values.
type Histogram struct {
	name, help string
	buckets    []float64
	mu         sync.Mutex
	counts     []uint64 // per bucket, non-cumulative
	sum        float64
	count      uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[string]*Counter),
		gauges:   make(map[string]*Gauge),
		histos:   make(map[string]*Histogram),
	}
}

// NewCounter creates and registers a counter.
func (r *Registry) NewCounter(name, help string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &Counter{name: name, help: help}
	r.counters[name] = c
	return c
}

// NewGauge creates and registers a gauge.
func (r *Registry) NewGauge(name, help string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	g := &Gauge{name: name, help: help}
	r.gauges[name] = g
	return g
}

// NewHistogram creates and registers a histogram. Nil buckets use
// DefaultBuckets.
func (r *Registry) NewHistogram(name, help string, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	if buckets == nil {
		buckets = DefaultBuckets()
	}
	h := &Histogram{name: name, help: help, buckets: buckets, counts: make([]uint64, len(buckets))}
	r.histos[name] = h
	return h
}

// DefaultBuckets returns latency buckets in seconds.
func DefaultBuckets() []float64 {
	return []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
}

func (c *Counter) Inc() { c.Add(1) }

func (c *Counter) Add(v float64) {
	c.mu.Lock()
	c.value += v
	c.mu.Unlock()
}

func (c *Counter) Value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

func (g *Gauge) Set(v float64) {
	g.mu.Lock()
	g.value = v
	g.mu.Unlock()
}

func (g *Gauge) Value() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

// Observe records a value in the histogram.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sum += v
	h.count++
	for i, bound := range h.buckets {
		if v <= bound {
			h.counts[i]++
			break
		}
	}
}

// Count returns the number of observations.
func (h *Histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Handler serves the registry in Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		r.WriteTo(w)
	})
}

// WriteTo renders all metrics, sorted by name within each kind.
func (r *Registry) WriteTo(w io.Writer) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cw := &countingWriter{w: w}
	for _, name := range sortedNames(r.counters) {
		c := r.counters[name]
		writeScalar(cw, c.name, "counter", c.help, c.Value())
	}
	for _, name := range sortedNames(r.gauges) {
		g := r.gauges[name]
		writeScalar(cw, g.name, "gauge", g.help, g.Value())
	}
	for _, name := range sortedNames(r.histos) {
		writeHistogram(cw, r.histos[name])
	}
	return cw.n, cw.err
}

func writeScalar(w io.Writer, name, kind, help string, v float64) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %s\n", name, help, name, kind, name, formatFloat(v))
}

func writeHistogram(w io.Writer, h *Histogram) {
	h.mu.Lock()
	defer h.mu.Unlock()

	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s histogram\n", h.name, h.help, h.name)
	var cumulative uint64
	for i, bound := range h.buckets {
		cumulative += h.counts[i]
		fmt.Fprintf(w, "%s_bucket{le=\"%s\"} %d\n", h.name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(w, "%s_bucket{le=\"+Inf\"} %d\n", h.name, h.count)
	fmt.Fprintf(w, "%s_sum %s\n%s_count %d\n", h.name, formatFloat(h.sum), h.name, h.count)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func sortedNames[T any](m map[string]T) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}

// AnalysisMetrics are the counters exported by long-running coupler
// processes.
type AnalysisMetrics struct {
	Registry *Registry

	AnalysesTotal    *Counter
	InputErrorsTotal *Counter
	AnalysisDuration *Histogram
	LastNodeCount    *Gauge
	LastEdgeCount    *Gauge
	LastCoupling     *Gauge
}

// NewAnalysisMetrics creates the coupler metric set on a fresh registry.
func NewAnalysisMetrics() *AnalysisMetrics {
	r := NewRegistry()
	return &AnalysisMetrics{
		Registry:         r,
		AnalysesTotal:    r.NewCounter("coupler_analyses_total", "Total analyses completed"),
		InputErrorsTotal: r.NewCounter("coupler_input_errors_total", "Total analyses rejected for bad input"),
		AnalysisDuration: r.NewHistogram("coupler_analysis_duration_seconds", "Analysis duration", nil),
		LastNodeCount:    r.NewGauge("coupler_last_node_count", "Node count of the latest analysis"),
		LastEdgeCount:    r.NewGauge("coupler_last_edge_count", "Edge count of the latest analysis"),
		LastCoupling:     r.NewGauge("coupler_last_coupling_score", "Coupling score of the latest analysis"),
	}
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *AnalysisMetrics) Handler() http.Handler {
	return m.Registry.Handler()
}

// RecordAnalysis records one successful analysis.
func (m *AnalysisMetrics) RecordAnalysis(d time.Duration, nodes, edges int, coupling float64) {
	m.AnalysesTotal.Inc()
	m.AnalysisDuration.Observe(d.Seconds())
	m.LastNodeCount.Set(float64(nodes))
	m.LastEdgeCount.Set(float64(edges))
	m.LastCoupling.Set(coupling)
}

// RecordInputError records one rejected input.
func (m *AnalysisMetrics) RecordInputError() {
	m.InputErrorsTotal.Inc()
}
