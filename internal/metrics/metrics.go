// Package metrics exposes scanner and order counters to Prometheus.
package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"PatternScope/internal/model"
)

// Metrics holds all Prometheus metrics for the scanner.
type Metrics struct {
	Registry *prometheus.Registry

	ScansTotal       *prometheus.CounterVec // labels: symbol
	ScanErrorsTotal  *prometheus.CounterVec // labels: symbol
	AnnotationsTotal *prometheus.CounterVec // labels: column
	OrdersTotal      *prometheus.CounterVec // labels: result=done|rejected|error
	ScanDuration     prometheus.Histogram
}

// New registers all metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ScansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patternscope_scans_total",
			Help: "Completed scans per symbol",
		}, []string{"symbol"}),
		ScanErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patternscope_scan_errors_total",
			Help: "Failed scans per symbol",
		}, []string{"symbol"}),
		AnnotationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patternscope_annotations_total",
			Help: "Labelled bars per annotation column",
		}, []string{"column"}),
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patternscope_orders_total",
			Help: "Orders sent to the terminal by outcome",
		}, []string{"result"}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "patternscope_scan_duration_seconds",
			Help:    "Fetch plus labelling latency per symbol",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.Registry.MustRegister(
		m.ScansTotal,
		m.ScanErrorsTotal,
		m.AnnotationsTotal,
		m.OrdersTotal,
		m.ScanDuration,
	)
	return m
}

// ObserveAnalysis counts a finished scan and its annotations.
func (m *Metrics) ObserveAnalysis(a *model.Analysis, took time.Duration) {
	m.ScansTotal.WithLabelValues(a.Symbol).Inc()
	m.ScanDuration.Observe(took.Seconds())
	for _, col := range a.Annotations {
		m.AnnotationsTotal.WithLabelValues(col.Name).Add(float64(col.Count()))
	}
}

// ObserveOrder counts an order outcome. A nil result is a transport error.
func (m *Metrics) ObserveOrder(res *model.OrderResult) {
	switch {
	case res == nil:
		m.OrdersTotal.WithLabelValues("error").Inc()
	case res.Done():
		m.OrdersTotal.WithLabelValues("done").Inc()
	default:
		m.OrdersTotal.WithLabelValues("rejected").Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// HealthStatus tracks the last scan outcome per symbol.
type HealthStatus struct {
	mu        sync.RWMutex
	lastScan  map[string]time.Time
	lastError map[string]string
	startedAt time.Time
}

// NewHealthStatus returns an empty health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		lastScan:  make(map[string]time.Time),
		lastError: make(map[string]string),
		startedAt: time.Now(),
	}
}

// Record stores the outcome of a scan for symbol.
func (h *HealthStatus) Record(symbol string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.lastError[symbol] = err.Error()
		return
	}
	h.lastScan[symbol] = time.Now()
	delete(h.lastError, symbol)
}

// ServeHTTP handles the /healthz endpoint. Any symbol whose last scan failed
// marks the service degraded.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := struct {
		Status   string               `json:"status"`
		Uptime   string               `json:"uptime"`
		LastScan map[string]time.Time `json:"last_scan"`
		Errors   map[string]string    `json:"errors,omitempty"`
	}{
		Status:   "healthy",
		Uptime:   time.Since(h.startedAt).Round(time.Second).String(),
		LastScan: h.lastScan,
		Errors:   h.lastError,
	}

	w.Header().Set("Content-Type", "application/json")
	if len(h.lastError) > 0 {
		status.Status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics, /healthz and any extra routes.
type Server struct {
	addr string
	mux  *http.ServeMux
	srv  *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, m *Metrics, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/healthz", health)
	return &Server{
		addr: addr,
		mux:  mux,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handle registers an additional route. Call before Start.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[INFO] http server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[ERROR] http server: %v", err)
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
