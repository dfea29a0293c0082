package observability

import (
	"net/http"
	"time"

	grpcprom "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the FileDrop collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	backendRequests *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
	uploads         *prometheus.CounterVec
	storageUsed     prometheus.Gauge
	filesTotal      prometheus.Gauge
	thumbnailCache  *prometheus.CounterVec
	grpcServer      *grpcprom.ServerMetrics
}

// InitMetrics creates the collectors on a dedicated registry.
func InitMetrics() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "filedrop_backend_requests_total",
			Help: "Backend calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "filedrop_backend_request_duration_seconds",
			Help:    "Backend call latency by operation.",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"op"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "filedrop_uploads_total",
			Help: "Uploaded files by outcome.",
		}, []string{"outcome"}),
		storageUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "filedrop_storage_used_bytes",
			Help: "Sum of raw file sizes held in the store.",
		}),
		filesTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "filedrop_files",
			Help: "Number of file records held in the store.",
		}),
		thumbnailCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "filedrop_thumbnail_cache_requests_total",
			Help: "Thumbnail cache lookups by result.",
		}, []string{"result"}),
		grpcServer: grpcprom.NewServerMetrics(
			grpcprom.WithServerHandlingTimeHistogram(
				grpcprom.WithHistogramBuckets([]float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10}),
			),
		),
	}

	collectors := []prometheus.Collector{
		m.backendRequests, m.backendLatency, m.uploads, m.storageUsed, m.filesTotal, m.thumbnailCache, m.grpcServer,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveBackend records one backend call.
func (m *Metrics) ObserveBackend(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.backendRequests.WithLabelValues(op, outcome).Inc()
	m.backendLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// ObserveUpload records one file of an upload batch.
func (m *Metrics) ObserveUpload(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.uploads.WithLabelValues(outcome).Inc()
}

// SetStorage publishes the current store totals.
func (m *Metrics) SetStorage(files int, usedBytes int64) {
	if m == nil {
		return
	}
	m.filesTotal.Set(float64(files))
	m.storageUsed.Set(float64(usedBytes))
}

// ObserveThumbnailCache records a cache hit or miss.
func (m *Metrics) ObserveThumbnailCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.thumbnailCache.WithLabelValues(result).Inc()
}

// GetServerMetrics returns the gRPC server metrics
func (m *Metrics) GetServerMetrics() *grpcprom.ServerMetrics {
	return m.grpcServer
}

// Registry exposes the registry for tests and custom handlers.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// GetHandler returns the HTTP handler for /metrics endpoint
func (m *Metrics) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartMetricsServer serves /metrics and /health on addr in the background.
func StartMetricsServer(addr string, m *Metrics, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", m.GetHandler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("starting metrics server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}
