package service

import (
	"net/http"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xhrome/foodbot/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the bot's
// remote-facing operations.
type MetricsService struct {
	registry      *prometheus.Registry
	handler       http.Handler
	uploads       *prometheus.CounterVec
	deletes       *prometheus.CounterVec
	indexRebuilds *prometheus.CounterVec
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	uploads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodbot_uploads_total",
		Help: "Upload attempts by document kind and outcome",
	}, []string{"kind", "outcome"})

	deletes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodbot_deletes_total",
		Help: "Confirmed delete operations by result",
	}, []string{"result"})

	indexRebuilds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodbot_index_rebuilds_total",
		Help: "Table index rebuilds by result",
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(uploads, deletes, indexRebuilds, goroutines)

	return &MetricsService{
		registry:      registry,
		handler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		uploads:       uploads,
		deletes:       deletes,
		indexRebuilds: indexRebuilds,
	}
}

// Handler serves the Prometheus exposition endpoint.
func (m *MetricsService) Handler() http.Handler {
	return m.handler
}

// ObserveUpload counts one finished upload attempt.
func (m *MetricsService) ObserveUpload(kind models.FileKind, outcome string) {
	m.uploads.WithLabelValues(kind.String(), outcome).Inc()
}

// ObserveDelete counts one confirmed delete operation.
func (m *MetricsService) ObserveDelete(result string) {
	m.deletes.WithLabelValues(result).Inc()
}

// ObserveIndexRebuild counts one table index rebuild.
func (m *MetricsService) ObserveIndexRebuild(result string) {
	m.indexRebuilds.WithLabelValues(result).Inc()
}
