package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DocumentMetrics tracks invoice rendering and breakdown reconstruction.
type DocumentMetrics struct {
	renderDuration *prometheus.HistogramVec
	renderBytes    *prometheus.HistogramVec
	renderFailures *prometheus.CounterVec
	breakdownDrift prometheus.Histogram
}

var (
	documentMetricsOnce sync.Once
	documentMetrics     *DocumentMetrics
)

// Documents returns the singleton document metrics registry.
func Documents() *DocumentMetrics {
	return DocumentsWithConfig(Config{})
}

// DocumentsWithConfig returns the singleton document metrics registry using config labels.
func DocumentsWithConfig(cfg Config) *DocumentMetrics {
	documentMetricsOnce.Do(func() {
		documentMetrics = newDocumentMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return documentMetrics
}

// ResetDocumentMetricsForTest resets the document metrics singleton for tests.
func ResetDocumentMetricsForTest() {
	documentMetricsOnce = sync.Once{}
	documentMetrics = nil
}

func newDocumentMetrics(registerer prometheus.Registerer, cfg Config) *DocumentMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := constLabelsFor(cfg)

	renderDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "hourstay_document_render_duration_seconds",
		Help:        "Invoice document render latency by format.",
		ConstLabels: constLabels,
		Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"format"})
	renderBytes := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "hourstay_document_size_bytes",
		Help:        "Rendered invoice document size by format.",
		ConstLabels: constLabels,
		Buckets:     prometheus.ExponentialBuckets(1024, 2, 10),
	}, []string{"format"})
	renderFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "hourstay_document_render_failures_total",
		Help:        "Invoice document render failures by format.",
		ConstLabels: constLabels,
	}, []string{"format"})
	breakdownDrift := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "hourstay_invoice_breakdown_drift_paise",
		Help:        "Absolute difference in paise between the paid amount and the reconstructed invoice total.",
		ConstLabels: constLabels,
		Buckets:     []float64{0, 1, 2, 3, 5, 8, 13, 21, 100, 1000},
	})

	registerer.MustRegister(renderDuration, renderBytes, renderFailures, breakdownDrift)

	return &DocumentMetrics{
		renderDuration: renderDuration,
		renderBytes:    renderBytes,
		renderFailures: renderFailures,
		breakdownDrift: breakdownDrift,
	}
}

func (m *DocumentMetrics) ObserveRender(format string, duration time.Duration, size int) {
	if m == nil {
		return
	}
	m.renderDuration.WithLabelValues(format).Observe(duration.Seconds())
	m.renderBytes.WithLabelValues(format).Observe(float64(size))
}

func (m *DocumentMetrics) IncRenderFailure(format string) {
	if m == nil {
		return
	}
	m.renderFailures.WithLabelValues(format).Inc()
}

// ObserveDrift records the reconstruction drift given in rupees.
func (m *DocumentMetrics) ObserveDrift(drift float64) {
	if m == nil {
		return
	}
	if drift < 0 {
		drift = -drift
	}
	m.breakdownDrift.Observe(float64(int64(drift*100 + 0.5)))
}
