package cloudmetrics

import (
	"context"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CloudMetrics holds the accounting series pushed to the central Prometheus.
// Values are read back from the database on every refresh, so restarts and
// multiple replicas report the same totals.
type CloudMetrics struct {
	registry *prometheus.Registry
	pusher   Pusher
	log      *zap.Logger

	invoicesIssued   *prometheus.GaugeVec
	invoiceAmount    *prometheus.GaugeVec
	bookingsRecorded *prometheus.GaugeVec
	memoryBytes      prometheus.Gauge
}

// New registers the accounting series on registry. A nil registry gets a
// private one.
func New(registry *prometheus.Registry, pusher Pusher, version string, log *zap.Logger) *CloudMetrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if log == nil {
		log = zap.NewNop()
	}
	constLabels := prometheus.Labels{"version": version}

	c := &CloudMetrics{
		registry: registry,
		pusher:   pusher,
		log:      log.Named("cloudmetrics"),
		invoicesIssued: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "hourstay_invoices_issued_total",
			Help:        "Tax invoices issued, by currency.",
			ConstLabels: constLabels,
		}, []string{"currency"}),
		invoiceAmount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "hourstay_invoice_amount_total",
			Help:        "Sum of issued invoice totals in major units, by currency.",
			ConstLabels: constLabels,
		}, []string{"currency"}),
		bookingsRecorded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "hourstay_bookings_recorded_total",
			Help:        "Paid bookings recorded, by stay type.",
			ConstLabels: constLabels,
		}, []string{"stay_type"}),
		memoryBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "hourstay_process_memory_bytes",
			Help:        "Memory obtained from the OS by the process.",
			ConstLabels: constLabels,
		}),
	}
	registry.MustRegister(c.invoicesIssued, c.invoiceAmount, c.bookingsRecorded, c.memoryBytes)
	return c
}

// Refresh reloads the totals from the bookings and invoices tables.
func (c *CloudMetrics) Refresh(ctx context.Context, db *gorm.DB) error {
	if c == nil || db == nil {
		return nil
	}

	var invoices []struct {
		Currency string
		Issued   int64
		Amount   int64
	}
	if err := db.WithContext(ctx).Raw(
		`SELECT currency, COUNT(*) AS issued, COALESCE(SUM(final_amount), 0) AS amount FROM invoices GROUP BY currency`,
	).Scan(&invoices).Error; err != nil {
		return err
	}

	var bookings []struct {
		StayType string
		Recorded int64
	}
	if err := db.WithContext(ctx).Raw(
		`SELECT stay_type, COUNT(*) AS recorded FROM bookings GROUP BY stay_type`,
	).Scan(&bookings).Error; err != nil {
		return err
	}

	c.invoicesIssued.Reset()
	c.invoiceAmount.Reset()
	for _, row := range invoices {
		c.invoicesIssued.WithLabelValues(row.Currency).Set(float64(row.Issued))
		c.invoiceAmount.WithLabelValues(row.Currency).Set(float64(row.Amount) / 100)
	}
	c.bookingsRecorded.Reset()
	for _, row := range bookings {
		c.bookingsRecorded.WithLabelValues(row.StayType).Set(float64(row.Recorded))
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	c.memoryBytes.Set(float64(m.Sys))
	return nil
}

// Push sends the current values. Without a pusher it is a no-op.
func (c *CloudMetrics) Push(ctx context.Context) error {
	if c == nil || c.pusher == nil {
		return nil
	}
	return c.pusher.Push(ctx, c.registry)
}

func (c *CloudMetrics) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}
