package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	bookingsRecorded  metric.Int64Counter
	invoicesIssued    metric.Int64Counter
	invoiceAmount     metric.Float64Counter
	documentsRendered metric.Int64Counter
	rateLimitDenied   metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "hourstay"
	}
	meter := provider.Meter(name)

	bookingsRecorded, err := meter.Int64Counter("hourstay_bookings_recorded_total")
	if err != nil {
		return nil, err
	}
	invoicesIssued, err := meter.Int64Counter("hourstay_invoices_issued_total")
	if err != nil {
		return nil, err
	}
	invoiceAmount, err := meter.Float64Counter("hourstay_invoice_amount_total", metric.WithUnit("INR"))
	if err != nil {
		return nil, err
	}
	documentsRendered, err := meter.Int64Counter("hourstay_documents_rendered_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("hourstay_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		bookingsRecorded:  bookingsRecorded,
		invoicesIssued:    invoicesIssued,
		invoiceAmount:     invoiceAmount,
		documentsRendered: documentsRendered,
		rateLimitDenied:   rateLimitDenied,
	}, nil
}

// RecordBooking increments recorded booking counts.
func (m *Metrics) RecordBooking(ctx context.Context, stayType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("stay_type", strings.TrimSpace(stayType)))
	m.bookingsRecorded.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordInvoiceIssued counts an issued invoice and its final amount in rupees.
func (m *Metrics) RecordInvoiceIssued(ctx context.Context, currency string, amount float64) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("currency", strings.TrimSpace(currency)))
	m.invoicesIssued.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.invoiceAmount.Add(ctx, amount, metric.WithAttributes(attrs...))
}

// RecordDocumentRendered increments rendered document counts.
func (m *Metrics) RecordDocumentRendered(ctx context.Context, format string, cached bool) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("format", strings.TrimSpace(format)),
		attribute.Bool("cache_hit", cached),
	)
	m.documentsRendered.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitDenied increments rate limit deny counts.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"stay_type":   {},
	"currency":    {},
	"format":      {},
	"cache_hit":   {},
	"endpoint":    {},
	"status_code": {},
	"reason":      {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
