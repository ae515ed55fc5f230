package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("format", "pdf"),
		attribute.String("booking_id", "456"),
		attribute.String("stay_type", "hourly"),
	)
	require.Len(t, attrs, 2)
	assert.Equal(t, attribute.Key("format"), attrs[0].Key)
	assert.Equal(t, attribute.Key("stay_type"), attrs[1].Key)
}

func TestMetricsRecordInvoiceIssued(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := New(Config{ServiceName: "hourstay-test"}, provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordInvoiceIssued(ctx, "INR", 1000)
	m.RecordInvoiceIssued(ctx, "INR", 1500.5)
	m.RecordDocumentRendered(ctx, "pdf", false)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	found := map[string]bool{}
	for _, scope := range rm.ScopeMetrics {
		for _, md := range scope.Metrics {
			found[md.Name] = true
			switch data := md.Data.(type) {
			case metricdata.Sum[int64]:
				if md.Name == "hourstay_invoices_issued_total" {
					require.Len(t, data.DataPoints, 1)
					assert.Equal(t, int64(2), data.DataPoints[0].Value)
				}
			case metricdata.Sum[float64]:
				require.Len(t, data.DataPoints, 1)
				assert.InDelta(t, 2500.5, data.DataPoints[0].Value, 1e-9)
			}
		}
	}
	assert.True(t, found["hourstay_invoices_issued_total"])
	assert.True(t, found["hourstay_invoice_amount_total"])
	assert.True(t, found["hourstay_documents_rendered_total"])
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordBooking(context.Background(), "hourly")
	m.RecordInvoiceIssued(context.Background(), "INR", 1)
	m.RecordDocumentRendered(context.Background(), "html", true)
	m.RecordRateLimitDenied(context.Background(), "render", "bucket_empty")
}
