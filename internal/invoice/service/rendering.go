package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gosimple/slug"
	bookingdomain "github.com/smallbiznis/hourstay/internal/booking/domain"
	"github.com/smallbiznis/hourstay/internal/config"
	invoicedomain "github.com/smallbiznis/hourstay/internal/invoice/domain"
	"github.com/smallbiznis/hourstay/internal/invoice/render"
	"go.uber.org/zap"
)

var contentTypes = map[invoicedomain.Format]string{
	invoicedomain.FormatHTML: "text/html; charset=utf-8",
	invoicedomain.FormatPDF:  "application/pdf",
	invoicedomain.FormatWord: "application/msword",
}

// Render produces the invoice document in the requested format. Documents are
// cached per invoice, format and settings version.
func (s *Service) Render(ctx context.Context, bookingID string, format invoicedomain.Format) (invoicedomain.RenderedDocument, error) {
	contentType, ok := contentTypes[format]
	if !ok {
		return invoicedomain.RenderedDocument{}, invoicedomain.ErrUnsupportedFormat
	}

	doc, err := s.Get(ctx, bookingID)
	if err != nil {
		return invoicedomain.RenderedDocument{}, err
	}

	out := invoicedomain.RenderedDocument{
		Format:      format,
		ContentType: contentType,
		Filename:    documentFilename(doc, format),
	}

	key := fmt.Sprintf("%s:%s:v%d", doc.Invoice.ID.String(), format, s.settings.Version())
	body, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("document cache read failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		out.Body = body
		out.Cached = true
		s.metrics.RecordDocumentRendered(ctx, string(format), true)
		return out, nil
	}

	start := time.Now()
	body, err = s.renderDocument(ctx, format, buildRenderInput(doc, s.settings.Get()))
	if err != nil {
		s.docMetrics.IncRenderFailure(string(format))
		return invoicedomain.RenderedDocument{}, err
	}
	s.docMetrics.ObserveRender(string(format), time.Since(start), len(body))
	s.metrics.RecordDocumentRendered(ctx, string(format), false)

	if s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, key, body, s.cacheTTL); err != nil {
			s.log.Warn("document cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	out.Body = body
	return out, nil
}

func (s *Service) renderDocument(ctx context.Context, format invoicedomain.Format, input render.RenderInput) ([]byte, error) {
	switch format {
	case invoicedomain.FormatHTML:
		if s.renderer == nil {
			return nil, invoicedomain.ErrRendererNotConfigured
		}
		html, err := s.renderer.RenderHTML(input)
		if err != nil {
			return nil, err
		}
		return []byte(html), nil
	case invoicedomain.FormatWord:
		if s.renderer == nil {
			return nil, invoicedomain.ErrRendererNotConfigured
		}
		return s.renderer.RenderWord(input)
	case invoicedomain.FormatPDF:
		if s.pdf == nil {
			return nil, invoicedomain.ErrRendererNotConfigured
		}
		reader, err := s.pdf.GenerateInvoice(ctx, input)
		if err != nil {
			return nil, err
		}
		if reader == nil {
			return nil, invoicedomain.ErrRendererNotConfigured
		}
		return io.ReadAll(reader)
	default:
		return nil, invoicedomain.ErrUnsupportedFormat
	}
}

func buildRenderInput(doc invoicedomain.InvoiceDocument, settings config.InvoiceSettings) render.RenderInput {
	booking := doc.Booking
	bd := doc.Breakdown

	lines := make([]render.LineView, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		lines = append(lines, render.LineView{
			Description: line.Description,
			SAC:         line.SAC,
			Taxable:     line.TaxableValue,
			CGSTRate:    line.CGSTRate,
			CGST:        line.CGST,
			SGSTRate:    line.SGSTRate,
			SGST:        line.SGST,
			Total:       line.Total,
		})
	}

	return render.RenderInput{
		Theme: render.ThemeView{
			PrimaryColor: settings.PrimaryColor,
			FooterNotes:  settings.FooterNotes,
		},
		Seller: render.SellerView{
			Name:    doc.Seller.Name,
			GSTIN:   doc.Seller.GSTIN,
			Address: doc.Seller.Address,
			State:   doc.Seller.State,
			Email:   doc.Seller.Email,
		},
		Invoice: render.InvoiceView{
			Number:        doc.Invoice.Number,
			FiscalYear:    doc.Invoice.FiscalYear,
			IssuedAt:      doc.Invoice.IssuedAt,
			PlaceOfSupply: doc.Seller.State,
			Currency:      doc.Invoice.Currency,
		},
		Guest: render.GuestView{
			Name:  booking.GuestName,
			Email: booking.GuestEmail,
			Phone: booking.GuestPhone,
		},
		Stay: render.StayView{
			Reference:        booking.Reference,
			HotelName:        booking.HotelName,
			HotelCity:        booking.HotelCity,
			RoomType:         booking.RoomType,
			StayType:         stayLabel(booking.StayType),
			Duration:         stayDuration(booking),
			CheckIn:          booking.CheckIn,
			CheckOut:         booking.CheckOut,
			PaymentReference: booking.PaymentReference,
		},
		Lines: lines,
		Totals: render.TotalsView{
			SubtotalBeforeDiscount: bd.SubtotalBeforeDiscount,
			Discount:               bd.DiscountAmount,
			Taxable:                bd.TotalTaxable,
			CGST:                   bd.TotalCGST,
			SGST:                   bd.TotalSGST,
			GST:                    bd.TotalGST,
			Final:                  bd.FinalAmount,
		},
		AmountInWords: doc.AmountInWords,
	}
}

func stayLabel(stayType bookingdomain.StayType) string {
	switch stayType {
	case bookingdomain.StayHourly:
		return "Hourly stay"
	case bookingdomain.StayFullDay:
		return "Full-day stay"
	default:
		return string(stayType)
	}
}

func stayDuration(booking bookingdomain.Booking) string {
	if booking.StayType == bookingdomain.StayHourly {
		return plural(booking.SlotHours, "hour")
	}
	return plural(booking.Nights(), "night")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// documentFilename builds e.g. invoice-lakeview-residency-hs-2024-25-00042.pdf.
func documentFilename(doc invoicedomain.InvoiceDocument, format invoicedomain.Format) string {
	parts := []string{"invoice"}
	if hotel := slug.Make(doc.Booking.HotelName); hotel != "" {
		parts = append(parts, hotel)
	}
	if number := slug.Make(doc.Invoice.Number); number != "" {
		parts = append(parts, number)
	}
	return strings.Join(parts, "-") + "." + string(format)
}
