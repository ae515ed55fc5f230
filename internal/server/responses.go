package server

import (
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/smallbiznis/hourstay/internal/booking/domain"
	invoicedomain "github.com/smallbiznis/hourstay/internal/invoice/domain"
	"github.com/smallbiznis/hourstay/internal/invoice/breakdown"
	"github.com/smallbiznis/hourstay/internal/money"
	"github.com/smallbiznis/hourstay/pkg/db/pagination"
)

// Response views render every monetary value as a two decimal string.

type bookingView struct {
	ID               snowflake.ID   `json:"id"`
	Reference        string         `json:"reference"`
	HotelName        string         `json:"hotel_name"`
	HotelCity        string         `json:"hotel_city,omitempty"`
	RoomType         string         `json:"room_type,omitempty"`
	StayType         string         `json:"stay_type"`
	SlotHours        int            `json:"slot_hours,omitempty"`
	Nights           int            `json:"nights,omitempty"`
	CheckIn          time.Time      `json:"check_in"`
	CheckOut         time.Time      `json:"check_out"`
	GuestName        string         `json:"guest_name"`
	GuestEmail       string         `json:"guest_email"`
	GuestPhone       string         `json:"guest_phone,omitempty"`
	AmountPaid       string         `json:"amount_paid"`
	Currency         string         `json:"currency"`
	PaymentReference string         `json:"payment_reference,omitempty"`
	PaidAt           *time.Time     `json:"paid_at,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

func newBookingView(b bookingdomain.Booking) bookingView {
	return bookingView{
		ID:               b.ID,
		Reference:        b.Reference,
		HotelName:        b.HotelName,
		HotelCity:        b.HotelCity,
		RoomType:         b.RoomType,
		StayType:         string(b.StayType),
		SlotHours:        b.SlotHours,
		Nights:           b.Nights(),
		CheckIn:          b.CheckIn,
		CheckOut:         b.CheckOut,
		GuestName:        b.GuestName,
		GuestEmail:       b.GuestEmail,
		GuestPhone:       b.GuestPhone,
		AmountPaid:       b.Paid().Decimal().StringFixed(2),
		Currency:         b.Currency,
		PaymentReference: b.PaymentReference,
		PaidAt:           b.PaidAt,
		Metadata:         b.Metadata,
		CreatedAt:        b.CreatedAt,
	}
}

type bookingListView struct {
	pagination.PageInfo
	Bookings []bookingView `json:"bookings"`
}

type breakdownView struct {
	InputAmount            string `json:"input_amount"`
	BasePrice              string `json:"base_price"`
	BaseCGST               string `json:"base_cgst"`
	BaseSGST               string `json:"base_sgst"`
	BaseTotal              string `json:"base_total"`
	ServiceCharges         string `json:"service_charges"`
	ServiceCGST            string `json:"service_cgst"`
	ServiceSGST            string `json:"service_sgst"`
	ServiceTotal           string `json:"service_total"`
	ConvenienceFee         string `json:"convenience_fee"`
	ConvenienceCGST        string `json:"convenience_cgst"`
	ConvenienceSGST        string `json:"convenience_sgst"`
	ConvenienceTotal       string `json:"convenience_total"`
	SubtotalBeforeDiscount string `json:"subtotal_before_discount"`
	DiscountAmount         string `json:"discount_amount"`
	FinalAmount            string `json:"final_amount"`
	TotalCGST              string `json:"total_cgst"`
	TotalSGST              string `json:"total_sgst"`
	TotalGST               string `json:"total_gst"`
	TotalTaxable           string `json:"total_taxable"`
}

func newBreakdownView(b breakdown.Breakdown) breakdownView {
	f := money.FormatAmount
	return breakdownView{
		InputAmount:            f(b.InputAmount),
		BasePrice:              f(b.BasePrice),
		BaseCGST:               f(b.BaseCGST),
		BaseSGST:               f(b.BaseSGST),
		BaseTotal:              f(b.BaseTotal),
		ServiceCharges:         f(b.ServiceCharges),
		ServiceCGST:            f(b.ServiceCGST),
		ServiceSGST:            f(b.ServiceSGST),
		ServiceTotal:           f(b.ServiceTotal),
		ConvenienceFee:         f(b.ConvenienceFee),
		ConvenienceCGST:        f(b.ConvenienceCGST),
		ConvenienceSGST:        f(b.ConvenienceSGST),
		ConvenienceTotal:       f(b.ConvenienceTotal),
		SubtotalBeforeDiscount: f(b.SubtotalBeforeDiscount),
		DiscountAmount:         f(b.DiscountAmount),
		FinalAmount:            f(b.FinalAmount),
		TotalCGST:              f(b.TotalCGST),
		TotalSGST:              f(b.TotalSGST),
		TotalGST:               f(b.TotalGST),
		TotalTaxable:           f(b.TotalTaxable),
	}
}

type lineView struct {
	Kind         string  `json:"kind"`
	Description  string  `json:"description,omitempty"`
	SAC          string  `json:"sac,omitempty"`
	TaxableValue string  `json:"taxable_value"`
	CGSTRate     float64 `json:"cgst_rate"`
	CGST         string  `json:"cgst"`
	SGSTRate     float64 `json:"sgst_rate"`
	SGST         string  `json:"sgst"`
	Total        string  `json:"total"`
}

func newLineView(l breakdown.Line) lineView {
	return lineView{
		Kind:         string(l.Kind),
		TaxableValue: money.FormatAmount(l.TaxableValue),
		CGSTRate:     l.CGSTRate,
		CGST:         money.FormatAmount(l.CGST),
		SGSTRate:     l.SGSTRate,
		SGST:         money.FormatAmount(l.SGST),
		Total:        money.FormatAmount(l.Total),
	}
}

type previewView struct {
	Amount        string        `json:"amount"`
	Breakdown     breakdownView `json:"breakdown"`
	Lines         []lineView    `json:"lines"`
	AmountInWords string        `json:"amount_in_words"`
	Drift         string        `json:"drift"`
}

func newPreviewView(p invoicedomain.Preview) previewView {
	lines := make([]lineView, 0, len(p.Lines))
	for _, l := range p.Lines {
		lines = append(lines, newLineView(l))
	}
	return previewView{
		Amount:        money.FormatAmount(p.Amount),
		Breakdown:     newBreakdownView(p.Breakdown),
		Lines:         lines,
		AmountInWords: p.AmountInWords,
		Drift:         money.FormatAmount(p.Drift),
	}
}

type invoiceView struct {
	ID          snowflake.ID         `json:"id"`
	BookingID   snowflake.ID         `json:"booking_id"`
	Number      string               `json:"number"`
	FiscalYear  string               `json:"fiscal_year"`
	Sequence    int64                `json:"sequence"`
	FinalAmount string               `json:"final_amount"`
	Currency    string               `json:"currency"`
	Seller      invoicedomain.Seller `json:"seller"`
	IssuedAt    time.Time            `json:"issued_at"`
}

func newInvoiceView(r invoicedomain.InvoiceRecord) invoiceView {
	return invoiceView{
		ID:          r.ID,
		BookingID:   r.BookingID,
		Number:      r.Number,
		FiscalYear:  r.FiscalYear,
		Sequence:    r.Sequence,
		FinalAmount: r.Total().Decimal().StringFixed(2),
		Currency:    r.Currency,
		Seller:      invoicedomain.SellerFromMap(r.Seller),
		IssuedAt:    r.IssuedAt,
	}
}

type invoiceListView struct {
	pagination.PageInfo
	Invoices []invoiceView `json:"invoices"`
}

type invoiceDocumentView struct {
	Invoice       invoiceView          `json:"invoice"`
	Booking       bookingView          `json:"booking"`
	Seller        invoicedomain.Seller `json:"seller"`
	Breakdown     breakdownView        `json:"breakdown"`
	Lines         []lineView           `json:"lines"`
	AmountInWords string               `json:"amount_in_words"`
}

func newInvoiceDocumentView(doc invoicedomain.InvoiceDocument) invoiceDocumentView {
	lines := make([]lineView, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		v := newLineView(l.Line)
		v.Description = l.Description
		v.SAC = l.SAC
		lines = append(lines, v)
	}
	invoice := newInvoiceView(doc.Invoice)
	invoice.Seller = doc.Seller
	return invoiceDocumentView{
		Invoice:       invoice,
		Booking:       newBookingView(doc.Booking),
		Seller:        doc.Seller,
		Breakdown:     newBreakdownView(doc.Breakdown),
		Lines:         lines,
		AmountInWords: doc.AmountInWords,
	}
}
