package domain

import (
	"context"
	"errors"

	bookingdomain "github.com/smallbiznis/hourstay/internal/booking/domain"
	"github.com/smallbiznis/hourstay/internal/invoice/breakdown"
	"github.com/smallbiznis/hourstay/pkg/db/pagination"
)

type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatWord Format = "doc"
)

// ParseFormat accepts the document extensions served by the API.
func ParseFormat(value string) (Format, error) {
	switch Format(value) {
	case FormatHTML, FormatPDF, FormatWord:
		return Format(value), nil
	case "docx", "word":
		return FormatWord, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// PreviewRequest carries a loosely typed amount. Amounts above 1000 are read
// as paise.
type PreviewRequest struct {
	Amount any `json:"amount"`
}

type Preview struct {
	Amount        float64             `json:"amount"`
	Breakdown     breakdown.Breakdown `json:"breakdown"`
	Lines         []breakdown.Line    `json:"lines"`
	AmountInWords string              `json:"amount_in_words"`
	Drift         float64             `json:"drift"`
}

// InvoiceDocument is everything needed to print a tax invoice.
type InvoiceDocument struct {
	Invoice       InvoiceRecord         `json:"invoice"`
	Booking       bookingdomain.Booking `json:"booking"`
	Seller        Seller                `json:"seller"`
	Breakdown     breakdown.Breakdown   `json:"breakdown"`
	Lines         []DocumentLine        `json:"lines"`
	AmountInWords string                `json:"amount_in_words"`
}

// DocumentLine is a breakdown line labelled for printing.
type DocumentLine struct {
	breakdown.Line
	Description string `json:"description"`
	SAC         string `json:"sac"`
}

type RenderedDocument struct {
	Format      Format
	ContentType string
	Filename    string
	Body        []byte
	Cached      bool
}

type ListInvoiceRequest struct {
	PageToken  string
	PageSize   int32
	FiscalYear string
}

type ListInvoiceFilter struct {
	FiscalYear string
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []InvoiceRecord `json:"invoices"`
}

type Service interface {
	Preview(context.Context, PreviewRequest) Preview
	Issue(ctx context.Context, bookingID string) (InvoiceRecord, error)
	Get(ctx context.Context, bookingID string) (InvoiceDocument, error)
	Render(ctx context.Context, bookingID string, format Format) (RenderedDocument, error)
	List(context.Context, ListInvoiceRequest) (ListInvoiceResponse, error)
}

var (
	ErrInvoiceNotIssued      = errors.New("invoice_not_issued")
	ErrIssueInProgress       = errors.New("invoice_issue_in_progress")
	ErrUnsupportedFormat     = errors.New("unsupported_document_format")
	ErrRendererNotConfigured = errors.New("renderer_not_configured")
	ErrSequenceExhausted     = errors.New("invoice_sequence_conflict")
	ErrNumberingUnavailable  = errors.New("invoice_numbering_unavailable")
)
