package render

import "time"

// Renderer turns an invoice view into printable documents.
type Renderer interface {
	RenderHTML(input RenderInput) (string, error)
	RenderWord(input RenderInput) ([]byte, error)
}

type RenderInput struct {
	Theme         ThemeView
	Seller        SellerView
	Invoice       InvoiceView
	Guest         GuestView
	Stay          StayView
	Lines         []LineView
	Totals        TotalsView
	AmountInWords string
}

type ThemeView struct {
	PrimaryColor string
	FooterNotes  []string
}

type SellerView struct {
	Name    string
	GSTIN   string
	Address string
	State   string
	Email   string
}

type InvoiceView struct {
	Number        string
	FiscalYear    string
	IssuedAt      time.Time
	PlaceOfSupply string
	Currency      string
}

type GuestView struct {
	Name  string
	Email string
	Phone string
}

type StayView struct {
	Reference        string
	HotelName        string
	HotelCity        string
	RoomType         string
	StayType         string
	Duration         string
	CheckIn          time.Time
	CheckOut         time.Time
	PaymentReference string
}

type LineView struct {
	Description string
	SAC         string
	Taxable     float64
	CGSTRate    float64
	CGST        float64
	SGSTRate    float64
	SGST        float64
	Total       float64
}

type TotalsView struct {
	SubtotalBeforeDiscount float64
	Discount               float64
	Taxable                float64
	CGST                   float64
	SGST                   float64
	GST                    float64
	Final                  float64
}

// SACSummary is one row of the HSN/SAC-wise tax summary.
type SACSummary struct {
	SAC      string
	Taxable  float64
	CGST     float64
	SGST     float64
	TotalTax float64
}

// SummariseBySAC groups lines by SAC code in first-seen order.
func SummariseBySAC(lines []LineView) []SACSummary {
	out := make([]SACSummary, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		i, ok := index[line.SAC]
		if !ok {
			i = len(out)
			index[line.SAC] = i
			out = append(out, SACSummary{SAC: line.SAC})
		}
		out[i].Taxable += line.Taxable
		out[i].CGST += line.CGST
		out[i].SGST += line.SGST
		out[i].TotalTax += line.CGST + line.SGST
	}
	return out
}
