package pdf

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/hourstay/internal/invoice/format"
	"github.com/smallbiznis/hourstay/internal/invoice/render"
	"github.com/smallbiznis/hourstay/internal/money"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

// The core PDF fonts cannot draw the rupee sign, amounts are prefixed with
// the currency code instead.
func amount(v float64) string {
	return "INR " + money.FormatAmount(v)
}

func (p *PDFProvider) GenerateInvoice(ctx context.Context, input render.RenderInput) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(6, "TAX INVOICE", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(6, input.Seller.Name, props.Text{
			Size:  11,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	// Invoice meta and seller block
	m.AddRow(22,
		col.New(6).Add(
			text.New("Invoice number: "+input.Invoice.Number, props.Text{Top: 0, Size: 9}),
			text.New("Invoice date: "+input.Invoice.IssuedAt.In(format.IST).Format("02 Jan 2006"), props.Text{Top: 5, Size: 9}),
			text.New("Fiscal year: "+input.Invoice.FiscalYear, props.Text{Top: 10, Size: 9}),
			text.New("Place of supply: "+input.Invoice.PlaceOfSupply, props.Text{Top: 15, Size: 9}),
		),
		col.New(6).Add(
			text.New(input.Seller.Address, props.Text{Top: 0, Size: 9, Align: align.Right}),
			text.New("GSTIN: "+input.Seller.GSTIN, props.Text{Top: 5, Size: 9, Align: align.Right}),
			text.New(input.Seller.Email, props.Text{Top: 10, Size: 9, Align: align.Right}),
		),
	)

	// Guest and stay
	stay := input.Stay.HotelName
	if input.Stay.HotelCity != "" {
		stay += ", " + input.Stay.HotelCity
	}
	m.AddRow(28,
		col.New(6).Add(
			text.New("Billed to", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.New(input.Guest.Name, props.Text{Top: 5, Size: 9}),
			text.New(input.Guest.Email, props.Text{Top: 10, Size: 9}),
			text.New(input.Guest.Phone, props.Text{Top: 15, Size: 9}),
		),
		col.New(6).Add(
			text.New("Stay", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.New(stay, props.Text{Top: 5, Size: 9}),
			text.New(strings.TrimSpace(input.Stay.RoomType+" "+input.Stay.StayType+" ("+input.Stay.Duration+")"), props.Text{Top: 10, Size: 9}),
			text.New("Booking reference: "+input.Stay.Reference, props.Text{Top: 15, Size: 9}),
		),
	)

	// Table header
	m.AddRow(8,
		text.NewCol(4, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "SAC", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Taxable", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(1, "CGST", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(1, "SGST", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, line := range input.Lines {
		m.AddRow(8,
			text.NewCol(4, line.Description, props.Text{Size: 9}),
			text.NewCol(2, line.SAC, props.Text{Size: 9}),
			text.NewCol(2, money.FormatAmount(line.Taxable), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(1, money.FormatAmount(line.CGST), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(1, money.FormatAmount(line.SGST), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, money.FormatAmount(line.Total), props.Text{Size: 9, Align: align.Right}),
		)
	}

	// Totals
	m.AddRow(7,
		col.New(8),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(2, amount(input.Totals.SubtotalBeforeDiscount), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(7,
		col.New(8),
		text.NewCol(2, "Discount", props.Text{Size: 9}),
		text.NewCol(2, "- "+amount(input.Totals.Discount), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Total paid", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, amount(input.Totals.Final), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	m.AddRow(10,
		text.NewCol(12, "Amount in words: "+input.AmountInWords, props.Text{Size: 9, Top: 2}),
	)

	// HSN/SAC summary
	m.AddRow(8,
		text.NewCol(4, "HSN/SAC", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Taxable", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "CGST", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "SGST", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Total tax", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, row := range render.SummariseBySAC(input.Lines) {
		m.AddRow(7,
			text.NewCol(4, row.SAC, props.Text{Size: 9}),
			text.NewCol(2, money.FormatAmount(row.Taxable), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, money.FormatAmount(row.CGST), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, money.FormatAmount(row.SGST), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, money.FormatAmount(row.TotalTax), props.Text{Size: 9, Align: align.Right}),
		)
	}

	for _, note := range input.Theme.FooterNotes {
		m.AddRow(6, text.NewCol(12, note, props.Text{Size: 7, Top: 2}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
