package render

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/hourstay/internal/invoice/format"
	"github.com/smallbiznis/hourstay/internal/money"
)

const invoiceHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Tax Invoice {{.Invoice.Number}}</title>
  <style>
    :root {
      --primary: {{.Theme.PrimaryColor}};
      --font: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
    }
    * { box-sizing: border-box; }
    body {
      margin: 0;
      padding: 32px;
      font-family: var(--font);
      color: #1a1f36;
      background: #f7f9fc;
    }
    .invoice-card {
      background: #ffffff;
      max-width: 860px;
      margin: 0 auto;
      padding: 48px;
      border-top: 6px solid var(--primary);
      border-radius: 4px;
    }
    .header { display: flex; justify-content: space-between; margin-bottom: 32px; }
    .header h1 { margin: 0; font-size: 22px; color: var(--primary); letter-spacing: 0.5px; }
    .meta-grid { display: flex; justify-content: space-between; gap: 24px; margin-bottom: 28px; }
    .col { flex: 1; }
    .label {
      font-size: 11px;
      text-transform: uppercase;
      color: #8792a2;
      margin-bottom: 4px;
      font-weight: 600;
    }
    .value { font-size: 13px; line-height: 1.5; }
    table { width: 100%; border-collapse: collapse; margin-bottom: 24px; }
    th {
      text-align: left;
      font-size: 11px;
      text-transform: uppercase;
      color: #ffffff;
      background: var(--primary);
      padding: 8px 6px;
    }
    td { padding: 10px 6px; border-bottom: 1px solid #e3e8ee; font-size: 13px; vertical-align: top; }
    .num { text-align: right; white-space: nowrap; }
    .totals { display: flex; flex-direction: column; align-items: flex-end; margin-bottom: 24px; }
    .total-row { display: flex; justify-content: space-between; width: 320px; padding: 4px 0; font-size: 13px; }
    .total-final { border-top: 1px solid #e3e8ee; margin-top: 6px; padding-top: 8px; font-weight: 700; font-size: 15px; }
    .words { font-size: 13px; margin-bottom: 24px; }
    .footer { margin-top: 40px; font-size: 11px; color: #8792a2; border-top: 1px solid #e3e8ee; padding-top: 16px; }
  </style>
</head>
<body>
  <div class="invoice-card">
    <div class="header">
      <div>
        <h1>TAX INVOICE</h1>
        <div class="label" style="margin-top: 12px;">Invoice number</div>
        <div class="value">{{.Invoice.Number}}</div>
        <div class="label" style="margin-top: 8px;">Invoice date</div>
        <div class="value">{{formatDate .Invoice.IssuedAt}}</div>
      </div>
      <div style="text-align: right;">
        <div class="value"><strong>{{.Seller.Name}}</strong></div>
        <div class="value">{{.Seller.Address}}</div>
        <div class="value">GSTIN: {{.Seller.GSTIN}}</div>
        {{if .Seller.Email}}<div class="value">{{.Seller.Email}}</div>{{end}}
      </div>
    </div>

    <div class="meta-grid">
      <div class="col">
        <div class="label">Billed to</div>
        <div class="value">
          <strong>{{.Guest.Name}}</strong><br>
          {{.Guest.Email}}{{if .Guest.Phone}}<br>{{.Guest.Phone}}{{end}}
        </div>
        <div class="label" style="margin-top: 12px;">Place of supply</div>
        <div class="value">{{.Invoice.PlaceOfSupply}}</div>
      </div>
      <div class="col">
        <div class="label">Stay</div>
        <div class="value">
          <strong>{{.Stay.HotelName}}</strong>{{if .Stay.HotelCity}}, {{.Stay.HotelCity}}{{end}}<br>
          {{if .Stay.RoomType}}{{.Stay.RoomType}} &middot; {{end}}{{.Stay.StayType}} ({{.Stay.Duration}})<br>
          Check-in: {{formatDateTime .Stay.CheckIn}}<br>
          Check-out: {{formatDateTime .Stay.CheckOut}}
        </div>
      </div>
      <div class="col" style="flex: 0 0 200px;">
        <div class="label">Booking reference</div>
        <div class="value">{{.Stay.Reference}}</div>
        {{if .Stay.PaymentReference}}
        <div class="label" style="margin-top: 12px;">Payment reference</div>
        <div class="value">{{.Stay.PaymentReference}}</div>
        {{end}}
      </div>
    </div>

    <table>
      <thead>
        <tr>
          <th>Description</th>
          <th>SAC</th>
          <th class="num">Taxable value</th>
          <th class="num">CGST</th>
          <th class="num">SGST</th>
          <th class="num">Total</th>
        </tr>
      </thead>
      <tbody>
        {{range .Lines}}
        <tr>
          <td>{{.Description}}</td>
          <td>{{.SAC}}</td>
          <td class="num">{{formatAmount .Taxable}}</td>
          <td class="num">{{formatAmount .CGST}} <span style="color: #8792a2;">@{{formatRate .CGSTRate}}</span></td>
          <td class="num">{{formatAmount .SGST}} <span style="color: #8792a2;">@{{formatRate .SGSTRate}}</span></td>
          <td class="num">{{formatAmount .Total}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>

    <div class="totals">
      <div class="total-row"><span>Subtotal</span><span>{{formatINR .Totals.SubtotalBeforeDiscount}}</span></div>
      <div class="total-row"><span>Discount</span><span>- {{formatINR .Totals.Discount}}</span></div>
      <div class="total-row total-final"><span>Total paid</span><span>{{formatINR .Totals.Final}}</span></div>
    </div>

    <div class="words"><strong>Amount in words:</strong> {{.AmountInWords}}</div>

    <table>
      <thead>
        <tr>
          <th>HSN/SAC</th>
          <th class="num">Taxable value</th>
          <th class="num">CGST</th>
          <th class="num">SGST</th>
          <th class="num">Total tax</th>
        </tr>
      </thead>
      <tbody>
        {{range .Summary}}
        <tr>
          <td>{{.SAC}}</td>
          <td class="num">{{formatAmount .Taxable}}</td>
          <td class="num">{{formatAmount .CGST}}</td>
          <td class="num">{{formatAmount .SGST}}</td>
          <td class="num">{{formatAmount .TotalTax}}</td>
        </tr>
        {{end}}
        <tr>
          <td><strong>Total</strong></td>
          <td class="num"><strong>{{formatAmount .Totals.Taxable}}</strong></td>
          <td class="num"><strong>{{formatAmount .Totals.CGST}}</strong></td>
          <td class="num"><strong>{{formatAmount .Totals.SGST}}</strong></td>
          <td class="num"><strong>{{formatAmount .Totals.GST}}</strong></td>
        </tr>
      </tbody>
    </table>

    {{if .Theme.FooterNotes}}
    <div class="footer">
      {{range .Theme.FooterNotes}}<div>{{.}}</div>{{end}}
    </div>
    {{end}}
  </div>
</body>
</html>
`

const wordShellTemplate = `<html xmlns:o="urn:schemas-microsoft-com:office:office" xmlns:w="urn:schemas-microsoft-com:office:word" xmlns="http://www.w3.org/TR/REC-html40">
<head>
<meta charset="utf-8">
<title>{{html .Title}}</title>
<!--[if gte mso 9]><xml><w:WordDocument><w:View>Print</w:View><w:Zoom>100</w:Zoom></w:WordDocument></xml><![endif]-->
</head>
<body>{{.Body}}</body>
</html>
`

var (
	hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	bodyPattern     = regexp.MustCompile(`(?s)<body>(.*)</body>`)
)

const defaultPrimaryColor = "#1f4e79"

type HTMLRenderer struct {
	tpl  *template.Template
	word *texttemplate.Template
}

type templateData struct {
	RenderInput
	Summary []SACSummary
}

func NewRenderer() Renderer {
	funcs := template.FuncMap{
		"formatINR":      money.FormatINR,
		"formatAmount":   money.FormatAmount,
		"formatRate":     formatRate,
		"formatDate":     formatDate,
		"formatDateTime": formatDateTime,
	}
	return &HTMLRenderer{
		tpl:  template.Must(template.New("invoice").Funcs(funcs).Parse(invoiceHTMLTemplate)),
		word: texttemplate.Must(texttemplate.New("word").Parse(wordShellTemplate)),
	}
}

func (r *HTMLRenderer) RenderHTML(input RenderInput) (string, error) {
	input.Theme.PrimaryColor = sanitizeColor(input.Theme.PrimaryColor)

	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, templateData{
		RenderInput: input,
		Summary:     SummariseBySAC(input.Lines),
	}); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// RenderWord wraps the invoice body in a document Word opens natively.
func (r *HTMLRenderer) RenderWord(input RenderInput) ([]byte, error) {
	html, err := r.RenderHTML(input)
	if err != nil {
		return nil, err
	}

	body := html
	if match := bodyPattern.FindStringSubmatch(html); len(match) == 2 {
		body = match[1]
	}

	// text/template keeps the mso conditional comment; the body is already
	// escaped by the invoice template.
	var buf bytes.Buffer
	err = r.word.Execute(&buf, struct {
		Title string
		Body  string
	}{
		Title: "Tax Invoice " + input.Invoice.Number,
		Body:  body,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatRate(rate float64) string {
	return decimal.NewFromFloat(rate).Shift(2).String() + "%"
}

func formatDate(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.In(format.IST).Format("02 Jan 2006")
}

func formatDateTime(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.In(format.IST).Format("02 Jan 2006, 03:04 PM")
}

func sanitizeColor(value string) string {
	trimmed := strings.TrimSpace(value)
	if hexColorPattern.MatchString(trimmed) {
		return trimmed
	}
	return defaultPrimaryColor
}
