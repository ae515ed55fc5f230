package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/hourstay/internal/audit/domain"
	invoicedomain "github.com/smallbiznis/hourstay/internal/invoice/domain"
	"github.com/smallbiznis/hourstay/pkg/db/pagination"
)

// IssueInvoice assigns the booking its invoice number. Repeated calls return
// the invoice issued first.
func (s *Server) IssueInvoice(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.invoiceSvc.Issue(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, auditdomain.Entry{
		Action:     auditdomain.ActionInvoiceIssue,
		TargetType: auditdomain.TargetInvoice,
		TargetID:   resp.ID.String(),
		Metadata: map[string]any{
			"booking_id":   resp.BookingID.String(),
			"number":       resp.Number,
			"final_amount": resp.Total().Decimal().StringFixed(2),
		},
	})

	c.JSON(http.StatusOK, gin.H{"data": newInvoiceView(resp)})
}

func (s *Server) GetInvoice(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.invoiceSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newInvoiceDocumentView(resp)})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		pagination.Pagination
		FiscalYear string `form:"fiscal_year"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoiceRequest{
		PageToken:  query.PageToken,
		PageSize:   int32(query.PageSize),
		FiscalYear: strings.TrimSpace(query.FiscalYear),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	views := make([]invoiceView, 0, len(resp.Invoices))
	for _, r := range resp.Invoices {
		views = append(views, newInvoiceView(r))
	}

	c.JSON(http.StatusOK, gin.H{"data": invoiceListView{PageInfo: resp.PageInfo, Invoices: views}})
}

// RenderInvoice serves the issued invoice as a document. HTML is shown inline;
// PDF and Word documents are downloaded.
func (s *Server) RenderInvoice(format invoicedomain.Format) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.Param("id"))
		doc, err := s.invoiceSvc.Render(c.Request.Context(), id, format)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		s.recordAudit(c, auditdomain.Entry{
			Action:     auditdomain.ActionInvoiceDownload,
			TargetType: auditdomain.TargetBooking,
			TargetID:   id,
			Metadata: map[string]any{
				"format":   string(doc.Format),
				"filename": doc.Filename,
			},
		})

		disposition := "attachment"
		if doc.Format == invoicedomain.FormatHTML {
			disposition = "inline"
		}
		c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, doc.Filename))
		if doc.Cached {
			c.Header("X-Cache", "HIT")
		} else {
			c.Header("X-Cache", "MISS")
		}
		c.Data(http.StatusOK, doc.ContentType, doc.Body)
	}
}
