package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/hourstay/internal/invoice/domain"
	"github.com/smallbiznis/hourstay/internal/money"
)

type previewBreakdownRequest struct {
	Amount any `json:"amount"`
}

// PreviewBreakdown itemises an arbitrary paid amount. Unparseable amounts
// produce an all-zero breakdown rather than an error.
func (s *Server) PreviewBreakdown(c *gin.Context) {
	var req previewBreakdownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	preview := s.invoiceSvc.Preview(c.Request.Context(), invoicedomain.PreviewRequest{
		Amount: req.Amount,
	})

	c.JSON(http.StatusOK, gin.H{"data": newPreviewView(preview)})
}

func (s *Server) AmountInWords(c *gin.Context) {
	amount := money.SafeNumber(c.Query("amount"))

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"amount": money.FormatAmount(amount),
		"words":  money.NumberToWords(amount),
	}})
}
