package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/hourstay/internal/audit/domain"
	bookingdomain "github.com/smallbiznis/hourstay/internal/booking/domain"
	"github.com/smallbiznis/hourstay/pkg/db/pagination"
)

func (s *Server) CreateBooking(c *gin.Context) {
	var req bookingdomain.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.bookingSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, auditdomain.Entry{
		Action:     auditdomain.ActionBookingCreate,
		TargetType: auditdomain.TargetBooking,
		TargetID:   resp.ID.String(),
		Metadata: map[string]any{
			"reference":   resp.Reference,
			"stay_type":   string(resp.StayType),
			"guest_email": resp.GuestEmail,
			"amount_paid": resp.Paid().Decimal().StringFixed(2),
		},
	})

	c.JSON(http.StatusCreated, gin.H{"data": newBookingView(resp)})
}

func (s *Server) ListBookings(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Reference   string `form:"reference"`
		GuestEmail  string `form:"guest_email"`
		StayType    string `form:"stay_type"`
		CreatedFrom string `form:"created_from"`
		CreatedTo   string `form:"created_to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	createdFrom, err := parseOptionalTime(query.CreatedFrom, false)
	if err != nil {
		AbortWithError(c, newValidationError("created_from", "invalid_created_from", "invalid created_from"))
		return
	}

	createdTo, err := parseOptionalTime(query.CreatedTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("created_to", "invalid_created_to", "invalid created_to"))
		return
	}

	resp, err := s.bookingSvc.List(c.Request.Context(), bookingdomain.ListBookingRequest{
		PageToken:   query.PageToken,
		PageSize:    int32(query.PageSize),
		Reference:   strings.TrimSpace(query.Reference),
		GuestEmail:  strings.TrimSpace(query.GuestEmail),
		StayType:    strings.TrimSpace(query.StayType),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	views := make([]bookingView, 0, len(resp.Bookings))
	for _, b := range resp.Bookings {
		views = append(views, newBookingView(b))
	}

	c.JSON(http.StatusOK, gin.H{"data": bookingListView{PageInfo: resp.PageInfo, Bookings: views}})
}

func (s *Server) GetBookingByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.bookingSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newBookingView(resp)})
}

func isBookingValidationError(err error) bool {
	switch err {
	case bookingdomain.ErrInvalidReference,
		bookingdomain.ErrInvalidHotel,
		bookingdomain.ErrInvalidStayType,
		bookingdomain.ErrInvalidSlot,
		bookingdomain.ErrInvalidStayWindow,
		bookingdomain.ErrInvalidGuestName,
		bookingdomain.ErrInvalidEmail,
		bookingdomain.ErrInvalidAmount,
		bookingdomain.ErrInvalidCurrency,
		bookingdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
