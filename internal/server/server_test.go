package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/hourstay/internal/audit/domain"
	auditrepository "github.com/smallbiznis/hourstay/internal/audit/repository"
	auditservice "github.com/smallbiznis/hourstay/internal/audit/service"
	"github.com/smallbiznis/hourstay/internal/authorization"
	bookingdomain "github.com/smallbiznis/hourstay/internal/booking/domain"
	bookingrepository "github.com/smallbiznis/hourstay/internal/booking/repository"
	bookingservice "github.com/smallbiznis/hourstay/internal/booking/service"
	"github.com/smallbiznis/hourstay/internal/cache"
	"github.com/smallbiznis/hourstay/internal/clock"
	"github.com/smallbiznis/hourstay/internal/config"
	invoicedomain "github.com/smallbiznis/hourstay/internal/invoice/domain"
	"github.com/smallbiznis/hourstay/internal/invoice/render"
	invoicerepository "github.com/smallbiznis/hourstay/internal/invoice/repository"
	invoiceservice "github.com/smallbiznis/hourstay/internal/invoice/service"
	"github.com/smallbiznis/hourstay/internal/observability"
	"github.com/smallbiznis/hourstay/internal/providers/pdf"
	"github.com/smallbiznis/hourstay/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestServer(t *testing.T, limiter *ratelimit.DocumentLimiter) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&bookingdomain.Booking{}, &invoicedomain.InvoiceRecord{}, &auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2024, 7, 12, 6, 0, 0, 0, time.UTC))
	bookings := bookingservice.New(bookingservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  bookingrepository.Provide(),
		Clock: clk,
	})

	if limiter == nil {
		limiter = ratelimit.NewLocalDocumentLimiter(0, 0, clk.Now)
	}

	invoices := invoiceservice.NewService(invoiceservice.ServiceParam{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     invoicerepository.Provide(),
		Bookings: bookings,
		Settings: config.NewStaticInvoiceSettingsHolder(config.DefaultInvoiceSettings()),
		Renderer: render.NewRenderer(),
		PDF:      pdf.New(),
		Config:   config.Config{DocumentCacheTTLSeconds: 900},
		Cache:    cache.NewMemoryDocumentCache(16),
		Limiter:  limiter,
		Clock:    clk,
	})

	audits := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepository.Provide(),
		Clock: clk,
	})

	enforcer, err := authorization.NewEnforcer(db)
	require.NoError(t, err)

	s := NewServer(ServerParams{
		Gin:        NewEngine(EngineParams{ObsCfg: observability.Config{}, Log: zap.NewNop()}),
		BookingSvc: bookings,
		InvoiceSvc: invoices,
		AuthzSvc:   authorization.NewService(authorization.Params{Log: zap.NewNop(), Enforcer: enforcer}),
		AuditSvc:   audits,
		Limiter:    limiter,
	})
	s.RegisterAPIRoutes()
	s.RegisterDocumentRoutes()
	return s
}

func doRequest(s *Server, method, path, role string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set(HeaderUserRole, role)
	}
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Data
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var payload errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error
}

func bookingBody(reference string) map[string]any {
	return map[string]any{
		"reference":         reference,
		"hotel_name":        "Lakeview Residency",
		"hotel_city":        "Pune",
		"stay_type":         "hourly",
		"slot_hours":        6,
		"check_in":          "2024-07-12T08:30:00Z",
		"check_out":         "2024-07-12T14:30:00Z",
		"guest_name":        "Asha Rao",
		"guest_email":       "asha@example.com",
		"amount_paid_minor": 100000,
	}
}

func createBooking(t *testing.T, s *Server, reference string) string {
	t.Helper()
	rec := doRequest(s, http.MethodPost, "/api/bookings", authorization.RoleHotelAdmin, bookingBody(reference))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeData(t, rec)["id"].(string)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPreviewBreakdown(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, http.MethodPost, "/api/invoice-breakdowns", "", map[string]any{"amount": 1000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := decodeData(t, rec)
	assert.Equal(t, "1000.00", data["amount"])
	assert.Equal(t, "One Thousand Rupees Only", data["amount_in_words"])
	bd := data["breakdown"].(map[string]any)
	assert.Equal(t, "1000.00", bd["final_amount"])
	assert.Len(t, data["lines"], 3)

	paise := doRequest(s, http.MethodPost, "/api/invoice-breakdowns", "", map[string]any{"amount": "150050"})
	require.Equal(t, http.StatusOK, paise.Code)
	assert.Equal(t, "1500.50", decodeData(t, paise)["amount"])

	bad := doRequest(s, http.MethodPost, "/api/invoice-breakdowns", "", map[string]any{"amount": "abc"})
	require.Equal(t, http.StatusOK, bad.Code)
	assert.Equal(t, "Zero Rupees Only", decodeData(t, bad)["amount_in_words"])
}

func TestAmountInWords(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, http.MethodGet, "/api/amount-in-words?amount=1500.5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, "1500.50", data["amount"])
	assert.Equal(t, "One Thousand Five Hundred Rupees and Fifty Paise Only", data["words"])
}

func TestHugeAmountsStillRender(t *testing.T) {
	s := newTestServer(t, nil)

	words := doRequest(s, http.MethodGet, "/api/amount-in-words?amount=1e21", "", nil)
	require.Equal(t, http.StatusOK, words.Code, words.Body.String())
	assert.Equal(t, "One Crore Crore Crore Rupees Only", decodeData(t, words)["words"])

	preview := doRequest(s, http.MethodPost, "/api/invoice-breakdowns", "", map[string]any{"amount": 1e30})
	require.Equal(t, http.StatusOK, preview.Code, preview.Body.String())
	assert.Contains(t, decodeData(t, preview)["amount_in_words"], "Rupees")
}

func TestBookingRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	guest := doRequest(s, http.MethodPost, "/api/bookings", "", bookingBody("HS-1"))
	assert.Equal(t, http.StatusForbidden, guest.Code)
	assert.Equal(t, "forbidden", decodeError(t, guest).Type)

	id := createBooking(t, s, "HS-1")

	dup := doRequest(s, http.MethodPost, "/api/bookings", authorization.RoleHotelAdmin, bookingBody("HS-1"))
	assert.Equal(t, http.StatusConflict, dup.Code)

	invalid := bookingBody("HS-2")
	invalid["guest_email"] = "not-an-email"
	rec := doRequest(s, http.MethodPost, "/api/bookings", authorization.RoleHotelAdmin, invalid)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errPayload := decodeError(t, rec)
	assert.Equal(t, "validation_error", errPayload.Type)
	require.Len(t, errPayload.Errors, 1)
	assert.Equal(t, "invalid_email", errPayload.Errors[0].Code)
	assert.Equal(t, "email", errPayload.Errors[0].Field)

	get := doRequest(s, http.MethodGet, "/api/bookings/"+id, authorization.RoleHotelAdmin, nil)
	require.Equal(t, http.StatusOK, get.Code)
	data := decodeData(t, get)
	assert.Equal(t, "HS-1", data["reference"])
	assert.Equal(t, "1000.00", data["amount_paid"])

	missing := doRequest(s, http.MethodGet, "/api/bookings/12345", authorization.RoleHotelAdmin, nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)

	list := doRequest(s, http.MethodGet, "/api/bookings?reference=HS-1", authorization.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Len(t, decodeData(t, list)["bookings"], 1)

	badDate := doRequest(s, http.MethodGet, "/api/bookings?created_from=yesterday", authorization.RoleAdmin, nil)
	assert.Equal(t, http.StatusBadRequest, badDate.Code)
}

func TestUnknownRoleIsForbidden(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, http.MethodGet, "/api/amount-in-words?amount=1", "intruder", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestInvoiceRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	id := createBooking(t, s, "HS-10")

	notIssued := doRequest(s, http.MethodGet, "/api/bookings/"+id+"/invoice", "", nil)
	assert.Equal(t, http.StatusNotFound, notIssued.Code)

	guestIssue := doRequest(s, http.MethodPost, "/api/bookings/"+id+"/invoice", "", nil)
	assert.Equal(t, http.StatusForbidden, guestIssue.Code)

	issued := doRequest(s, http.MethodPost, "/api/bookings/"+id+"/invoice", authorization.RoleHotelAdmin, nil)
	require.Equal(t, http.StatusOK, issued.Code, issued.Body.String())
	inv := decodeData(t, issued)
	assert.Equal(t, "HS/2024-25/00001", inv["number"])
	assert.Equal(t, "1000.00", inv["final_amount"])

	again := doRequest(s, http.MethodPost, "/api/bookings/"+id+"/invoice", authorization.RoleHotelAdmin, nil)
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, inv["id"], decodeData(t, again)["id"])

	doc := doRequest(s, http.MethodGet, "/api/bookings/"+id+"/invoice", "", nil)
	require.Equal(t, http.StatusOK, doc.Code)
	data := decodeData(t, doc)
	assert.Equal(t, "One Thousand Rupees Only", data["amount_in_words"])
	assert.Len(t, data["lines"], 3)

	hotelList := doRequest(s, http.MethodGet, "/api/invoices", authorization.RoleHotelAdmin, nil)
	assert.Equal(t, http.StatusForbidden, hotelList.Code)

	list := doRequest(s, http.MethodGet, "/api/invoices?fiscal_year=2024-25", authorization.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Len(t, decodeData(t, list)["invoices"], 1)
}

func TestInvoiceDocuments(t *testing.T) {
	s := newTestServer(t, nil)
	id := createBooking(t, s, "HS-20")

	notIssued := doRequest(s, http.MethodGet, "/api/bookings/"+id+"/invoice.html", "", nil)
	assert.Equal(t, http.StatusNotFound, notIssued.Code)

	issued := doRequest(s, http.MethodPost, "/api/bookings/"+id+"/invoice", authorization.RoleHotelAdmin, nil)
	require.Equal(t, http.StatusOK, issued.Code)

	html := doRequest(s, http.MethodGet, "/api/bookings/"+id+"/invoice.html", "", nil)
	require.Equal(t, http.StatusOK, html.Code)
	assert.Equal(t, "text/html; charset=utf-8", html.Header().Get("Content-Type"))
	assert.Contains(t, html.Header().Get("Content-Disposition"), "inline")
	assert.Equal(t, "MISS", html.Header().Get("X-Cache"))
	assert.Contains(t, html.Body.String(), "HS/2024-25/00001")

	cached := doRequest(s, http.MethodGet, "/api/bookings/"+id+"/invoice.html", "", nil)
	assert.Equal(t, "HIT", cached.Header().Get("X-Cache"))

	pdfDoc := doRequest(s, http.MethodGet, "/api/bookings/"+id+"/invoice.pdf", "", nil)
	require.Equal(t, http.StatusOK, pdfDoc.Code)
	assert.Equal(t, "application/pdf", pdfDoc.Header().Get("Content-Type"))
	assert.Contains(t, pdfDoc.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, bytes.HasPrefix(pdfDoc.Body.Bytes(), []byte("%PDF")))

	word := doRequest(s, http.MethodGet, "/api/bookings/"+id+"/invoice.doc", "", nil)
	require.Equal(t, http.StatusOK, word.Code)
	assert.Equal(t, "application/msword", word.Header().Get("Content-Type"))
	assert.Contains(t, word.Header().Get("Content-Disposition"), ".doc")
}

func TestDocumentRateLimit(t *testing.T) {
	limiter := ratelimit.NewLocalDocumentLimiter(0.001, 1, time.Now)
	s := newTestServer(t, limiter)
	id := createBooking(t, s, "HS-30")

	issued := doRequest(s, http.MethodPost, "/api/bookings/"+id+"/invoice", authorization.RoleHotelAdmin, nil)
	require.Equal(t, http.StatusOK, issued.Code)

	first := doRequest(s, http.MethodGet, "/api/bookings/"+id+"/invoice.html", "", nil)
	require.Equal(t, http.StatusOK, first.Code)

	second := doRequest(s, http.MethodGet, "/api/bookings/"+id+"/invoice.html", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limited", decodeError(t, second).Type)

	admin := doRequest(s, http.MethodGet, "/api/bookings/"+id+"/invoice.html", authorization.RoleAdmin, nil)
	assert.Equal(t, http.StatusOK, admin.Code)
}

func TestAuditLogRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	id := createBooking(t, s, "HS-40")

	issued := doRequest(s, http.MethodPost, "/api/bookings/"+id+"/invoice", authorization.RoleHotelAdmin, nil)
	require.Equal(t, http.StatusOK, issued.Code)

	html := doRequest(s, http.MethodGet, "/api/bookings/"+id+"/invoice.html", "", nil)
	require.Equal(t, http.StatusOK, html.Code)

	hotel := doRequest(s, http.MethodGet, "/api/audit-logs", authorization.RoleHotelAdmin, nil)
	assert.Equal(t, http.StatusForbidden, hotel.Code)

	all := doRequest(s, http.MethodGet, "/api/audit-logs", authorization.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, all.Code, all.Body.String())
	assert.Len(t, decodeData(t, all)["audit_logs"], 3)

	created := doRequest(s, http.MethodGet, "/api/audit-logs?action=booking.create", authorization.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, created.Code)
	logs := decodeData(t, created)["audit_logs"].([]any)
	require.Len(t, logs, 1)
	entry := logs[0].(map[string]any)
	assert.Equal(t, authorization.RoleHotelAdmin, entry["actor_role"])
	assert.Equal(t, id, entry["target_id"])
	assert.Equal(t, "a****@example.com", entry["metadata"].(map[string]any)["guest_email"])

	downloads := doRequest(s, http.MethodGet, "/api/audit-logs?action=invoice.download&actor_role=guest", authorization.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, downloads.Code)
	assert.Len(t, decodeData(t, downloads)["audit_logs"], 1)

	inverted := doRequest(s, http.MethodGet, "/api/audit-logs?start_at=2024-07-12&end_at=2024-07-01", authorization.RoleAdmin, nil)
	require.Equal(t, http.StatusBadRequest, inverted.Code)
	assert.Equal(t, "end_at", decodeError(t, inverted).Errors[0].Field)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{invoicedomain.ErrIssueInProgress, http.StatusConflict},
		{fmt.Errorf("%w: %w", invoicedomain.ErrNumberingUnavailable, errors.New("invoice_number_too_long")), http.StatusServiceUnavailable},
		{bookingdomain.ErrDuplicateReference, http.StatusConflict},
		{invoicedomain.ErrInvoiceNotIssued, http.StatusNotFound},
		{invoicedomain.ErrUnsupportedFormat, http.StatusBadRequest},
		{bookingdomain.ErrInvalidSlot, http.StatusBadRequest},
		{authorization.ErrForbidden, http.StatusForbidden},
		{ErrRateLimited, http.StatusTooManyRequests},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, _ := mapError(tt.err)
			assert.Equal(t, tt.status, status)
		})
	}
}
