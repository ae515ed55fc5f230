package authorization

import (
	"context"
	"errors"
)

const (
	RoleGuest      = "guest"
	RoleHotelAdmin = "hotel_admin"
	RoleAdmin      = "admin"
	RoleSystem     = "system"
)

const (
	ObjectBooking   = "booking"
	ObjectInvoice   = "invoice"
	ObjectBreakdown = "breakdown"
	ObjectAudit     = "audit"
)

const (
	ActionBookingView   = "booking.view"
	ActionBookingCreate = "booking.create"

	ActionInvoiceView  = "invoice.view"
	ActionInvoiceIssue = "invoice.issue"
	ActionInvoiceList  = "invoice.list"

	ActionBreakdownPreview = "breakdown.preview"

	ActionAuditView = "audit.view"
)

// Service decides whether a caller role may perform an action on an object.
type Service interface {
	Authorize(ctx context.Context, role string, object string, action string) error
}

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidRole   = errors.New("invalid_role")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)

// KnownRole reports whether role is one of the seeded roles.
func KnownRole(role string) bool {
	switch role {
	case RoleGuest, RoleHotelAdmin, RoleAdmin, RoleSystem:
		return true
	default:
		return false
	}
}
