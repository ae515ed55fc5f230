package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/hourstay/pkg/db/pagination"
)

const (
	ActionBookingCreate   = "booking.create"
	ActionInvoiceIssue    = "invoice.issue"
	ActionInvoiceDownload = "invoice.download"
)

const (
	TargetBooking = "booking"
	TargetInvoice = "invoice"
)

// Entry describes what happened. The actor, request id and client address
// are taken from the request context.
type Entry struct {
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
}

type ListAuditLogRequest struct {
	PageToken  string
	PageSize   int32
	Action     string
	TargetType string
	TargetID   string
	ActorRole  string
	StartAt    *time.Time
	EndAt      *time.Time
}

type ListFilter struct {
	Action     string
	TargetType string
	TargetID   string
	ActorRole  string
	StartAt    *time.Time
	EndAt      *time.Time
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

type Service interface {
	Record(ctx context.Context, entry Entry) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

var (
	ErrInvalidTimeRange = errors.New("invalid_time_range")
	ErrInvalidAction    = errors.New("invalid_action")
)
