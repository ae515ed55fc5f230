package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/hourstay/pkg/db/pagination"
)

// CreateBookingRequest records a paid booking. AmountPaidMinor takes
// precedence; AmountPaid accepts loosely typed legacy payloads where values
// above 1000 are assumed to be paise.
type CreateBookingRequest struct {
	Reference        string         `json:"reference"`
	HotelName        string         `json:"hotel_name"`
	HotelCity        string         `json:"hotel_city"`
	RoomType         string         `json:"room_type"`
	StayType         string         `json:"stay_type"`
	SlotHours        int            `json:"slot_hours"`
	CheckIn          time.Time      `json:"check_in"`
	CheckOut         time.Time      `json:"check_out"`
	GuestName        string         `json:"guest_name"`
	GuestEmail       string         `json:"guest_email"`
	GuestPhone       string         `json:"guest_phone"`
	AmountPaidMinor  *int64         `json:"amount_paid_minor"`
	AmountPaid       any            `json:"amount_paid"`
	Currency         string         `json:"currency"`
	PaymentReference string         `json:"payment_reference"`
	PaidAt           *time.Time     `json:"paid_at"`
	Metadata         map[string]any `json:"metadata"`
}

type ListBookingRequest struct {
	PageToken   string
	PageSize    int32
	Reference   string
	GuestEmail  string
	StayType    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListBookingFilter struct {
	Reference   string
	GuestEmail  string
	StayType    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListBookingResponse struct {
	pagination.PageInfo
	Bookings []Booking `json:"bookings"`
}

type Service interface {
	Create(context.Context, CreateBookingRequest) (Booking, error)
	List(context.Context, ListBookingRequest) (ListBookingResponse, error)
	GetByID(context.Context, string) (Booking, error)
	GetByReference(context.Context, string) (Booking, error)
}

var (
	ErrInvalidReference   = errors.New("invalid_reference")
	ErrInvalidHotel       = errors.New("invalid_hotel")
	ErrInvalidStayType    = errors.New("invalid_stay_type")
	ErrInvalidSlot        = errors.New("invalid_slot_hours")
	ErrInvalidStayWindow  = errors.New("invalid_stay_window")
	ErrInvalidGuestName   = errors.New("invalid_guest_name")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrInvalidCurrency    = errors.New("invalid_currency")
	ErrInvalidID          = errors.New("invalid_id")
	ErrNotFound           = errors.New("not_found")
	ErrDuplicateReference = errors.New("duplicate_reference")
)
